package converter

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	defaultCoverWidth   = 200
	defaultCoverHeight  = 320
	defaultCoverQuality = 90

	coverMargin     = 10
	coverTitleTop   = 50
	coverAuthorSize = 10
	coverTitleSize  = 14
	coverDPI        = 96
)

// CoverOptions controls the synthesized cover.
type CoverOptions struct {
	Width       int
	Height      int
	FontPath    string // TrueType/OpenType face, Go Mono when empty
	JPEGQuality int
}

type coverRenderer struct {
	width, height int
	quality       int
	font          *opentype.Font
}

func newCoverRenderer(opts CoverOptions) (*coverRenderer, error) {
	cr := &coverRenderer{
		width:   opts.Width,
		height:  opts.Height,
		quality: opts.JPEGQuality,
	}
	if cr.width <= 0 {
		cr.width = defaultCoverWidth
	}
	if cr.height <= 0 {
		cr.height = defaultCoverHeight
	}
	if cr.quality <= 0 || cr.quality > 100 {
		cr.quality = defaultCoverQuality
	}

	data := gomono.TTF
	if opts.FontPath != "" {
		var err error
		if data, err = os.ReadFile(opts.FontPath); err != nil {
			return nil, fmt.Errorf("unable to read cover font: %w", err)
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse cover font: %w", err)
	}
	cr.font = f
	return cr, nil
}

// render draws author and title in black on white and encodes the result as
// JPEG.
func (cr *coverRenderer) render(title, author string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, cr.width, cr.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	if err := cr.drawText(img, author, coverAuthorSize, coverMargin); err != nil {
		return nil, err
	}
	if err := cr.drawText(img, title, coverTitleSize, coverTitleTop); err != nil {
		return nil, err
	}
	return encodeJPEG(img, cr.quality)
}

// drawText renders text starting with its top edge at y, wrapping words to
// the cover width.
func (cr *coverRenderer) drawText(img draw.Image, text string, size float64, y int) error {
	face, err := opentype.NewFace(cr.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     coverDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("unable to create font face: %w", err)
	}
	defer face.Close()

	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	m := face.Metrics()
	dot := fixed.I(y) + m.Ascent
	for _, line := range wrapText(d, text, fixed.I(cr.width-2*coverMargin)) {
		d.Dot = fixed.Point26_6{X: fixed.I(coverMargin), Y: dot}
		d.DrawString(line)
		dot += m.Height
	}
	return nil
}

func wrapText(d *font.Drawer, text string, width fixed.Int26_6) []string {
	var (
		lines []string
		cur   string
	)
	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if cur != "" && d.MeasureString(candidate) > width {
			lines = append(lines, cur)
			candidate = word
		}
		cur = candidate
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
