package converter

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed placeholders/not-found.svg
var notFoundSVG []byte

// maxRasterDim bounds rasterized placeholder size.
const maxRasterDim = 4096

// renderPlaceholder produces the shared "image not found" JPEG.
func renderPlaceholder(width, height, quality int) ([]byte, error) {
	img, err := rasterizeSVG(notFoundSVG, width, height)
	if err != nil {
		return nil, fmt.Errorf("unable to rasterize placeholder: %w", err)
	}
	return encodeJPEG(img, quality)
}

// rasterizeSVG renders svg on white, fitting it into a width x height box
// while keeping its aspect ratio. Zero dimensions use the viewBox size.
func rasterizeSVG(svgData []byte, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	intrW := max(int(math.Ceil(icon.ViewBox.W)), 1)
	intrH := max(int(math.Ceil(icon.ViewBox.H)), 1)

	w, h := intrW, intrH
	if width > 0 && height > 0 {
		scale := math.Min(float64(width)/float64(intrW), float64(height)/float64(intrH))
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	}
	w = min(max(w, 1), maxRasterDim)
	h = min(max(h, 1), maxRasterDim)

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
