package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	_ "golang.org/x/image/webp"

	"github.com/yuanying/html2epub/internal/epub"
)

const (
	defaultJPEGQuality   = 85
	defaultMaxImageBytes = 32 << 20
)

// ImageLoader supplies raw image bytes for a source reference found in a
// chapter. Implementations should wrap ErrImageNotFound when the source does
// not exist.
type ImageLoader interface {
	Load(src string) (io.ReadCloser, error)
}

// ImageLoaderFunc adapts a function to ImageLoader.
type ImageLoaderFunc func(src string) (io.ReadCloser, error)

func (f ImageLoaderFunc) Load(src string) (io.ReadCloser, error) { return f(src) }

// ImageOptions controls image transcoding.
type ImageOptions struct {
	JPEGQuality       int
	MaxBytes          int64
	PlaceholderWidth  int
	PlaceholderHeight int
}

// imageOutcome is the result of resolving one <img>: either a freshly stored
// manifest item or the shared placeholder, with the reason in err.
type imageOutcome struct {
	item        epub.ManifestItem
	placeholder bool
	err         error
}

func (o imageOutcome) href() string {
	if o.placeholder {
		return epub.PlaceholderName
	}
	return o.item.Href
}

type imageResolver struct {
	archive  *epub.Archive
	quality  int
	maxBytes int64
	log      *zap.Logger
}

func newImageResolver(a *epub.Archive, opts ImageOptions, log *zap.Logger) *imageResolver {
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &imageResolver{archive: a, quality: quality, maxBytes: maxBytes, log: log}
}

// resolve rewrites every <img> of a chapter in document order. k counts all
// images of the chapter, including those without src. Only archive write
// failures are returned; everything else ends up as the placeholder.
func (ir *imageResolver) resolve(doc *goquery.Document, seq int, loader ImageLoader) ([]epub.ManifestItem, error) {
	var (
		items []epub.ManifestItem
		err   error
	)
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		node := s.Get(0)
		src, ok := s.Attr("src")
		node.Attr = node.Attr[:0]

		outcome := imageOutcome{placeholder: true}
		if ok {
			outcome, err = ir.store(src, seq, i+1, loader)
			if err != nil {
				return false
			}
		}
		if outcome.placeholder && ok {
			ir.log.Warn("Image replaced with placeholder",
				zap.Int("chapter", seq), zap.String("src", src), zap.Error(outcome.err))
		}
		if !outcome.placeholder {
			items = append(items, outcome.item)
		}

		node.Attr = append(node.Attr,
			html.Attribute{Key: "src", Val: outcome.href()},
			html.Attribute{Key: "alt", Val: ""},
		)
		return true
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (ir *imageResolver) store(src string, seq, k int, loader ImageLoader) (imageOutcome, error) {
	data, err := ir.load(src, loader)
	if err != nil {
		return imageOutcome{placeholder: true, err: err}, nil
	}

	ext := sourceExt(src)
	if ext != ".jpg" && ext != ".jpeg" {
		if data, err = ir.transcode(data, ext); err != nil {
			return imageOutcome{placeholder: true, err: err}, nil
		}
		ext = ".jpg"
	}

	name := path.Join(epub.ImagesDir, uuid.NewString()+ext)
	if err := ir.archive.Write(epub.ContentPath(name), data); err != nil {
		return imageOutcome{}, fmt.Errorf("unable to store image %s: %w", src, err)
	}
	ir.log.Debug("Image stored", zap.String("src", src), zap.String("href", name), zap.Int("size", len(data)))

	return imageOutcome{item: epub.ManifestItem{
		ID:        fmt.Sprintf("imageId%d_%d", seq, k),
		Href:      name,
		MediaType: epub.MediaTypeByExt(name),
	}}, nil
}

func (ir *imageResolver) load(src string, loader ImageLoader) ([]byte, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: no loader for %s", ErrImageNotFound, src)
	}
	rc, err := loader.Load(src)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, fmt.Errorf("%w: loader returned no data for %s", ErrImageNotFound, src)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, ir.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read image %s: %w", src, err)
	}
	if int64(len(data)) > ir.maxBytes {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrImageTooLarge, src, ir.maxBytes)
	}
	return data, nil
}

// transcode decodes any supported raster format, or rasterizes SVG, and
// re-encodes it as JPEG, flattening transparency onto white.
func (ir *imageResolver) transcode(data []byte, ext string) ([]byte, error) {
	if ext == ".svg" {
		img, err := rasterizeSVG(data, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
		}
		return encodeJPEG(img, ir.quality)
	}
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: content is not an image", ErrImageDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}
	return encodeJPEG(flatten(img), ir.quality)
}

func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// sourceExt returns the lower-cased extension of an image reference, ignoring
// query and fragment.
func sourceExt(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return strings.ToLower(path.Ext(src))
}
