package converter

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/yuanying/html2epub/internal/epub"
)

const (
	defaultTitle  = "Untitled"
	unknownAuthor = "unknown"
	bookLanguage  = "ru"

	xhtmlMediaType = "application/xhtml+xml"
)

// BookOptions describes the book being assembled.
type BookOptions struct {
	Title      string
	Authors    []string
	Encoding   string // IANA name of chapter text encoding, detected when empty
	Stylesheet []byte // replaces the built-in stylesheet when not empty
	Images     ImageOptions
	Cover      CoverOptions
}

// Book assembles a single EPUB 2 container. Chapters are processed and
// written as they are added; navigation, package document, cover,
// stylesheet and placeholder are written once by Finalize.
type Book struct {
	log *zap.Logger

	title   string
	authors []string
	uid     string
	enc     encoding.Encoding

	out      io.WriteCloser
	archive  *epub.Archive
	manifest *epub.Manifest
	nav      *epub.Navigation
	images   *imageResolver
	cover    *coverRenderer
	css      []byte

	placeholderW int
	placeholderH int
	placeholderQ int

	seq         int
	names       map[string]bool
	finalized   bool
	finalizeErr error
	closed      bool
}

// NewBook starts a book on out and writes the fixed leading entries. Once
// NewBook succeeds the book owns out and closes it in Close; on error out is
// left to the caller.
func NewBook(out io.WriteCloser, opts BookOptions, log *zap.Logger) (*Book, error) {
	if log == nil {
		log = zap.NewNop()
	}

	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	css, err := PrepareStylesheet(opts.Stylesheet)
	if err != nil {
		return nil, err
	}
	cover, err := newCoverRenderer(opts.Cover)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = defaultTitle
	}
	var authors []string
	for _, a := range opts.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	b := &Book{
		log:          log.Named("book"),
		title:        title,
		authors:      authors,
		uid:          uuid.NewString(),
		enc:          enc,
		out:          out,
		archive:      epub.NewArchive(out),
		manifest:     epub.NewManifest(),
		nav:          epub.NewNavigation(),
		cover:        cover,
		css:          css,
		placeholderW: opts.Images.PlaceholderWidth,
		placeholderH: opts.Images.PlaceholderHeight,
		names:        make(map[string]bool),
	}
	b.images = newImageResolver(b.archive, opts.Images, log.Named("images"))
	b.placeholderQ = b.images.quality

	if err := epub.WriteMimetype(b.archive); err != nil {
		return nil, err
	}
	if err := epub.WriteContainer(b.archive); err != nil {
		return nil, err
	}

	b.log.Debug("Book started", zap.String("title", title), zap.Strings("authors", authors), zap.String("uid", b.uid))
	return b, nil
}

// Identifier returns the unique identifier written to the package and
// navigation documents.
func (b *Book) Identifier() string {
	return b.uid
}

// Title returns the effective book title.
func (b *Book) Title() string {
	return b.title
}

// AddChapter normalizes one HTML document, resolves its images through
// loader and writes it to the archive. suggestedName supplies the chapter
// file name; its directory and extension are ignored. Any error leaves the
// book unusable.
func (b *Book) AddChapter(r io.Reader, suggestedName string, loader ImageLoader) error {
	if b.closed {
		return ErrBookClosed
	}
	if b.finalized {
		return ErrBookFinalized
	}

	seq := b.seq + 1
	name := b.chapterFileName(suggestedName)

	src, err := decodeSource(r, b.enc)
	if err != nil {
		return err
	}
	ch, err := normalizeChapter(src, seq)
	if err != nil {
		return err
	}

	images, err := b.images.resolve(ch.doc, seq, loader)
	if err != nil {
		return err
	}

	body, err := ch.render()
	if err != nil {
		return err
	}
	if err := b.archive.Write(epub.ContentPath(name), xhtmlDocument(sanitizeMarkup(body))); err != nil {
		return fmt.Errorf("unable to write chapter %s: %w", name, err)
	}

	for _, item := range images {
		if err := b.manifest.AddItem(item); err != nil {
			return err
		}
	}
	id := fmt.Sprintf("id%d", seq)
	if err := b.manifest.AddItem(epub.ManifestItem{ID: id, Href: name, MediaType: xhtmlMediaType}); err != nil {
		return err
	}
	if err := b.manifest.AddSpine(id); err != nil {
		return err
	}
	if _, err := b.nav.Add(seq, ch.title, name); err != nil {
		return err
	}

	b.seq = seq
	b.log.Info("Chapter added", zap.Int("seq", seq), zap.String("file", name),
		zap.String("title", ch.title), zap.Int("images", len(images)))
	return nil
}

// chapterFileName derives a unique archive file name for a chapter. The
// name is used as href unescaped, so characters with a meaning in URIs are
// replaced.
func (b *Book) chapterFileName(suggested string) string {
	base := path.Base(strings.ReplaceAll(suggested, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = uuid.NewString()
	}
	base = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_.~()", r) {
			return r
		}
		return '_'
	}, base)

	name := base
	for n := 2; b.names[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	b.names[name] = true
	return name + ".xhtml"
}

// Finalize writes navigation document, package document, cover, stylesheet
// and placeholder, in that order. Calling it again does nothing and returns
// the result of the first call.
func (b *Book) Finalize() error {
	if b.closed {
		return ErrBookClosed
	}
	if !b.finalized {
		b.finalized = true
		b.finalizeErr = b.finalize()
	}
	return b.finalizeErr
}

func (b *Book) finalize() error {
	for _, item := range []epub.ManifestItem{
		epub.NCXItem(),
		{ID: "cover", Href: epub.CoverName, MediaType: "image/jpeg"},
		{ID: "stylesheet", Href: epub.StylesheetName, MediaType: "text/css"},
		{ID: "notfound", Href: epub.PlaceholderName, MediaType: "image/jpeg"},
	} {
		if err := b.manifest.AddItem(item); err != nil {
			return err
		}
	}

	if err := b.archive.WriteXML(epub.ContentPath(epub.NCXName), b.nav.Document(b.uid, b.title)); err != nil {
		return fmt.Errorf("unable to write navigation document: %w", err)
	}

	pkg := b.manifest.Document(epub.PackageInfo{
		Title:      b.title,
		Authors:    b.authors,
		Language:   bookLanguage,
		Identifier: b.uid,
		Date:       time.Now(),
		CoverID:    "cover",
		CoverHref:  epub.CoverName,
	})
	if err := b.archive.WriteXML(epub.ContentPath(epub.PackageName), pkg); err != nil {
		return fmt.Errorf("unable to write package document: %w", err)
	}

	author := unknownAuthor
	if len(b.authors) > 0 {
		author = b.authors[0]
	}
	cover, err := b.cover.render(b.title, author)
	if err != nil {
		return fmt.Errorf("unable to render cover: %w", err)
	}
	if err := b.archive.Write(epub.ContentPath(epub.CoverName), cover); err != nil {
		return fmt.Errorf("unable to write cover: %w", err)
	}

	if err := b.archive.Write(epub.ContentPath(epub.StylesheetName), b.css); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}

	placeholder, err := renderPlaceholder(b.placeholderW, b.placeholderH, b.placeholderQ)
	if err != nil {
		return err
	}
	if err := b.archive.Write(epub.ContentPath(epub.PlaceholderName), placeholder); err != nil {
		return fmt.Errorf("unable to write placeholder image: %w", err)
	}

	b.log.Debug("Book finalized", zap.Int("chapters", b.seq), zap.Strings("entries", b.archive.Entries()))
	return nil
}

// Close finalizes the book if needed, finishes the archive and closes the
// output. It is safe to call more than once.
func (b *Book) Close() error {
	if b.closed {
		return nil
	}
	err := b.Finalize()
	b.closed = true
	err = multierr.Append(err, b.archive.Close())
	err = multierr.Append(err, b.out.Close())
	return err
}
