package converter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yuanying/html2epub/internal/config"
	"github.com/yuanying/html2epub/internal/epub"
)

// chapterPattern selects chapter files when a directory is given.
const chapterPattern = "*.htm*"

// ConvertOptions holds options for the conversion pipeline.
type ConvertOptions struct {
	Title    string
	Authors  []string
	Encoding string

	// Chapters lists chapter files in reading order. Directories contribute
	// their *.htm* files in natural order.
	Chapters []string

	// OutputPath is used as is when set, otherwise the book is written to
	// <title>.epub inside OutputDir.
	OutputPath    string
	OutputDir     string
	Transliterate bool

	// ImageRoot bounds local image references. When empty the common
	// parent of the working directory and all chapter directories is used.
	ImageRoot string

	Stylesheet []byte
	Images     ImageOptions
	Cover      CoverOptions

	// Verify reopens the finished archive and checks its structure.
	Verify bool
}

// Pipeline turns a list of HTML chapters into a single EPUB file.
type Pipeline struct {
	Options ConvertOptions
	log     *zap.Logger
}

// NewPipeline creates a new conversion pipeline.
func NewPipeline(opts ConvertOptions, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{Options: opts, log: log}
}

// Convert executes the conversion pipeline and returns the path of the
// produced book.
func (p *Pipeline) Convert() (string, error) {
	chapters, err := ExpandChapters(p.Options.Chapters)
	if err != nil {
		return "", err
	}
	if len(chapters) == 0 {
		return "", ErrNoChapters
	}

	out := p.outputPath()
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	book, err := NewBook(f, BookOptions{
		Title:      p.Options.Title,
		Authors:    p.Options.Authors,
		Encoding:   p.Options.Encoding,
		Stylesheet: p.Options.Stylesheet,
		Images:     p.Options.Images,
		Cover:      p.Options.Cover,
	}, p.log)
	if err != nil {
		return "", multierr.Append(err, f.Close())
	}

	root, err := imageRoot(p.Options.ImageRoot, chapters)
	if err != nil {
		return "", multierr.Append(err, book.Close())
	}
	p.log.Debug("Image root", zap.String("path", root))

	for _, name := range chapters {
		if err := p.addChapter(book, name, root); err != nil {
			return "", multierr.Append(err, book.Close())
		}
	}
	if err := book.Close(); err != nil {
		return "", err
	}
	p.log.Info("Book written", zap.String("path", out), zap.Int("chapters", len(chapters)))

	if p.Options.Verify {
		if err := VerifyFile(out); err != nil {
			return out, err
		}
		p.log.Debug("Book verified", zap.String("path", out))
	}
	return out, nil
}

func (p *Pipeline) addChapter(book *Book, name, root string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open chapter: %w", err)
	}
	defer f.Close()

	dir, err := filepath.Abs(filepath.Dir(name))
	if err != nil {
		return fmt.Errorf("failed to resolve chapter directory: %w", err)
	}
	loader, err := NewFileLoader(root, dir)
	if err != nil {
		p.log.Warn("Chapter is outside of image root, images are loaded from its directory only",
			zap.String("chapter", name), zap.String("root", root))
		if loader, err = NewFileLoader(dir, dir); err != nil {
			return err
		}
	}

	if err := book.AddChapter(f, filepath.Base(name), loader); err != nil {
		return fmt.Errorf("failed to add chapter %q: %w", name, err)
	}
	return nil
}

func (p *Pipeline) outputPath() string {
	if p.Options.OutputPath != "" {
		return p.Options.OutputPath
	}
	name := strings.TrimSpace(p.Options.Title)
	if name == "" {
		name = defaultTitle
	}
	if p.Options.Transliterate {
		name = slug.Make(name)
	}
	return filepath.Join(p.Options.OutputDir, config.CleanFileName(name)+".epub")
}

// ExpandChapters replaces every directory in names with its chapter files
// sorted in natural order. Files are kept in the order given.
func ExpandChapters(names []string) ([]string, error) {
	var res []string
	for _, name := range names {
		fi, err := os.Stat(name)
		if err != nil {
			return nil, fmt.Errorf("failed to access chapter source: %w", err)
		}
		if !fi.IsDir() {
			res = append(res, name)
			continue
		}

		entries, err := os.ReadDir(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter directory: %w", err)
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ok, _ := filepath.Match(chapterPattern, strings.ToLower(e.Name())); ok {
				files = append(files, e.Name())
			}
		}
		sort.Sort(natural.StringSlice(files))
		for _, file := range files {
			res = append(res, filepath.Join(name, file))
		}
	}
	return res, nil
}

// imageRoot returns the absolute directory image references are confined to.
func imageRoot(configured string, chapters []string) (string, error) {
	if configured != "" {
		return filepath.Abs(configured)
	}
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("unable to get working directory: %w", err)
	}
	for _, name := range chapters {
		dir, err := filepath.Abs(filepath.Dir(name))
		if err != nil {
			return "", fmt.Errorf("failed to resolve chapter directory: %w", err)
		}
		for !isWithin(root, dir) {
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	return root, nil
}

func isWithin(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && fs.ValidPath(filepath.ToSlash(rel))
}

// FileLoader loads images referenced from a chapter. References are
// resolved against the chapter directory and may not leave the root
// directory. Remote and data sources are never fetched.
type FileLoader struct {
	root fs.FS
	dir  string
}

// NewFileLoader returns a loader for chapters in dir, which must be inside
// root. Both paths are either absolute or relative to the same directory.
func NewFileLoader(root, dir string) (*FileLoader, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chapter directory: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if !fs.ValidPath(rel) {
		return nil, fmt.Errorf("chapter directory %s is outside of %s", dir, root)
	}
	return &FileLoader{root: os.DirFS(root), dir: rel}, nil
}

func (l *FileLoader) Load(src string) (io.ReadCloser, error) {
	if strings.HasPrefix(src, "data:") || strings.Contains(src, "://") {
		return nil, fmt.Errorf("%w: %s is not a local file", ErrImageNotFound, src)
	}

	name := src
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = filepath.ToSlash(name)
	if path.IsAbs(name) {
		return nil, fmt.Errorf("%w: %s is an absolute path", ErrImageNotFound, src)
	}
	name = path.Join(l.dir, name)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s is outside of image root", ErrImageNotFound, src)
	}

	f, err := l.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, src)
		}
		return nil, err
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrImageNotFound, src)
	}
	return f, nil
}

// VerifyFile reopens a finished book and checks its structure.
func VerifyFile(name string) error {
	r, err := epub.Open(name)
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := epub.Verify(r)
	if err != nil {
		return err
	}
	return report.Err()
}
