package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Reader provides read access to a finished EPUB container.
type Reader struct {
	zr      *zip.Reader
	closer  io.Closer
	files   map[string]*zip.File
	order   []string
	opfPath string
}

type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// Open opens an EPUB file and validates its container structure.
func Open(name string) (*Reader, error) {
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}
	r, err := newReader(&zrc.Reader, zrc)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return r, nil
}

// NewReader validates an EPUB container held in memory or any other random
// access source.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}
	return newReader(zr, nil)
}

func newReader(zr *zip.Reader, closer io.Closer) (*Reader, error) {
	r := &Reader{
		zr:     zr,
		closer: closer,
		files:  make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		r.files[name] = f
		r.order = append(r.order, name)
	}
	if err := r.validateMimetype(); err != nil {
		return nil, err
	}
	if err := r.parseContainer(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// OPFPath returns the archive path of the package document.
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Entries returns entry names in archive order.
func (r *Reader) Entries() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether the archive contains the named entry.
func (r *Reader) Has(name string) bool {
	_, ok := r.files[normalizePath(name)]
	return ok
}

// ReadFile reads the contents of an archive entry.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	name = normalizePath(name)
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Package reads and parses the package document.
func (r *Reader) Package() (*OPF, error) {
	data, err := r.ReadFile(r.opfPath)
	if err != nil {
		return nil, err
	}
	return ParseOPF(data, path.Dir(r.opfPath))
}

// Navigation reads and parses the NCX document referenced by opf.
func (r *Reader) Navigation(opf *OPF) (*NCX, error) {
	if opf.NCXPath == "" {
		return nil, fmt.Errorf("%w: package has no NCX reference", ErrFileNotFound)
	}
	data, err := r.ReadFile(opf.NCXPath)
	if err != nil {
		return nil, err
	}
	return ParseNCX(data)
}

func (r *Reader) validateMimetype() error {
	f, ok := r.files[MimetypeName]
	if !ok {
		return ErrMimetypeNotFound
	}
	if len(r.order) == 0 || r.order[0] != MimetypeName {
		return ErrMimetypeNotFirst
	}
	if f.Method != zip.Store {
		return ErrMimetypeCompressed
	}

	content, err := r.ReadFile(MimetypeName)
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}
	if string(content) != MimetypeContent {
		return ErrInvalidMimetype
	}
	return nil
}

func (r *Reader) parseContainer() error {
	content, err := r.ReadFile(ContainerPath)
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == packageMediaType || rf.MediaType == "" {
			r.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = normalizePath(c.Rootfiles.Rootfile[0].FullPath)
		return nil
	}
	return ErrOPFPathNotFound
}

func normalizePath(name string) string {
	return strings.TrimPrefix(name, "./")
}
