package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/beevik/etree"
)

// Archive is an append-only EPUB container. Entries are written once, in
// call order, and never revisited.
type Archive struct {
	zw       *zip.Writer
	entries  []string
	seen     map[string]struct{}
	modified time.Time
	closed   bool
}

// NewArchive starts a new container on top of w. The caller keeps ownership
// of w; Close only finishes the zip directory.
func NewArchive(w io.Writer) *Archive {
	return &Archive{
		zw:       zip.NewWriter(w),
		seen:     make(map[string]struct{}),
		modified: time.Now(),
	}
}

// Entries returns entry names in the order they were written.
func (a *Archive) Entries() []string {
	out := make([]string, len(a.entries))
	copy(out, a.entries)
	return out
}

// Has reports whether an entry with the given name was already written.
func (a *Archive) Has(name string) bool {
	_, ok := a.seen[name]
	return ok
}

func (a *Archive) reserve(name string) error {
	if a.closed {
		return ErrArchiveClosed
	}
	if _, ok := a.seen[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, name)
	}
	a.seen[name] = struct{}{}
	a.entries = append(a.entries, name)
	return nil
}

// WriteStored writes an uncompressed entry with sizes and checksum known up
// front, so no data descriptor follows it. EPUB readers require this for the
// mimetype entry.
func (a *Archive) WriteStored(name string, data []byte) error {
	if err := a.reserve(name); err != nil {
		return err
	}
	fh := &zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
		Modified:           a.modified,
	}
	w, err := a.zw.CreateRaw(fh)
	if err != nil {
		return fmt.Errorf("unable to create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("unable to write entry %s: %w", name, err)
	}
	return nil
}

// Write writes a deflated entry.
func (a *Archive) Write(name string, data []byte) error {
	return a.WriteFrom(name, bytes.NewReader(data))
}

// WriteFrom copies r into a new deflated entry.
func (a *Archive) WriteFrom(name string, r io.Reader) error {
	if err := a.reserve(name); err != nil {
		return err
	}
	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.modified,
	})
	if err != nil {
		return fmt.Errorf("unable to create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("unable to write entry %s: %w", name, err)
	}
	return nil
}

// WriteXML serializes doc into a new entry.
func (a *Archive) WriteXML(name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("unable to serialize %s: %w", name, err)
	}
	return a.Write(name, buf.Bytes())
}

// Close writes the central directory. It is safe to call more than once.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.zw.Close()
}
