package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uidParam">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:language>en</dc:language>
    <dc:identifier id="uidParam">book-1</dc:identifier>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
  </spine>
</package>`

type zipEntry struct {
	name   string
	method uint16
	body   string
}

// buildZip writes entries with the plain zip writer so tests can produce
// archives the package itself would refuse to write.
func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.body)); err != nil {
			t.Fatalf("failed to write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func validEntries() []zipEntry {
	return []zipEntry{
		{name: "mimetype", method: zip.Store, body: "application/epub+zip"},
		{name: "META-INF/container.xml", method: zip.Deflate, body: testContainerXML},
		{name: "OEBPS/content.opf", method: zip.Deflate, body: testOPF},
		{name: "OEBPS/chapter1.xhtml", method: zip.Deflate, body: `<html><head><title>Chapter 1</title></head><body><p>Hello</p></body></html>`},
	}
}

func openBytes(t *testing.T, data []byte) (*Reader, error) {
	t.Helper()
	return NewReader(bytes.NewReader(data), int64(len(data)))
}

func TestOpen(t *testing.T) {
	epubPath := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(epubPath, buildZip(t, validEntries()...), 0o644); err != nil {
		t.Fatalf("failed to write test epub: %v", err)
	}

	reader, err := Open(epubPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	if reader.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath() = %q, want %q", reader.OPFPath(), "OEBPS/content.opf")
	}
}

func TestOpen_FileNotFound(t *testing.T) {
	if _, err := Open("/nonexistent/file.epub"); err == nil {
		t.Fatal("Open() should fail for nonexistent file")
	}
}

func TestNewReader_ContainerErrors(t *testing.T) {
	mimetype := zipEntry{name: "mimetype", method: zip.Store, body: "application/epub+zip"}
	container := zipEntry{name: "META-INF/container.xml", method: zip.Deflate, body: testContainerXML}

	tests := []struct {
		name    string
		entries []zipEntry
		want    error
	}{
		{
			name:    "missing mimetype",
			entries: []zipEntry{container},
			want:    ErrMimetypeNotFound,
		},
		{
			name:    "mimetype not first",
			entries: []zipEntry{container, mimetype},
			want:    ErrMimetypeNotFirst,
		},
		{
			name:    "compressed mimetype",
			entries: []zipEntry{{name: "mimetype", method: zip.Deflate, body: "application/epub+zip"}, container},
			want:    ErrMimetypeCompressed,
		},
		{
			name:    "wrong mimetype",
			entries: []zipEntry{{name: "mimetype", method: zip.Store, body: "text/plain"}, container},
			want:    ErrInvalidMimetype,
		},
		{
			name:    "no container",
			entries: []zipEntry{mimetype},
			want:    ErrContainerNotFound,
		},
		{
			name: "no rootfile",
			entries: []zipEntry{mimetype, {name: "META-INF/container.xml", method: zip.Deflate,
				body: `<container><rootfiles></rootfiles></container>`}},
			want: ErrOPFPathNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openBytes(t, buildZip(t, tt.entries...))
			if !errors.Is(err, tt.want) {
				t.Errorf("NewReader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReader_ReadFile(t *testing.T) {
	reader, err := openBytes(t, buildZip(t, validEntries()...))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}

	content, err := reader.ReadFile("mimetype")
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(content) != "application/epub+zip" {
		t.Errorf("ReadFile() = %q, want %q", content, "application/epub+zip")
	}

	if _, err := reader.ReadFile("nonexistent.txt"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("ReadFile(nonexistent) error = %v, want ErrFileNotFound", err)
	}
}

func TestReader_Entries(t *testing.T) {
	reader, err := openBytes(t, buildZip(t, validEntries()...))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}

	want := []string{"mimetype", "META-INF/container.xml", "OEBPS/content.opf", "OEBPS/chapter1.xhtml"}
	got := reader.Entries()
	if len(got) != len(want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entries()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReader_Package(t *testing.T) {
	reader, err := openBytes(t, buildZip(t, validEntries()...))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}

	opf, err := reader.Package()
	if err != nil {
		t.Fatalf("Package() failed: %v", err)
	}
	if opf.Metadata.Title != "Test Book" {
		t.Errorf("Title = %q, want %q", opf.Metadata.Title, "Test Book")
	}
	if got := opf.Manifest["chapter1"].Href; got != "OEBPS/chapter1.xhtml" {
		t.Errorf("chapter1 href = %q, want %q", got, "OEBPS/chapter1.xhtml")
	}

	if _, err := reader.Navigation(opf); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Navigation() without toc error = %v, want ErrFileNotFound", err)
	}
}

func TestOpen_PathNormalization(t *testing.T) {
	entries := validEntries()
	entries[1].body = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="./OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

	reader, err := openBytes(t, buildZip(t, entries...))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	if reader.OPFPath() != "OEBPS/content.opf" {
		t.Errorf("OPFPath() = %q, want %q (path should be normalized)", reader.OPFPath(), "OEBPS/content.opf")
	}
}
