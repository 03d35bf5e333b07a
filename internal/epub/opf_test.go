package epub

import (
	"testing"
)

func TestParseOPF_EPUB20(t *testing.T) {
	opfContent := `<?xml version="1.0" encoding="UTF-8"?>
<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Sample Book Title</dc:title>
    <dc:creator opf:role="aut" opf:file-as="Doe, John">John Doe</dc:creator>
    <dc:creator opf:role="edt">Jane Editor</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="other">urn:isbn:000</dc:identifier>
    <dc:identifier id="bookid">urn:isbn:1234567890</dc:identifier>
    <dc:date>2024-01-01</dc:date>
    <dc:description>This is a sample book description.</dc:description>
    <meta name="cover" content="cover-image"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover-image" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="chapter1" href="text/chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter2" href="text/chapter2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="chapter1"/>
    <itemref idref="chapter2"/>
  </spine>
  <guide>
    <reference type="cover" title="Cover" href="images/cover.jpg"/>
  </guide>
</package>`

	opf, err := ParseOPF([]byte(opfContent), "OEBPS")
	if err != nil {
		t.Fatalf("ParseOPF failed: %v", err)
	}

	md := opf.Metadata
	if md.Title != "Sample Book Title" {
		t.Errorf("Title = %q, want %q", md.Title, "Sample Book Title")
	}
	if md.Identifier != "urn:isbn:1234567890" {
		t.Errorf("Identifier = %q, want the unique-identifier one", md.Identifier)
	}
	if md.Language != "en" {
		t.Errorf("Language = %q, want %q", md.Language, "en")
	}
	if md.Date != "2024-01-01" {
		t.Errorf("Date = %q, want %q", md.Date, "2024-01-01")
	}
	if md.Description != "This is a sample book description." {
		t.Errorf("Description = %q", md.Description)
	}
	if md.CoverID != "cover-image" {
		t.Errorf("CoverID = %q, want %q", md.CoverID, "cover-image")
	}

	if len(md.Creators) != 2 {
		t.Fatalf("Creators count = %d, want 2", len(md.Creators))
	}
	if c := md.Creators[0]; c.Name != "John Doe" || c.Role != "aut" || c.FileAs != "Doe, John" {
		t.Errorf("Creators[0] = %+v", c)
	}
	if c := md.Creators[1]; c.Name != "Jane Editor" || c.Role != "edt" {
		t.Errorf("Creators[1] = %+v", c)
	}

	wantOrder := []string{"ncx", "cover-image", "chapter1", "chapter2"}
	if len(opf.ManifestOrder) != len(wantOrder) {
		t.Fatalf("ManifestOrder = %v, want %v", opf.ManifestOrder, wantOrder)
	}
	for i, id := range wantOrder {
		if opf.ManifestOrder[i] != id {
			t.Errorf("ManifestOrder[%d] = %q, want %q", i, opf.ManifestOrder[i], id)
		}
	}
	if got := opf.Manifest["chapter1"].Href; got != "OEBPS/text/chapter1.xhtml" {
		t.Errorf("chapter1 href = %q, want %q", got, "OEBPS/text/chapter1.xhtml")
	}

	if len(opf.Spine) != 2 || opf.Spine[0].IDRef != "chapter1" || opf.Spine[1].IDRef != "chapter2" {
		t.Errorf("Spine = %+v", opf.Spine)
	}
	if opf.NCXPath != "OEBPS/toc.ncx" {
		t.Errorf("NCXPath = %q, want %q", opf.NCXPath, "OEBPS/toc.ncx")
	}

	if len(opf.Guide) != 1 {
		t.Fatalf("Guide count = %d, want 1", len(opf.Guide))
	}
	if g := opf.Guide[0]; g.Type != "cover" || g.Href != "OEBPS/images/cover.jpg" {
		t.Errorf("Guide[0] = %+v", g)
	}
}

func TestParseOPF_FallbackIdentifier(t *testing.T) {
	opfContent := `<package version="2.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="missing">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier>first</dc:identifier>
  </metadata>
  <manifest/>
  <spine/>
</package>`

	opf, err := ParseOPF([]byte(opfContent), "")
	if err != nil {
		t.Fatalf("ParseOPF failed: %v", err)
	}
	if opf.Metadata.Identifier != "first" {
		t.Errorf("Identifier = %q, want %q", opf.Metadata.Identifier, "first")
	}
	if opf.NCXPath != "" {
		t.Errorf("NCXPath = %q, want empty", opf.NCXPath)
	}
}

func TestParseOPF_InvalidXML(t *testing.T) {
	if _, err := ParseOPF([]byte("<package><metadata>"), "OEBPS"); err == nil {
		t.Error("ParseOPF should fail for malformed XML")
	}
}
