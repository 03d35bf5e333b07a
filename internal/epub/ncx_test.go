package epub

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseNCX(t *testing.T) {
	ncxContent := `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:uuid:12345"/>
    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle><text>Sample Book</text></docTitle>
  <navMap>
    <navPoint id="NavPoint-1" playOrder="1">
      <navLabel><text>Chapter 1</text></navLabel>
      <content src="one.xhtml"/>
    </navPoint>
    <navPoint id="NavPoint-2" playOrder="2">
      <navLabel><text> Chapter 2 </text></navLabel>
      <content src="two.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

	ncx, err := ParseNCX([]byte(ncxContent))
	if err != nil {
		t.Fatalf("ParseNCX failed: %v", err)
	}

	if ncx.UID != "urn:uuid:12345" {
		t.Errorf("UID = %q, want %q", ncx.UID, "urn:uuid:12345")
	}
	if ncx.Depth != 1 {
		t.Errorf("Depth = %d, want 1", ncx.Depth)
	}
	if ncx.DocTitle != "Sample Book" {
		t.Errorf("DocTitle = %q, want %q", ncx.DocTitle, "Sample Book")
	}
	if len(ncx.NavPoints) != 2 {
		t.Fatalf("NavPoints count = %d, want 2", len(ncx.NavPoints))
	}

	want := []NavPoint{
		{ID: "NavPoint-1", PlayOrder: 1, Label: "Chapter 1", Src: "one.xhtml"},
		{ID: "NavPoint-2", PlayOrder: 2, Label: "Chapter 2", Src: "two.xhtml"},
	}
	for i, w := range want {
		if ncx.NavPoints[i] != w {
			t.Errorf("NavPoints[%d] = %+v, want %+v", i, ncx.NavPoints[i], w)
		}
	}
}

func TestParseNCX_InvalidPlayOrder(t *testing.T) {
	ncxContent := `<ncx><navMap><navPoint id="a" playOrder="first"><content src="a.xhtml"/></navPoint></navMap></ncx>`
	if _, err := ParseNCX([]byte(ncxContent)); err == nil {
		t.Error("ParseNCX should fail for non-numeric playOrder")
	}
}

func TestNavigation_Add(t *testing.T) {
	nav := NewNavigation()

	np, err := nav.Add(1, "First", "first.xhtml")
	if err != nil {
		t.Fatalf("Add(1) failed: %v", err)
	}
	if np.ID != "NavPoint-1" || np.PlayOrder != 1 {
		t.Errorf("Add(1) = %+v", np)
	}

	if _, err := nav.Add(3, "Third", "third.xhtml"); err == nil {
		t.Error("Add(3) after 1 should fail")
	}
	if _, err := nav.Add(2, "Second", "second.xhtml"); err != nil {
		t.Fatalf("Add(2) failed: %v", err)
	}

	points := nav.Points()
	if len(points) != 2 {
		t.Fatalf("Points() count = %d, want 2", len(points))
	}
	points[0].Label = "changed"
	if nav.Points()[0].Label != "First" {
		t.Error("Points() should return a copy")
	}
}

func TestNavigation_DocumentRoundTrip(t *testing.T) {
	nav := NewNavigation()
	for i, label := range []string{"Один", "Two & Three"} {
		if _, err := nav.Add(i+1, label, "c"+string(rune('1'+i))+".xhtml"); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if _, err := nav.Document("uid-1", "My <Book>").WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("document should start with an XML declaration, got %q", out[:40])
	}
	if !strings.Contains(out, "Two &amp; Three") {
		t.Error("labels should be escaped")
	}

	ncx, err := ParseNCX(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseNCX failed: %v", err)
	}
	if ncx.UID != "uid-1" || ncx.DocTitle != "My <Book>" || ncx.Depth != 1 {
		t.Errorf("head = uid %q title %q depth %d", ncx.UID, ncx.DocTitle, ncx.Depth)
	}
	if len(ncx.NavPoints) != 2 {
		t.Fatalf("NavPoints count = %d, want 2", len(ncx.NavPoints))
	}
	if np := ncx.NavPoints[1]; np.ID != "NavPoint-2" || np.PlayOrder != 2 || np.Label != "Two & Three" || np.Src != "c2.xhtml" {
		t.Errorf("NavPoints[1] = %+v", np)
	}
}
