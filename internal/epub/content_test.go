package epub

import (
	"testing"
)

func TestLoadContent(t *testing.T) {
	xhtml := `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title> Chapter One </title>
  <link rel="stylesheet" type="text/css" href="stylesheet.css"/>
</head>
<body>
  <p><img src="images/a.png" alt=""/></p>
  <p><img src="../shared/b.jpg?v=2" alt=""/></p>
  <p><img alt="no source"/></p>
</body>
</html>`

	c, err := LoadContent("id1", "OEBPS/one.xhtml", []byte(xhtml))
	if err != nil {
		t.Fatalf("LoadContent failed: %v", err)
	}

	if c.ID != "id1" || c.Path != "OEBPS/one.xhtml" {
		t.Errorf("ID/Path = %q/%q", c.ID, c.Path)
	}
	if c.Title != "Chapter One" {
		t.Errorf("Title = %q, want %q", c.Title, "Chapter One")
	}
	if len(c.CSSLinks) != 1 || c.CSSLinks[0] != "OEBPS/stylesheet.css" {
		t.Errorf("CSSLinks = %v", c.CSSLinks)
	}

	want := []string{"OEBPS/images/a.png", "shared/b.jpg"}
	if len(c.ImageRefs) != len(want) {
		t.Fatalf("ImageRefs = %v, want %v", c.ImageRefs, want)
	}
	for i := range want {
		if c.ImageRefs[i] != want[i] {
			t.Errorf("ImageRefs[%d] = %q, want %q", i, c.ImageRefs[i], want[i])
		}
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"OEBPS", "images/a.jpg", "OEBPS/images/a.jpg"},
		{"OEBPS/text", "../images/a.jpg", "OEBPS/images/a.jpg"},
		{"OEBPS", "./one.xhtml#frag", "OEBPS/one.xhtml"},
		{".", "cover.jpg", "cover.jpg"},
	}
	for _, tt := range tests {
		if got := resolvePath(tt.base, tt.rel); got != tt.want {
			t.Errorf("resolvePath(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}
