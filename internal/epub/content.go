package epub

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content is a parsed XHTML chapter together with the resources it refers
// to, resolved to archive paths.
type Content struct {
	ID        string
	Path      string
	Title     string
	Document  *goquery.Document
	CSSLinks  []string
	ImageRefs []string
}

// LoadContent parses an XHTML content file stored at name inside the
// archive.
func LoadContent(id, name string, content []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	c := &Content{
		ID:        id,
		Path:      name,
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Document:  doc,
		CSSLinks:  []string{},
		ImageRefs: []string{},
	}

	baseDir := path.Dir(name)
	doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			c.CSSLinks = append(c.CSSLinks, resolvePath(baseDir, href))
		}
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			c.ImageRefs = append(c.ImageRefs, resolvePath(baseDir, src))
		}
	})

	return c, nil
}

// resolvePath resolves rel against baseDir, e.g. "OEBPS" + "images/a.png"
// gives "OEBPS/images/a.png".
func resolvePath(baseDir, rel string) string {
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	return path.Clean(path.Join(baseDir, rel))
}
