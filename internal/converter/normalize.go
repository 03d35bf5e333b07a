package converter

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/yuanying/html2epub/internal/epub"
)

const underlineStyle = "text-decoration:underline"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// chapter is a normalized chapter tree with its navigation label.
type chapter struct {
	doc   *goquery.Document
	title string
}

// lookupEncoding resolves an IANA encoding name. An empty name returns nil,
// meaning the encoding is detected per chapter.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil || e == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return e, nil
}

// decodeSource converts chapter text to UTF-8 and drops a leading BOM. A BOM
// overrides an explicit encoding. Without an explicit encoding valid UTF-8 is
// taken as is, otherwise <meta> charset is consulted.
func decodeSource(r io.Reader, enc encoding.Encoding) (io.Reader, error) {
	if enc != nil {
		return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read chapter: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return bytes.NewReader(data), nil
	}
	e, _, _ := charset.DetermineEncoding(data, "")
	return transform.NewReader(bytes.NewReader(data), e.NewDecoder()), nil
}

// normalizeChapter parses tolerant HTML and applies the tree level rewrites:
// bare <html> and <body>, anchors turned into underlined blocks, and a single
// stylesheet link in <head>.
func normalizeChapter(r io.Reader, seq int) (*chapter, error) {
	// without scripting <noscript> content is parsed as markup
	root, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("failed to parse chapter %d: %w", seq, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strconv.Itoa(seq)
	}

	top := doc.Find("html").First()
	if top.Length() == 0 {
		return nil, fmt.Errorf("failed to parse chapter %d: no html element", seq)
	}
	top.Get(0).Attr = nil
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		s.Get(0).Attr = nil
	})

	downgradeMarkup(doc)

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		node.Data = "div"
		node.DataAtom = atom.Div
		node.Attr = []html.Attribute{{Key: "style", Val: underlineStyle}}
	})

	doc.Find("link").Remove()
	head := top.ChildrenFiltered("head").First()
	if head.Length() == 0 {
		h := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
		top.Get(0).InsertBefore(h, top.Get(0).FirstChild)
		head = top.ChildrenFiltered("head").First()
	}
	head.Get(0).AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     "link",
		DataAtom: atom.Link,
		Attr: []html.Attribute{
			{Key: "rel", Val: "stylesheet"},
			{Key: "type", Val: "text/css"},
			{Key: "href", Val: epub.StylesheetName},
		},
	})

	return &chapter{doc: doc, title: title}, nil
}

// render serializes the <html> element as XML.
func (c *chapter) render() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xhtmlDocumentTree(c.doc.Find("html").Get(0)).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize chapter: %w", err)
	}
	return buf.Bytes(), nil
}
