package converter

import (
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	xhtmlNS = "http://www.w3.org/1999/xhtml"
	svgNS   = "http://www.w3.org/2000/svg"
	mathNS  = "http://www.w3.org/1998/Math/MathML"
	xlinkNS = "http://www.w3.org/1999/xlink"
)

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Keygen: true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Param:  true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

// xhtmlDocumentTree rebuilds the html node as an XML tree. Raw text of
// <style> and friends becomes ordinary escaped text, attributes that are not
// XML names are dropped and elements with such names are unwrapped, keeping
// their content. Outside of comments '<' and '>' only ever start or end a
// tag in the written document.
func xhtmlDocumentTree(root *html.Node) *etree.Document {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true

	el := etree.NewElement(root.Data)
	copyAttrs(el, root)
	appendChildren(el, root)
	doc.SetRoot(el)
	return doc
}

func appendChildren(parent *etree.Element, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			parent.CreateText(c.Data)
		case html.CommentNode:
			parent.CreateComment(c.Data)
		case html.ElementNode:
			if !isXMLName(c.Data) {
				appendChildren(parent, c)
				continue
			}
			el := parent.CreateElement(c.Data)
			switch {
			case c.Namespace == "svg" && n.Namespace != "svg":
				el.CreateAttr("xmlns", svgNS)
				el.CreateAttr("xmlns:xlink", xlinkNS)
			case c.Namespace == "math" && n.Namespace != "math":
				el.CreateAttr("xmlns", mathNS)
			case c.Namespace == "" && n.Namespace != "":
				el.CreateAttr("xmlns", xhtmlNS)
			}
			copyAttrs(el, c)
			appendChildren(el, c)
			if len(el.Child) == 0 && c.Namespace == "" && !voidElements[c.DataAtom] {
				// keeps <p></p> instead of <p/>
				el.CreateText("")
			}
		}
	}
}

func copyAttrs(el *etree.Element, n *html.Node) {
	seen := make(map[string]bool, len(n.Attr))
	for _, a := range n.Attr {
		key := a.Key
		switch a.Namespace {
		case "":
			if key == "xml:lang" || key == "xml:space" {
				break
			}
			if !isXMLName(key) || key == "xmlns" {
				continue
			}
		case "xlink", "xml":
			if !isXMLName(key) {
				continue
			}
			key = a.Namespace + ":" + key
		default:
			// namespace declarations are made by appendChildren
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		el.CreateAttr(key, a.Val)
	}
}

// isXMLName reports whether s can be used as an element or attribute name
// without a namespace prefix.
func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.' || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)) {
			continue
		}
		return false
	}
	return true
}
