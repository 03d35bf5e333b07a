package converter

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"
)

// xhtml11Replacements maps HTML5 elements unknown to XHTML 1.1 onto block or
// inline elements that are. The original tag name is kept as a class.
var xhtml11Replacements = map[string]string{
	"article":    "div",
	"section":    "div",
	"aside":      "div",
	"nav":        "div",
	"header":     "div",
	"footer":     "div",
	"main":       "div",
	"figure":     "div",
	"figcaption": "p",
	"mark":       "span",
	"time":       "span",
}

// html5OnlyAttrs are dropped from every element.
var html5OnlyAttrs = map[string]bool{
	"contenteditable": true,
	"draggable":       true,
	"hidden":          true,
	"spellcheck":      true,
	"translate":       true,
	"loading":         true,
	"srcset":          true,
	"sizes":           true,
}

// downgradeMarkup rewrites HTML5 elements and attributes into their XHTML 1.1
// counterparts so chapters validate against the declared doctype.
func downgradeMarkup(doc *goquery.Document) {
	tags := make([]string, 0, len(xhtml11Replacements))
	for tag := range xhtml11Replacements {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		replacement := xhtml11Replacements[tag]
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if class, _ := s.Attr("class"); class != "" {
				s.SetAttr("class", class+" "+tag)
			} else {
				s.SetAttr("class", tag)
			}
			node := s.Get(0)
			node.Data = replacement
			node.DataAtom = atom.Lookup([]byte(replacement))
		})
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			if html5OnlyAttrs[attr.Key] || strings.HasPrefix(attr.Key, "data-") || strings.HasPrefix(attr.Key, "aria-") {
				continue
			}
			kept = append(kept, attr)
		}
		node.Attr = kept
	})
}
