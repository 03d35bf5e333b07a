package converter

import (
	"bytes"
	"regexp"

	"golang.org/x/net/html"
)

const xhtmlHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
`

var (
	scriptElementRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTagRe     = regexp.MustCompile(`(?is)</?script\b[^>]*>`)
	metaTagRe       = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
	commentCDATARe  = regexp.MustCompile(`(?s)<!--\[CDATA\[(.*?)\]\]-->`)
	cdataRe         = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	commentRe       = regexp.MustCompile(`(?s)<!--.*?-->`)
	cdataMarkerRe   = regexp.MustCompile(`<!\[CDATA\[|\]\]>`)
	bareHTMLTagRe   = regexp.MustCompile(`(?i)<html>`)
)

// sanitizeMarkup is the textual pass over a serialized chapter. It works on
// raw text and knows nothing about structure, so text that merely looks like
// a script, meta, comment or CDATA token is removed as well.
func sanitizeMarkup(data []byte) []byte {
	data = scriptElementRe.ReplaceAll(data, nil)
	data = scriptTagRe.ReplaceAll(data, nil)

	// CDATA sections keep their text. The HTML parser turns them into
	// comments outside of foreign content.
	unwrap := func(re *regexp.Regexp) func([]byte) []byte {
		return func(m []byte) []byte {
			inner := re.FindSubmatch(m)[1]
			return []byte(html.EscapeString(string(inner)))
		}
	}
	data = commentCDATARe.ReplaceAllFunc(data, unwrap(commentCDATARe))
	data = cdataRe.ReplaceAllFunc(data, unwrap(cdataRe))
	data = cdataMarkerRe.ReplaceAll(data, nil)

	data = commentRe.ReplaceAll(data, nil)
	data = metaTagRe.ReplaceAll(data, nil)
	data = bareHTMLTagRe.ReplaceAll(data, []byte(`<html xmlns="http://www.w3.org/1999/xhtml">`))
	return data
}

// xhtmlDocument prepends the XML declaration and doctype.
func xhtmlDocument(body []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(xhtmlHeader) + len(body))
	buf.WriteString(xhtmlHeader)
	buf.Write(body)
	return buf.Bytes()
}
