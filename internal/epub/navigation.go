package epub

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

const ncxMediaType = "application/x-dtbncx+xml"

// Navigation accumulates navigation points in chapter insertion order.
type Navigation struct {
	points []NavPoint
}

// NewNavigation creates an empty navigation builder.
func NewNavigation() *Navigation {
	return &Navigation{}
}

// Add appends the navigation point for chapter seq. Chapters must be added
// in sequence starting at 1, which keeps playOrder equal to insertion order.
func (n *Navigation) Add(seq int, label, src string) (NavPoint, error) {
	if want := len(n.points) + 1; seq != want {
		return NavPoint{}, fmt.Errorf("navigation point %d added out of order, expected %d", seq, want)
	}
	np := NavPoint{
		ID:        fmt.Sprintf("NavPoint-%d", seq),
		PlayOrder: seq,
		Label:     label,
		Src:       src,
	}
	n.points = append(n.points, np)
	return np, nil
}

// Points returns accumulated navigation points.
func (n *Navigation) Points() []NavPoint {
	out := make([]NavPoint, len(n.points))
	copy(out, n.points)
	return out
}

// Document builds the NCX document for the accumulated points.
func (n *Navigation) Document(uid, title string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("xmlns", "http://www.daisy.org/z3986/2005/ncx/")
	ncx.CreateAttr("version", "2005-1")

	head := ncx.CreateElement("head")
	for _, m := range [...][2]string{
		{"dtb:uid", uid},
		{"dtb:depth", "1"},
		{"dtb:totalPageCount", "0"},
		{"dtb:maxPageNumber", "0"},
	} {
		meta := head.CreateElement("meta")
		meta.CreateAttr("name", m[0])
		meta.CreateAttr("content", m[1])
	}

	ncx.CreateElement("docTitle").CreateElement("text").SetText(title)

	navMap := ncx.CreateElement("navMap")
	for _, np := range n.points {
		navPoint := navMap.CreateElement("navPoint")
		navPoint.CreateAttr("id", np.ID)
		navPoint.CreateAttr("playOrder", strconv.Itoa(np.PlayOrder))
		navPoint.CreateElement("navLabel").CreateElement("text").SetText(np.Label)
		navPoint.CreateElement("content").CreateAttr("src", np.Src)
	}

	doc.Indent(2)
	return doc
}
