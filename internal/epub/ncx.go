package epub

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

type ncxDocument struct {
	XMLName xml.Name `xml:"ncx"`
	Head    struct {
		Meta []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"head"`
	DocTitle struct {
		Text string `xml:"text"`
	} `xml:"docTitle"`
	NavMap struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	ID        string `xml:"id,attr"`
	PlayOrder string `xml:"playOrder,attr"`
	Label     string `xml:"navLabel>text"`
	Content   struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
}

// ParseNCX parses a flat NCX navigation document.
func ParseNCX(content []byte) (*NCX, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX XML: %w", err)
	}

	ncx := &NCX{DocTitle: strings.TrimSpace(doc.DocTitle.Text)}
	for _, m := range doc.Head.Meta {
		switch m.Name {
		case "dtb:uid":
			ncx.UID = m.Content
		case "dtb:depth":
			ncx.Depth, _ = strconv.Atoi(m.Content)
		}
	}

	for _, np := range doc.NavMap.NavPoints {
		order, err := strconv.Atoi(np.PlayOrder)
		if err != nil {
			return nil, fmt.Errorf("navPoint %q has invalid playOrder %q", np.ID, np.PlayOrder)
		}
		ncx.NavPoints = append(ncx.NavPoints, NavPoint{
			ID:        np.ID,
			PlayOrder: order,
			Label:     strings.TrimSpace(np.Label),
			Src:       np.Content.Src,
		})
	}
	return ncx, nil
}
