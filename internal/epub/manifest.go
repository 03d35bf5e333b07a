package epub

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	uniqueIDName = "uidParam"
	dateLayout   = "2006-01-02T15:04:05"
)

// Manifest accumulates manifest items and spine references in insertion
// order and assembles the package document.
type Manifest struct {
	items []ManifestItem
	ids   map[string]struct{}
	spine []SpineItem
}

// PackageInfo holds metadata written into the package document.
type PackageInfo struct {
	Title      string
	Authors    []string
	Language   string
	Identifier string
	Date       time.Time
	CoverID    string // manifest id of the cover image
	CoverHref  string
}

// NewManifest creates an empty manifest builder.
func NewManifest() *Manifest {
	return &Manifest{ids: make(map[string]struct{})}
}

// AddItem registers a manifest item. Ids are unique across the book.
func (m *Manifest) AddItem(item ManifestItem) error {
	if _, ok := m.ids[item.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
	}
	m.ids[item.ID] = struct{}{}
	m.items = append(m.items, item)
	return nil
}

// AddSpine appends a reading order reference to a registered item.
func (m *Manifest) AddSpine(idref string) error {
	if _, ok := m.ids[idref]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIDRef, idref)
	}
	m.spine = append(m.spine, SpineItem{IDRef: idref})
	return nil
}

// Items returns registered manifest items in insertion order.
func (m *Manifest) Items() []ManifestItem {
	out := make([]ManifestItem, len(m.items))
	copy(out, m.items)
	return out
}

// Spine returns spine references in insertion order.
func (m *Manifest) Spine() []SpineItem {
	out := make([]SpineItem, len(m.spine))
	copy(out, m.spine)
	return out
}

// Document builds the EPUB 2.0 package document.
func (m *Manifest) Document(info PackageInfo) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("unique-identifier", uniqueIDName)
	pkg.CreateAttr("version", "2.0")

	metadata := pkg.CreateElement("metadata")
	metadata.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	metadata.CreateAttr("xmlns:opf", "http://www.idpf.org/2007/opf")

	metadata.CreateElement("dc:title").SetText(info.Title)
	for _, author := range info.Authors {
		creator := metadata.CreateElement("dc:creator")
		creator.CreateAttr("opf:file-as", author)
		creator.CreateAttr("opf:role", "aut")
		creator.SetText(author)
	}
	metadata.CreateElement("dc:language").SetText(info.Language)

	id := metadata.CreateElement("dc:identifier")
	id.CreateAttr("id", uniqueIDName)
	id.SetText(info.Identifier)

	metadata.CreateElement("dc:date").SetText(info.Date.Format(dateLayout))
	metadata.CreateElement("dc:description").SetText(info.Title)

	if info.CoverID != "" {
		meta := metadata.CreateElement("meta")
		meta.CreateAttr("name", "cover")
		meta.CreateAttr("content", info.CoverID)
	}

	manifest := pkg.CreateElement("manifest")
	var ncxID string
	for _, it := range m.items {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", it.ID)
		item.CreateAttr("href", it.Href)
		item.CreateAttr("media-type", it.MediaType)
		if it.MediaType == ncxMediaType {
			ncxID = it.ID
		}
	}

	spine := pkg.CreateElement("spine")
	if ncxID != "" {
		spine.CreateAttr("toc", ncxID)
	}
	for _, ref := range m.spine {
		spine.CreateElement("itemref").CreateAttr("idref", ref.IDRef)
	}

	if info.CoverHref != "" {
		guide := pkg.CreateElement("guide")
		reference := guide.CreateElement("reference")
		reference.CreateAttr("type", "cover")
		reference.CreateAttr("title", "Cover")
		reference.CreateAttr("href", info.CoverHref)
	}

	doc.Indent(2)
	return doc
}

// NCXItem returns the manifest item describing the navigation document.
func NCXItem() ManifestItem {
	return ManifestItem{ID: "ncx", Href: NCXName, MediaType: ncxMediaType}
}

// MediaTypeByExt maps a stored image file name to its media type.
func MediaTypeByExt(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "gif":
		return "image/gif"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "bmp":
		return "image/bmp"
	case "png":
		return "image/png"
	}
	return "image/jpeg"
}
