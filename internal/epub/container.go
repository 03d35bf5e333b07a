package epub

import (
	"path"

	"github.com/beevik/etree"
)

// Fixed container layout.
const (
	MimetypeName    = "mimetype"
	MimetypeContent = "application/epub+zip"
	ContainerPath   = "META-INF/container.xml"
	ContentDir      = "OEBPS"
	PackageName     = "content.opf"
	NCXName         = "toc.ncx"
	CoverName       = "cover.jpg"
	StylesheetName  = "stylesheet.css"
	ImagesDir       = "images"
	PlaceholderName = "images/not-found.jpg"

	packageMediaType = "application/oebps-package+xml"
)

// ContentPath returns the archive entry name of a file living next to the
// package document.
func ContentPath(href string) string {
	return path.Join(ContentDir, href)
}

// WriteMimetype writes the mimetype marker. It must be the first entry.
func WriteMimetype(a *Archive) error {
	return a.WriteStored(MimetypeName, []byte(MimetypeContent))
}

// WriteContainer writes the container descriptor pointing at the package
// document.
func WriteContainer(a *Archive) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", "urn:oasis:names:tc:opendocument:xmlns:container")

	rootfiles := container.CreateElement("rootfiles")
	rootfile := rootfiles.CreateElement("rootfile")
	rootfile.CreateAttr("full-path", ContentPath(PackageName))
	rootfile.CreateAttr("media-type", packageMediaType)

	doc.Indent(2)
	return a.WriteXML(ContainerPath, doc)
}
