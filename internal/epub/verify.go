package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"

	"golang.org/x/net/html/charset"
)

// Report is the result of structural verification of a finished book.
type Report struct {
	Package    *OPF
	Navigation *NCX
	Cover      *CoverInfo
	Problems   []string
}

// Valid reports whether no problems were found.
func (rep *Report) Valid() bool {
	return len(rep.Problems) == 0
}

// Err returns ErrInvalidBook wrapping all problems, or nil.
func (rep *Report) Err() error {
	if rep.Valid() {
		return nil
	}
	errs := make([]error, 0, len(rep.Problems))
	for _, p := range rep.Problems {
		errs = append(errs, errors.New(p))
	}
	return fmt.Errorf("%w: %w", ErrInvalidBook, errors.Join(errs...))
}

func (rep *Report) addf(format string, args ...any) {
	rep.Problems = append(rep.Problems, fmt.Sprintf(format, args...))
}

// Verify checks the structure of an opened book: package document and
// navigation parse, every manifest href is present, spine and navigation
// references resolve, playOrder runs 1..N and spine documents are
// well-formed XML. Container level checks were
// already done by Open. A non-nil error is returned only when the package
// document itself cannot be read; everything else lands in the report.
func Verify(r *Reader) (*Report, error) {
	opf, err := r.Package()
	if err != nil {
		return nil, fmt.Errorf("unable to read package document: %w", err)
	}
	rep := &Report{Package: opf, Cover: opf.DetectCover()}

	for _, id := range opf.ManifestOrder {
		if item := opf.Manifest[id]; !r.Has(item.Href) {
			rep.addf("manifest item %q: %s missing from archive", id, item.Href)
		}
	}
	for _, ref := range opf.Spine {
		if _, ok := opf.Manifest[ref.IDRef]; !ok {
			rep.addf("spine idref %q not in manifest", ref.IDRef)
		}
	}
	if rep.Cover == nil {
		rep.addf("no cover image")
	}

	ncx, err := r.Navigation(opf)
	if err != nil {
		rep.addf("navigation: %v", err)
		return rep, nil
	}
	rep.Navigation = ncx

	if ncx.UID != opf.Metadata.Identifier {
		rep.addf("navigation uid %q differs from package identifier %q", ncx.UID, opf.Metadata.Identifier)
	}
	ncxDir := path.Dir(opf.NCXPath)
	for i, np := range ncx.NavPoints {
		if np.PlayOrder != i+1 {
			rep.addf("navPoint %q has playOrder %d, expected %d", np.ID, np.PlayOrder, i+1)
		}
		if target := resolvePath(ncxDir, np.Src); !r.Has(target) {
			rep.addf("navPoint %q points at missing %s", np.ID, target)
		}
	}

	for _, ref := range opf.Spine {
		item, ok := opf.Manifest[ref.IDRef]
		if !ok {
			continue
		}
		data, err := r.ReadFile(item.Href)
		if err != nil {
			continue
		}
		if err := CheckWellFormed(data); err != nil {
			rep.addf("chapter %q: not well-formed XML: %v", item.ID, err)
		}
		content, err := LoadContent(item.ID, item.Href, data)
		if err != nil {
			rep.addf("chapter %q: %v", item.ID, err)
			continue
		}
		for _, img := range content.ImageRefs {
			if !r.Has(img) {
				rep.addf("chapter %q references missing image %s", item.ID, img)
			}
		}
	}

	return rep, nil
}

// CheckWellFormed runs a strict XML decoder over a content document.
func CheckWellFormed(data []byte) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	d.CharsetReader = charset.NewReaderLabel
	for {
		if _, err := d.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
