package epub

import "testing"

func newTestOPF(items ...ManifestItem) *OPF {
	opf := &OPF{Manifest: make(map[string]ManifestItem)}
	for _, it := range items {
		opf.Manifest[it.ID] = it
		opf.ManifestOrder = append(opf.ManifestOrder, it.ID)
	}
	return opf
}

func TestDetectCover(t *testing.T) {
	tests := []struct {
		name       string
		opf        *OPF
		wantHref   string
		wantMethod string
	}{
		{
			name: "meta",
			opf: func() *OPF {
				o := newTestOPF(
					ManifestItem{ID: "cover", Href: "OEBPS/cover.jpg", MediaType: "image/jpeg"},
					ManifestItem{ID: "img", Href: "OEBPS/images/a.png", MediaType: "image/png"},
				)
				o.Metadata.CoverID = "cover"
				return o
			}(),
			wantHref:   "OEBPS/cover.jpg",
			wantMethod: "meta",
		},
		{
			name: "guide",
			opf: func() *OPF {
				o := newTestOPF(
					ManifestItem{ID: "first", Href: "OEBPS/first.jpg", MediaType: "image/jpeg"},
					ManifestItem{ID: "front", Href: "OEBPS/front.jpg", MediaType: "image/jpeg"},
				)
				o.Guide = []GuideReference{{Type: "cover", Href: "OEBPS/front.jpg#top"}}
				return o
			}(),
			wantHref:   "OEBPS/front.jpg",
			wantMethod: "guide",
		},
		{
			name: "filename",
			opf: newTestOPF(
				ManifestItem{ID: "svg", Href: "OEBPS/cover.svg", MediaType: "image/svg+xml"},
				ManifestItem{ID: "x", Href: "OEBPS/My-Cover.JPG", MediaType: "image/jpeg"},
			),
			wantHref:   "OEBPS/My-Cover.JPG",
			wantMethod: "filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opf.DetectCover()
			if got == nil {
				t.Fatal("DetectCover() = nil")
			}
			if got.Href != tt.wantHref || got.DetectionMethod != tt.wantMethod {
				t.Errorf("DetectCover() = %+v, want href %q method %q", got, tt.wantHref, tt.wantMethod)
			}
		})
	}
}

func TestDetectCover_None(t *testing.T) {
	opf := newTestOPF(ManifestItem{ID: "c1", Href: "OEBPS/one.xhtml", MediaType: "application/xhtml+xml"})
	opf.Metadata.CoverID = "missing"
	if got := opf.DetectCover(); got != nil {
		t.Errorf("DetectCover() = %+v, want nil", got)
	}
}
