package markup

import "testing"

func TestResolveFlavor(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		want        Flavor
	}{
		{"declared html", "text/html", "doc.xml", HTML},
		{"declared xhtml", "application/xhtml+xml", "", XHTML},
		{"declared svg", "image/svg+xml", "", SVG},
		{"declared xml", "application/xml", "", XML},
		{"declared text xml", "text/xml", "", XML},
		{"generic plus-xml suffix", "application/foo+xml", "", XML},
		{"svg by extension", "", "http://example.com/img.svg", SVG},
		{"svgz by extension", "", "img.svgz", SVG},
		{"xhtml by extension", "", "page.xhtml", XHTML},
		{"xht by extension", "", "page.xht", XHTML},
		{"html by extension", "", "index.html", HTML},
		{"htm by extension", "", "index.htm", HTML},
		{"opf by extension", "", "book.opf", XML},
		{"xml by extension", "", "doc.xml", XML},
		{"extension with query string", "", "http://example.com/a.svg?v=2", SVG},
		{"uppercase extension", "", "PAGE.HTML", HTML},
		{"no signal at all", "", "payload", Unknown},
		{"unknown type, no extension", "application/octet-stream", "blob", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFlavor(tt.contentType, tt.url); got != tt.want {
				t.Errorf("ResolveFlavor(%q, %q) = %v, want %v", tt.contentType, tt.url, got, tt.want)
			}
		})
	}
}

func TestFlavorMIME(t *testing.T) {
	tests := []struct {
		flavor Flavor
		want   string
	}{
		{HTML, "text/html"},
		{XHTML, "application/xhtml+xml"},
		{SVG, "image/svg+xml"},
		{XML, "application/xml"},
		{Unknown, ""},
	}
	for _, tt := range tests {
		if got := tt.flavor.MIME(); got != tt.want {
			t.Errorf("%v.MIME() = %q, want %q", tt.flavor, got, tt.want)
		}
	}
}
