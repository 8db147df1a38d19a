// Package markup turns raw payloads of uncertain markup flavor into
// parsed trees. It decides the parse flavor from declared metadata, URL
// extension, and content sniffing, and drives a layered chain of parse
// attempts ending in a lenient HTML fallback.
package markup

import (
	"net/url"
	"path"
	"strings"
)

// Flavor selects parser leniency and namespace defaults.
type Flavor int

const (
	Unknown Flavor = iota
	HTML
	XHTML
	SVG
	XML
)

const (
	mimeHTML    = "text/html"
	mimeXHTML   = "application/xhtml+xml"
	mimeSVG     = "image/svg+xml"
	mimeXML     = "application/xml"
	mimeTextXML = "text/xml"
)

func (f Flavor) String() string {
	switch f {
	case HTML:
		return "html"
	case XHTML:
		return "xhtml"
	case SVG:
		return "svg"
	case XML:
		return "xml"
	}
	return "unknown"
}

// MIME returns the canonical media type for the flavor.
func (f Flavor) MIME() string {
	switch f {
	case HTML:
		return mimeHTML
	case XHTML:
		return mimeXHTML
	case SVG:
		return mimeSVG
	case XML:
		return mimeXML
	}
	return ""
}

// ResolveFlavor decides the parse flavor for a payload: declared media
// type first, then the generic +xml suffix, then the URL extension.
func ResolveFlavor(contentType, rawURL string) Flavor {
	if f := flavorFromContentType(contentType); f != Unknown {
		return f
	}
	return flavorFromExtension(rawURL)
}

func flavorFromContentType(contentType string) Flavor {
	switch contentType {
	case mimeHTML:
		return HTML
	case mimeXHTML:
		return XHTML
	case mimeSVG:
		return SVG
	case mimeXML, mimeTextXML:
		return XML
	}
	if strings.HasSuffix(contentType, "+xml") {
		return XML
	}
	return Unknown
}

func flavorFromExtension(rawURL string) Flavor {
	switch strings.ToLower(path.Ext(urlPath(rawURL))) {
	case ".html", ".htm":
		return HTML
	case ".xhtml", ".xht":
		return XHTML
	case ".svg", ".svgz":
		return SVG
	case ".opf", ".xml":
		return XML
	}
	return Unknown
}

func urlPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return u.Path
	}
	return rawURL
}
