package markup

import (
	"errors"
	"fmt"

	"github.com/docspan/docspan/internal/document"
	"github.com/docspan/docspan/internal/fetch"
)

// ErrUnparsable is returned when no parse attempt yields a usable tree.
// Parse failure is an expected outcome, not a fault: callers check with
// errors.Is and decide whether to skip, retry elsewhere, or abort.
var ErrUnparsable = errors.New("markup: no usable tree under any parse flavor")

// ParseResource turns a fetched resource into a Document. The attempt
// chain: a natively supplied tree is wrapped directly; otherwise the
// payload is parsed with the resolved flavor (generic XML when
// undetermined), re-parsed after root-tag sniffing when the declared
// type gave no signal, and finally retried as HTML, the most lenient
// flavor, before giving up.
func ParseResource(res *fetch.Resource) (*document.Document, error) {
	if res.Tree != nil {
		if HasParserError(res.Tree) {
			return nil, fmt.Errorf("%w: supplied tree is an error sentinel", ErrUnparsable)
		}
		d, err := document.New(res.Tree, res.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		d.ContentType = res.ContentType
		return d, nil
	}

	data := res.Body
	if IsMarkdown(res.ContentType, res.URL) {
		if rendered, err := RenderMarkdown(data); err == nil {
			if d := tryFlavor(rendered, HTML, res.URL); d != nil {
				return d, nil
			}
		}
	}

	declared := flavorFromContentType(res.ContentType)
	flavor := declared
	if flavor == Unknown {
		flavor = flavorFromExtension(res.URL)
	}
	attempt := flavor
	if attempt == Unknown {
		attempt = XML
	}

	d := tryFlavor(data, attempt, res.URL)

	// The declared type gave no signal, so the flavor used above was a
	// guess; let the root tag correct it. An html root without a
	// namespace wants the lenient HTML parse with its implicit
	// semantics; an svg root wants to be reported as SVG.
	if d != nil && declared == Unknown {
		switch {
		case d.Root.Data == "html" && d.Root.NamespaceURI == "":
			if hd := tryFlavor(data, HTML, res.URL); hd != nil {
				d = hd
			}
		case d.Root.Data == "svg" && attempt != SVG:
			d.ContentType = SVG.MIME()
		}
	}

	if d == nil && attempt != HTML {
		d = tryFlavor(data, HTML, res.URL)
	}
	if d == nil {
		return nil, ErrUnparsable
	}
	return d, nil
}

// tryFlavor is one link of the attempt chain: parse failure or a tree
// without a root element discards the attempt.
func tryFlavor(data []byte, f Flavor, url string) *document.Document {
	tree, err := parseFlavor(data, f)
	if err != nil {
		return nil
	}
	d, err := document.New(tree, url)
	if err != nil {
		return nil
	}
	d.ContentType = f.MIME()
	return d
}
