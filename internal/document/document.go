// Package document wraps one successfully parsed markup tree and
// answers positional queries against it: offset of a node, node at an
// offset, total document length, and element lookup by fragment
// identifier. All index state is built lazily and cached per Document.
package document

import (
	"fmt"
	"sync"

	"github.com/antchfx/xmlquery"

	"github.com/docspan/docspan/internal/query"
)

const (
	// XHTMLNamespace is the namespace of XHTML documents.
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"
	// XMLNamespace is the namespace bound to the reserved xml: prefix.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
	// SVGNamespace is the namespace of SVG documents.
	SVGNamespace = "http://www.w3.org/2000/svg"
)

// Document holds one parsed tree and its positional caches. The tree
// itself is never mutated; offsets live in a side table keyed by node
// identity so the same tree can safely back multiple holders.
type Document struct {
	URL         string
	ContentType string
	Root        *xmlquery.Node
	Head        *xmlquery.Node // set only for XHTML-namespace roots
	Body        *xmlquery.Node // set only for XHTML-namespace roots
	Language    string

	doc *xmlquery.Node // the document node owning Root

	mu          sync.Mutex
	lastVisited *xmlquery.Node
	lastOffset  int
	offsets     map[*xmlquery.Node]int
	total       int
	idIndex     map[string]*xmlquery.Node
}

// New wraps a parsed tree. doc may be a document node or a bare root
// element. It fails if the tree has no root element.
func New(doc *xmlquery.Node, url string) (*Document, error) {
	root := doc
	if doc.Type != xmlquery.ElementNode {
		root = firstElementChild(doc)
	}
	if root == nil {
		return nil, fmt.Errorf("document %s: no root element", url)
	}

	d := &Document{
		URL:         url,
		Root:        root,
		doc:         doc,
		lastVisited: root,
		lastOffset:  1,
		offsets:     map[*xmlquery.Node]int{root: 0},
		total:       -1,
	}

	if root.NamespaceURI == XHTMLNamespace {
		rl := query.New(root)
		d.Head = rl.ChildrenNamed("head").First()
		d.Body = rl.ChildrenNamed("body").First()
	}
	d.Language = langAttr(root)

	return d, nil
}

func langAttr(root *xmlquery.Node) string {
	var xmlLang string
	for _, a := range root.Attr {
		if a.Name.Local != "lang" {
			continue
		}
		if a.Name.Space == "" {
			return a.Value
		}
		xmlLang = a.Value
	}
	return xmlLang
}

func firstElementChild(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func elementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func isText(n *xmlquery.Node) bool {
	return n.Type == xmlquery.TextNode || n.Type == xmlquery.CharDataNode
}
