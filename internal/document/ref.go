package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var refPattern = regexp.MustCompile(`^([^#]*)#(.+)$`)

// ElementByRef resolves a "#id" or "url#id" reference against this
// document. A reference without a fragment, or one naming a different
// URL, resolves to nil. Resolution tries an XPath id lookup, then a
// name lookup, then a privately built index covering both id and
// xml:id attributes (first occurrence in document order wins).
func (d *Document) ElementByRef(ref string) *xmlquery.Node {
	m := refPattern.FindStringSubmatch(ref)
	if m == nil {
		return nil
	}
	if m[1] != "" && m[1] != d.URL {
		return nil
	}
	id := m[2]

	if n := d.queryByAttr("id", id); n != nil {
		return n
	}
	if n := d.queryByAttr("name", id); n != nil {
		return n
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.idIndex == nil {
		d.buildIDIndex()
	}
	return d.idIndex[id]
}

// queryByAttr is the fast native lookup path. Values that cannot be
// embedded in a single-quoted XPath literal skip straight to the index.
func (d *Document) queryByAttr(attr, value string) *xmlquery.Node {
	if strings.ContainsAny(value, `'"`) {
		return nil
	}
	expr := fmt.Sprintf("//*[@%s='%s']", attr, value)
	if _, err := xpath.Compile(expr); err != nil {
		return nil
	}
	n, err := xmlquery.Query(d.doc, expr)
	if err != nil {
		return nil
	}
	return n
}

// buildIDIndex walks the tree once, recording the first element bearing
// each identifier. Both plain id and namespaced xml:id count; later
// duplicates are ignored.
func (d *Document) buildIDIndex() {
	d.idIndex = make(map[string]*xmlquery.Node)
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode {
			for _, a := range n.Attr {
				if a.Name.Local != "id" {
					continue
				}
				if a.Name.Space != "" && !isXMLSpace(a.Name.Space) {
					continue
				}
				if _, ok := d.idIndex[a.Value]; !ok {
					d.idIndex[a.Value] = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.Root)
}

// encoding/xml reports the reserved xml: prefix either literally or as
// its canonical namespace, depending on declarations in the document.
func isXMLSpace(space string) bool {
	return space == "xml" || space == XMLNamespace
}
