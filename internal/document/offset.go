package document

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
)

// Offsets linearize the document in pre-order: every element costs one
// unit, every text run costs its length in runes. The root element sits
// at offset 0.

func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

// ElementOffset returns the offset of el, computing and caching offsets
// for every element between the traversal cursor and el on the way.
// el must be an element belonging to this document's tree; passing a
// foreign node is a precondition violation and panics.
func (d *Document) ElementOffset(el *xmlquery.Node) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elementOffset(el)
}

func (d *Document) elementOffset(el *xmlquery.Node) int {
	if off, ok := d.offsets[el]; ok {
		return off
	}

	node := d.lastVisited
	offset := d.lastOffset
	for {
		next := node.FirstChild
		if next == nil {
			next = node.NextSibling
		}
		for p := node; next == nil; {
			p = p.Parent
			if p == nil {
				panic(fmt.Sprintf("document %s: element <%s> not reachable from offset cursor; node is not part of this tree", d.URL, el.Data))
			}
			next = p.NextSibling
		}
		node = next

		switch node.Type {
		case xmlquery.ElementNode:
			d.offsets[node] = offset
			offset++
		case xmlquery.TextNode, xmlquery.CharDataNode:
			offset += textLength(node.Data)
		}

		if node == el {
			d.lastVisited = node
			d.lastOffset = offset
			return offset - 1
		}
	}
}

// subtreeUnits is the linear size of n: one unit for the element itself
// plus the recursive size of its content.
func subtreeUnits(n *xmlquery.Node) int {
	units := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			units += subtreeUnits(c)
		case xmlquery.TextNode, xmlquery.CharDataNode:
			units += textLength(c.Data)
		}
	}
	return units
}

// NodeOffset returns the offset of an arbitrary point. For an element
// with after=false this is the element's own offset; with after=true it
// is the position just past the element's entire subtree. For a text
// node it is the position of the rune at offsetInNode within the run.
func (d *Document) NodeOffset(n *xmlquery.Node, offsetInNode int, after bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nodeOffset(n, offsetInNode, after)
}

func (d *Document) nodeOffset(n *xmlquery.Node, offsetInNode int, after bool) int {
	if n.Type == xmlquery.ElementNode {
		if !after {
			return d.elementOffset(n)
		}
		return d.elementOffset(n) + subtreeUnits(n) + 1
	}

	acc := 0
	if isText(n) {
		acc = offsetInNode
	}

	// Anchor at the nearest preceding element boundary, folding in the
	// text runs passed on the way.
	for cur := n; ; {
		prev := cur.PrevSibling
		if prev == nil {
			parent := cur.Parent
			if parent == nil || parent.Type != xmlquery.ElementNode {
				return acc
			}
			return d.elementOffset(parent) + 1 + acc
		}
		switch {
		case prev.Type == xmlquery.ElementNode:
			return d.elementOffset(prev) + subtreeUnits(prev) + acc
		case isText(prev):
			acc += textLength(prev.Data)
		}
		cur = prev
	}
}

// TotalOffset returns the offset just past the end of the root element.
// Computed once, lazily.
func (d *Document) TotalOffset() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.total < 0 {
		d.total = d.nodeOffset(d.Root, 0, true)
	}
	return d.total
}

// NodeByOffset returns the node whose position is the greatest one not
// exceeding offset. Whitespace-only text immediately before an element
// yields that element instead. It always returns some node; the worst
// case is the deepest enclosing element itself.
func (d *Document) NodeByOffset(offset int) *xmlquery.Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Descend to the deepest element whose offset does not exceed the
	// query. Children are in document order, so their offsets are
	// sorted and binary-searchable.
	el := d.Root
	for {
		children := elementChildren(el)
		if len(children) == 0 {
			break
		}
		i := sort.Search(len(children), func(i int) bool {
			return d.elementOffset(children[i]) > offset
		})
		if i == 0 {
			break
		}
		el = children[i-1]
	}

	if d.elementOffset(el) >= offset {
		return el
	}

	// Scan forward through text content for the run covering the
	// position. Any element encountered here is already past the query
	// offset and terminates the scan; whitespace-only runs covering the
	// position are passed over in favor of what follows them.
	running := d.elementOffset(el) + 1
	node := el.FirstChild
	// A childless el contributes nothing to scan; start at its pre-order
	// successor so the runs following it are still visited.
	for cur := el; node == nil; {
		if cur == d.Root || cur.Parent == nil {
			return el
		}
		node = cur.NextSibling
		cur = cur.Parent
	}
	for node != nil {
		switch {
		case isText(node):
			running += textLength(node.Data)
			if running > offset && strings.TrimSpace(node.Data) != "" {
				return node
			}
		case node.Type == xmlquery.ElementNode:
			return node
		}

		next := node.NextSibling
		for next == nil {
			parent := node.Parent
			if parent == nil || parent == d.Root {
				return el
			}
			node = parent
			next = node.NextSibling
		}
		node = next
	}
	return el
}
