// Package query provides declarative navigation helpers over parsed
// markup trees: filter node lists by predicate, descend to children,
// and extract attributes or text. It does no caching and knows nothing
// about offsets.
package query

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// List is an ordered collection of nodes under navigation.
type List []*xmlquery.Node

// Predicate is a boolean test over a single node.
type Predicate func(*xmlquery.Node) bool

// New returns a List containing the given nodes, dropping nils.
func New(nodes ...*xmlquery.Node) List {
	l := make(List, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			l = append(l, n)
		}
	}
	return l
}

// Filter keeps the nodes satisfying p.
func (l List) Filter(p Predicate) List {
	var out List
	for _, n := range l {
		if p(n) {
			out = append(out, n)
		}
	}
	return out
}

// Children descends to all element children of every node in the list.
func (l List) Children() List {
	var out List
	for _, n := range l {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode {
				out = append(out, c)
			}
		}
	}
	return out
}

// ChildrenNamed descends to element children with the given local name.
func (l List) ChildrenNamed(name string) List {
	return l.Children().Filter(func(n *xmlquery.Node) bool {
		return n.Data == name
	})
}

// First returns the first node in the list, or nil if it is empty.
func (l List) First() *xmlquery.Node {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// Attr extracts the named attribute from every node, dropping nodes
// where the attribute is absent.
func (l List) Attr(name string) []string {
	var out []string
	for _, n := range l {
		for _, a := range n.Attr {
			if a.Name.Local == name {
				out = append(out, a.Value)
				break
			}
		}
	}
	return out
}

// Texts extracts the concatenated text content of every node.
func (l List) Texts() []string {
	out := make([]string, 0, len(l))
	for _, n := range l {
		out = append(out, strings.TrimSpace(n.InnerText()))
	}
	return out
}

// And composes two predicates by conjunction.
func (p Predicate) And(q Predicate) Predicate {
	return func(n *xmlquery.Node) bool {
		return p(n) && q(n)
	}
}

// HasAttribute matches elements carrying the named attribute.
func HasAttribute(name string) Predicate {
	return func(n *xmlquery.Node) bool {
		for _, a := range n.Attr {
			if a.Name.Local == name {
				return true
			}
		}
		return false
	}
}

// HasChildNamed matches elements with at least one element child of the
// given local name.
func HasChildNamed(name string) Predicate {
	return HasChildMatching(name, func(*xmlquery.Node) bool { return true })
}

// HasChildMatching matches elements with at least one element child of
// the given local name that also satisfies p.
func HasChildMatching(name string, p Predicate) Predicate {
	return func(n *xmlquery.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && c.Data == name && p(c) {
				return true
			}
		}
		return false
	}
}
