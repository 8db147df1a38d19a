package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html"

	"github.com/docspan/docspan/internal/document"
)

// errParserSentinel marks trees some parsers emit instead of failing:
// the error is reported as output, with a reserved element as the root
// or among the root's immediate children.
var errParserSentinel = errors.New("markup: parser reported an error tree")

const sentinelTag = "parsererror"

func parseFlavor(data []byte, f Flavor) (*xmlquery.Node, error) {
	if f == HTML {
		return parseHTML(data)
	}
	return parseXML(data)
}

// parseXML parses the strict XML family (XML, XHTML, SVG).
func parseXML(data []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}
	if HasParserError(doc) {
		return nil, errParserSentinel
	}
	return doc, nil
}

// parseHTML parses leniently with the HTML5 algorithm and converts the
// result into the same node representation the XML path produces.
func parseHTML(data []byte) (*xmlquery.Node, error) {
	n, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return convertHTML(n), nil
}

// HasParserError reports whether the tree's root element is an error
// sentinel, or carries one among its immediate element children.
func HasParserError(doc *xmlquery.Node) bool {
	root := doc
	if doc.Type != xmlquery.ElementNode {
		root = firstElementChild(doc)
	}
	if root == nil {
		return false
	}
	if root.Data == sentinelTag {
		return true
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == sentinelTag {
			return true
		}
	}
	return false
}

func firstElementChild(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// convertHTML rebuilds an html.Node tree as xmlquery nodes. HTML
// elements land in the XHTML namespace, matching what an XHTML parse of
// equivalent markup would produce; foreign content keeps its own
// namespace. Doctype and raw nodes are dropped.
func convertHTML(src *html.Node) *xmlquery.Node {
	n := &xmlquery.Node{}
	switch src.Type {
	case html.DocumentNode:
		n.Type = xmlquery.DocumentNode
	case html.ElementNode:
		n.Type = xmlquery.ElementNode
		n.Data = src.Data
		n.NamespaceURI = htmlNamespaceURI(src.Namespace)
		for _, a := range src.Attr {
			n.Attr = append(n.Attr, xmlquery.Attr{
				Name:  xml.Name{Space: a.Namespace, Local: a.Key},
				Value: a.Val,
			})
		}
	case html.TextNode:
		n.Type = xmlquery.TextNode
		n.Data = src.Data
	case html.CommentNode:
		n.Type = xmlquery.CommentNode
		n.Data = src.Data
	default:
		return nil
	}

	for c := src.FirstChild; c != nil; c = c.NextSibling {
		child := convertHTML(c)
		if child == nil {
			continue
		}
		child.Parent = n
		if n.FirstChild == nil {
			n.FirstChild = child
		} else {
			n.LastChild.NextSibling = child
			child.PrevSibling = n.LastChild
		}
		n.LastChild = child
	}
	return n
}

func htmlNamespaceURI(ns string) string {
	switch ns {
	case "", "html":
		return document.XHTMLNamespace
	case "svg":
		return document.SVGNamespace
	case "math":
		return "http://www.w3.org/1998/Math/MathML"
	}
	return ns
}
