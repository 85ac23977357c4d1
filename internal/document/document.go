// Package document parses HTML into an immutable tree of typed nodes.
package document

import (
	"iter"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page. It is not modified after Parse returns.
type Document struct {
	doc   *goquery.Document
	nodes []*Node
}

// Node is one element of a Document.
type Node struct {
	tag      string
	classes  []string
	children []*Node
	sel      *goquery.Selection

	textOnce sync.Once
	text     string
}

// Parse never fails: malformed markup yields whatever tree the HTML5 parser
// recovers, and unreadable input yields an empty document.
func Parse(markup string) *Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	d := &Document{doc: doc}
	for _, root := range doc.Nodes {
		d.collect(root, nil)
	}
	return d
}

func (d *Document) collect(n *html.Node, parent *Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		node := &Node{
			tag:     c.Data,
			classes: strings.Fields(attr(c, "class")),
			sel:     d.doc.FindNodes(c),
		}
		d.nodes = append(d.nodes, node)
		if parent != nil {
			parent.children = append(parent.children, node)
		}
		d.collect(c, node)
	}
}

// FindAll yields, in document order, every element for which match returns
// true. The sequence can be ranged over any number of times.
func (d *Document) FindAll(match func(*Node) bool) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range d.nodes {
			if match != nil && !match(n) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Len is the number of elements in the document.
func (d *Document) Len() int { return len(d.nodes) }

// Text is the concatenated text of every text node in the document.
func (d *Document) Text() string { return d.doc.Text() }

func (n *Node) Tag() string { return n.tag }

func (n *Node) Classes() []string {
	out := make([]string, len(n.classes))
	copy(out, n.classes)
	return out
}

// HasClass reports whether match accepts one of the node's class names or,
// for several classes, the whole space-separated class list.
func (n *Node) HasClass(match func(string) bool) bool {
	for _, c := range n.classes {
		if match(c) {
			return true
		}
	}
	return len(n.classes) > 1 && match(strings.Join(n.classes, " "))
}

func (n *Node) Children() []*Node { return n.children }

// Text is the node's text content including all descendants.
func (n *Node) Text() string {
	n.textOnce.Do(func() { n.text = n.sel.Text() })
	return n.text
}

// Serialize renders the node and its descendants as HTML.
func (n *Node) Serialize() string {
	out, err := goquery.OuterHtml(n.sel)
	if err != nil {
		return ""
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
