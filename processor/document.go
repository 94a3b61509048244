package processor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/webproxy"
)

// Document wraps a parsed HTML tree. Nodes referenced by segments live in an
// addressable arena so segments carry plain indices instead of pointers into
// the tree.
type Document struct {
	doc   *goquery.Document
	nodes []*html.Node
}

// Parse parses raw HTML into a mutable document.
func Parse(rawHTML string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &webproxy.ProcessorError{Message: "failed to parse HTML", Cause: err}
	}
	return &Document{doc: doc}, nil
}

// Serialize renders the document back to an HTML string.
func (d *Document) Serialize() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", &webproxy.ProcessorError{Message: "failed to serialize HTML", Cause: err}
	}
	return out, nil
}

// Find exposes selector queries on the underlying document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// addNode registers n in the arena and returns its index.
func (d *Document) addNode(n *html.Node) int {
	d.nodes = append(d.nodes, n)
	return len(d.nodes) - 1
}

// Node returns the arena node at index i, or nil if out of range.
func (d *Document) Node(i int) *html.Node {
	if i < 0 || i >= len(d.nodes) {
		return nil
	}
	return d.nodes[i]
}

// roots returns the document's top-level nodes.
func (d *Document) roots() []*html.Node {
	return d.doc.Nodes
}

// innerHTML renders the children of n.
func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// Render only fails on unwritable writers; a bytes.Buffer never is.
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// getAttr returns the value of the named attribute on n.
func getAttr(n *html.Node, name string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// setAttr sets or appends the named attribute on n.
func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
