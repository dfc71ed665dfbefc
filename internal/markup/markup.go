// Package markup exposes a read-only tree view over parsed page markup.
//
// The parser and chunker only depend on the Node interface; the concrete
// tree comes from golang.org/x/net/html.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Node is a read-only element in a markup tree.
type Node interface {
	// Tag is the lowercase element name ("p", "ac:structured-macro").
	// The document root reports "#document".
	Tag() string
	// Attr looks up an attribute by key.
	Attr(key string) (string, bool)
	// Children returns element children in document order.
	Children() []Node
	// Parent returns the enclosing element, or nil at the root.
	Parent() Node
	// Next returns the next element sibling, or nil.
	Next() Node
	// Text is the concatenated descendant text, whitespace-trimmed.
	Text() string
	// HTML is the serialized markup of the node itself.
	HTML() string
	// InnerHTML is the serialized markup of the node's children.
	InnerHTML() string
}

// DocumentTag is the tag reported by the root node returned from Parse.
const DocumentTag = "#document"

// Parse builds a tree from markup text. Fragments are accepted; missing
// html/head/body wrappers are synthesized.
func Parse(src string) (Node, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return &htmlNode{n: doc}, nil
}

// Wrap adapts an x/net/html node. It returns nil for a nil node.
func Wrap(n *html.Node) Node {
	if n == nil {
		return nil
	}
	return &htmlNode{n: n}
}

type htmlNode struct {
	n *html.Node
}

func (h *htmlNode) Tag() string {
	if h.n.Type == html.DocumentNode {
		return DocumentTag
	}
	return h.n.Data
}

func (h *htmlNode) Attr(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, a := range h.n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		if name == key {
			return a.Val, true
		}
	}
	return "", false
}

func (h *htmlNode) Children() []Node {
	var out []Node
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c) {
			out = append(out, &htmlNode{n: c})
		}
	}
	return out
}

func (h *htmlNode) Parent() Node {
	p := h.n.Parent
	if p == nil {
		return nil
	}
	return &htmlNode{n: p}
}

func (h *htmlNode) Next() Node {
	for s := h.n.NextSibling; s != nil; s = s.NextSibling {
		if isElement(s) {
			return &htmlNode{n: s}
		}
	}
	return nil
}

func (h *htmlNode) Text() string {
	var buf strings.Builder
	collectText(h.n, &buf)
	return strings.TrimSpace(buf.String())
}

func (h *htmlNode) HTML() string {
	if h.n.Type == html.DocumentNode {
		return h.InnerHTML()
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, h.n); err != nil {
		return ""
	}
	return buf.String()
}

func (h *htmlNode) InnerHTML() string {
	var buf bytes.Buffer
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

func isElement(n *html.Node) bool {
	return n.Type == html.ElementNode
}

func collectText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
}
