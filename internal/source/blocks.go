package source

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// chunkBlocks are the top-level elements the chunker reads directly.
var chunkBlocks = map[string]bool{
	"div":   true,
	"p":     true,
	"table": true,
	"ul":    true,
	"ol":    true,
}

// wrapBlocks puts every other top-level element (headings, pre,
// blockquote) inside its own <div> so the chunker still sees it.
func wrapBlocks(src string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		wrap := n.Type == html.ElementNode && !chunkBlocks[n.Data]
		if wrap {
			buf.WriteString("<div>")
		}
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
		if wrap {
			buf.WriteString("</div>")
		}
	}
	return buf.String(), nil
}
