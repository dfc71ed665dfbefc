package source

import (
	"fmt"
	"io"

	"github.com/dgallion1/pagegest/internal/markup"
)

// HTMLConverter passes markup through unchanged and lifts the <title>.
type HTMLConverter struct{}

func (c *HTMLConverter) Convert(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	doc := &Document{Markup: string(src)}

	root, err := markup.Parse(doc.Markup)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if t := markup.FindFirst(root, "title"); t != nil {
		doc.Meta.Title = t.Text()
	}
	return doc, nil
}
