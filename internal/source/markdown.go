package source

import (
	"bytes"
	"fmt"
	"io"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/dgallion1/pagegest/internal/doctree"
)

// MarkdownConverter reads optional front matter and renders the body with
// goldmark (GFM tables included).
type MarkdownConverter struct{}

type frontMatter struct {
	ID          string `yaml:"id" toml:"id"`
	Title       string `yaml:"title" toml:"title"`
	Space       string `yaml:"space" toml:"space"`
	Container   string `yaml:"container" toml:"container"`
	Author      string `yaml:"author" toml:"author"`
	LastUpdated string `yaml:"last_updated" toml:"last_updated"`
	URL         string `yaml:"url" toml:"url"`
}

func (fm frontMatter) meta() doctree.DocMeta {
	container := fm.Container
	if container == "" {
		container = fm.Space
	}
	return doctree.DocMeta{
		ID:           fm.ID,
		Title:        fm.Title,
		ContainerKey: container,
		LastUpdated:  fm.LastUpdated,
		Author:       fm.Author,
		URL:          fm.URL,
	}
}

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

func (c *MarkdownConverter) Convert(r io.Reader, filename string) (*Document, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(r, &fm)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}

	out := buf.String()
	boxed, err := wrapBlocks(out)
	if err != nil {
		return nil, err
	}
	return &Document{Markup: out, ChunkMarkup: boxed, Meta: fm.meta()}, nil
}
