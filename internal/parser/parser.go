// Package parser turns page markup into a doctree.ParsedDocument.
package parser

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

// Options tunes the classification and guard rails of a Parser.
type Options struct {
	MaxListDepth          int    // Nested lists deeper than this are dropped.
	InternalPathSegment   string // Hrefs containing this are internal.
	AttachmentPathSegment string // Hrefs/srcs containing this are attachments.
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxListDepth:          32,
		InternalPathSegment:   "/wiki/",
		AttachmentPathSegment: "/download/attachments/",
	}
}

// Parser extracts the structural view of a page. A Parser holds no
// per-document state and is safe for concurrent use.
type Parser struct {
	opts   Options
	macros MacroClassifier
	log    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for degraded extractions.
func WithLogger(log *slog.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// WithMacroClassifier replaces the default macro rules.
func WithMacroClassifier(c MacroClassifier) Option {
	return func(p *Parser) { p.macros = c }
}

// WithOptions replaces the default Options.
func WithOptions(o Options) Option {
	return func(p *Parser) { p.opts = o }
}

// New returns a Parser with default rules.
func New(opts ...Option) *Parser {
	p := &Parser{
		opts:   DefaultOptions(),
		macros: DefaultMacroRules(),
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	if p.opts.MaxListDepth <= 0 {
		p.opts.MaxListDepth = 32
	}
	if p.opts.InternalPathSegment == "" {
		p.opts.InternalPathSegment = "/wiki/"
	}
	if p.opts.AttachmentPathSegment == "" {
		p.opts.AttachmentPathSegment = "/download/attachments/"
	}
	return p
}

var defaultParser = New()

// Parse parses markup with the default Parser.
func Parse(src string) *doctree.ParsedDocument {
	return defaultParser.Parse(src)
}

// Parse never panics. If no usable tree can be built it returns the
// degenerate {Error, RawMarkup} document.
func (p *Parser) Parse(src string) (doc *doctree.ParsedDocument) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("parse failed", "panic", r)
			doc = &doctree.ParsedDocument{Error: fmt.Sprintf("parse: %v", r), RawMarkup: src}
		}
	}()

	root, err := markup.Parse(src)
	if err != nil {
		p.log.Warn("malformed markup", "error", err)
		return &doctree.ParsedDocument{Error: err.Error(), RawMarkup: src}
	}
	return p.ParseTree(root)
}

// ParseTree extracts everything from an already built tree. Each
// sub-extraction is isolated: a failure empties that collection only.
func (p *Parser) ParseTree(root markup.Node) *doctree.ParsedDocument {
	doc := &doctree.ParsedDocument{
		Metadata:   guard(p, "metadata", func() map[string]string { return extractMetadata(root) }),
		Title:      guard(p, "title", func() string { return extractTitle(root) }),
		Sections:   guard(p, "sections", func() []doctree.Section { return extractSections(root) }),
		Tables:     guard(p, "tables", func() []doctree.Table { return extractTables(root) }),
		Lists:      guard(p, "lists", func() doctree.Lists { return p.extractLists(root) }),
		CodeBlocks: guard(p, "code blocks", func() []doctree.CodeBlock { return extractCodeBlocks(root) }),
		Links:      guard(p, "links", func() []doctree.Link { return p.extractLinks(root) }),
		Images:     guard(p, "images", func() []doctree.Image { return p.extractImages(root) }),
		Macros:     guard(p, "macros", func() []doctree.Macro { return p.extractMacros(root) }),
	}
	normalize(doc)
	return doc
}

func guard[T any](p *Parser, part string, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("extraction failed", "part", part, "panic", r)
			var zero T
			out = zero
		}
	}()
	return fn()
}

// normalize replaces nil collections so empty documents serialize as [].
func normalize(doc *doctree.ParsedDocument) {
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}
	if doc.Sections == nil {
		doc.Sections = []doctree.Section{}
	}
	if doc.Tables == nil {
		doc.Tables = []doctree.Table{}
	}
	if doc.Lists.Ordered == nil {
		doc.Lists.Ordered = []doctree.ListGroup{}
	}
	if doc.Lists.Unordered == nil {
		doc.Lists.Unordered = []doctree.ListGroup{}
	}
	if doc.CodeBlocks == nil {
		doc.CodeBlocks = []doctree.CodeBlock{}
	}
	if doc.Links == nil {
		doc.Links = []doctree.Link{}
	}
	if doc.Images == nil {
		doc.Images = []doctree.Image{}
	}
	if doc.Macros == nil {
		doc.Macros = []doctree.Macro{}
	}
}

// extractTitle prefers <title>, then the first <h1>.
func extractTitle(root markup.Node) string {
	if t := markup.FindFirst(root, "title"); t != nil {
		return t.Text()
	}
	if h := markup.FindFirst(root, "h1"); h != nil {
		return h.Text()
	}
	return ""
}

// extractMetadata collects <meta name|property content> pairs.
func extractMetadata(root markup.Node) map[string]string {
	meta := make(map[string]string)
	for _, m := range markup.FindAll(root, "meta") {
		name, ok := m.Attr("name")
		if !ok {
			name, ok = m.Attr("property")
		}
		content, hasContent := m.Attr("content")
		if ok && name != "" && hasContent && content != "" {
			meta[name] = content
		}
	}
	return meta
}
