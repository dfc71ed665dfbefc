package chunker

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

// Config controls chunking behavior.
type Config struct {
	MaxChars int    // Flush once the raw accumulated text exceeds this many characters.
	BaseURL  string // Used to build chunk URLs when DocMeta.URL is empty.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChars: 1000,
	}
}

// MainSection labels content that appears before the first heading.
const MainSection = "Main Content"

// chunkable lists the top-level body elements the chunker reads.
var chunkable = map[string]bool{
	"div":   true,
	"p":     true,
	"table": true,
	"ul":    true,
	"ol":    true,
}

// Chunker splits page markup into section chunks plus one trailing
// metadata chunk. It keeps no state between calls.
type Chunker struct {
	cfg Config
	log *slog.Logger
}

// New returns a Chunker. A nil logger falls back to slog.Default.
func New(cfg Config, log *slog.Logger) *Chunker {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 1000
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chunker{cfg: cfg, log: log}
}

// Chunk splits markup using DefaultConfig.
func Chunk(src string, meta doctree.DocMeta) []doctree.VectorChunk {
	return New(DefaultConfig(), nil).Chunk(src, meta)
}

// Chunk never fails. If the section pass breaks, the error is logged and
// only the metadata chunk is returned.
func (c *Chunker) Chunk(src string, meta doctree.DocMeta) []doctree.VectorChunk {
	url := c.pageURL(meta)
	sections := c.sectionChunks(src, meta, url)
	return append(sections, metadataChunk(meta, url, sections))
}

// accumulator is the running text of the chunk being built.
type accumulator struct {
	content string
	section string
}

// run threads the accumulator through one pass over the body.
type run struct {
	meta   doctree.DocMeta
	url    string
	acc    accumulator
	chunks []doctree.VectorChunk
}

func (c *Chunker) sectionChunks(src string, meta doctree.DocMeta, url string) (chunks []doctree.VectorChunk) {
	log := c.log.With("doc_id", meta.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("chunking failed", "panic", r)
			chunks = nil
		}
	}()

	root, err := markup.Parse(src)
	if err != nil {
		log.Error("chunking failed", "error", err)
		return nil
	}

	r := &run{
		meta: meta,
		url:  url,
		acc:  accumulator{section: MainSection},
	}

	for _, el := range markup.Body(root).Children() {
		if !chunkable[el.Tag()] {
			continue
		}

		if h := markup.FindFirst(el, markup.HeadingTags...); h != nil {
			r.flush()
			label := h.Text()
			if label == "" {
				label = MainSection
			}
			r.acc = accumulator{content: h.Text(), section: label}
			continue
		}

		text := c.render(el, log)
		// Blank elements add no separator either.
		if strings.TrimSpace(text) == "" {
			continue
		}
		r.add(text)

		if utf8.RuneCountInString(r.acc.content) > c.cfg.MaxChars {
			flushed := r.acc.content
			r.flush()
			r.acc = accumulator{content: lastParagraph(flushed), section: r.acc.section}
		}
	}
	r.flush()

	log.Debug("chunked page", "chunks", len(r.chunks))
	return r.chunks
}

func (r *run) add(text string) {
	if r.acc.content == "" {
		r.acc.content = text
		return
	}
	r.acc.content += "\n\n" + text
}

// flush emits the accumulator as a section chunk unless it is blank. The
// accumulator itself is left for the caller to reseed.
func (r *run) flush() {
	text := strings.TrimSpace(r.acc.content)
	if text == "" {
		return
	}
	r.chunks = append(r.chunks, doctree.VectorChunk{
		ID:           fmt.Sprintf("%s-chunk-%d", r.meta.ID, len(r.chunks)),
		Title:        r.meta.Title,
		DocumentID:   r.meta.ID,
		ContainerKey: r.meta.ContainerKey,
		Content:      text,
		Type:         doctree.TypeSection,
		Metadata: doctree.ChunkMetadata{
			URL:         r.url,
			LastUpdated: r.meta.LastUpdated,
			Author:      r.meta.Author,
			Section:     r.acc.section,
		},
	})
}

// lastParagraph returns the final blank-line delimited paragraph. Its
// length is not capped.
func lastParagraph(text string) string {
	parts := strings.Split(text, "\n\n")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(parts[i]); p != "" {
			return p
		}
	}
	return ""
}

func metadataChunk(meta doctree.DocMeta, url string, sections []doctree.VectorChunk) doctree.VectorChunk {
	var labels []string
	seen := make(map[string]bool)
	for _, s := range sections {
		if !seen[s.Metadata.Section] {
			seen[s.Metadata.Section] = true
			labels = append(labels, s.Metadata.Section)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", meta.Title)
	fmt.Fprintf(&sb, "Container: %s\n", meta.ContainerKey)
	fmt.Fprintf(&sb, "Sections: %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(&sb, "Total Chunks: %d\n", len(sections))
	fmt.Fprintf(&sb, "Last Updated: %s\n", meta.LastUpdated)
	fmt.Fprintf(&sb, "Author: %s", meta.Author)

	return doctree.VectorChunk{
		ID:           meta.ID + "-metadata",
		Title:        meta.Title,
		DocumentID:   meta.ID,
		ContainerKey: meta.ContainerKey,
		Content:      sb.String(),
		Type:         doctree.TypeMetadata,
		Metadata: doctree.ChunkMetadata{
			URL:         url,
			LastUpdated: meta.LastUpdated,
			Author:      meta.Author,
		},
	}
}

func (c *Chunker) pageURL(meta doctree.DocMeta) string {
	if meta.URL != "" {
		return meta.URL
	}
	if c.cfg.BaseURL == "" || meta.ID == "" {
		return ""
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/pages/viewpage.action?pageId=" + meta.ID
}
