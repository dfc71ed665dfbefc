// Package doctree holds the value types produced by the structural parser
// and the chunker. Everything here is plain data and round-trips through
// encoding/json.
package doctree

import "encoding/json"

// ParsedDocument is the fully decomposed view of one page.
//
// When parsing fails the document carries only Error and RawMarkup; callers
// must check Failed before trusting the other fields.
type ParsedDocument struct {
	Metadata   map[string]string `json:"metadata"`
	Title      string            `json:"title"`
	Sections   []Section         `json:"sections"`
	Tables     []Table           `json:"tables"`
	Lists      Lists             `json:"lists"`
	CodeBlocks []CodeBlock       `json:"codeBlocks"`
	Links      []Link            `json:"links"`
	Images     []Image           `json:"images"`
	Macros     []Macro           `json:"macros"`

	Error     string `json:"error,omitempty"`
	RawMarkup string `json:"rawMarkup,omitempty"`
}

// Failed reports whether this is the degenerate error shape.
func (d *ParsedDocument) Failed() bool {
	return d.Error != ""
}

// MarshalJSON writes only error and rawMarkup for a failed parse.
func (d ParsedDocument) MarshalJSON() ([]byte, error) {
	if d.Failed() {
		return json.Marshal(struct {
			Error     string `json:"error"`
			RawMarkup string `json:"rawMarkup"`
		}{d.Error, d.RawMarkup})
	}
	type plain ParsedDocument
	return json.Marshal(plain(d))
}

// Section is a heading plus its flat run of following siblings.
type Section struct {
	Level       int    `json:"level"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	TextContent string `json:"textContent"`
}

// Table is an extracted <table>.
type Table struct {
	Caption string   `json:"caption"`
	Headers []string `json:"headers"`
	Rows    [][]Cell `json:"rows"`
}

// Cell is a single <td>.
type Cell struct {
	Text    string `json:"text"`
	HTML    string `json:"html"`
	Colspan int    `json:"colspan"`
	Rowspan int    `json:"rowspan"`
}

// Lists groups ordered and unordered lists.
type Lists struct {
	Ordered   []ListGroup `json:"ordered"`
	Unordered []ListGroup `json:"unordered"`
}

// Empty reports whether both groups are empty.
func (l Lists) Empty() bool {
	return len(l.Ordered) == 0 && len(l.Unordered) == 0
}

// ListGroup is the items of one list element.
type ListGroup []ListItem

// ListItem is one <li>. NestedLists is nil when the item holds no lists.
type ListItem struct {
	Text        string `json:"text"`
	HTML        string `json:"html"`
	NestedLists *Lists `json:"nestedLists"`
}

// CodeBlock is a <pre> or <code> element.
type CodeBlock struct {
	Language string `json:"language"`
	Content  string `json:"content"`
	HTML     string `json:"html"`
}

// Link is an <a href>.
type Link struct {
	Href         string `json:"href"`
	Text         string `json:"text"`
	Title        string `json:"title"`
	IsInternal   bool   `json:"isInternal"`
	IsAttachment bool   `json:"isAttachment"`
}

// Image is an <img>. Width and Height are nil when the attribute is absent.
type Image struct {
	Src          string  `json:"src"`
	Alt          string  `json:"alt"`
	Title        string  `json:"title"`
	Width        *string `json:"width"`
	Height       *string `json:"height"`
	IsAttachment bool    `json:"isAttachment"`
}

// Macro is an embedded, parameterized content block.
type Macro struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters"`
	HTML       string            `json:"html"`
	Content    string            `json:"content"`
}

// DocMeta is the provenance record supplied alongside the markup.
type DocMeta struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ContainerKey string `json:"containerKey"`
	LastUpdated  string `json:"lastUpdated"`
	Author       string `json:"author"`
	URL          string `json:"url,omitempty"`
}

// Chunk types.
const (
	TypeSection  = "section"
	TypeMetadata = "metadata"
)

// VectorChunk is a bounded-size unit of text ready for embedding.
type VectorChunk struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	DocumentID   string        `json:"documentId"`
	ContainerKey string        `json:"containerKey"`
	Content      string        `json:"content"`
	Type         string        `json:"type"`
	Metadata     ChunkMetadata `json:"metadata"`
}

// ChunkMetadata is the denormalized provenance carried by each chunk.
type ChunkMetadata struct {
	URL         string `json:"url"`
	LastUpdated string `json:"lastUpdated"`
	Author      string `json:"author"`
	Section     string `json:"section,omitempty"`
}

// Record is everything produced for one ingested document: the provenance,
// the hash of the markup it came from, the parse and its chunks.
type Record struct {
	Meta        DocMeta         `json:"meta"`
	ContentHash string          `json:"contentHash"`
	Document    *ParsedDocument `json:"document"`
	Chunks      []VectorChunk   `json:"chunks"`
}
