package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/parser"
)

func TestForFile(t *testing.T) {
	for ext := range SupportedExtensions {
		conv, err := ForFile("doc"+ext, Options{})
		require.NoError(t, err, ext)
		assert.NotNil(t, conv, ext)
	}

	conv, err := ForFile("DOC.HTML", Options{})
	require.NoError(t, err)
	assert.IsType(t, &HTMLConverter{}, conv)

	conv, err = ForFile("scan.pdf", Options{PDFFallback: true})
	require.NoError(t, err)
	assert.True(t, conv.(*PDFConverter).FallbackPdftotext)

	_, err = ForFile("image.png", Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, IsSupportedExtension("image.png"))
	assert.True(t, IsSupportedExtension("notes.TXT"))
}

func TestHTMLConverter_PassthroughAndTitle(t *testing.T) {
	input := `<html><head><title>Release Notes</title></head><body><p>hi</p></body></html>`
	doc, err := (&HTMLConverter{}).Convert(strings.NewReader(input), "notes.html")
	require.NoError(t, err)
	assert.Equal(t, input, doc.Markup)
	assert.Equal(t, "Release Notes", doc.Meta.Title)
}

func TestMarkdownConverter_FrontMatterAndTables(t *testing.T) {
	input := `---
title: "Deploy Guide"
id: dg-1
space: OPS
author: sam
last_updated: "2024-03-01"
---
# Overview

Intro text.

| A | B |
|---|---|
| 1 | 2 |
`
	doc, err := (&MarkdownConverter{}).Convert(strings.NewReader(input), "deploy.md")
	require.NoError(t, err)

	assert.Equal(t, "dg-1", doc.Meta.ID)
	assert.Equal(t, "Deploy Guide", doc.Meta.Title)
	assert.Equal(t, "OPS", doc.Meta.ContainerKey)
	assert.Equal(t, "sam", doc.Meta.Author)
	assert.Equal(t, "2024-03-01", doc.Meta.LastUpdated)
	assert.Contains(t, doc.Markup, "<h1>Overview</h1>")
	assert.NotContains(t, doc.Markup, "<div><h1>")
	assert.Contains(t, doc.ChunkMarkup, "<div><h1>Overview</h1></div>")
	assert.NotContains(t, doc.Markup, "title:")

	parsed := parser.Parse(doc.Markup)
	require.Len(t, parsed.Sections, 1)
	assert.Contains(t, parsed.Sections[0].TextContent, "Intro text.")
	require.Len(t, parsed.Tables, 1)
	assert.Equal(t, []string{"A", "B"}, parsed.Tables[0].Headers)
	require.Len(t, parsed.Tables[0].Rows, 1)
	assert.Equal(t, "1", parsed.Tables[0].Rows[0][0].Text)

	chunks := chunker.Chunk(doc.ChunkSource(), doc.Meta)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "Overview", chunks[0].Metadata.Section)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Overview\n\nIntro text."))
}

func TestMarkdownConverter_NoFrontMatter(t *testing.T) {
	doc, err := (&MarkdownConverter{}).Convert(strings.NewReader("Just text."), "plain.md")
	require.NoError(t, err)
	assert.Empty(t, doc.Meta.ID)
	assert.Contains(t, doc.Markup, "<p>Just text.</p>")
}

func TestMarkdownConverter_SectionsKeepContent(t *testing.T) {
	doc, err := Convert(strings.NewReader("# Intro\n\nHello world.\n\n## Setup\n\nInstall it.\n"), "a.md", Options{})
	require.NoError(t, err)

	parsed := parser.Parse(doc.Markup)
	require.Len(t, parsed.Sections, 2)
	assert.Equal(t, "Intro", parsed.Sections[0].Title)
	assert.Contains(t, parsed.Sections[0].TextContent, "Hello world.")
	assert.Contains(t, parsed.Sections[0].Content, "<p>Hello world.</p>")
	assert.Equal(t, "Setup", parsed.Sections[1].Title)
	assert.Equal(t, "Install it.", strings.TrimSpace(parsed.Sections[1].TextContent))

	chunks := chunker.Chunk(doc.ChunkSource(), doc.Meta)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Intro", chunks[0].Metadata.Section)
	assert.Equal(t, "Setup", chunks[1].Metadata.Section)
}

func TestDocument_ChunkSource(t *testing.T) {
	doc := &Document{Markup: "<p>a</p>"}
	assert.Equal(t, "<p>a</p>", doc.ChunkSource())
	doc.ChunkMarkup = "<div><p>a</p></div>"
	assert.Equal(t, "<div><p>a</p></div>", doc.ChunkSource())
}

func TestTextConverter(t *testing.T) {
	input := "First line one.\nFirst line two.\n\n\nSecond <para>."
	doc, err := (&TextConverter{}).Convert(strings.NewReader(input), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "<p>First line one.\nFirst line two.</p>\n<p>Second &lt;para&gt;.</p>\n", doc.Markup)
}

func TestCSVConverter(t *testing.T) {
	input := "name,age\nJohn,25\nAna,31,extra\n"
	doc, err := (&CSVConverter{}).Convert(strings.NewReader(input), "people.csv")
	require.NoError(t, err)

	parsed := parser.Parse(doc.Markup)
	require.Len(t, parsed.Tables, 1)
	tbl := parsed.Tables[0]
	assert.Equal(t, []string{"name", "age"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Len(t, tbl.Rows[1], 3)
	assert.Equal(t, "John", tbl.Rows[0][0].Text)
}

func TestCSVConverter_Empty(t *testing.T) {
	doc, err := (&CSVConverter{}).Convert(strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, doc.Markup)
}

func TestPagesMarkup(t *testing.T) {
	got := pagesMarkup("one\n\ntwo\f  \fthree")
	want := "<h2>Page 1</h2>\n<p>one</p>\n<p>two</p>\n" +
		"<h2>Page 3</h2>\n<p>three</p>\n"
	assert.Equal(t, want, got)

	parsed := parser.Parse(got)
	require.Len(t, parsed.Sections, 2)
	assert.Contains(t, parsed.Sections[0].TextContent, "two")

	boxed, err := wrapBlocks(got)
	require.NoError(t, err)
	chunks := chunker.Chunk(boxed, doctree.DocMeta{ID: "pdf"})
	require.Len(t, chunks, 3)
	assert.Equal(t, "Page 1", chunks[0].Metadata.Section)
	assert.Equal(t, "Page 3", chunks[1].Metadata.Section)
}

func TestWrapBlocks(t *testing.T) {
	got, err := wrapBlocks("<h2>A</h2>\n<p>b</p><pre>c</pre>")
	require.NoError(t, err)
	assert.Equal(t, "<div><h2>A</h2></div>\n<p>b</p><div><pre>c</pre></div>", got)
}

func TestConvert_FillsDefaults(t *testing.T) {
	doc, err := Convert(strings.NewReader("hello"), "dir/notes.txt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "notes", doc.Meta.Title)
	assert.Equal(t, DocumentID(doc.Markup), doc.Meta.ID)
	assert.Len(t, doc.Meta.ID, 16)

	md := "---\nid: keep-me\n---\nbody\n"
	doc, err = Convert(strings.NewReader(md), "page.md", Options{})
	require.NoError(t, err)
	assert.Equal(t, "keep-me", doc.Meta.ID)

	_, err = Convert(strings.NewReader("x"), "file.bin", Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestContentHashStable(t *testing.T) {
	assert.Equal(t, ContentHash("<p>a</p>"), ContentHash("<p>a</p>"))
	assert.NotEqual(t, ContentHash("<p>a</p>"), ContentHash("<p>b</p>"))
	assert.Len(t, ContentHash(""), 64)
}
