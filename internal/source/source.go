// Package source converts uploaded files into page markup plus document
// metadata so they can flow through the parser and chunker.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagegest/internal/doctree"
)

// ErrUnsupported is returned by ForFile for unknown extensions.
var ErrUnsupported = errors.New("unsupported file extension")

// Document is converted page markup with whatever metadata the source
// format carried. ChunkMarkup, when set, is Markup with bare top-level
// headings boxed in <div>s for the chunker. The parser reads Markup.
type Document struct {
	Markup      string
	ChunkMarkup string
	Meta        doctree.DocMeta
}

// ChunkSource returns the markup the chunker should read.
func (d *Document) ChunkSource() string {
	if d.ChunkMarkup != "" {
		return d.ChunkMarkup
	}
	return d.Markup
}

// Converter turns raw file bytes into a Document.
type Converter interface {
	Convert(r io.Reader, filename string) (*Document, error)
}

// Options tunes converter selection.
type Options struct {
	PDFFallback bool // shell out to pdftotext when the Go reader fails
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".xhtml":    true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".csv":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate converter for a filename.
func ForFile(filename string, opts Options) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm", ".xhtml":
		return &HTMLConverter{}, nil
	case ".md", ".markdown":
		return &MarkdownConverter{}, nil
	case ".txt":
		return &TextConverter{}, nil
	case ".csv":
		return &CSVConverter{}, nil
	case ".pdf":
		return &PDFConverter{FallbackPdftotext: opts.PDFFallback}, nil
	case ".docx":
		return &DOCXConverter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Convert picks a converter for filename, runs it and fills in the
// document id and title when the source did not supply them.
func Convert(r io.Reader, filename string, opts Options) (*Document, error) {
	conv, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	doc, err := conv.Convert(r, filename)
	if err != nil {
		return nil, err
	}
	if doc.Meta.Title == "" {
		doc.Meta.Title = baseName(filename)
	}
	if doc.Meta.ID == "" {
		doc.Meta.ID = DocumentID(doc.Markup)
	}
	return doc, nil
}

// ContentHash is the hex SHA-256 of markup.
func ContentHash(markup string) string {
	sum := sha256.Sum256([]byte(markup))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives a stable id from markup.
func DocumentID(markup string) string {
	return ContentHash(markup)[:16]
}

func baseName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
