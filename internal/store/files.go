package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagegest/internal/doctree"
)

// DefaultContainer names the directory for documents without a container.
const DefaultContainer = "_default"

// FileWriter writes each record as
// <root>/<containerKey>/<documentId>/{document,chunks}.json.
type FileWriter struct {
	root string
}

// NewFileWriter creates root if needed.
func NewFileWriter(root string) (*FileWriter, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileWriter{root: root}, nil
}

func (w *FileWriter) Name() string { return "files" }

// Dir returns the directory a document is written to.
func (w *FileWriter) Dir(meta doctree.DocMeta) string {
	container := meta.ContainerKey
	if container == "" {
		container = DefaultContainer
	}
	return filepath.Join(w.root, safeSegment(container), safeSegment(meta.ID))
}

func (w *FileWriter) Write(ctx context.Context, rec doctree.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Meta.ID == "" {
		return fmt.Errorf("write files: empty document id")
	}

	dir := w.Dir(rec.Meta)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	doc := struct {
		Meta        doctree.DocMeta         `json:"meta"`
		ContentHash string                  `json:"contentHash"`
		Document    *doctree.ParsedDocument `json:"document"`
	}{rec.Meta, rec.ContentHash, rec.Document}

	if err := writeJSON(filepath.Join(dir, "document.json"), doc); err != nil {
		return err
	}
	chunks := rec.Chunks
	if chunks == nil {
		chunks = []doctree.VectorChunk{}
	}
	return writeJSON(filepath.Join(dir, "chunks.json"), chunks)
}

// writeJSON writes through a temp file so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// safeSegment keeps ids from escaping the output root.
func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." {
		return "_" + s
	}
	return s
}
