package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/dgallion1/pagegest/internal/doctree"
)

const (
	pagesPrefix = "pages"
	hashPrefix  = "pages/by_hash"
	source      = "pagegest"
)

// hashEntry is the value stored under pages/by_hash/<hash>/<doc>. The key
// segment is sanitized, so the raw id lives in the value.
type hashEntry struct {
	DocID        string `json:"doc_id"`
	ContainerKey string `json:"container_key"`
	CreatedAt    string `json:"created_at"`
}

// Sink writes records under pages/<container>/<doc>/ and maintains a
// content hash index for dedup.
type Sink struct {
	client      *Client
	concurrency int
}

// NewSink returns a sink that writes up to concurrency chunks at once.
func NewSink(c *Client, concurrency int) *Sink {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sink{client: c, concurrency: concurrency}
}

func (s *Sink) Name() string { return "pathstore" }

// DocumentKey is the key prefix for one document.
func DocumentKey(meta doctree.DocMeta) string {
	container := meta.ContainerKey
	if container == "" {
		container = "_default"
	}
	return fmt.Sprintf("%s/%s/%s", pagesPrefix, keySegment(container), keySegment(meta.ID))
}

func (s *Sink) Write(ctx context.Context, rec doctree.Record) error {
	prefix := DocumentKey(rec.Meta)
	src := source + ":" + rec.Meta.ID

	err := s.client.PutNode(ctx, prefix+"/document", NodeRequest{
		Value: map[string]any{
			"meta":         rec.Meta,
			"content_hash": rec.ContentHash,
			"document":     rec.Document,
			"chunk_count":  len(rec.Chunks),
		},
		Source: src,
	})
	if err != nil {
		return err
	}

	p := pool.New().WithMaxGoroutines(s.concurrency).WithContext(ctx).WithCancelOnError()
	for _, c := range rec.Chunks {
		p.Go(func(ctx context.Context) error {
			return s.client.PutNode(ctx, prefix+"/chunks/"+keySegment(c.ID), NodeRequest{
				Value:  c,
				Source: src,
			})
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	return s.client.PutNode(ctx, fmt.Sprintf("%s/%s/%s", hashPrefix, rec.ContentHash, keySegment(rec.Meta.ID)), NodeRequest{
		Value: hashEntry{
			DocID:        rec.Meta.ID,
			ContainerKey: rec.Meta.ContainerKey,
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		},
		Source: src,
	})
}

// LookupHash checks the hash index for a document stored from identical
// markup. An index entry whose document node is gone counts as a miss.
func (s *Sink) LookupHash(ctx context.Context, hash string) (string, bool, error) {
	children, err := s.client.ListChildren(ctx, hashPrefix+"/"+hash, 1)
	if err != nil {
		return "", false, err
	}
	if len(children) == 0 {
		return "", false, nil
	}

	var entry hashEntry
	if err := json.Unmarshal(children[0].Value, &entry); err != nil || entry.DocID == "" {
		// Entries written without doc_id only carry the key segment.
		entry.DocID = lastKeySegment(children[0].Key)
	}

	meta := doctree.DocMeta{ID: entry.DocID, ContainerKey: entry.ContainerKey}
	node, err := s.client.GetNode(ctx, DocumentKey(meta)+"/document")
	if err != nil {
		return "", false, err
	}
	if node == nil {
		return "", false, nil
	}
	return entry.DocID, true, nil
}

// Delete removes a document with its chunks and hash index entry.
func (s *Sink) Delete(ctx context.Context, meta doctree.DocMeta, contentHash string) error {
	if err := s.client.DeleteNode(ctx, DocumentKey(meta), true); err != nil {
		return err
	}
	if contentHash == "" {
		return nil
	}
	return s.client.DeleteNode(ctx, fmt.Sprintf("%s/%s/%s", hashPrefix, contentHash, keySegment(meta.ID)), false)
}

// keySegment keeps ids from introducing extra path levels.
func keySegment(s string) string {
	return strings.NewReplacer("/", "_", ".", "_").Replace(s)
}

// lastKeySegment accepts both slash and dotted key paths.
func lastKeySegment(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) == 0 {
		return key
	}
	return parts[len(parts)-1]
}
