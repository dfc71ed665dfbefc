package pipeline

import (
	"context"

	"github.com/dgallion1/pagegest/internal/doctree"
)

// Sink receives every successfully processed document.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec doctree.Record) error
}

// HashIndex is implemented by sinks that can answer dedup lookups.
type HashIndex interface {
	LookupHash(ctx context.Context, hash string) (docID string, found bool, err error)
}
