package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/parser"
	"github.com/dgallion1/pagegest/internal/source"
)

// Worker processes a single document job.
type Worker struct {
	sinks   []Sink
	indexes []HashIndex
	parser  *parser.Parser
	chunker *chunker.Chunker
	srcOpts source.Options
	stats   *Stats
	log     *slog.Logger
	backoff func(int) time.Duration
}

// NewWorker wires a worker. Nil parser, chunker, stats or logger fall back
// to defaults.
func NewWorker(sinks []Sink, p *parser.Parser, c *chunker.Chunker, srcOpts source.Options, stats *Stats, log *slog.Logger) *Worker {
	w := &Worker{
		sinks:   sinks,
		parser:  p,
		chunker: c,
		srcOpts: srcOpts,
		stats:   stats,
		log:     log,
		backoff: Backoff,
	}
	for _, s := range sinks {
		if idx, ok := s.(HashIndex); ok {
			w.indexes = append(w.indexes, idx)
		}
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	if w.stats == nil {
		w.stats = NewStats(DefaultStatsWindow)
	}
	if w.parser == nil {
		w.parser = parser.New(parser.WithLogger(w.log))
	}
	if w.chunker == nil {
		w.chunker = chunker.New(chunker.DefaultConfig(), w.log)
	}
	return w
}

// Stats exposes the worker's per-phase latency windows.
func (w *Worker) Stats() *Stats {
	return w.stats
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	defer w.stats.Time(PhaseTotal)()

	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Convert
	job.SetStatus(StatusConverting, "converting")
	stop := w.stats.Time(PhaseConvert)
	doc, err := source.Convert(bytes.NewReader(job.FileData()), job.Filename, w.srcOpts)
	stop()
	if err != nil {
		log.Error("convert failed", "error", err)
		job.AddError(fmt.Sprintf("convert: %s", err))
		job.SetStatus(StatusFailed, "converting")
		return
	}
	job.releaseFileData()

	meta := job.resolveMeta(doc.Meta)
	hash := source.ContentHash(doc.Markup)
	job.SetDocument(meta, hash)
	log = log.With("doc_id", meta.ID)

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, found, err := w.lookupHash(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if found {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.MarkDuplicate(existing)
			return
		}
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	stop = w.stats.Time(PhaseParse)
	parsed := w.parser.Parse(doc.Markup)
	stop()
	if parsed.Failed() {
		log.Warn("parse degraded", "error", parsed.Error)
		job.AddError("parse: " + parsed.Error)
	}

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	stop = w.stats.Time(PhaseChunk)
	chunks := w.chunker.Chunk(doc.ChunkSource(), meta)
	stop()
	tokens := chunker.TotalTokens(chunks)
	job.SetChunkCounts(len(chunks), tokens)
	log.Info("chunked document", "chunks", len(chunks), "estimated_tokens", tokens)

	rec := doctree.Record{
		Meta:        meta,
		ContentHash: hash,
		Document:    parsed,
		Chunks:      chunks,
	}

	// Phase 4: Store
	if len(w.sinks) == 0 {
		job.SetStatus(StatusCompleted, "done")
		return
	}
	job.SetStatus(StatusStoring, "storing")
	stop = w.stats.Time(PhaseStore)
	written, errs := w.writeSinks(ctx, log, rec)
	stop()
	for _, err := range errs {
		job.AddError(err.Error())
	}
	for range written {
		job.IncrSinksWritten()
	}

	switch {
	case len(errs) == 0:
		job.SetStatus(StatusCompleted, "done")
	case written > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "storing")
	}
	log.Info("storage complete", "sinks_written", written, "errors", len(errs))
}

// writeSinks fans the record out to every sink concurrently.
func (w *Worker) writeSinks(ctx context.Context, log *slog.Logger, rec doctree.Record) (int, []error) {
	p := pool.New().WithMaxGoroutines(len(w.sinks))
	var mu sync.Mutex
	var written int
	var errs []error

	for _, s := range w.sinks {
		p.Go(func() {
			err := withRetry(ctx, log, w.backoff, s.Name(), func() error {
				return s.Write(ctx, rec)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error("sink write failed", "sink", s.Name(), "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
				return
			}
			written++
		})
	}

	p.Wait()
	return written, errs
}

// lookupHash asks each hash index in order.
func (w *Worker) lookupHash(ctx context.Context, hash string) (string, bool, error) {
	var firstErr error
	for _, idx := range w.indexes {
		id, found, err := idx.LookupHash(ctx, hash)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if found {
			return id, true, nil
		}
	}
	return "", false, firstErr
}
