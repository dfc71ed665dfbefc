package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/pathstore"
	"github.com/dgallion1/pagegest/internal/source"
)

// memSink records writes in memory and answers hash lookups from them.
type memSink struct {
	name string

	mu       sync.Mutex
	records  []doctree.Record
	hashes   map[string]string
	calls    int
	failures int // fail this many writes before succeeding
	err      error
}

func newMemSink(name string) *memSink {
	return &memSink{name: name, hashes: make(map[string]string)}
}

func (m *memSink) Name() string { return m.name }

func (m *memSink) Write(_ context.Context, rec doctree.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil && m.failures != 0 {
		if m.failures > 0 {
			m.failures--
		}
		return m.err
	}
	m.records = append(m.records, rec)
	m.hashes[rec.ContentHash] = rec.Meta.ID
	return nil
}

func (m *memSink) LookupHash(_ context.Context, hash string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.hashes[hash]
	return id, ok, nil
}

func (m *memSink) written() []doctree.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]doctree.Record(nil), m.records...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(sinks ...Sink) *Worker {
	w := NewWorker(sinks, nil, nil, source.Options{}, nil, quietLogger())
	w.backoff = func(int) time.Duration { return 0 }
	return w
}

const samplePage = `<html><head><title>Deploy Guide</title></head><body>
<div><h2>Steps</h2></div>
<p>Build the image.</p>
<ul><li>push</li><li>roll out</li></ul>
</body></html>`

func TestWorker_ProcessHTML(t *testing.T) {
	sink := newMemSink("mem")
	w := newTestWorker(sink)

	job := NewJob("deploy.html", []byte(samplePage), doctree.DocMeta{ID: "page-1", ContainerKey: "OPS"}, false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, snap.Progress.Errors)
	assert.Equal(t, "page-1", snap.DocID)
	assert.Equal(t, "Deploy Guide", snap.Title)
	assert.Equal(t, "OPS", snap.ContainerKey)
	assert.NotEmpty(t, snap.ContentHash)
	assert.Equal(t, 1, snap.Progress.SinksWritten)
	assert.Nil(t, job.FileData(), "upload is released after conversion")

	recs := sink.written()
	require.Len(t, recs, 1)
	rec := recs[0]
	require.Len(t, rec.Chunks, 2, "one section chunk plus metadata")
	assert.Equal(t, len(rec.Chunks), snap.Progress.TotalChunks)
	assert.Equal(t, chunker.TotalTokens(rec.Chunks), snap.Progress.EstimatedTokens)
	assert.Positive(t, snap.Progress.EstimatedTokens)
	assert.Equal(t, "Steps", rec.Chunks[0].Metadata.Section)
	assert.Contains(t, rec.Chunks[0].Content, "• roll out")
	require.NotNil(t, rec.Document)
	assert.Equal(t, "Deploy Guide", rec.Document.Title)
	assert.Equal(t, "page-1-metadata", rec.Chunks[len(rec.Chunks)-1].ID)
}

func TestWorker_MarkdownSectionsKeepContent(t *testing.T) {
	sink := newMemSink("mem")
	w := newTestWorker(sink)

	md := "# Intro\n\nHello world.\n\n## Setup\n\nInstall it.\n"
	job := NewJob("a.md", []byte(md), doctree.DocMeta{ID: "md-1"}, false)
	w.Process(context.Background(), job)
	require.Equal(t, StatusCompleted, job.Snapshot().Status)

	rec := sink.written()[0]
	sections := rec.Document.Sections
	require.Len(t, sections, 2)
	assert.Equal(t, "Intro", sections[0].Title)
	assert.Contains(t, sections[0].TextContent, "Hello world.")
	assert.Equal(t, "Setup", sections[1].Title)
	assert.Contains(t, sections[1].TextContent, "Install it.")
	assert.Contains(t, sections[1].Content, "<p>Install it.</p>")

	require.Len(t, rec.Chunks, 3)
	assert.Equal(t, "Intro\n\nHello world.", rec.Chunks[0].Content)
	assert.Equal(t, "Setup\n\nInstall it.", rec.Chunks[1].Content)
}

func TestWorker_NoSinksCompletes(t *testing.T) {
	w := newTestWorker()
	job := NewJob("notes.txt", []byte("one\n\ntwo"), doctree.DocMeta{}, false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status)
	assert.Len(t, snap.DocID, 16, "derived document id")
	assert.Equal(t, "notes", snap.Title, "title from filename")
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	sink := newMemSink("mem")
	w := newTestWorker(sink)

	first := NewJob("a.html", []byte(samplePage), doctree.DocMeta{ID: "orig"}, false)
	w.Process(context.Background(), first)

	second := NewJob("b.html", []byte(samplePage), doctree.DocMeta{ID: "copy"}, false)
	w.Process(context.Background(), second)

	snap := second.Snapshot()
	require.Equal(t, StatusDupSkipped, snap.Status)
	assert.Equal(t, "orig", snap.DuplicateOf)
	assert.Len(t, sink.written(), 1, "only the first write")

	forced := NewJob("c.html", []byte(samplePage), doctree.DocMeta{ID: "forced"}, true)
	w.Process(context.Background(), forced)
	assert.Equal(t, StatusCompleted, forced.Snapshot().Status)
	assert.Len(t, sink.written(), 2, "forced write")
}

func TestWorker_RetriesTransientSinkErrors(t *testing.T) {
	sink := newMemSink("flaky")
	sink.failures = 2
	sink.err = &pathstore.RetryableError{StatusCode: 503, Message: "busy"}
	w := newTestWorker(sink)

	job := NewJob("a.html", []byte(samplePage), doctree.DocMeta{ID: "p"}, false)
	w.Process(context.Background(), job)

	require.Equal(t, StatusCompleted, job.Snapshot().Status)
	assert.Equal(t, 3, sink.calls)
}

func TestWorker_PermanentSinkErrorNotRetried(t *testing.T) {
	sink := newMemSink("broken")
	sink.failures = -1
	sink.err = errors.New("disk full")
	w := newTestWorker(sink)

	job := NewJob("a.html", []byte(samplePage), doctree.DocMeta{ID: "p"}, false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, 1, sink.calls)
	require.Len(t, snap.Progress.Errors, 1)
	assert.Contains(t, snap.Progress.Errors[0], "broken: disk full")
}

func TestWorker_PartialWhenOneSinkFails(t *testing.T) {
	good := newMemSink("good")
	bad := newMemSink("bad")
	bad.failures = -1
	bad.err = errors.New("nope")
	w := newTestWorker(good, bad)

	job := NewJob("a.html", []byte(samplePage), doctree.DocMeta{ID: "p"}, false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusPartial, snap.Status)
	assert.Equal(t, 1, snap.Progress.SinksWritten)
}

func TestWorker_UnsupportedFileFails(t *testing.T) {
	w := newTestWorker(newMemSink("mem"))
	job := NewJob("image.png", []byte{0x89, 'P', 'N', 'G'}, doctree.DocMeta{}, false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "converting", snap.Phase)
	assert.NotEmpty(t, snap.Progress.Errors)
}

func TestWorker_MarkdownFrontMatterWithOverrides(t *testing.T) {
	sink := newMemSink("mem")
	w := newTestWorker(sink)

	md := "---\nid: runbook-7\ntitle: From Front Matter\nauthor: kim\n---\n\n## Restart\n\nRun the script.\n"
	job := NewJob("runbook.md", []byte(md), doctree.DocMeta{Title: "Override"}, false)
	w.Process(context.Background(), job)
	require.Equal(t, StatusCompleted, job.Snapshot().Status)

	rec := sink.written()[0]
	assert.Equal(t, "runbook-7", rec.Meta.ID)
	assert.Equal(t, "Override", rec.Meta.Title)
	assert.Equal(t, "kim", rec.Meta.Author)
	assert.Equal(t, "Restart", rec.Chunks[0].Metadata.Section)
}

func TestWorker_RecordsPhaseLatency(t *testing.T) {
	w := newTestWorker()
	w.Process(context.Background(), NewJob("a.txt", []byte("x"), doctree.DocMeta{}, false))
	w.Process(context.Background(), NewJob("b.txt", []byte("y"), doctree.DocMeta{}, false))
	w.Process(context.Background(), NewJob("c.png", []byte("z"), doctree.DocMeta{}, false))

	snap := w.Stats().Snapshot()
	assert.Equal(t, int64(3), snap.Documents())
	assert.Equal(t, 3, snap[PhaseConvert].Count, "failed conversions are timed too")
	assert.Equal(t, 2, snap[PhaseParse].Count)
	assert.Equal(t, 2, snap[PhaseChunk].Count)
	assert.NotContains(t, snap, PhaseStore, "no sinks, no store phase")
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, quietLogger(), func(int) time.Duration { return time.Hour }, "x", func() error {
		calls++
		return &pathstore.RetryableError{StatusCode: 429}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffBounds(t *testing.T) {
	for attempt := range 8 {
		d := Backoff(attempt)
		base := min(time.Duration(1<<uint(attempt))*time.Second, 30*time.Second)
		assert.GreaterOrEqual(t, d, base, "attempt %d", attempt)
		assert.Less(t, d, base+base/2, "attempt %d", attempt)
	}
}
