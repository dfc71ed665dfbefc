package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/doctree"
)

func testConfig(workers, queue int) config.Config {
	cfg := config.Defaults()
	cfg.WorkerCount = workers
	cfg.MaxQueueSize = queue
	return cfg
}

func waitTerminal(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return job.Snapshot().Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond, "job %s did not finish", job.ID)
	return job.Snapshot()
}

func TestOrchestrator_ProcessesSubmittedJobs(t *testing.T) {
	sink := newMemSink("mem")
	o := NewOrchestrator(testConfig(2, 10), newTestWorker(sink), quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("page.html", []byte(samplePage), doctree.DocMeta{ID: "p1"}, false)
	require.NoError(t, o.Submit(job))

	snap := waitTerminal(t, job)
	require.Equal(t, StatusCompleted, snap.Status)
	assert.Same(t, job, o.GetJob(job.ID))

	stats := o.Stats()
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.QueueSize)
	assert.Equal(t, 1, stats.Jobs[StatusCompleted])
	assert.Equal(t, 1, stats.Latency[PhaseStore].Count)
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(testConfig(1, 1), newTestWorker(), quietLogger())

	first := NewJob("a.txt", []byte("a"), doctree.DocMeta{}, false)
	require.NoError(t, o.Submit(first))
	assert.Equal(t, 1, o.QueueDepth())

	second := NewJob("b.txt", []byte("b"), doctree.DocMeta{}, false)
	require.ErrorIs(t, o.Submit(second), ErrQueueFull)
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
	assert.NotNil(t, o.GetJob(second.ID), "rejected job stays queryable")
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(testConfig(1, 4), newTestWorker(), quietLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	err := o.Submit(NewJob("a.txt", []byte("a"), doctree.DocMeta{}, false))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRunBatch(t *testing.T) {
	sink := newMemSink("mem")
	w := newTestWorker(sink)

	var jobs []*Job
	for i := range 5 {
		body := fmt.Sprintf("<p>document number %d</p>", i)
		jobs = append(jobs, NewJob(fmt.Sprintf("doc%d.html", i), []byte(body), doctree.DocMeta{ID: fmt.Sprintf("d%d", i)}, false))
	}
	jobs = append(jobs, NewJob("bad.exe", []byte("x"), doctree.DocMeta{}, false))

	snaps := RunBatch(context.Background(), w, jobs, 2)
	require.Len(t, snaps, len(jobs))
	for i := range 5 {
		assert.Equal(t, fmt.Sprintf("d%d", i), snaps[i].DocID, "snapshot %d out of order", i)
		assert.Equal(t, StatusCompleted, snaps[i].Status, "snapshot %d", i)
	}
	assert.Equal(t, StatusFailed, snaps[5].Status, "unsupported file fails")
	assert.Len(t, sink.written(), 5)
}
