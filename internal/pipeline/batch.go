package pipeline

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// RunBatch processes jobs directly on w with at most concurrency in
// flight, bypassing the queue. Snapshots come back in input order.
func RunBatch(ctx context.Context, w *Worker, jobs []*Job, concurrency int) []JobSnapshot {
	if concurrency < 1 {
		concurrency = 1
	}

	p := pool.New().WithMaxGoroutines(concurrency)
	for _, job := range jobs {
		p.Go(func() {
			w.Process(ctx, job)
		})
	}
	p.Wait()

	out := make([]JobSnapshot, len(jobs))
	for i, job := range jobs {
		out[i] = job.Snapshot()
	}
	return out
}
