package pipeline

import (
	"slices"
	"sync"
	"time"
)

// Phase names a timed stage of the ingest pipeline.
type Phase string

const (
	PhaseConvert Phase = "convert"
	PhaseParse   Phase = "parse"
	PhaseChunk   Phase = "chunk"
	PhaseStore   Phase = "store"
	PhaseTotal   Phase = "total"
)

// Phases lists every phase in pipeline order.
var Phases = []Phase{PhaseConvert, PhaseParse, PhaseChunk, PhaseStore, PhaseTotal}

// DefaultStatsWindow is how many recent samples each phase keeps.
const DefaultStatsWindow = 512

// PhaseLatency summarizes the retained samples of one phase.
type PhaseLatency struct {
	Count  int     `json:"count"`
	Seen   int64   `json:"seen"`
	MeanMs float64 `json:"mean_ms"`
	MaxMs  int64   `json:"max_ms"`
	P50Ms  int64   `json:"p50_ms"`
	P95Ms  int64   `json:"p95_ms"`
}

// StatsSnapshot holds one entry per phase that has recorded anything.
type StatsSnapshot map[Phase]PhaseLatency

// Documents is the number of documents timed end to end.
func (s StatsSnapshot) Documents() int64 {
	return s[PhaseTotal].Seen
}

// ring keeps the last len(buf) samples of a phase.
type ring struct {
	buf  []int64
	next int
	full bool
	seen int64
}

func (r *ring) add(ms int64) {
	r.buf[r.next] = ms
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
	r.seen++
}

func (r *ring) values() []int64 {
	if r.full {
		return slices.Clone(r.buf)
	}
	return slices.Clone(r.buf[:r.next])
}

// Stats tracks per-phase processing latency over a fixed number of recent
// samples. It is safe for concurrent use.
type Stats struct {
	mu     sync.Mutex
	size   int
	phases map[Phase]*ring
}

// NewStats returns a Stats keeping window samples per phase.
func NewStats(window int) *Stats {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	return &Stats{size: window, phases: make(map[Phase]*ring)}
}

// Record adds one sample for phase. Negative durations count as zero.
func (s *Stats) Record(phase Phase, d time.Duration) {
	ms := max(d.Milliseconds(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.phases[phase]
	if !ok {
		r = &ring{buf: make([]int64, s.size)}
		s.phases[phase] = r
	}
	r.add(ms)
}

// Time starts a timer for phase; calling the returned func records it.
func (s *Stats) Time(phase Phase) func() {
	start := time.Now()
	return func() { s.Record(phase, time.Since(start)) }
}

// Snapshot summarizes every phase seen so far.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(StatsSnapshot, len(s.phases))
	for phase, r := range s.phases {
		out[phase] = summarize(r.values(), r.seen)
	}
	return out
}

func summarize(values []int64, seen int64) PhaseLatency {
	if len(values) == 0 {
		return PhaseLatency{Seen: seen}
	}
	slices.Sort(values)

	var sum int64
	for _, v := range values {
		sum += v
	}
	return PhaseLatency{
		Count:  len(values),
		Seen:   seen,
		MeanMs: float64(sum) / float64(len(values)),
		MaxMs:  values[len(values)-1],
		P50Ms:  nearestRank(values, 50),
		P95Ms:  nearestRank(values, 95),
	}
}

// nearestRank picks the smallest sample with at least pct percent of the
// samples at or below it.
func nearestRank(sorted []int64, pct int) int64 {
	rank := (pct*len(sorted) + 99) / 100
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}
