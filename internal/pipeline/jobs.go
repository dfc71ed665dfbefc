package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/pagegest/internal/doctree"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusConverting JobStatus = "converting"
	StatusParsing    JobStatus = "parsing"
	StatusChunking   JobStatus = "chunking"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID           string `json:"job_id"`
	DocID        string `json:"doc_id"`
	ContainerKey string `json:"container_key"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Force    bool      `json:"force"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData  []byte
	overrides doctree.DocMeta
	errors    []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalChunks     int      `json:"total_chunks"`
	EstimatedTokens int      `json:"estimated_tokens"`
	SinksWritten    int      `json:"sinks_written"`
	Errors          []string `json:"errors"`
}

// NewJob creates a queued job for an uploaded file. Non-empty fields of
// overrides win over whatever metadata the file itself carries.
func NewJob(filename string, data []byte, overrides doctree.DocMeta, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.NewString(),
		DocID:        overrides.ID,
		ContainerKey: overrides.ContainerKey,
		Status:       StatusQueued,
		Phase:        "queued",
		Filename:     filename,
		Title:        overrides.Title,
		Force:        force,
		CreatedAt:    now,
		UpdatedAt:    now,
		fileData:     data,
		overrides:    overrides,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Counts tallies tracked jobs by status.
func (s *JobStore) Counts() map[JobStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[JobStatus]int)
	for _, job := range s.jobs {
		job.mu.Lock()
		out[job.Status]++
		job.mu.Unlock()
	}
	return out
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetDocument records the resolved document identity.
func (j *Job) SetDocument(meta doctree.DocMeta, contentHash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DocID = meta.ID
	j.Title = meta.Title
	j.ContainerKey = meta.ContainerKey
	j.ContentHash = contentHash
	j.UpdatedAt = time.Now()
}

// MarkDuplicate records the document that already holds this content.
func (j *Job) MarkDuplicate(existingDocID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DuplicateOf = existingDocID
	j.Status = StatusDupSkipped
	j.Phase = "dedup"
	j.UpdatedAt = time.Now()
}

// SetChunkCounts records the chunk count and their estimated token total.
func (j *Job) SetChunkCounts(chunks, tokens int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = chunks
	j.Progress.EstimatedTokens = tokens
	j.UpdatedAt = time.Now()
}

// IncrSinksWritten counts one successful sink write.
func (j *Job) IncrSinksWritten() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SinksWritten++
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been converted.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// resolveMeta applies the job's overrides on top of the converted metadata.
func (j *Job) resolveMeta(fromSource doctree.DocMeta) doctree.DocMeta {
	j.mu.Lock()
	over := j.overrides
	j.mu.Unlock()

	m := fromSource
	if over.ID != "" {
		m.ID = over.ID
	}
	if over.Title != "" {
		m.Title = over.Title
	}
	if over.ContainerKey != "" {
		m.ContainerKey = over.ContainerKey
	}
	if over.LastUpdated != "" {
		m.LastUpdated = over.LastUpdated
	}
	if over.Author != "" {
		m.Author = over.Author
	}
	if over.URL != "" {
		m.URL = over.URL
	}
	return m
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID           string    `json:"job_id"`
	DocID        string    `json:"doc_id"`
	ContainerKey string    `json:"container_key"`
	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	ContentHash  string    `json:"content_hash,omitempty"`
	DuplicateOf  string    `json:"duplicate_of,omitempty"`
	Progress     Progress  `json:"progress"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:           j.ID,
		DocID:        j.DocID,
		ContainerKey: j.ContainerKey,
		Status:       j.Status,
		Phase:        j.Phase,
		Filename:     j.Filename,
		Title:        j.Title,
		ContentHash:  j.ContentHash,
		DuplicateOf:  j.DuplicateOf,
		Progress: Progress{
			TotalChunks:     j.Progress.TotalChunks,
			EstimatedTokens: j.Progress.EstimatedTokens,
			SinksWritten:    j.Progress.SinksWritten,
			Errors:          errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
