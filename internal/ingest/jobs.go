package ingest

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusParsing    JobStatus = "parsing"
	StatusEmbedding  JobStatus = "embedding"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks the state of one archive ingestion. The archive lands in the
// collection named by the report UUID.
type Job struct {
	mu sync.Mutex

	ID          string
	BatchID     int
	ReportUUID  string
	CallbackURL string

	Status JobStatus
	Phase  string

	Chunks         int
	FilesProcessed int
	FilesSkipped   int

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	archiveData []byte
	errors      []string
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
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
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
	j.UpdatedAt = time.Now()
}

// AddChunks records written chunk counts.
func (j *Job) AddChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Chunks += n
	j.UpdatedAt = time.Now()
}

// AddFile counts one archive member as processed or skipped.
func (j *Job) AddFile(skipped bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if skipped {
		j.FilesSkipped++
	} else {
		j.FilesProcessed++
	}
	j.UpdatedAt = time.Now()
}

// SetArchiveData sets the raw zip bytes for processing.
func (j *Job) SetArchiveData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.archiveData = data
}

// ArchiveData returns the raw zip bytes.
func (j *Job) ArchiveData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.archiveData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID             string    `json:"job_id"`
	BatchID        int       `json:"batch_id"`
	Collection     string    `json:"collection"`
	Status         JobStatus `json:"status"`
	Phase          string    `json:"phase"`
	Chunks         int       `json:"chunks"`
	FilesProcessed int       `json:"files_processed"`
	FilesSkipped   int       `json:"files_skipped"`
	Errors         []string  `json:"errors"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:             j.ID,
		BatchID:        j.BatchID,
		Collection:     j.ReportUUID,
		Status:         j.Status,
		Phase:          j.Phase,
		Chunks:         j.Chunks,
		FilesProcessed: j.FilesProcessed,
		FilesSkipped:   j.FilesSkipped,
		Errors:         append([]string{}, errs...),
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
