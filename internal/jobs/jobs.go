// Package jobs tracks the state of background meditation renders in memory.
package jobs

import (
	"cmp"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending          Status = "pending"
	StatusGeneratingScript Status = "generating_script"
	StatusGeneratingAudio  Status = "generating_audio"
	StatusCompleted        Status = "completed"
	StatusError            Status = "error"
)

// Terminal reports whether no further updates are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ErrNotFound reports an unknown job id.
var ErrNotFound = errors.New("jobs: job not found")

// Job is a snapshot of one render.
type Job struct {
	ID        string    `json:"job_id"`
	Worry     string    `json:"-"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Script    string    `json:"meditation_script,omitempty"`
	AudioKey  string    `json:"audio_key,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker stores jobs in memory. It is safe for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job), now: time.Now}
}

// Create registers a pending job for worry.
func (t *Tracker) Create(worry string) Job {
	now := t.now()
	j := &Job{
		ID:        uuid.NewString(),
		Worry:     worry,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.jobs[j.ID] = j
	t.mu.Unlock()

	return *j
}

// Get returns a snapshot of job id.
func (t *Tracker) Get(id string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	j, ok := t.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}

	return *j, nil
}

// Update applies fn to job id under the tracker lock and returns the new
// snapshot. Progress never decreases.
func (t *Tracker) Update(id string, fn func(*Job)) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}

	prev := j.Progress
	fn(j)

	j.ID = id
	j.Progress = min(max(j.Progress, prev), 100)
	j.UpdatedAt = t.now()

	return *j, nil
}

// SetStatus moves job id to status with the given progress.
func (t *Tracker) SetStatus(id string, status Status, progress int) (Job, error) {
	return t.Update(id, func(j *Job) {
		j.Status = status
		j.Progress = progress
	})
}

// Complete marks job id as done with its script and stored audio key.
func (t *Tracker) Complete(id, script, audioKey string) (Job, error) {
	return t.Update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress = 100
		j.Script = script
		j.AudioKey = audioKey
	})
}

// Fail marks job id as failed with err.
func (t *Tracker) Fail(id string, err error) (Job, error) {
	return t.Update(id, func(j *Job) {
		j.Status = StatusError
		j.Error = err.Error()
	})
}

// List returns snapshots of all jobs, oldest first.
func (t *Tracker) List() []Job {
	t.mu.RLock()
	out := make([]Job, 0, len(t.jobs))

	for j := range maps.Values(t.jobs) {
		out = append(out, *j)
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b Job) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return out
}
