package main

import (
	"sync"
	"time"
)

// JobStatus tracks a generation job through the pipeline.
type JobStatus string

const (
	StatusPending         JobStatus = "pending"
	StatusGeneratingImage JobStatus = "generating_image"
	StatusQualityCheck    JobStatus = "quality_check"
	StatusCuttingPieces   JobStatus = "cutting_pieces"
	StatusCompleted       JobStatus = "completed"
	StatusFailed          JobStatus = "failed"
)

// Job represents one asynchronous puzzle-generation run. Fields are guarded
// by mu; handlers read through Snapshot.
type Job struct {
	ID        string
	Status    JobStatus
	Prompt    string
	Score     float64
	Attempts  int
	Error     string
	PuzzleID  string
	CreatedAt time.Time
	mu        sync.Mutex
}

// JobSnapshot is a lock-free copy of a job's state, safe to marshal and
// pass around while the job keeps updating.
type JobSnapshot struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Prompt    string    `json:"prompt,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	PuzzleID  string    `json:"puzzle_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Update applies a mutation under the job lock.
func (j *Job) Update(fn func(*Job)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(j)
}

// Snapshot returns the current state as a JobSnapshot.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Prompt:    j.Prompt,
		Score:     j.Score,
		Attempts:  j.Attempts,
		Error:     j.Error,
		PuzzleID:  j.PuzzleID,
		CreatedAt: j.CreatedAt,
	}
}
