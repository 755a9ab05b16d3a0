package main

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// PuzzleRecord describes one finished puzzle on disk.
type PuzzleRecord struct {
	ID         string       `json:"id"`
	Prompt     string       `json:"prompt,omitempty"`
	Style      CuttingStyle `json:"style"`
	Grid       [2]int       `json:"grid"`
	Score      float64      `json:"score"`
	PieceCount int          `json:"piece_count"`
	Degraded   int          `json:"degraded_pieces,omitempty"`
	Dir        string       `json:"-"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Store holds all puzzles and generation jobs in memory.
type Store struct {
	mu      sync.RWMutex
	puzzles map[string]*PuzzleRecord
	jobs    map[string]*Job
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		puzzles: make(map[string]*PuzzleRecord),
		jobs:    make(map[string]*Job),
	}
}

// SavePuzzle persists a puzzle record, assigning an ID when the caller has
// not already picked one.
func (s *Store) SavePuzzle(p *PuzzleRecord) *PuzzleRecord {
	if p.ID == "" {
		p.ID = generateID()
	}
	p.CreatedAt = time.Now()

	s.mu.Lock()
	s.puzzles[p.ID] = p
	s.mu.Unlock()

	return p
}

// GetPuzzle returns a puzzle by ID, or nil if not found.
func (s *Store) GetPuzzle(id string) *PuzzleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puzzles[id]
}

// ListPuzzles returns all puzzles, most recent first.
func (s *Store) ListPuzzles() []*PuzzleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*PuzzleRecord, 0, len(s.puzzles))
	for _, p := range s.puzzles {
		list = append(list, p)
	}
	// Sort by CreatedAt descending (simple insertion, small N).
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].CreatedAt.After(list[j-1].CreatedAt); j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
	return list
}

// CreateJob registers a new pending generation job.
func (s *Store) CreateJob() *Job {
	job := &Job{
		ID:        generateID(),
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return job
}

// GetJob returns a job by ID, or nil if not found.
func (s *Store) GetJob(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// ListJobs returns all jobs.
func (s *Store) ListJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		list = append(list, j)
	}
	return list
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
