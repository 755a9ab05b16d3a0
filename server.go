package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
	}
	// Cleanup stale entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Server exposes generated puzzles and generation jobs over HTTP.
type Server struct {
	mux       *http.ServeMux
	store     *Store
	generator *PuzzleGenerator
	sse       *Broadcaster
	genRL     *rateLimiter
	settings  Settings
}

// NewServer creates a configured HTTP server. generator may be nil when
// image generation is not configured; POST /api/puzzles then returns 503.
func NewServer(store *Store, generator *PuzzleGenerator, sse *Broadcaster, settings Settings) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		store:     store,
		generator: generator,
		sse:       sse,
		genRL:     newRateLimiter(2, time.Minute), // 2 generations/min per IP
		settings:  settings,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Puzzle API
	s.mux.HandleFunc("POST /api/puzzles", s.handleGeneratePuzzle)
	s.mux.HandleFunc("GET /api/puzzles", s.handleListPuzzles)
	s.mux.HandleFunc("GET /api/puzzles/{id}", s.handleGetPuzzle)
	s.mux.HandleFunc("GET /api/puzzles/{id}/manifest", s.handleGetManifest)

	// Job API
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /api/jobs/{id}/events", s.handleJobEvents)

	// Piece images and other per-puzzle artifacts.
	s.mux.Handle("GET /puzzles/", http.StripPrefix("/puzzles/",
		http.FileServer(http.Dir(s.settings.OutputDir))))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	s.mux.ServeHTTP(w, r)
}

// --- Puzzle handlers ---

// POST /api/puzzles — start an asynchronous generation job.
func (s *Server) handleGeneratePuzzle(w http.ResponseWriter, r *http.Request) {
	if !s.genRL.allow(r.RemoteAddr) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}
	if s.generator == nil {
		jsonError(w, "image generation not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Complexity float64 `json:"complexity"`
		Style      string  `json:"style"`
		Seed       uint64  `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Style == "" {
		req.Style = string(StyleClassic)
	}
	style, err := ParseCuttingStyle(req.Style)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Complexity < 0 || req.Complexity > 1 {
		jsonError(w, "complexity must be between 0 and 1", http.StatusBadRequest)
		return
	}
	seed := req.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	job := s.store.CreateJob()
	go func() {
		if _, err := s.generator.RunJob(context.Background(), job, req.Complexity, style, seed); err != nil {
			log.Printf("job %s failed: %v", job.ID, err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job.Snapshot())
}

// GET /api/puzzles — list all puzzles.
func (s *Server) handleListPuzzles(w http.ResponseWriter, _ *http.Request) {
	puzzles := s.store.ListPuzzles()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(puzzles)
}

// GET /api/puzzles/{id} — get a single puzzle record.
func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzle := s.store.GetPuzzle(r.PathValue("id"))
	if puzzle == nil {
		jsonError(w, "puzzle not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(puzzle)
}

// GET /api/puzzles/{id}/manifest — serve the piece placement manifest.
func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	puzzle := s.store.GetPuzzle(r.PathValue("id"))
	if puzzle == nil {
		jsonError(w, "puzzle not found", http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(filepath.Join(puzzle.Dir, "manifest.json"))
	if err != nil {
		jsonError(w, "manifest not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// --- Job handlers ---

// GET /api/jobs/{id} — get job progress.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.store.GetJob(r.PathValue("id"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// GET /api/jobs/{id}/events — stream job progress over SSE.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	job := s.store.GetJob(r.PathValue("id"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	s.sse.ServeSSE(w, r, job.ID, func(sub *subscriber) {
		// Send the current state so late subscribers catch up.
		if data, err := json.Marshal(job.Snapshot()); err == nil {
			select {
			case sub.events <- string(data):
			default:
			}
		}
	}, nil)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
