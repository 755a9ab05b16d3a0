package main

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	subscriberBuffer = 8
	sseKeepAlive     = 25 * time.Second
)

// subscriber is one open event-stream connection watching a job.
type subscriber struct {
	events chan string
	jobID  string
}

// Broadcaster fans job progress events out to event-stream subscribers,
// bucketed by job ID.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[*subscriber]struct{})}
}

// Register adds a subscriber for a job and returns it.
func (b *Broadcaster) Register(jobID string) *subscriber {
	s := &subscriber{
		events: make(chan string, subscriberBuffer),
		jobID:  jobID,
	}
	b.mu.Lock()
	bucket, ok := b.subs[jobID]
	if !ok {
		bucket = make(map[*subscriber]struct{})
		b.subs[jobID] = bucket
	}
	bucket[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unregister removes a subscriber and closes its channel. Calling it twice
// is harmless.
func (b *Broadcaster) Unregister(s *subscriber) {
	b.mu.Lock()
	if bucket, ok := b.subs[s.jobID]; ok {
		if _, ok := bucket[s]; ok {
			delete(bucket, s)
			close(s.events)
		}
		if len(bucket) == 0 {
			delete(b.subs, s.jobID)
		}
	}
	b.mu.Unlock()
}

// Broadcast delivers an event to every subscriber of a job. A subscriber
// whose buffer is full misses the event rather than stalling the sender.
func (b *Broadcaster) Broadcast(jobID, data string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs[jobID] {
		select {
		case s.events <- data:
		default:
		}
	}
}

// ClientCount returns how many subscribers are watching a job.
func (b *Broadcaster) ClientCount(jobID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[jobID])
}

// ServeSSE streams job progress events until the client goes away.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, jobID string, onConnect func(s *subscriber), onDisconnect func()) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s := b.Register(jobID)
	defer func() {
		b.Unregister(s)
		if onDisconnect != nil {
			onDisconnect()
		}
	}()

	if onConnect != nil {
		onConnect(s)
	}

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-s.events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
