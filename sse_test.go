package main

import (
	"sync"
	"testing"
	"time"
)

func TestBroadcasterRegisterUnregister(t *testing.T) {
	b := NewBroadcaster()

	s1 := b.Register("job1")
	s2 := b.Register("job1")
	s3 := b.Register("job2")

	if b.ClientCount("job1") != 2 {
		t.Fatalf("expected 2 subscribers for job1, got %d", b.ClientCount("job1"))
	}
	if b.ClientCount("job2") != 1 {
		t.Fatalf("expected 1 subscriber for job2, got %d", b.ClientCount("job2"))
	}

	b.Unregister(s1)
	if b.ClientCount("job1") != 1 {
		t.Fatalf("expected 1 subscriber for job1 after unregister, got %d", b.ClientCount("job1"))
	}

	b.Unregister(s2)
	b.Unregister(s3)
	if b.ClientCount("job1") != 0 || b.ClientCount("job2") != 0 {
		t.Fatal("expected 0 subscribers after full unregister")
	}
}

func TestBroadcasterDoubleUnregister(t *testing.T) {
	b := NewBroadcaster()
	s := b.Register("job1")
	b.Unregister(s)
	b.Unregister(s) // should not panic
}

func TestBroadcast(t *testing.T) {
	b := NewBroadcaster()

	s1 := b.Register("job1")
	s2 := b.Register("job1")
	s3 := b.Register("job2")

	b.Broadcast("job1", "hello")

	select {
	case msg := <-s1.events:
		if msg != "hello" {
			t.Fatalf("s1 expected 'hello', got %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("s1 did not receive message")
	}

	select {
	case msg := <-s2.events:
		if msg != "hello" {
			t.Fatalf("s2 expected 'hello', got %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("s2 did not receive message")
	}

	// s3 is on job2, should not receive.
	select {
	case <-s3.events:
		t.Fatal("s3 should not receive job1 message")
	case <-time.After(50 * time.Millisecond):
		// ok
	}

	b.Unregister(s1)
	b.Unregister(s2)
	b.Unregister(s3)
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	b := NewBroadcaster()
	s := b.Register("job1")

	// Fill the buffer.
	for range subscriberBuffer {
		b.Broadcast("job1", "fill")
	}

	// This should not block.
	b.Broadcast("job1", "overflow")

	b.Unregister(s)
}

func TestBroadcasterConcurrent(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jobID := "job1"
			if i%2 == 0 {
				jobID = "job2"
			}
			s := b.Register(jobID)
			b.Broadcast(jobID, "msg")
			b.ClientCount(jobID)
			b.Unregister(s)
		}(i)
	}
	wg.Wait()

	if b.ClientCount("job1") != 0 || b.ClientCount("job2") != 0 {
		t.Fatal("expected 0 subscribers after concurrent test")
	}
}
