package liveness

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeSource struct {
	mu             sync.Mutex
	staleSS        []uuid.UUID
	staleClients   []uuid.UUID
	evictedSS      []uuid.UUID
	evictedClients []uuid.UUID
}

func (f *fakeSource) StaleStorageServers(time.Time) []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.staleSS
	f.staleSS = nil
	return out
}

func (f *fakeSource) StaleClients(time.Time) []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.staleClients
	f.staleClients = nil
	return out
}

func (f *fakeSource) EvictStorageServer(h uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evictedSS = append(f.evictedSS, h)
}

func (f *fakeSource) EvictClient(h uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evictedClients = append(f.evictedClients, h)
}

func (f *fakeSource) snapshot() (ss, clients int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.evictedSS), len(f.evictedClients)
}

func TestScannerEvictsStaleEntries(t *testing.T) {
	src := &fakeSource{}
	ssHandle, clientHandle := uuid.New(), uuid.New()
	src.staleSS = []uuid.UUID{ssHandle}
	src.staleClients = []uuid.UUID{clientHandle}

	var evicted []StaleEntry
	var mu sync.Mutex

	s := New(src, WithScanInterval(10*time.Millisecond), WithEvictHook(func(e StaleEntry) {
		mu.Lock()
		defer mu.Unlock()
		evicted = append(evicted, e)
	}))

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ss, clients := src.snapshot(); ss == 1 && clients == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	ss, clients := src.snapshot()
	if ss != 1 || clients != 1 {
		t.Fatalf("evicted ss=%d clients=%d, want 1 and 1", ss, clients)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(evicted) != 2 {
		t.Fatalf("evict hook fired %d times, want 2", len(evicted))
	}
}

func TestScannerStopIsGraceful(t *testing.T) {
	src := &fakeSource{}
	s := New(src, WithScanInterval(5*time.Millisecond))
	s.Start(context.Background())
	s.Stop() // must return, not hang
}
