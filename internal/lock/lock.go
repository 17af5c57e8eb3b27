// Package lock implements the sentence-level lock manager: a flat table of
// active locks keyed by (filename, sentence index), serialized per key.
package lock

import (
	"sync"
	"time"

	"github.com/inkwell/nmd/internal/status"
)

// Key identifies a single lockable sentence.
type Key struct {
	File  string
	Index int
}

// Lock records who holds a sentence lock and since when.
type Lock struct {
	Holder     string
	AcquiredAt time.Time
}

// Manager is the lock table. Acquisition and release are serialized by the
// single guarding mutex, which covers every key at once; the critical
// sections are short in-memory map operations.
type Manager struct {
	mu    sync.Mutex
	locks map[Key]Lock
}

// New constructs an empty lock manager.
func New() *Manager {
	return &Manager{locks: make(map[Key]Lock)}
}

// Acquire takes the lock on (file, idx) for user. Acquiring a lock the same
// user already holds is a no-op success (idempotent). Any other holder
// yields LOCKED.
func (m *Manager) Acquire(file string, idx int, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key{File: file, Index: idx}
	if l, ok := m.locks[key]; ok {
		if l.Holder == user {
			return nil
		}
		return status.New(status.Locked, "sentence is locked by another user")
	}

	m.locks[key] = Lock{Holder: user, AcquiredAt: time.Now()}
	return nil
}

// Release gives up the lock on (file, idx). Fails with INVALID_OPERATION if
// user is not the current holder (including if no lock is held at all).
func (m *Manager) Release(file string, idx int, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key{File: file, Index: idx}
	l, ok := m.locks[key]
	if !ok || l.Holder != user {
		return status.New(status.InvalidOperation, "not the lock holder")
	}
	delete(m.locks, key)
	return nil
}

// ReleaseAllFor releases every lock held by user, e.g. on client disconnect.
// Returns the number of locks released.
func (m *Manager) ReleaseAllFor(user string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, l := range m.locks {
		if l.Holder == user {
			delete(m.locks, k)
			n++
		}
	}
	return n
}

// ReleaseAllOnFile releases every lock on file, e.g. when the file is
// deleted or its Storage Server is evicted. Returns the number of locks
// released.
func (m *Manager) ReleaseAllOnFile(file string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.locks {
		if k.File == file {
			delete(m.locks, k)
			n++
		}
	}
	return n
}

// HolderOf reports who (if anyone) currently holds the lock on (file, idx).
func (m *Manager) HolderOf(file string, idx int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[Key{File: file, Index: idx}]
	return l.Holder, ok
}

// Stats summarizes the lock table for diagnostics and metrics.
type Stats struct {
	TotalLocks int
}

// Stats returns a snapshot of the lock table's size.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{TotalLocks: len(m.locks)}
}
