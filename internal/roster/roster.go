// Package roster persists the set of known usernames across Name Server
// restarts: an append-only list flushed to disk on every successful
// CLIENT_INIT and reloaded at startup, so a previously known user's ACL
// references remain meaningful after reconnecting.
package roster

import (
	"bufio"
	"bytes"
	"os"
	"sync"

	"github.com/natefinch/atomic"
)

// Roster is the in-memory, disk-backed set of known usernames.
type Roster struct {
	mu    sync.RWMutex
	path  string
	users map[string]struct{}
}

// Load reads the roster file at path, if it exists, and returns a Roster
// ready for use. A missing file is not an error: the roster starts empty.
func Load(path string) (*Roster, error) {
	r := &Roster{path: path, users: make(map[string]struct{})}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		r.users[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Contains reports whether username is already known to the roster.
func (r *Roster) Contains(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[username]
	return ok
}

// Insert adds username to the roster and flushes the full roster to disk if
// the user was not already known. Flushing happens outside any other guard
// held by the caller, per the wire contract that roster persistence never
// blocks in-memory operations on other structures.
func (r *Roster) Insert(username string) error {
	r.mu.Lock()
	if _, ok := r.users[username]; ok {
		r.mu.Unlock()
		return nil
	}
	r.users[username] = struct{}{}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	return r.flush(snapshot)
}

// snapshotLocked must be called with r.mu held (read or write).
func (r *Roster) snapshotLocked() []string {
	out := make([]string, 0, len(r.users))
	for u := range r.users {
		out = append(out, u)
	}
	return out
}

// flush rewrites the roster file atomically so a crash mid-write never
// leaves a truncated or corrupt roster on disk.
func (r *Roster) flush(users []string) error {
	var buf bytes.Buffer
	for _, u := range users {
		buf.WriteString(u)
		buf.WriteByte('\n')
	}
	return atomic.WriteFile(r.path, bytes.NewReader(buf.Bytes()))
}

// Usernames returns a snapshot of every known username.
func (r *Roster) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}
