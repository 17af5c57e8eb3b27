// Package acl implements the per-file ACL and lightweight metadata store:
// owner checks, a bounded grant/revoke list, and the touch helpers the
// dispatcher calls after a Storage Server operation succeeds.
package acl

import (
	"sync"

	"github.com/inkwell/nmd/internal/status"
)

// Permission is a bitmask of operations an ACL entry grants.
type Permission uint8

const (
	Read  Permission = 1 << 0
	Write Permission = 1 << 1
)

// MaxClients bounds how many (username, permission) entries a single file's
// ACL may hold.
const MaxClients = 128

// Entry is one ACL row.
type Entry struct {
	Username string
	Bits     Permission
}

// acl is one file's ACL: owner plus a bounded, ordered grant list.
type acl struct {
	owner   string
	entries []Entry
}

// Store holds one ACL per file, keyed by filename.
type Store struct {
	mu   sync.RWMutex
	acls map[string]*acl
}

// New constructs an empty ACL store.
func New() *Store {
	return &Store{acls: make(map[string]*acl)}
}

// Init creates an empty ACL for a newly created file, owned by owner.
func (s *Store) Init(file, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acls[file] = &acl{owner: owner}
}

// Drop removes a file's ACL, e.g. on DELETE or SS eviction.
func (s *Store) Drop(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.acls, file)
}

func (a *acl) find(user string) int {
	for i, e := range a.entries {
		if e.Username == user {
			return i
		}
	}
	return -1
}

// Check reports whether user may perform an operation requiring needed on
// file: true if user is the owner, or if the ACL lists user with all of
// needed's bits set. A file with no owner (one a Storage Server advertised
// via SS_INIT rather than one a client CREATEd) has implicit read access
// for everyone, since no client asserted ownership to gate it — but write
// access still requires an explicit grant, since there is no owner to
// imply it.
func (s *Store) Check(file, user string, needed Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.acls[file]
	if !ok {
		return false
	}
	if a.owner == user && a.owner != "" {
		return true
	}
	if a.owner == "" && needed&Write == 0 {
		return true
	}
	if i := a.find(user); i >= 0 {
		return a.entries[i].Bits&needed == needed
	}
	return false
}

// Owner returns the owning username for file.
func (s *Store) Owner(file string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.acls[file]
	if !ok {
		return "", false
	}
	return a.owner, true
}

// Grant adds or extends an ACL entry. Owner-only: requestor must be file's
// owner. If user is already listed, bits is OR'd in (bit-idempotent);
// otherwise a new entry is appended, failing if the ACL is already at
// MaxClients.
func (s *Store) Grant(file, requestor, user string, bits Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.acls[file]
	if !ok {
		return status.New(status.NotFound, "file not found")
	}
	if a.owner != requestor {
		return status.New(status.OwnerRequired, "only the owner may grant access")
	}

	if i := a.find(user); i >= 0 {
		a.entries[i].Bits |= bits
		return nil
	}
	if len(a.entries) >= MaxClients {
		return status.New(status.InvalidArgs, "ACL is full")
	}
	a.entries = append(a.entries, Entry{Username: user, Bits: bits})
	return nil
}

// Revoke removes user's ACL entry. Owner-only.
func (s *Store) Revoke(file, requestor, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.acls[file]
	if !ok {
		return status.New(status.NotFound, "file not found")
	}
	if a.owner != requestor {
		return status.New(status.OwnerRequired, "only the owner may revoke access")
	}

	i := a.find(user)
	if i < 0 {
		return nil
	}
	a.entries = append(a.entries[:i], a.entries[i+1:]...)
	return nil
}

// List returns a snapshot of file's ACL entries for GET_ACL responses.
func (s *Store) List(file string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.acls[file]
	if !ok {
		return nil, status.New(status.NotFound, "file not found")
	}
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out, nil
}
