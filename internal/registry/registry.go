// Package registry holds the Name Server's in-memory tables: the active
// Storage Servers, the active client sessions, and the file index, plus the
// cascade that tears a Storage Server's entries down when it is evicted.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle identifies a registered connection (Storage Server or client).
type Handle = uuid.UUID

// NewHandle allocates a fresh, random connection handle.
func NewHandle() Handle {
	return uuid.New()
}

// StorageServer is a registered, presumed-live Storage Server.
type StorageServer struct {
	Handle       Handle
	ClientPort   int
	Files        map[string]struct{}
	LastActivity time.Time
}

// FileCount reports how many files this Storage Server currently advertises.
func (s *StorageServer) FileCount() int {
	return len(s.Files)
}

// Client is an active client session bound to a username.
type Client struct {
	Handle       Handle
	Username     string
	LastActivity time.Time
}

// FileEntry is the Name Server's record of a single file: which Storage
// Server owns its bytes, who owns it for ACL purposes, and lightweight
// metadata the dispatcher keeps current.
type FileEntry struct {
	Name           string
	Owner          string
	SSHandle       Handle
	WordCount      int
	CharCount      int
	LastAccessedBy string
	LastModifiedBy string
	AccessedAt     time.Time
	ModifiedAt     time.Time
	BackupSnapshot bool
}

// Registry is the Name Server's set of shared tables. All three maps are
// guarded by a single mutex: operations are in-memory and short, so
// coarse-grained locking is preferred over per-table locks.
type Registry struct {
	mu sync.RWMutex

	ssByHandle      map[Handle]*StorageServer
	clientsByHandle map[Handle]*Client
	clientsByUser   map[string]*Client
	fileIndex       map[string]*FileEntry
}

// Eviction is what RemoveSS returns when a Storage Server is removed:
// RemovedFiles lists the files the registry has already dropped from its
// index, whose names callers must purge from the lookup cache and whose
// locks callers must release.
type Eviction struct {
	RemovedFiles []string
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		ssByHandle:      make(map[Handle]*StorageServer),
		clientsByHandle: make(map[Handle]*Client),
		clientsByUser:   make(map[string]*Client),
		fileIndex:       make(map[string]*FileEntry),
	}
}

// RegisterSS adds a newly announced Storage Server under handle, along with
// the files it advertised at SS_INIT time.
func (r *Registry) RegisterSS(handle Handle, clientPort int, files []string) *StorageServer {
	r.mu.Lock()
	defer r.mu.Unlock()

	ss := &StorageServer{
		Handle:       handle,
		ClientPort:   clientPort,
		Files:        make(map[string]struct{}, len(files)),
		LastActivity: time.Now(),
	}
	for _, f := range files {
		ss.Files[f] = struct{}{}
		r.fileIndex[f] = &FileEntry{Name: f, SSHandle: handle}
	}
	r.ssByHandle[handle] = ss
	return ss
}

// LookupSS returns the Storage Server registered under handle.
func (r *Registry) LookupSS(handle Handle) (*StorageServer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ss, ok := r.ssByHandle[handle]
	return ss, ok
}

// TouchSS refreshes the liveness timestamp for a Storage Server.
func (r *Registry) TouchSS(handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ss, ok := r.ssByHandle[handle]; ok {
		ss.LastActivity = time.Now()
	}
}

// RemoveSS evicts a Storage Server and cascades: every file it owned is
// dropped from the file index. The caller is responsible for purging the
// lookup cache and releasing locks on the returned filenames, since those
// tables live in other packages.
func (r *Registry) RemoveSS(handle Handle) Eviction {
	r.mu.Lock()
	defer r.mu.Unlock()

	ss, ok := r.ssByHandle[handle]
	if !ok {
		return Eviction{}
	}

	removed := make([]string, 0, len(ss.Files))
	for f := range ss.Files {
		delete(r.fileIndex, f)
		removed = append(removed, f)
	}
	delete(r.ssByHandle, handle)

	return Eviction{RemovedFiles: removed}
}

// ActiveStorageServers returns a snapshot of all registered Storage Servers.
func (r *Registry) ActiveStorageServers() []*StorageServer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*StorageServer, 0, len(r.ssByHandle))
	for _, ss := range r.ssByHandle {
		out = append(out, ss)
	}
	return out
}

// SelectSSForCreate picks the active Storage Server with the fewest
// advertised files, tie-breaking by the earliest position in insertionOrder.
// Returns false if no Storage Server in insertionOrder is still active.
func (r *Registry) SelectSSForCreate(insertionOrder []Handle) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *StorageServer
	for _, h := range insertionOrder {
		ss, ok := r.ssByHandle[h]
		if !ok {
			continue
		}
		if best == nil || len(ss.Files) < len(best.Files) {
			best = ss
		}
	}
	if best == nil {
		return Handle{}, false
	}
	return best.Handle, true
}

// AddClient registers a newly authenticated client session.
func (r *Registry) AddClient(handle Handle, username string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Client{Handle: handle, Username: username, LastActivity: time.Now()}
	r.clientsByHandle[handle] = c
	r.clientsByUser[username] = c
	return c
}

// FindClientByHandle looks up a client session by connection handle.
func (r *Registry) FindClientByHandle(handle Handle) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clientsByHandle[handle]
	return c, ok
}

// FindClientByUsername looks up the currently active session for username,
// if any.
func (r *Registry) FindClientByUsername(username string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clientsByUser[username]
	return c, ok
}

// TouchClient refreshes the liveness timestamp for a client session.
func (r *Registry) TouchClient(handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clientsByHandle[handle]; ok {
		c.LastActivity = time.Now()
	}
}

// RemoveClient tears down a client session. Lock release for the user is the
// caller's responsibility (it lives in the lock manager).
func (r *Registry) RemoveClient(handle Handle) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clientsByHandle[handle]
	if !ok {
		return nil, false
	}
	delete(r.clientsByHandle, handle)
	if r.clientsByUser[c.Username] == c {
		delete(r.clientsByUser, c.Username)
	}
	return c, true
}

// ActiveClients returns a snapshot of active usernames, for LIST.
func (r *Registry) ActiveClients() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.clientsByUser))
	for u := range r.clientsByUser {
		out = append(out, u)
	}
	return out
}

// AddFile installs a newly created file in the index, owned by owner and
// served by ss.
func (r *Registry) AddFile(name, owner string, ss Handle) *FileEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	fe := &FileEntry{Name: name, Owner: owner, SSHandle: ss, AccessedAt: now, ModifiedAt: now}
	r.fileIndex[name] = fe
	if s, ok := r.ssByHandle[ss]; ok {
		s.Files[name] = struct{}{}
	}
	return fe
}

// FindFile looks up a file by name.
func (r *Registry) FindFile(name string) (*FileEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fe, ok := r.fileIndex[name]
	return fe, ok
}

// RemoveFile drops a file from the index and from its owning Storage
// Server's advertised set.
func (r *Registry) RemoveFile(name string) (*FileEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fe, ok := r.fileIndex[name]
	if !ok {
		return nil, false
	}
	delete(r.fileIndex, name)
	if ss, ok := r.ssByHandle[fe.SSHandle]; ok {
		delete(ss.Files, name)
	}
	return fe, true
}

// AllFiles returns a snapshot of every indexed file, for VIEW.
func (r *Registry) AllFiles() []*FileEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*FileEntry, 0, len(r.fileIndex))
	for _, fe := range r.fileIndex {
		out = append(out, fe)
	}
	return out
}

// TouchAccessed records on name's file entry that user read it.
func (r *Registry) TouchAccessed(name, user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fe, ok := r.fileIndex[name]; ok {
		fe.LastAccessedBy = user
		fe.AccessedAt = time.Now()
	}
}

// TouchModified records that user wrote name and refreshes its word/char
// counts.
func (r *Registry) TouchModified(name, user string, words, chars int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fe, ok := r.fileIndex[name]; ok {
		fe.LastModifiedBy = user
		fe.ModifiedAt = time.Now()
		fe.WordCount = words
		fe.CharCount = chars
	}
}
