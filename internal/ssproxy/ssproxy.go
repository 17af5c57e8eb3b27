// Package ssproxy forwards dispatcher-derived requests to the owning
// Storage Server over its control connection and relays the response back.
// The control connection is half-duplex-per-request, so forwards to the
// same Storage Server are serialized on a per-connection queue rather than
// matched by an explicit request ID.
package ssproxy

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/inkwell/nmd/internal/codec"
	"github.com/inkwell/nmd/internal/status"
)

// Forwarder forwards one request to a Storage Server and returns its
// response. Implementations must serialize concurrent calls: the wire
// protocol allows only one outstanding request per control connection.
type Forwarder interface {
	Forward(ctx context.Context, req codec.Request) (codec.Response, error)
}

// Conn is a Forwarder backed by a live Storage Server control connection.
// A single mutex enforces the half-duplex-per-request contract: a forward
// must fully complete (write request, read response) before the next one
// begins, matching the dispatcher's per-SS outbound queue requirement.
type Conn struct {
	mu sync.Mutex
	rw io.ReadWriter

	// OnBroken, if set, is called every time a Forward fails, so the caller
	// can evict the Storage Server and release whatever was waiting on the
	// connection. Conn does not deduplicate these calls.
	OnBroken func()
}

// NewConn wraps rw (typically a net.Conn to the Storage Server) as a
// Forwarder.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// Forward writes req and waits for the matching response. ctx cancellation
// is not honored mid-I/O (the underlying io.ReadWriter has no deadline
// hook); callers needing a timeout should set a deadline on the
// net.Conn directly before calling Forward.
func (c *Conn) Forward(_ context.Context, req codec.Request) (codec.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := codec.WriteRequest(c.rw, req); err != nil {
		c.broken()
		return codec.Response{}, status.New(status.ServerUnavailable, "write to storage server failed: "+err.Error())
	}
	resp, err := codec.ReadResponse(c.rw)
	if err != nil {
		c.broken()
		return codec.Response{}, status.New(status.ServerUnavailable, "read from storage server failed: "+err.Error())
	}
	return resp, nil
}

func (c *Conn) broken() {
	if c.OnBroken != nil {
		c.OnBroken()
	}
}

// Registry tracks the live Forwarder for each registered Storage Server
// handle.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]Forwarder
}

// NewRegistry constructs an empty proxy registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]Forwarder)}
}

// Register associates handle with its live Forwarder.
func (r *Registry) Register(handle uuid.UUID, f Forwarder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[handle] = f
}

// Remove drops handle's Forwarder, e.g. on Storage Server eviction.
func (r *Registry) Remove(handle uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, handle)
}

// Forward looks up handle's Forwarder and relays req to it. Returns
// SERVER_UNAVAILABLE if no Forwarder is registered for handle.
func (r *Registry) Forward(ctx context.Context, handle uuid.UUID, req codec.Request) (codec.Response, error) {
	r.mu.RLock()
	f, ok := r.conns[handle]
	r.mu.RUnlock()

	if !ok {
		return codec.Response{}, status.New(status.ServerUnavailable, "storage server not connected")
	}
	return f.Forward(ctx, req)
}
