// Package dispatcher implements the Name Server's per-connection command
// router: the INIT/READY state machine, the full client command table, and
// the SS-proxy plumbing for commands that touch file bytes.
package dispatcher

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/inkwell/nmd/internal/acl"
	"github.com/inkwell/nmd/internal/codec"
	"github.com/inkwell/nmd/internal/lock"
	"github.com/inkwell/nmd/internal/logger"
	"github.com/inkwell/nmd/internal/lookupcache"
	"github.com/inkwell/nmd/internal/registry"
	"github.com/inkwell/nmd/internal/roster"
	"github.com/inkwell/nmd/internal/ssproxy"
	"github.com/inkwell/nmd/internal/status"
)

// connState is a connection's position in the INIT -> AUTH -> READY ->
// CLOSED state machine. AUTH is not separately observable on the wire: it
// is the validation step CLIENT_INIT/SS_INIT perform before a connection
// reaches READY.
type connState int

const (
	stateInit connState = iota
	stateReady
	stateClosed
)

// role distinguishes a client connection from a Storage Server control
// connection, chosen by whichever INIT frame arrives first.
type role int

const (
	roleNone role = iota
	roleClient
	roleStorageServer
)

// writeSession tracks an in-progress WRITE: the dispatcher holds the
// sentence lock and forwards each (word_index, word) edit to the Storage
// Server as it arrives, until ETIRW asks the SS to commit them. When the
// connection drops mid-session, teardown only releases the lock: nothing is
// sent to the SS, so edits it has staged are not discarded.
type writeSession struct {
	file     string
	sentence int
}

// conn holds all per-connection state. Connection handling is single
// goroutine, strictly serial: one frame is read, fully processed, and
// responded to before the next is read, so conn needs no internal locking.
type conn struct {
	state    connState
	role     role
	handle   registry.Handle
	username string
	write    *writeSession
}

// Dispatcher wires the shared Name Server state together and exposes the
// single entry point the server's accept loop calls per connection.
type Dispatcher struct {
	Registry *registry.Registry
	ACLs     *acl.Store
	Locks    *lock.Manager
	Cache    *lookupcache.Cache
	Roster   *roster.Roster
	Proxies  *ssproxy.Registry

	// Observe, if set, is called once per dispatched frame with the wire
	// command name, the response's status name, and the handling duration.
	// internal/server binds it to metrics.ObserveRequest.
	Observe func(command, status string, d time.Duration)

	ssOrder *ssInsertionOrder
}

// New constructs a Dispatcher over the given shared components.
func New(reg *registry.Registry, acls *acl.Store, locks *lock.Manager, cache *lookupcache.Cache, rost *roster.Roster, proxies *ssproxy.Registry) *Dispatcher {
	return &Dispatcher{
		Registry: reg,
		ACLs:     acls,
		Locks:    locks,
		Cache:    cache,
		Roster:   rost,
		Proxies:  proxies,
		ssOrder:  newSSInsertionOrder(),
	}
}

// Handle runs a connection from its first frame (CLIENT_INIT or SS_INIT)
// onward. Client connections loop: read one frame, dispatch synchronously,
// write one response, repeat. Storage Server connections instead hand the
// connection to internal/ssproxy once registered, since forwarding and an
// unsolicited read loop cannot safely share one net.Conn; see
// runStorageServer for the documented simplification this implies.
func (d *Dispatcher) Handle(ctx context.Context, rw io.ReadWriter, clientIP string) {
	c := &conn{state: stateInit}

	req, err := codec.ReadRequest(rw)
	if err != nil {
		return
	}

	resp, closeAfter := d.dispatch(ctx, c, req, clientIP)
	if werr := codec.WriteResponse(rw, resp); werr != nil || closeAfter {
		d.teardown(c)
		return
	}

	if c.role == roleStorageServer {
		d.runStorageServer(ctx, c, rw)
		return
	}
	d.runClient(ctx, c, rw)
}

func (d *Dispatcher) runClient(ctx context.Context, c *conn, rw io.ReadWriter) {
	for {
		req, err := codec.ReadRequest(rw)
		if err != nil {
			d.teardown(c)
			return
		}

		resp, closeAfter := d.dispatch(ctx, c, req, "")
		if werr := codec.WriteResponse(rw, resp); werr != nil {
			d.teardown(c)
			return
		}
		if closeAfter || c.state == stateClosed {
			d.teardown(c)
			return
		}
	}
}

// runStorageServer registers rw as the Storage Server's forwarding
// connection and blocks until a forward fails or ctx is cancelled. The
// control connection is then owned exclusively by internal/ssproxy: the
// dispatcher never issues a concurrent Read against it, so the two-writer/
// two-reader hazard of mixing an independent heartbeat read loop with
// NM-initiated forwards never arises. Storage Server liveness is instead
// refreshed on every successful forward (registry.TouchSS), not by a
// separately read, unsolicited HEARTBEAT frame.
func (d *Dispatcher) runStorageServer(ctx context.Context, c *conn, rw io.ReadWriter) {
	forwarder := ssproxy.NewConn(rw)

	broken := make(chan struct{})
	var once sync.Once
	forwarder.OnBroken = func() { once.Do(func() { close(broken) }) }

	d.Proxies.Register(c.handle, forwarder)

	select {
	case <-broken:
	case <-ctx.Done():
	}
	d.teardown(c)
}

// teardown runs the failure/recovery cascade for an ending connection:
// release_all_for(user) for clients, cascade-evict for Storage Servers.
func (d *Dispatcher) teardown(c *conn) {
	switch c.role {
	case roleClient:
		if c.username != "" {
			n := d.Locks.ReleaseAllFor(c.username)
			d.Registry.RemoveClient(c.handle)
			logger.Info("client disconnected", logger.Username(c.username), logger.Evicted(n))
		}
	case roleStorageServer:
		d.evictStorageServer(c.handle)
	}
}

// EvictStorageServer runs the full cascade: drop every file the Storage
// Server owned from the index, purge the lookup cache, and release every
// lock on those files. Exported so internal/liveness.Source can call it.
func (d *Dispatcher) EvictStorageServer(handle registry.Handle) {
	d.evictStorageServer(handle)
}

func (d *Dispatcher) evictStorageServer(handle registry.Handle) {
	ev := d.Registry.RemoveSS(handle)
	d.Cache.InvalidateSS(handle)
	for _, f := range ev.RemovedFiles {
		d.Locks.ReleaseAllOnFile(f)
		d.ACLs.Drop(f)
	}
	d.Proxies.Remove(handle)
	d.ssOrder.remove(handle)
	logger.Info("storage server evicted", logger.SSHandle(handle.String()), logger.Evicted(len(ev.RemovedFiles)))
}

// EvictClient tears down a client session found stale by the liveness
// scanner. Exported so internal/liveness.Source can call it.
func (d *Dispatcher) EvictClient(handle registry.Handle) {
	if c, ok := d.Registry.FindClientByHandle(handle); ok {
		d.Locks.ReleaseAllFor(c.Username)
	}
	d.Registry.RemoveClient(handle)
}

// StaleStorageServers implements internal/liveness.Source.
func (d *Dispatcher) StaleStorageServers(cutoff time.Time) []registry.Handle {
	var out []registry.Handle
	for _, ss := range d.Registry.ActiveStorageServers() {
		if ss.LastActivity.Before(cutoff) {
			out = append(out, ss.Handle)
		}
	}
	return out
}

// StaleClients implements internal/liveness.Source.
func (d *Dispatcher) StaleClients(cutoff time.Time) []registry.Handle {
	var out []registry.Handle
	for _, name := range d.Registry.ActiveClients() {
		c, ok := d.Registry.FindClientByUsername(name)
		if ok && c.LastActivity.Before(cutoff) {
			out = append(out, c.Handle)
		}
	}
	return out
}

// forwardToSS forwards req to the Storage Server identified by handle and
// touches its liveness timestamp on any answer, successful or not: a
// returned error status still means the control connection is alive and
// responding, which is the signal internal/liveness.Scanner needs to keep
// from evicting a Storage Server that never sends an unsolicited HEARTBEAT
// while busy serving forwards (see runStorageServer's doc comment).
func (d *Dispatcher) forwardToSS(ctx context.Context, handle registry.Handle, req codec.Request) (codec.Response, error) {
	resp, err := d.Proxies.Forward(ctx, handle, req)
	if err == nil {
		d.Registry.TouchSS(handle)
	}
	return resp, err
}

func (d *Dispatcher) dispatch(ctx context.Context, c *conn, req codec.Request, clientIP string) (resp codec.Response, closeAfter bool) {
	start := time.Now()

	switch c.state {
	case stateInit:
		resp, closeAfter = d.handleInit(c, req, clientIP)
	case stateReady:
		resp, closeAfter = d.handleReady(ctx, c, req)
	default:
		resp, closeAfter = errResp(status.InvalidOperation, "connection is closed"), true
	}

	if d.Observe != nil {
		d.Observe(req.Command.String(), status.Code(resp.Status).String(), time.Since(start))
	}
	return resp, closeAfter
}

func errResp(code status.Code, msg string) codec.Response {
	return codec.Response{Status: uint32(code), Data: msg}
}

func okResp(data string) codec.Response {
	return codec.Response{Status: uint32(status.OK), Data: data}
}

func respondErr(err error) codec.Response {
	var se *status.Error
	if errors.As(err, &se) {
		return errResp(se.Code, se.Message)
	}
	return errResp(status.Internal, err.Error())
}

func splitArgs(args string, n int) ([]string, bool) {
	parts := strings.SplitN(args, ";", n)
	return parts, len(parts) == n
}

func atoi(s string) (int, error) {
	return strconv.Atoi(s)
}
