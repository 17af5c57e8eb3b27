// Package liveness runs the background scanner that evicts Storage Servers
// and clients whose last-observed activity has exceeded the connection
// timeout.
package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell/nmd/internal/logger"
)

// HeartbeatInterval is how often well-behaved peers are expected to send a
// HEARTBEAT frame.
const HeartbeatInterval = 30 * time.Second

// ConnectionTimeout is how long a peer may go without observed activity
// before the scanner evicts it.
const ConnectionTimeout = 60 * time.Second

// defaultScanInterval is the scanner's sweep period.
const defaultScanInterval = 5 * time.Second

// StaleEntry identifies one timed-out peer for the scanner's caller to
// evict.
type StaleEntry struct {
	Handle   uuid.UUID
	IsServer bool
}

// Source supplies the scanner with the activity timestamps it needs to find
// timed-out peers, and is notified as they're found so it can run the
// matching cascade (registry.RemoveSS / registry.RemoveClient and their
// knock-on effects).
type Source interface {
	// StaleStorageServers returns the handles of Storage Servers whose last
	// activity is older than cutoff.
	StaleStorageServers(cutoff time.Time) []uuid.UUID
	// StaleClients returns the handles of clients whose last activity is
	// older than cutoff.
	StaleClients(cutoff time.Time) []uuid.UUID
	// EvictStorageServer runs the full Storage Server eviction cascade.
	EvictStorageServer(handle uuid.UUID)
	// EvictClient runs the full client teardown.
	EvictClient(handle uuid.UUID)
}

// Scanner periodically sweeps a Source for timed-out peers and evicts them.
type Scanner struct {
	source       Source
	scanInterval time.Duration
	timeout      time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onEvict func(StaleEntry)
}

// Option customizes a Scanner at construction time.
type Option func(*Scanner)

// WithScanInterval overrides the default 5s sweep period.
func WithScanInterval(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.scanInterval = d
		}
	}
}

// WithTimeout overrides the default 60s connection timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithEvictHook registers a callback invoked after each eviction, primarily
// so internal/metrics can count them.
func WithEvictHook(f func(StaleEntry)) Option {
	return func(s *Scanner) {
		s.onEvict = f
	}
}

// New constructs a Scanner bound to source.
func New(source Source, opts ...Option) *Scanner {
	s := &Scanner{
		source:       source,
		scanInterval: defaultScanInterval,
		timeout:      ConnectionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background sweep goroutine. It runs until Stop is
// called or ctx is cancelled.
func (s *Scanner) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the scanner, blocking until its goroutine exits.
func (s *Scanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scanner) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Scanner) sweep() {
	cutoff := time.Now().Add(-s.timeout)

	for _, h := range s.source.StaleStorageServers(cutoff) {
		logger.Info("liveness: evicting storage server", logger.SSHandle(h.String()))
		s.source.EvictStorageServer(h)
		s.notify(StaleEntry{Handle: h, IsServer: true})
	}

	for _, h := range s.source.StaleClients(cutoff) {
		logger.Info("liveness: evicting client", logger.Handle(h.String()))
		s.source.EvictClient(h)
		s.notify(StaleEntry{Handle: h, IsServer: false})
	}
}

func (s *Scanner) notify(e StaleEntry) {
	if s.onEvict != nil {
		s.onEvict(e)
	}
}
