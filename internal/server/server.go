// Package server composes the Name Server's shared components into a single
// TCP listener: an accept loop handing connections to the dispatcher, the
// liveness scanner, and the metrics HTTP server, with cooperative shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/inkwell/nmd/internal/acl"
	"github.com/inkwell/nmd/internal/config"
	"github.com/inkwell/nmd/internal/dispatcher"
	"github.com/inkwell/nmd/internal/liveness"
	"github.com/inkwell/nmd/internal/lock"
	"github.com/inkwell/nmd/internal/logger"
	"github.com/inkwell/nmd/internal/lookupcache"
	"github.com/inkwell/nmd/internal/metrics"
	"github.com/inkwell/nmd/internal/registry"
	"github.com/inkwell/nmd/internal/roster"
	"github.com/inkwell/nmd/internal/ssproxy"
)

// snapshot adapts internal/registry and internal/lock to metrics.Snapshot.
type snapshot struct {
	reg   *registry.Registry
	locks *lock.Manager
}

func (s snapshot) StorageServerCount() int { return len(s.reg.ActiveStorageServers()) }
func (s snapshot) ClientCount() int        { return len(s.reg.ActiveClients()) }
func (s snapshot) FileCount() int          { return len(s.reg.AllFiles()) }
func (s snapshot) LockCount() int          { return s.locks.Stats().TotalLocks }

// Server is the fully wired Name Server: one listener, one dispatcher, one
// liveness scanner, and (optionally) one metrics HTTP server.
type Server struct {
	cfg        *config.Config
	dispatcher *dispatcher.Dispatcher
	scanner    *liveness.Scanner
	metrics    *metrics.Metrics
	metricsSrv *metrics.Server
	sampler    *metrics.Sampler

	listener net.Listener

	shutdownOnce sync.Once
	shutdown     chan struct{}
	wg           sync.WaitGroup
}

// New wires every shared component together from cfg, loading the durable
// user roster from cfg.Roster.Path.
func New(cfg *config.Config) (*Server, error) {
	rost, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	reg := registry.New()
	acls := acl.New()
	locks := lock.New()
	cache := lookupcache.New(cfg.LookupCache.Size)
	proxies := ssproxy.NewRegistry()

	disp := dispatcher.New(reg, acls, locks, cache, rost, proxies)

	m := metrics.New()
	disp.Observe = m.ObserveRequest
	snap := snapshot{reg: reg, locks: locks}

	scanner := liveness.New(disp,
		liveness.WithScanInterval(cfg.Liveness.ScanInterval),
		liveness.WithTimeout(cfg.Liveness.ConnectionTimeout),
		liveness.WithEvictHook(func(e liveness.StaleEntry) {
			kind := "client"
			if e.IsServer {
				kind = "storage_server"
			}
			m.Evictions.WithLabelValues(kind).Inc()
		}),
	)

	s := &Server{
		cfg:        cfg,
		dispatcher: disp,
		scanner:    scanner,
		metrics:    m,
		sampler:    metrics.NewSampler(m, snap, cfg.Liveness.ScanInterval),
		shutdown:   make(chan struct{}),
	}
	if cfg.Metrics.Enabled {
		s.metricsSrv = metrics.NewServer(cfg.Metrics.Addr, m, snap)
	}
	return s, nil
}

// Serve starts the TCP listener and background workers, and blocks until ctx
// is cancelled or Stop is called.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.ListenAddr, err)
	}
	s.listener = ln

	logger.Info("name server listening", logger.ClientIP(s.cfg.Server.ListenAddr))

	s.scanner.Start(ctx)
	s.sampler.Start(ctx)
	if s.metricsSrv != nil {
		s.metricsSrv.Start()
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.shutdown:
		}
	}()

	s.wg.Add(1)
	s.acceptLoop(ctx)
	s.wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				logger.Debug("accept error", logger.Err(err))
				return
			}
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer c.Close()

			remoteIP := ""
			if host, _, err := net.SplitHostPort(c.RemoteAddr().String()); err == nil {
				remoteIP = host
			}
			s.dispatcher.Handle(ctx, c, remoteIP)
		}(conn)
	}
}

// Stop gracefully shuts down the listener, the background scanner, the
// sampler, and the metrics HTTP server.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.scanner.Stop()
		s.sampler.Stop()
		if s.metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.metricsSrv.Shutdown(ctx)
		}
	})
}
