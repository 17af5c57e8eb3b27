// Package metrics exposes the Name Server's Prometheus gauges/counters and
// the chi-routed HTTP server that serves them alongside health checks.
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell/nmd/internal/logger"
)

// Metrics holds the Prometheus collectors the Name Server updates as its
// registry, lock manager, and liveness scanner change state.
type Metrics struct {
	registry *prometheus.Registry

	StorageServers prometheus.Gauge
	Clients        prometheus.Gauge
	Files          prometheus.Gauge
	LocksHeld      prometheus.Gauge
	Evictions      *prometheus.CounterVec
	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

// New constructs a fresh, independent metrics registry. Tests can construct
// their own Metrics to avoid colliding with prometheus's global default
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	return &Metrics{
		registry: reg,
		StorageServers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nmd_storage_servers_active",
			Help: "Number of Storage Servers currently registered and active.",
		}),
		Clients: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nmd_clients_active",
			Help: "Number of client sessions currently active.",
		}),
		Files: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nmd_files_indexed",
			Help: "Number of files currently present in the file index.",
		}),
		LocksHeld: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nmd_sentence_locks_held",
			Help: "Number of sentence locks currently held.",
		}),
		Evictions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nmd_evictions_total",
			Help: "Total number of evictions by cause.",
		}, []string{"kind"}), // "storage_server", "client"
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nmd_requests_total",
			Help: "Total number of dispatched requests by command and status.",
		}, []string{"command", "status"}),
		RequestLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nmd_request_duration_seconds",
			Help:    "Dispatch latency per command.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
	}
}

// ObserveRequest records one dispatched command's outcome and latency.
func (m *Metrics) ObserveRequest(command, status string, d time.Duration) {
	m.Requests.WithLabelValues(command, status).Inc()
	m.RequestLatency.WithLabelValues(command).Observe(d.Seconds())
}

// Server serves /metrics and health endpoints over HTTP using a chi router.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the metrics HTTP server bound to addr. snapshot may be
// nil, in which case /status reports unavailable rather than panicking.
func NewServer(addr string, m *Metrics, snapshot Snapshot) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if snapshot == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Get("/status", statusHandler(snapshot))
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return &Server{httpServer: &http.Server{Addr: addr, Handler: r}}
}

// Status is the JSON shape served at /status, consumed by cmd/nmctl.
type Status struct {
	StorageServers int `json:"storage_servers"`
	Clients        int `json:"clients"`
	Files          int `json:"files"`
	LocksHeld      int `json:"locks_held"`
}

func statusHandler(snapshot Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if snapshot == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"snapshot unavailable"}`))
			return
		}
		st := Status{
			StorageServers: snapshot.StorageServerCount(),
			Clients:        snapshot.ClientCount(),
			Files:          snapshot.FileCount(),
			LocksHeld:      snapshot.LockCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

// Start runs the HTTP server in the background. Errors other than
// http.ErrServerClosed are logged; Start does not block.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", logger.Err(err))
		}
	}()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
