package rpc

import (
	"net/http"
	"time"

	"github.com/cuemby/gcsd/pkg/metrics"
)

// HealthServer mounts /health, /ready, /live, and /metrics on one mux,
// adapted from the teacher's pkg/api/health.go (same endpoint shape and
// timeouts) but backed by metrics.HealthChecker's component registry
// instead of a Raft/containerd-specific check: pkg/gcs calls
// metrics.RegisterComponent("store", ...) and ("rpc", ...) as each comes
// up, and readiness here just reads that registry back.
type HealthServer struct {
	mux *http.ServeMux
}

// NewHealthServer builds the health mux.
func NewHealthServer(version string) *HealthServer {
	metrics.SetVersion(version)
	hs := &HealthServer{mux: http.NewServeMux()}
	hs.mux.Handle("/health", metrics.HealthHandler())
	hs.mux.Handle("/ready", metrics.ReadyHandler())
	hs.mux.Handle("/live", metrics.LivenessHandler())
	hs.mux.Handle("/metrics", metrics.Handler())
	return hs
}

func (hs *HealthServer) Handler() http.Handler { return hs.mux }

// Start serves the health mux, blocking until the server errors or is
// shut down. Call from its own goroutine in pkg/gcs.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}
