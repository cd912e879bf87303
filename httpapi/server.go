// Package httpapi is the HTTP request surface: read endpoints over the
// per-network cache and shared state, and the two compute endpoints
// (orderbook, execute) that run the pure routing/quote/build math gated
// behind pre-validation.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"dexstream/core"
	"dexstream/pkg/cache"
)

// NetworkContext bundles one network's identity with the shared handles a
// request handler needs to serve it: its in-memory state (protosims) and
// the KV cache (tokens, components, status, orderbooks).
type NetworkContext struct {
	Network core.Network
	State   *core.SharedState
	Cache   *cache.Store
}

// Config carries the request-surface-wide settings that come from the
// environment rather than per-network registration.
type Config struct {
	Origin    string
	Testing   bool
	WebAPIKey string
	Version   string
}

// Server wires a chi router over a fixed set of registered networks and
// serves it over plain net/http.
type Server struct {
	cfg      Config
	networks map[string]*NetworkContext
	executor core.Executor
	router   chi.Router
	http     *http.Server
	logger   *log.Entry
}

// NewServer builds the router for the given networks and binds it to addr.
// It does not start listening; call Start for that. executor may be nil,
// in which case every /execute request that passes pre-validation fails
// with an "execution engine is not configured" error.
func NewServer(addr string, cfg Config, networks []*NetworkContext, executor core.Executor, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	byName := make(map[string]*NetworkContext, len(networks))
	for _, n := range networks {
		byName[n.Network.Name] = n
	}
	s := &Server{cfg: cfg, networks: byName, executor: executor, logger: logger}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until the server is shut down or fails to
// bind; a bind failure is the one case the rest of the process survives —
// the caller logs it and the other per-network workers keep running.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("http surface listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the underlying router, mainly so tests can drive it with
// httptest.NewServer without binding a real port.
func (s *Server) Handler() http.Handler {
	return s.router
}
