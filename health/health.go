// Package health exposes the guardian's liveness and state over HTTP. It
// only reads published snapshots; it has no write path into the core.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rustyeddy/sentinel/guardian"
	"github.com/rustyeddy/sentinel/metrics"
)

// Source is the read-only view of the guardian the server needs.
type Source interface {
	Snapshot() guardian.Snapshot
	Healthy() bool
}

type Server struct {
	src   Source
	http  *http.Server
	start time.Time
}

func NewServer(addr string, src Source) *Server {
	s := &Server{src: src, start: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", metrics.Handler())

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if s.src.Healthy() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("UNHEALTHY"))
}

type statusResponse struct {
	Healthy       bool              `json:"healthy"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Guardian      guardian.Snapshot `json:"guardian"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Healthy:       s.src.Healthy(),
		UptimeSeconds: time.Since(s.start).Seconds(),
		Guardian:      s.src.Snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
