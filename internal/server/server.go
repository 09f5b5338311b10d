// Package server exposes a small HTTP surface while a benchmark run is in
// flight: liveness, Prometheus metrics, run progress, and the results
// collected so far.
package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/copyleftdev/optbench/internal/bench"
	"github.com/copyleftdev/optbench/internal/cache"
	"github.com/copyleftdev/optbench/internal/errors"
	"github.com/copyleftdev/optbench/internal/logging"
)

// Server serves the status API for a running benchmark.
type Server struct {
	httpServer *http.Server
	orch       *bench.Orchestrator
	store      *cache.Store
	logger     *logging.Logger
}

// New creates a status server listening on addr.
func New(addr string, orch *bench.Orchestrator, store *cache.Store, gatherer prometheus.Gatherer, logger *logging.Logger) *Server {
	s := &Server{
		orch:   orch,
		store:  store,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(logger))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/results", s.handleResults)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	const op = "Server.Start"

	s.logger.WithField("addr", s.httpServer.Addr).Info("Status server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "status server failed").WithOperation(op).WithComponent("server")
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	p := s.orch.Progress()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pairs":      p.Pairs,
		"cache_hits": p.CacheHits,
		"completed":  p.Completed,
		"failed":     p.Failed,
		"errors":     p.Errors,
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.All()
	if err != nil {
		s.logger.WithError(err).Error("Failed to read cached results")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read results"})
		return
	}

	// Trajectories are large and the dashboard reads them from disk, so
	// the API returns the summary fields only.
	type row struct {
		Optimizer string             `json:"optimizer"`
		Function  string             `json:"function"`
		Status    string             `json:"status"`
		Penalty   string             `json:"penalty"`
		Params    map[string]float64 `json:"params"`
	}
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{
			Optimizer: e.Optimizer,
			Function:  e.Function,
			Status:    string(e.Status),
			Penalty:   formatPenalty(e.Penalty),
			Params:    e.Params,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"results": rows})
}

func formatPenalty(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "failed"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
