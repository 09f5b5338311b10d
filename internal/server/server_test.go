package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/optbench/internal/bench"
	"github.com/copyleftdev/optbench/internal/cache"
	"github.com/copyleftdev/optbench/internal/config"
	"github.com/copyleftdev/optbench/internal/logging"
	"github.com/copyleftdev/optbench/internal/search"
	"github.com/copyleftdev/optbench/internal/trial"
	"github.com/copyleftdev/optbench/internal/tuner"
)

func testServer(t *testing.T) (*Server, *cache.Store) {
	t.Helper()

	logger, err := logging.NewLogger(&logging.Config{Level: "ERROR", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	store, err := cache.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics := bench.NewMetrics(registry)
	tn := tuner.New(logger, tuner.WithEngine(stubEngine{}))
	orch := bench.New(config.DefaultBenchmark(), store, tn, metrics, logger)

	return New("127.0.0.1:0", orch, store, registry, logger), store
}

type stubEngine struct{}

func (stubEngine) Run(ctx context.Context, cfg search.Config) (*search.Result, error) {
	return &search.Result{}, nil
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"pairs", "cache_hits", "completed", "failed", "errors"} {
		assert.Contains(t, body, key)
	}
}

func TestResultsEndpoint(t *testing.T) {
	s, store := testServer(t)

	require.NoError(t, store.Put(cache.Entry{
		Optimizer: "adam",
		Function:  "Sphere",
		Status:    trial.StatusOK,
		Penalty:   1.5,
		Params:    map[string]float64{"lr": 0.01},
	}))

	rec := get(t, s, "/api/results")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []struct {
			Optimizer string  `json:"optimizer"`
			Function  string  `json:"function"`
			Status    string  `json:"status"`
			Penalty   string  `json:"penalty"`
			Params    map[string]float64 `json:"params"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "adam", body.Results[0].Optimizer)
	assert.Equal(t, "1.5000", body.Results[0].Penalty)
	assert.Equal(t, 0.01, body.Results[0].Params["lr"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := testServer(t)

	rec := get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "optbench_pairs_total")
}

func TestUnknownRoute(t *testing.T) {
	s, _ := testServer(t)
	rec := get(t, s, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
