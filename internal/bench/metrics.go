package bench

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the orchestrator's progress counters.
type Metrics struct {
	PairsCompleted *prometheus.CounterVec
	CacheHits      prometheus.Counter
	PairFailures   prometheus.Counter
	PairDuration   prometheus.Histogram
	PairsTotal     prometheus.Gauge
}

// NewMetrics creates and registers the orchestrator metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PairsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optbench",
			Name:      "pairs_completed_total",
			Help:      "Benchmark pairs completed, by status.",
		}, []string{"status"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optbench",
			Name:      "cache_hits_total",
			Help:      "Pairs skipped because a valid cache entry existed.",
		}),
		PairFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optbench",
			Name:      "pair_errors_total",
			Help:      "Pairs that errored outside normal trial failure.",
		}),
		PairDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optbench",
			Name:      "pair_duration_seconds",
			Help:      "Wall time spent tuning one pair.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		PairsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "optbench",
			Name:      "pairs_total",
			Help:      "Total pairs in this run's partition.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.PairsCompleted, m.CacheHits, m.PairFailures, m.PairDuration, m.PairsTotal)
	}
	return m
}
