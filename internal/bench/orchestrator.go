// Package bench orchestrates the benchmark: it walks the cross-product of
// optimizers and test functions, tunes each pair, and persists results as
// it goes. Completed pairs are served from the cache, so an interrupted
// run resumes where it stopped.
package bench

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/copyleftdev/optbench/internal/cache"
	"github.com/copyleftdev/optbench/internal/catalog"
	"github.com/copyleftdev/optbench/internal/config"
	"github.com/copyleftdev/optbench/internal/errors"
	"github.com/copyleftdev/optbench/internal/logging"
	"github.com/copyleftdev/optbench/internal/optimizer"
	"github.com/copyleftdev/optbench/internal/tuner"
)

// Options selects what a run covers and how it executes.
type Options struct {
	// Start and End bound the optimizer index range [Start, End) over the
	// canonical (sorted) optimizer list, after filtering. End < 0 means
	// "through the last optimizer". This partitioning lets several
	// processes split the optimizer space.
	Start, End int

	// Filter restricts the run to the named optimizers. Empty means all.
	Filter []string

	// Functions restricts the run to the named functions. Empty means the
	// whole catalog.
	Functions []string

	// Workers bounds in-process pair concurrency. Values below 1 mean
	// sequential execution.
	Workers int
}

// Pair identifies one (optimizer, function) unit of work.
type Pair struct {
	Optimizer string
	Function  string
}

// Summary reports what one run did.
type Summary struct {
	Pairs     int
	CacheHits int
	Completed int
	Failed    int
	Errors    int
}

// Orchestrator drives benchmark runs.
type Orchestrator struct {
	bench   *config.Benchmark
	store   *cache.Store
	tuner   *tuner.Tuner
	metrics *Metrics
	logger  *logging.Logger

	mu       sync.Mutex
	progress Summary
}

// New creates an orchestrator. metrics may be nil.
func New(bench *config.Benchmark, store *cache.Store, t *tuner.Tuner, metrics *Metrics, logger *logging.Logger) *Orchestrator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Orchestrator{
		bench:   bench,
		store:   store,
		tuner:   t,
		metrics: metrics,
		logger:  logger,
	}
}

// Optimizers returns the canonical optimizer list for this configuration:
// registry order (sorted IDs) minus ignored, intersected with the filter.
// Partition indices are defined over this list, so it must be identical
// across the processes sharing a run.
func (o *Orchestrator) Optimizers(filter []string) []string {
	keep := func(string) bool { return true }
	if len(filter) > 0 {
		set := make(map[string]bool, len(filter))
		for _, f := range filter {
			set[f] = true
		}
		keep = func(id string) bool { return set[id] }
	}

	var ids []string
	for _, id := range optimizer.IDs() {
		if !o.bench.Ignored(id) && keep(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Pairs expands options into the concrete work list for this partition.
func (o *Orchestrator) Pairs(opts Options) ([]Pair, error) {
	const op = "Orchestrator.Pairs"

	optimizers := o.Optimizers(opts.Filter)
	start, end := opts.Start, opts.End
	if end < 0 || end > len(optimizers) {
		end = len(optimizers)
	}
	if start < 0 || start > end {
		return nil, errors.Newf("invalid optimizer range [%d, %d) over %d optimizers",
			opts.Start, opts.End, len(optimizers)).WithOperation(op).WithComponent("bench")
	}
	optimizers = optimizers[start:end]

	functions := opts.Functions
	if len(functions) == 0 {
		functions = catalog.IDs()
	} else {
		for _, id := range functions {
			if _, err := catalog.Lookup(id); err != nil {
				return nil, errors.Wrap(err, "invalid function selection").
					WithOperation(op).WithComponent("bench")
			}
		}
	}

	var pairs []Pair
	for _, opt := range optimizers {
		for _, fn := range functions {
			pairs = append(pairs, Pair{Optimizer: opt, Function: fn})
		}
	}
	return pairs, nil
}

// Run executes the partition described by opts. Per-pair failures are
// recorded and do not abort the run; Run errors only on configuration
// problems or context cancellation.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	pairs, err := o.Pairs(opts)
	if err != nil {
		return Summary{}, err
	}

	o.mu.Lock()
	o.progress = Summary{Pairs: len(pairs)}
	o.mu.Unlock()
	o.metrics.PairsTotal.Set(float64(len(pairs)))

	o.logger.WithFields(map[string]interface{}{
		"pairs":   len(pairs),
		"workers": opts.Workers,
	}).Info("Starting benchmark run")

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return o.snapshot(), err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return o.snapshot(), ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(p Pair) {
			defer wg.Done()
			defer func() { <-sem }()
			o.runPair(ctx, p)
		}(p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return o.snapshot(), err
	}

	s := o.snapshot()
	o.logger.WithFields(map[string]interface{}{
		"pairs":      s.Pairs,
		"cache_hits": s.CacheHits,
		"completed":  s.Completed,
		"failed":     s.Failed,
		"errors":     s.Errors,
	}).Info("Benchmark run finished")
	return s, nil
}

// runPair tunes one pair unless the cache already has it, and persists the
// outcome immediately so a crash loses at most in-flight pairs.
func (o *Orchestrator) runPair(ctx context.Context, p Pair) {
	log := o.logger.WithFields(map[string]interface{}{
		"optimizer": p.Optimizer,
		"function":  p.Function,
	})

	if _, ok := o.store.Get(p.Optimizer, p.Function); ok {
		o.metrics.CacheHits.Inc()
		o.record(func(s *Summary) { s.CacheHits++ })
		log.Debug("Cache hit, skipping pair")
		return
	}

	spec, err := optimizer.Lookup(p.Optimizer)
	if err != nil {
		o.fail(log, err, "Unknown optimizer")
		return
	}
	spec.Space = o.bench.Space(spec)

	fn, err := o.bench.Function(p.Function)
	if err != nil {
		o.fail(log, err, "Unknown function")
		return
	}

	start := time.Now()
	res, err := o.tuner.Tune(ctx, spec, fn)
	o.metrics.PairDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		o.fail(log, err, "Pair tuning errored")
		return
	}

	entry := cache.Entry{
		Optimizer:  p.Optimizer,
		Function:   p.Function,
		Status:     res.Status,
		Penalty:    res.Penalty,
		Params:     res.Params,
		Metrics:    res.Metrics,
		Trajectory: res.Trajectory,
	}
	if err := o.store.Put(entry); err != nil {
		o.fail(log, err, "Failed to persist pair result")
		return
	}

	o.metrics.PairsCompleted.WithLabelValues(string(res.Status)).Inc()
	if res.Failed() {
		o.record(func(s *Summary) { s.Failed++ })
		log.Warn("Pair completed with all trials failed")
	} else {
		o.record(func(s *Summary) { s.Completed++ })
		log.Info("Pair completed", map[string]interface{}{
			"penalty":  res.Penalty,
			"duration": time.Since(start).String(),
		})
	}
}

func (o *Orchestrator) fail(log *logging.Logger, err error, msg string) {
	o.metrics.PairFailures.Inc()
	o.record(func(s *Summary) { s.Errors++ })
	log.WithError(err).Error(msg)
}

func (o *Orchestrator) record(update func(*Summary)) {
	o.mu.Lock()
	update(&o.progress)
	o.mu.Unlock()
}

// Progress returns a snapshot of the running summary, for the status API.
func (o *Orchestrator) Progress() Summary { return o.snapshot() }

func (o *Orchestrator) snapshot() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}
