package bayesian

import (
	"context"
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/optbench/internal/errors"
	"github.com/copyleftdev/optbench/internal/search"
	"github.com/copyleftdev/optbench/internal/search/acquisition"
	"github.com/copyleftdev/optbench/internal/search/kernels"
)

const (
	defaultNoiseVar   = 1e-6
	defaultInitPoints = 8
	eiRestarts        = 10
)

// Engine is a sequential model-based minimizer. It fits a Gaussian Process
// surrogate to the observations made so far and picks each next point by
// maximizing Expected Improvement over the box-constrained domain.
type Engine struct {
	kernel kernels.Kernel
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithKernel replaces the default Matérn 5/2 covariance. A nil kernel
// keeps the default.
func WithKernel(k kernels.Kernel) Option {
	return func(e *Engine) {
		if k != nil {
			e.kernel = k
		}
	}
}

// NewEngine creates an engine with a Matérn 5/2 kernel, the usual choice
// for hyperparameter surfaces.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		kernel: kernels.NewMatern52Kernel(1.0, 1.0),
		logger: logger.Named("bayesian"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the search until cfg.MaxIterations evaluations have been
// made or the context is cancelled. Identical configs (including Seed)
// produce identical results.
func (e *Engine) Run(ctx context.Context, cfg search.Config) (*search.Result, error) {
	const op = "Engine.Run"

	if cfg.Objective == nil {
		return nil, errors.New("objective function is required").WithOperation(op).WithComponent("bayesian")
	}
	if len(cfg.Bounds) == 0 {
		return nil, errors.New("bounds are required").WithOperation(op).WithComponent("bayesian")
	}
	for i, b := range cfg.Bounds {
		if b[0] >= b[1] {
			return nil, errors.Newf("invalid bounds for dimension %d: [%g, %g]", i, b[0], b[1]).
				WithOperation(op).WithComponent("bayesian")
		}
	}

	nInit := cfg.NInitialPoints
	if nInit <= 0 {
		nInit = defaultInitPoints
	}
	maxIter := cfg.MaxIterations
	if maxIter < nInit {
		maxIter = nInit
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	dim := len(cfg.Bounds)

	e.logger.Debug("Starting search",
		zap.Int("dimensions", dim),
		zap.Int("initial_points", nInit),
		zap.Int("max_iterations", maxIter),
		zap.Int64("seed", cfg.Seed),
	)

	result := &search.Result{
		Best: search.Solution{Value: math.Inf(1)},
	}

	// Initial design: Latin hypercube over the box.
	var xs [][]float64
	var ys []float64
	for _, x := range latinHypercube(rng, nInit, cfg.Bounds) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y, err := cfg.Objective(x)
		if err != nil {
			return nil, errors.Wrap(err, "objective evaluation failed").WithOperation(op).WithComponent("bayesian")
		}
		xs, ys = e.observe(result, xs, ys, x, y)
	}

	ei := acquisition.NewExpectedImprovement(finiteBest(ys), 0.01)
	gp := NewGP(e.kernel, defaultNoiseVar, e.logger)

	for result.Iterations < maxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, ok := e.propose(rng, gp, ei, xs, ys, cfg.Bounds)
		if !ok {
			// Surrogate could not be fit (e.g. all observations failed);
			// fall back to a uniform draw so the search keeps moving.
			next = uniformPoint(rng, cfg.Bounds)
		}

		y, err := cfg.Objective(next)
		if err != nil {
			return nil, errors.Wrap(err, "objective evaluation failed").WithOperation(op).WithComponent("bayesian")
		}
		xs, ys = e.observe(result, xs, ys, next, y)
		ei.UpdateBest(finiteBest(ys))
	}

	e.logger.Debug("Search finished",
		zap.Int("iterations", result.Iterations),
		zap.Float64("best_value", result.Best.Value),
	)
	return result, nil
}

// observe records an evaluation in the running result and the training set.
func (e *Engine) observe(result *search.Result, xs [][]float64, ys []float64, x []float64, y float64) ([][]float64, []float64) {
	result.Iterations++
	sol := search.Solution{Params: append([]float64(nil), x...), Value: y}
	result.History = append(result.History, search.Observation{
		Iteration: result.Iterations,
		Solution:  sol,
	})
	if y < result.Best.Value {
		result.Best = sol
	}
	return append(xs, sol.Params), append(ys, y)
}

// propose fits the surrogate and maximizes EI with multi-start Nelder-Mead.
func (e *Engine) propose(rng *rand.Rand, gp *GP, ei *acquisition.ExpectedImprovement, xs [][]float64, ys []float64, bounds [][2]float64) ([]float64, bool) {
	// Failed trials observe +Inf; the GP cannot digest those, so train on
	// finite observations only, with failures mapped to the worst finite
	// value seen so the surrogate still avoids that region.
	trainY := make([]float64, len(ys))
	worst := math.Inf(-1)
	finite := 0
	for _, y := range ys {
		if !math.IsInf(y, 0) && !math.IsNaN(y) {
			finite++
			if y > worst {
				worst = y
			}
		}
	}
	if finite == 0 {
		return nil, false
	}
	for i, y := range ys {
		if math.IsInf(y, 0) || math.IsNaN(y) {
			trainY[i] = worst
		} else {
			trainY[i] = y
		}
	}

	dim := len(bounds)
	X := mat.NewDense(len(xs), dim, nil)
	for i, x := range xs {
		X.SetRow(i, x)
	}
	if err := gp.Fit(X, mat.NewVecDense(len(trainY), trainY)); err != nil {
		e.logger.Debug("GP fit failed", zap.Error(err))
		return nil, false
	}

	negEI := func(x []float64) float64 {
		clamped := clampToBounds(x, bounds)
		pred := mat.NewDense(1, dim, clamped)
		mu, sigma2, err := gp.Predict(pred)
		if err != nil {
			return 0
		}
		return -ei.Compute(mu.AtVec(0), math.Sqrt(sigma2.AtVec(0)))
	}

	best := uniformPoint(rng, bounds)
	bestVal := negEI(best)

	problem := optimize.Problem{Func: negEI}
	for r := 0; r < eiRestarts; r++ {
		start := uniformPoint(rng, bounds)
		res, err := optimize.Minimize(problem, start, &optimize.Settings{
			MajorIterations: 100,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-8,
				Iterations: 20,
			},
		}, &optimize.NelderMead{})
		if err != nil || res == nil {
			continue
		}
		if res.F < bestVal {
			bestVal = res.F
			best = clampToBounds(res.X, bounds)
		}
	}

	return best, true
}

// latinHypercube draws n stratified points from the box.
func latinHypercube(rng *rand.Rand, n int, bounds [][2]float64) [][]float64 {
	dim := len(bounds)
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, dim)
	}

	for d := 0; d < dim; d++ {
		perm := rng.Perm(n)
		lo, hi := bounds[d][0], bounds[d][1]
		for i := 0; i < n; i++ {
			// One sample per stratum, shuffled across points.
			u := (float64(perm[i]) + rng.Float64()) / float64(n)
			points[i][d] = lo + u*(hi-lo)
		}
	}
	return points
}

func uniformPoint(rng *rand.Rand, bounds [][2]float64) []float64 {
	x := make([]float64, len(bounds))
	for d, b := range bounds {
		x[d] = b[0] + rng.Float64()*(b[1]-b[0])
	}
	return x
}

func clampToBounds(x []float64, bounds [][2]float64) []float64 {
	out := make([]float64, len(x))
	for d := range x {
		out[d] = math.Min(math.Max(x[d], bounds[d][0]), bounds[d][1])
	}
	return out
}

// finiteBest returns the smallest finite observation, or +Inf if none.
func finiteBest(ys []float64) float64 {
	best := math.Inf(1)
	for _, y := range ys {
		if !math.IsNaN(y) && y < best {
			best = y
		}
	}
	return best
}
