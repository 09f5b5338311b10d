package bayesian

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/optbench/internal/search"
	"github.com/copyleftdev/optbench/internal/search/kernels"
)

func quadratic(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		d := v - 0.3
		sum += d * d
	}
	return sum, nil
}

func TestEngineRunValidation(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  search.Config
	}{
		{name: "missing objective", cfg: search.Config{Bounds: [][2]float64{{0, 1}}}},
		{name: "missing bounds", cfg: search.Config{Objective: quadratic}},
		{name: "inverted bounds", cfg: search.Config{
			Objective: quadratic,
			Bounds:    [][2]float64{{1, 0}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Run(ctx, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestEngineMinimizesQuadratic(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Run(context.Background(), search.Config{
		Objective:      quadratic,
		Bounds:         [][2]float64{{-1, 1}, {-1, 1}},
		MaxIterations:  30,
		NInitialPoints: 8,
		Seed:           7,
	})
	require.NoError(t, err)

	assert.Equal(t, 30, res.Iterations)
	assert.Len(t, res.History, 30)
	assert.Less(t, res.Best.Value, 0.3, "search made no progress on a smooth bowl")

	// Best must be consistent with the history.
	histBest := math.Inf(1)
	for _, o := range res.History {
		histBest = math.Min(histBest, o.Solution.Value)
	}
	assert.Equal(t, histBest, res.Best.Value)

	// All proposals respect the box.
	for _, o := range res.History {
		for d, v := range o.Solution.Params {
			assert.GreaterOrEqual(t, v, -1.0, "dim %d", d)
			assert.LessOrEqual(t, v, 1.0, "dim %d", d)
		}
	}
}

// The engine must work with any registered covariance, not just the
// Matérn default.
func TestEngineWithRBFKernel(t *testing.T) {
	e := NewEngine(nil, WithKernel(kernels.NewRBFKernel(1.0, 1.0)))

	res, err := e.Run(context.Background(), search.Config{
		Objective:      quadratic,
		Bounds:         [][2]float64{{-1, 1}, {-1, 1}},
		MaxIterations:  30,
		NInitialPoints: 8,
		Seed:           7,
	})
	require.NoError(t, err)

	assert.Len(t, res.History, 30)
	assert.Less(t, res.Best.Value, 0.3, "search made no progress on a smooth bowl")
}

// Identical seeds must reproduce the search bit for bit; different seeds
// explore differently.
func TestEngineDeterminism(t *testing.T) {
	run := func(seed int64) *search.Result {
		e := NewEngine(nil)
		res, err := e.Run(context.Background(), search.Config{
			Objective:      quadratic,
			Bounds:         [][2]float64{{-1, 1}, {-1, 1}},
			MaxIterations:  15,
			NInitialPoints: 5,
			Seed:           seed,
		})
		require.NoError(t, err)
		return res
	}

	a, b := run(42), run(42)
	assert.Equal(t, a.Best, b.Best)
	assert.Equal(t, a.History, b.History)

	c := run(43)
	assert.NotEqual(t, a.History, c.History)
}

// Objectives that always fail must not wedge the engine: the surrogate
// cannot be fit, so proposals fall back to uniform draws, and the run
// still reports the evaluation count.
func TestEngineAllFailedObservations(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Run(context.Background(), search.Config{
		Objective:      func([]float64) (float64, error) { return math.Inf(1), nil },
		Bounds:         [][2]float64{{0, 1}},
		MaxIterations:  10,
		NInitialPoints: 4,
		Seed:           1,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Iterations)
	assert.True(t, math.IsInf(res.Best.Value, 1))
}

func TestEngineHonorsCancellation(t *testing.T) {
	e := NewEngine(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, search.Config{
		Objective:      quadratic,
		Bounds:         [][2]float64{{0, 1}},
		MaxIterations:  10,
		NInitialPoints: 4,
		Seed:           1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLatinHypercubeStratification(t *testing.T) {
	rngBounds := [][2]float64{{0, 10}, {-5, 5}}
	pts := latinHypercube(rand.New(rand.NewSource(3)), 10, rngBounds)
	require.Len(t, pts, 10)

	// Exactly one sample per stratum in each dimension.
	for d, b := range rngBounds {
		width := (b[1] - b[0]) / 10
		seen := make([]bool, 10)
		for _, p := range pts {
			idx := int((p[d] - b[0]) / width)
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, 10)
			assert.False(t, seen[idx], "dim %d stratum %d sampled twice", d, idx)
			seen[idx] = true
		}
	}
}
