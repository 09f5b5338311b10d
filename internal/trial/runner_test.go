package trial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/optbench/internal/catalog"
	"github.com/copyleftdev/optbench/internal/optimizer"
)

func sphereFn(t *testing.T) catalog.Function {
	t.Helper()
	fn, err := catalog.Lookup("Sphere")
	require.NoError(t, err)
	return fn
}

// Plain gradient descent with a fixed step on a convex bowl must walk into
// the optimum: final position within 1e-3 of (0, 0) after 200 steps from
// (10, 10).
func TestRunGradientDescentOnSphere(t *testing.T) {
	fn := sphereFn(t)
	spec, err := optimizer.Lookup("sgd")
	require.NoError(t, err)

	res := Run(spec, fn, optimizer.Hyperparams{"lr": 0.1}, 200)

	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Trajectory, 201)

	final := res.Trajectory[len(res.Trajectory)-1].Position
	assert.InDelta(t, 0.0, final[0], 1e-3)
	assert.InDelta(t, 0.0, final[1], 1e-3)

	startDist := math.Hypot(10, 10)
	finalDist := math.Hypot(final[0], final[1])
	assert.Less(t, finalDist, startDist)

	assert.False(t, math.IsInf(res.Penalty, 1))
	assert.Positive(t, res.Penalty)
}

// Every registered optimizer must make net progress on the convex bowl
// with a sane learning rate and a generous budget.
func TestRunAllOptimizersImproveOnSphere(t *testing.T) {
	fn := sphereFn(t)
	startDist := math.Hypot(fn.Start[0], fn.Start[1])

	for _, id := range optimizer.IDs() {
		t.Run(id, func(t *testing.T) {
			spec, err := optimizer.Lookup(id)
			require.NoError(t, err)

			params := optimizer.Hyperparams{}
			for _, p := range spec.Space {
				switch p.Name {
				case "lr":
					params[p.Name] = math.Min(0.05, p.Max)
				default:
					params[p.Name] = (p.Min + p.Max) / 2
				}
			}

			res := Run(spec, fn, params, 500)
			require.Equal(t, StatusOK, res.Status)

			final := res.Trajectory[len(res.Trajectory)-1].Position
			finalDist := math.Hypot(final[0], final[1])
			assert.Less(t, finalDist, startDist, "no progress on convex bowl")
		})
	}
}

// A NaN mid-run is a terminal failure: sentinel penalty and a trajectory
// truncated where the bad value appeared, not padded.
func TestRunTruncatesOnNaN(t *testing.T) {
	calls := 0
	fn := catalog.Function{
		ID: "nan-at-five",
		Eval: func(p []float64) float64 {
			calls++
			if calls > 20 {
				return math.NaN()
			}
			return p[0]*p[0] + p[1]*p[1]
		},
		Domain:      catalog.Domain{X: catalog.Bounds{Min: -15, Max: 15}, Y: catalog.Bounds{Min: -15, Max: 15}},
		Start:       [2]float64{10, 10},
		Minima:      [][2]float64{{0, 0}},
		Iterations:  200,
		ErrorWeight: 1,
	}
	spec, err := optimizer.Lookup("sgd")
	require.NoError(t, err)

	res := Run(spec, fn, optimizer.Hyperparams{"lr": 0.1}, 200)

	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, res.Failed())
	assert.True(t, math.IsInf(res.Penalty, 1))
	assert.Less(t, len(res.Trajectory), 201, "trajectory must be truncated")
	for _, s := range res.Trajectory[:len(res.Trajectory)-1] {
		assert.False(t, math.IsNaN(s.Loss), "truncated trajectory holds a NaN loss")
	}
}

// A non-finite position out of the stepper is the same terminal failure.
func TestRunRejectsNonFinitePosition(t *testing.T) {
	fn := sphereFn(t)
	spec := optimizer.Spec{
		ID:    "diverger",
		Space: optimizer.Space{{Name: "lr", Kind: optimizer.Float, Min: 0, Max: 1}},
		New: func(h optimizer.Hyperparams) optimizer.Stepper {
			return stepFunc(func(pos, grad []float64) []float64 {
				return []float64{math.Inf(1), pos[1]}
			})
		},
	}

	res := Run(spec, fn, optimizer.Hyperparams{"lr": 0.1}, 50)

	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, math.IsInf(res.Penalty, 1))
	require.Len(t, res.Trajectory, 1)
}

type stepFunc func(pos, grad []float64) []float64

func (f stepFunc) Step(pos, grad []float64) []float64 { return f(pos, grad) }
