package bayesian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/optbench/internal/search/kernels"
)

func TestGPFitValidation(t *testing.T) {
	gp := NewGP(kernels.NewRBFKernel(1.0, 1.0), 1e-6, nil)

	tests := []struct {
		name string
		X    *mat.Dense
		y    *mat.VecDense
	}{
		{name: "nil inputs"},
		{name: "dimension mismatch", X: mat.NewDense(3, 2, nil), y: mat.NewVecDense(2, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, gp.Fit(tt.X, tt.y))
		})
	}
}

func TestGPPredictBeforeFit(t *testing.T) {
	gp := NewGP(kernels.NewRBFKernel(1.0, 1.0), 1e-6, nil)
	_, _, err := gp.Predict(mat.NewDense(1, 2, []float64{0, 0}))
	assert.Error(t, err)
}

// The posterior mean must interpolate the training targets (up to the
// noise term) and the posterior variance must collapse there.
func TestGPInterpolatesTrainingData(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{-2, -0.5, 0.5, 2})
	y := mat.NewVecDense(4, []float64{4, 0.25, 0.25, 4})

	gp := NewGP(kernels.NewMatern52Kernel(1.0, 1.0), 1e-6, nil)
	require.NoError(t, gp.Fit(X, y))

	mean, variance, err := gp.Predict(X)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.InDelta(t, y.AtVec(i), mean.AtVec(i), 1e-2, "point %d", i)
		assert.Less(t, variance.AtVec(i), 0.01, "point %d", i)
	}
}

// Between training points the variance must be higher than at them.
func TestGPVarianceGrowsAwayFromData(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{-1, 1})
	y := mat.NewVecDense(2, []float64{1, 1})

	gp := NewGP(kernels.NewRBFKernel(0.5, 1.0), 1e-6, nil)
	require.NoError(t, gp.Fit(X, y))

	_, atData, err := gp.Predict(mat.NewDense(1, 1, []float64{-1}))
	require.NoError(t, err)
	_, between, err := gp.Predict(mat.NewDense(1, 1, []float64{0}))
	require.NoError(t, err)
	_, far, err := gp.Predict(mat.NewDense(1, 1, []float64{5}))
	require.NoError(t, err)

	assert.Less(t, atData.AtVec(0), between.AtVec(0))
	assert.Less(t, between.AtVec(0), far.AtVec(0))
}

// Duplicate training points make the kernel matrix singular; the jitter
// escalation must still produce a usable fit.
func TestGPFitDuplicatePoints(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 1, 2})
	y := mat.NewVecDense(3, []float64{3, 3, 5})

	gp := NewGP(kernels.NewRBFKernel(1.0, 1.0), 0, nil)
	require.NoError(t, gp.Fit(X, y))

	mean, _, err := gp.Predict(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, mean.AtVec(0), 0.5)
}

func TestMatrixPoolReuse(t *testing.T) {
	p := NewMatrixPool()

	m := p.GetSymDense(3)
	require.Equal(t, 3, m.SymmetricDim())
	m.SetSym(0, 0, 42)
	p.PutSymDense(m)

	// A recycled matrix comes back zeroed.
	m2 := p.GetSymDense(3)
	assert.Equal(t, 0.0, m2.At(0, 0))

	// Unknown sizes are allocated fresh.
	m4 := p.GetSymDense(5)
	assert.Equal(t, 5, m4.SymmetricDim())

	// Returning nil is a no-op.
	p.PutSymDense(nil)
}
