package bayesian

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/optbench/internal/errors"
	"github.com/copyleftdev/optbench/internal/search/kernels"
)

// GP implements a Gaussian Process regression model, the surrogate the
// engine fits over observed (hyperparameters, penalty) pairs.
type GP struct {
	kernel kernels.Kernel

	// Noise variance added to the diagonal for numerical stability.
	noiseVar float64

	// Training data
	X *mat.Dense    // Input points (n_samples, n_features)
	y *mat.VecDense // Target values (n_samples)

	// Precomputed values
	alpha *mat.VecDense
	chol  *mat.Cholesky

	// Pool for reusing kernel-matrix allocations across refits.
	pool *MatrixPool

	logger *zap.Logger
}

// NewGP creates a new Gaussian Process model. A nil logger disables
// diagnostics.
func NewGP(kernel kernels.Kernel, noiseVar float64, logger *zap.Logger) *GP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GP{
		kernel:   kernel,
		noiseVar: noiseVar,
		pool:     NewMatrixPool(),
		logger:   logger.Named("gp"),
	}
}

// Fit fits the GP model to the training data.
func (gp *GP) Fit(X *mat.Dense, y *mat.VecDense) error {
	const op = "GP.Fit"

	if X == nil || y == nil {
		return errors.New("input matrices must not be nil").WithOperation(op).WithComponent("bayesian")
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.New("input matrix X must not be empty").WithOperation(op).WithComponent("bayesian")
	}
	if nSamples != y.Len() {
		return errors.Newf("dimension mismatch: X has %d samples but y has length %d",
			nSamples, y.Len()).WithOperation(op).WithComponent("bayesian")
	}

	gp.logger.Debug("Fitting GP model",
		zap.Int("samples", nSamples),
		zap.Int("features", nFeatures),
		zap.Float64("noise_var", gp.noiseVar),
	)

	gp.X = mat.DenseCopyOf(X)
	gp.y = mat.VecDenseCopyOf(y)

	K := gp.kernelMatrix(X, nSamples)

	// Solve K * alpha = y with escalating jitter; keep the Cholesky factor
	// for predictive variances.
	alpha, chol, err := gp.solve(K, y, nSamples)
	if err != nil {
		return errors.Wrap(err, "failed to solve GP system").WithOperation(op).WithComponent("bayesian")
	}
	gp.alpha = alpha
	gp.chol = chol

	gp.pool.PutSymDense(K)
	return nil
}

// kernelMatrix computes the noise-augmented kernel matrix of the training
// points.
func (gp *GP) kernelMatrix(X *mat.Dense, nSamples int) *mat.SymDense {
	K := gp.pool.GetSymDense(nSamples)

	for i := 0; i < nSamples; i++ {
		xi := X.RawRowView(i)
		K.SetSym(i, i, gp.kernel.Eval(xi, xi)+gp.noiseVar)
		for j := i + 1; j < nSamples; j++ {
			K.SetSym(i, j, gp.kernel.Eval(xi, X.RawRowView(j)))
		}
	}
	return K
}

// solve factorizes K and solves K * alpha = y. Cholesky can fail on
// near-singular kernel matrices (duplicated proposals do this), so the
// diagonal jitter is escalated a few times before giving up.
func (gp *GP) solve(K *mat.SymDense, y *mat.VecDense, nSamples int) (*mat.VecDense, *mat.Cholesky, error) {
	jitter := 0.0
	next := 1e-10

	for attempt := 0; attempt < 8; attempt++ {
		Kj := mat.NewSymDense(nSamples, nil)
		Kj.CopySym(K)
		if jitter > 0 {
			for i := 0; i < nSamples; i++ {
				Kj.SetSym(i, i, Kj.At(i, i)+jitter)
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(Kj); !ok {
			gp.logger.Debug("Cholesky factorization failed, increasing jitter",
				zap.Int("attempt", attempt+1),
				zap.Float64("jitter", jitter))
			jitter = next
			next *= 10
			continue
		}

		alpha := mat.NewVecDense(nSamples, nil)
		if err := chol.SolveVecTo(alpha, y); err != nil {
			jitter = next
			next *= 10
			continue
		}
		return alpha, &chol, nil
	}

	return nil, nil, errors.New("kernel matrix is not positive definite after jitter escalation")
}

// Predict returns the posterior mean and variance at the given test points.
func (gp *GP) Predict(X *mat.Dense) (*mat.VecDense, *mat.VecDense, error) {
	const op = "GP.Predict"

	if X == nil {
		return nil, nil, errors.New("input matrix X is nil").WithOperation(op).WithComponent("bayesian")
	}
	if gp.X == nil || gp.alpha == nil {
		return nil, nil, errors.New("model not trained").WithOperation(op).WithComponent("bayesian")
	}

	nTest, _ := X.Dims()
	nTrain, _ := gp.X.Dims()

	mean := mat.NewVecDense(nTest, nil)
	variance := mat.NewVecDense(nTest, nil)

	Kss := make([]float64, nTest)
	Kstar := mat.NewDense(nTest, nTrain, nil)
	for i := 0; i < nTest; i++ {
		xStar := X.RawRowView(i)
		Kss[i] = gp.kernel.Eval(xStar, xStar) + gp.noiseVar
		for j := 0; j < nTrain; j++ {
			Kstar.Set(i, j, gp.kernel.Eval(xStar, gp.X.RawRowView(j)))
		}
	}

	// mean = K* alpha
	mean.MulVec(Kstar, gp.alpha)

	// variance = diag(K** - K* K^-1 K*^T), via the Cholesky factor.
	if gp.chol != nil {
		v := mat.NewDense(nTrain, nTest, nil)
		if err := gp.chol.SolveTo(v, Kstar.T()); err != nil {
			return nil, nil, errors.Wrap(err, "failed to solve for predictive variance").
				WithOperation(op).WithComponent("bayesian")
		}
		// diag(K* K^-1 K*^T)[i] = sum_j K*[i,j] * v[j,i] with v = K^-1 K*^T.
		for i := 0; i < nTest; i++ {
			var sum float64
			for j := 0; j < nTrain; j++ {
				sum += Kstar.At(i, j) * v.At(j, i)
			}
			// Numerical issues can push the variance slightly negative.
			variance.SetVec(i, math.Max(0, Kss[i]-sum))
		}
	}

	return mean, variance, nil
}
