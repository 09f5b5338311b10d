// Package acquisition provides acquisition functions that trade off
// exploration against exploitation when choosing the next point to
// evaluate.
package acquisition

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// ExpectedImprovement implements the Expected Improvement acquisition
// function for minimization.
type ExpectedImprovement struct {
	// Best observed value so far
	bestObserved float64
	// Exploration-exploitation trade-off parameter (xi)
	xi float64
}

// NewExpectedImprovement creates a new ExpectedImprovement acquisition
// function. Lower objective values are considered better.
func NewExpectedImprovement(bestObserved, xi float64) *ExpectedImprovement {
	return &ExpectedImprovement{
		bestObserved: bestObserved,
		xi:           xi,
	}
}

// UpdateBest records a new best observed value.
func (ei *ExpectedImprovement) UpdateBest(best float64) {
	ei.bestObserved = best
}

// Best returns the current best observed value.
func (ei *ExpectedImprovement) Best() float64 {
	return ei.bestObserved
}

// Compute computes the Expected Improvement at a point with posterior mean
// mu and standard deviation sigma. The result is always non-negative.
func (ei *ExpectedImprovement) Compute(mu, sigma float64) float64 {
	improvement := ei.bestObserved - mu - ei.xi
	if improvement <= 0 && sigma <= 1e-10 {
		return 0.0
	}

	// With a (near-)certain prediction the improvement itself is the EI.
	if sigma <= 1e-10 {
		return improvement
	}

	// EI = improvement * Phi(z) + sigma * phi(z), z = improvement / sigma,
	// with Phi/phi the standard normal CDF/PDF.
	stdNormal := distuv.UnitNormal
	z := improvement / sigma
	return improvement*stdNormal.CDF(z) + sigma*stdNormal.Prob(z)
}
