// Package search defines the contract for the sequential model-based
// engines that drive hyperparameter tuning: propose a point, observe its
// score, propose again.
package search

import (
	"context"
)

// Objective is the function a search engine minimizes.
type Objective func([]float64) (float64, error)

// Config contains configuration for a search engine run.
type Config struct {
	// Objective function to minimize.
	Objective Objective

	// Bounds for each dimension [min, max].
	Bounds [][2]float64

	// MaxIterations is the total number of objective evaluations,
	// including the initial design.
	MaxIterations int

	// NInitialPoints is the number of space-filling points evaluated
	// before the model takes over.
	NInitialPoints int

	// Seed fixes the engine's random source. The engine must be fully
	// deterministic under a fixed seed; it never falls back to wall-clock
	// seeding.
	Seed int64
}

// Solution is one evaluated point in the search space.
type Solution struct {
	Params []float64
	Value  float64
}

// Observation records a single objective evaluation.
type Observation struct {
	Iteration int
	Solution  Solution
}

// Result contains the outcome of a search run.
type Result struct {
	Best       Solution
	History    []Observation
	Iterations int
}

// Engine runs a sequential search over a bounded continuous space.
type Engine interface {
	// Run executes the search until the evaluation budget is exhausted or
	// the context is cancelled.
	Run(ctx context.Context, cfg Config) (*Result, error)
}
