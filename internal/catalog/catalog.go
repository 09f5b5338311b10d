// Package catalog defines the fixed registry of synthetic 2D test functions
// the benchmark evaluates optimizers against. Every function is pure and
// stateless; the registry is immutable after process start.
package catalog

import (
	"sort"

	"github.com/copyleftdev/optbench/internal/errors"
)

// Bounds is a closed interval on one axis.
type Bounds struct {
	Min float64
	Max float64
}

// Domain is the valid evaluation window of a test function.
type Domain struct {
	X Bounds
	Y Bounds
}

// Diagonal returns the length of the window's diagonal. Distance-based
// penalty terms are normalized by it so functions with different window
// sizes remain comparable.
func (d Domain) Diagonal() float64 {
	dx := d.X.Max - d.X.Min
	dy := d.Y.Max - d.Y.Min
	return hypot(dx, dy)
}

// MaxSide returns the longer side of the window.
func (d Domain) MaxSide() float64 {
	dx := d.X.Max - d.X.Min
	dy := d.Y.Max - d.Y.Min
	if dx > dy {
		return dx
	}
	return dy
}

// Contains reports whether the point lies inside the window.
func (d Domain) Contains(p [2]float64) bool {
	return p[0] >= d.X.Min && p[0] <= d.X.Max && p[1] >= d.Y.Min && p[1] <= d.Y.Max
}

// Function is one synthetic 2D test landscape. Outputs are affinely scaled
// so the observed range over the evaluation window maps to roughly [0, 2],
// keeping loss magnitudes comparable across functions.
type Function struct {
	// ID is the canonical identifier, unique within the catalog.
	ID string

	// Eval computes the (scaled) loss at a point. The slice must have
	// length 2.
	Eval func(p []float64) float64

	// Domain is the evaluation window. Trajectories may leave it; leaving
	// is penalized, never clamped.
	Domain Domain

	// Start is the fixed starting point for every trial on this function.
	Start [2]float64

	// Minima are the known global minimum locations.
	Minima [][2]float64

	// MinValue is the scaled loss at the global minimum.
	MinValue float64

	// Iterations is the per-trial step budget for this function.
	Iterations int

	// ErrorWeight scales this function's contribution to the average
	// error-rate ranking.
	ErrorWeight float64
}

var registry = map[string]Function{}

func register(f Function) {
	if _, dup := registry[f.ID]; dup {
		panic("catalog: duplicate function id " + f.ID)
	}
	if f.Iterations == 0 {
		f.Iterations = DefaultIterations
	}
	if f.ErrorWeight == 0 {
		f.ErrorWeight = 1.0
	}
	registry[f.ID] = f
}

// DefaultIterations is the step budget used when a function does not
// declare its own.
const DefaultIterations = 300

// Lookup returns the function with the given ID.
func Lookup(id string) (Function, error) {
	f, ok := registry[id]
	if !ok {
		return Function{}, errors.Newf("unknown test function %q", id).
			WithComponent("catalog")
	}
	return f, nil
}

// IDs returns all function identifiers in canonical (lexicographic) order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every catalog function in canonical ID order.
func All() []Function {
	ids := IDs()
	fns := make([]Function, len(ids))
	for i, id := range ids {
		fns[i] = registry[id]
	}
	return fns
}

// Len returns the number of functions in the catalog.
func Len() int {
	return len(registry)
}
