// Package optimizer wraps first-order optimization step rules behind a
// uniform contract: given the current position and gradient, produce the
// next position. One Spec per supported optimizer, each with a declared
// hyperparameter search space.
package optimizer

import (
	"sort"

	"github.com/copyleftdev/optbench/internal/errors"
)

// Hyperparams is a concrete hyperparameter assignment. Integer parameters
// are stored rounded; booleans as 0 or 1.
type Hyperparams map[string]float64

// Bool reads a boolean hyperparameter.
func (h Hyperparams) Bool(name string) bool { return h[name] >= 0.5 }

// Kind is the type of a search-space parameter.
type Kind int

const (
	// Float parameters are sampled continuously in [Min, Max].
	Float Kind = iota
	// Int parameters are sampled continuously and rounded to the nearest
	// integer in [Min, Max].
	Int
	// Bool parameters are sampled in [0, 1] and thresholded at 0.5.
	Bool
)

// Param declares one tunable hyperparameter.
type Param struct {
	Name string
	Kind Kind
	Min  float64
	Max  float64
}

// Space is an optimizer's hyperparameter search space. Order is
// significant: it fixes the mapping to the search engine's dimensions.
type Space []Param

// Stepper applies an optimizer's update rule. A Stepper is stateful
// (moment accumulators and step counters live in it) and is used by a
// single trial at a time.
type Stepper interface {
	// Step consumes the gradient at pos and returns the next position.
	// The returned slice is freshly allocated; pos is not mutated.
	Step(pos, grad []float64) []float64
}

// Spec describes one supported optimizer.
type Spec struct {
	// ID is the canonical identifier, unique within the registry.
	ID string

	// Space is the hyperparameter search space tuned per function.
	Space Space

	// New builds a fresh Stepper for one trial from a concrete
	// hyperparameter assignment.
	New func(h Hyperparams) Stepper
}

var registry = map[string]Spec{}

func register(s Spec) {
	if _, dup := registry[s.ID]; dup {
		panic("optimizer: duplicate spec id " + s.ID)
	}
	registry[s.ID] = s
}

// Lookup returns the spec with the given ID.
func Lookup(id string) (Spec, error) {
	s, ok := registry[id]
	if !ok {
		return Spec{}, errors.Newf("unknown optimizer %q", id).
			WithComponent("optimizer")
	}
	return s, nil
}

// IDs returns all optimizer identifiers in canonical (lexicographic) order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
