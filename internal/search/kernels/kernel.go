// Package kernels provides the covariance functions the Gaussian Process
// surrogate can be built on.
package kernels

import (
	"fmt"
	"math"
)

// Kernel is a covariance function over points in the search domain.
type Kernel interface {
	// Eval computes the kernel value between two points x1 and x2
	Eval(x1, x2 []float64) float64

	// Hyperparameters returns the current hyperparameters
	Hyperparameters() []float64

	// SetHyperparameters sets the kernel's hyperparameters
	SetHyperparameters(params []float64) error
}

// New returns the kernel registered under name, with unit length scale and
// signal variance. An empty name selects the Matérn 5/2 default.
func New(name string) (Kernel, error) {
	switch name {
	case "", "matern52":
		return NewMatern52Kernel(1.0, 1.0), nil
	case "rbf":
		return NewRBFKernel(1.0, 1.0), nil
	}
	return nil, fmt.Errorf("unknown kernel %q (want rbf or matern52)", name)
}

// stationary holds the two hyperparameters every built-in kernel shares:
// a length scale and a signal variance.
type stationary struct {
	lengthScale float64
	signalVar   float64
}

func newStationary(lengthScale, signalVar float64) stationary {
	if lengthScale <= 0 {
		panic(fmt.Sprintf("lengthScale must be positive, got %v", lengthScale))
	}
	if signalVar <= 0 {
		panic(fmt.Sprintf("signalVar must be positive, got %v", signalVar))
	}
	return stationary{lengthScale: lengthScale, signalVar: signalVar}
}

// Hyperparameters returns the current hyperparameters
func (s *stationary) Hyperparameters() []float64 {
	return []float64{s.lengthScale, s.signalVar}
}

// SetHyperparameters sets the kernel's hyperparameters
func (s *stationary) SetHyperparameters(params []float64) error {
	if len(params) != 2 {
		return fmt.Errorf("expected 2 hyperparameters, got %d", len(params))
	}
	if params[0] <= 0 || params[1] <= 0 {
		return fmt.Errorf("hyperparameters must be positive, got %v", params)
	}
	s.lengthScale = params[0]
	s.signalVar = params[1]
	return nil
}

func sqDist(x1, x2 []float64) float64 {
	var sumSq float64
	for i := range x1 {
		diff := x1[i] - x2[i]
		sumSq += diff * diff
	}
	return sumSq
}

// RBFKernel implements the Radial Basis Function (squared exponential) kernel
type RBFKernel struct {
	stationary
}

// NewRBFKernel creates a new RBF kernel with the given parameters
func NewRBFKernel(lengthScale, signalVar float64) *RBFKernel {
	return &RBFKernel{newStationary(lengthScale, signalVar)}
}

// Eval computes the RBF kernel value between x1 and x2
func (k *RBFKernel) Eval(x1, x2 []float64) float64 {
	r2 := sqDist(x1, x2) / (2.0 * k.lengthScale * k.lengthScale)
	return k.signalVar * math.Exp(-r2)
}

// Matern52Kernel implements the Matérn 5/2 kernel, the default for
// hyperparameter-tuning objectives: twice differentiable but less smooth
// than RBF.
type Matern52Kernel struct {
	stationary
}

// NewMatern52Kernel creates a new Matérn 5/2 kernel with the given parameters
func NewMatern52Kernel(lengthScale, signalVar float64) *Matern52Kernel {
	return &Matern52Kernel{newStationary(lengthScale, signalVar)}
}

// Eval computes the Matérn 5/2 kernel value between x1 and x2
func (k *Matern52Kernel) Eval(x1, x2 []float64) float64 {
	r := math.Sqrt(sqDist(x1, x2)) / k.lengthScale
	polyTerm := 1.0 + math.Sqrt(5)*r + (5.0/3.0)*r*r
	expTerm := math.Exp(-math.Sqrt(5) * r)
	return k.signalVar * polyTerm * expTerm
}
