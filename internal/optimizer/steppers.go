package optimizer

import "math"

// Common search-space building blocks. Bounds follow the ranges the
// benchmark tunes over; epsilon-style stabilizers are fixed, not tuned.
var (
	lrParam       = Param{Name: "lr", Kind: Float, Min: 1e-4, Max: 0.5}
	momentumParam = Param{Name: "momentum", Kind: Float, Min: 0.0, Max: 0.99}
	beta1Param    = Param{Name: "beta1", Kind: Float, Min: 0.8, Max: 0.999}
	beta2Param    = Param{Name: "beta2", Kind: Float, Min: 0.9, Max: 0.9999}
)

const defaultEps = 1e-8

type sgd struct {
	lr float64
}

func (s *sgd) Step(pos, grad []float64) []float64 {
	next := make([]float64, len(pos))
	for i := range pos {
		next[i] = pos[i] - s.lr*grad[i]
	}
	return next
}

type momentum struct {
	lr, mu   float64
	nesterov bool
	velocity []float64
}

func (m *momentum) Step(pos, grad []float64) []float64 {
	if m.velocity == nil {
		m.velocity = make([]float64, len(pos))
	}
	next := make([]float64, len(pos))
	for i := range pos {
		m.velocity[i] = m.mu*m.velocity[i] + grad[i]
		update := m.velocity[i]
		if m.nesterov {
			update = grad[i] + m.mu*m.velocity[i]
		}
		next[i] = pos[i] - m.lr*update
	}
	return next
}

type adagrad struct {
	lr  float64
	sum []float64
}

func (a *adagrad) Step(pos, grad []float64) []float64 {
	if a.sum == nil {
		a.sum = make([]float64, len(pos))
	}
	next := make([]float64, len(pos))
	for i := range pos {
		a.sum[i] += grad[i] * grad[i]
		next[i] = pos[i] - a.lr*grad[i]/(math.Sqrt(a.sum[i])+defaultEps)
	}
	return next
}

type adadelta struct {
	rho      float64
	avgSq    []float64
	avgDelta []float64
}

func (a *adadelta) Step(pos, grad []float64) []float64 {
	if a.avgSq == nil {
		a.avgSq = make([]float64, len(pos))
		a.avgDelta = make([]float64, len(pos))
	}
	next := make([]float64, len(pos))
	for i := range pos {
		a.avgSq[i] = a.rho*a.avgSq[i] + (1-a.rho)*grad[i]*grad[i]
		delta := math.Sqrt(a.avgDelta[i]+defaultEps) / math.Sqrt(a.avgSq[i]+defaultEps) * grad[i]
		a.avgDelta[i] = a.rho*a.avgDelta[i] + (1-a.rho)*delta*delta
		next[i] = pos[i] - delta
	}
	return next
}

type rmsprop struct {
	lr, alpha float64
	avgSq     []float64
}

func (r *rmsprop) Step(pos, grad []float64) []float64 {
	if r.avgSq == nil {
		r.avgSq = make([]float64, len(pos))
	}
	next := make([]float64, len(pos))
	for i := range pos {
		r.avgSq[i] = r.alpha*r.avgSq[i] + (1-r.alpha)*grad[i]*grad[i]
		next[i] = pos[i] - r.lr*grad[i]/(math.Sqrt(r.avgSq[i])+defaultEps)
	}
	return next
}

type adam struct {
	lr, beta1, beta2 float64
	weightDecay      float64
	amsgrad          bool
	t                int
	m, v, vMax       []float64
}

func (a *adam) Step(pos, grad []float64) []float64 {
	if a.m == nil {
		a.m = make([]float64, len(pos))
		a.v = make([]float64, len(pos))
		a.vMax = make([]float64, len(pos))
	}
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	next := make([]float64, len(pos))
	for i := range pos {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*grad[i]
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*grad[i]*grad[i]

		mHat := a.m[i] / bc1
		vHat := a.v[i] / bc2
		if a.amsgrad {
			if vHat > a.vMax[i] {
				a.vMax[i] = vHat
			}
			vHat = a.vMax[i]
		}

		next[i] = pos[i] - a.lr*mHat/(math.Sqrt(vHat)+defaultEps)
		if a.weightDecay > 0 {
			// Decoupled decay, applied to the position directly.
			next[i] -= a.lr * a.weightDecay * pos[i]
		}
	}
	return next
}

type adamax struct {
	lr, beta1, beta2 float64
	t                int
	m, u             []float64
}

func (a *adamax) Step(pos, grad []float64) []float64 {
	if a.m == nil {
		a.m = make([]float64, len(pos))
		a.u = make([]float64, len(pos))
	}
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))

	next := make([]float64, len(pos))
	for i := range pos {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*grad[i]
		a.u[i] = math.Max(a.beta2*a.u[i], math.Abs(grad[i]))
		next[i] = pos[i] - a.lr*a.m[i]/(bc1*(a.u[i]+defaultEps))
	}
	return next
}

type lion struct {
	lr, beta1, beta2 float64
	m                []float64
}

func (l *lion) Step(pos, grad []float64) []float64 {
	if l.m == nil {
		l.m = make([]float64, len(pos))
	}
	next := make([]float64, len(pos))
	for i := range pos {
		update := l.beta1*l.m[i] + (1-l.beta1)*grad[i]
		next[i] = pos[i] - l.lr*sign(update)
		l.m[i] = l.beta2*l.m[i] + (1-l.beta2)*grad[i]
	}
	return next
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func init() {
	register(Spec{
		ID:    "sgd",
		Space: Space{lrParam},
		New: func(h Hyperparams) Stepper {
			return &sgd{lr: h["lr"]}
		},
	})

	register(Spec{
		ID:    "momentum",
		Space: Space{lrParam, momentumParam},
		New: func(h Hyperparams) Stepper {
			return &momentum{lr: h["lr"], mu: h["momentum"]}
		},
	})

	register(Spec{
		ID:    "nesterov",
		Space: Space{lrParam, momentumParam},
		New: func(h Hyperparams) Stepper {
			return &momentum{lr: h["lr"], mu: h["momentum"], nesterov: true}
		},
	})

	register(Spec{
		ID:    "adagrad",
		Space: Space{lrParam},
		New: func(h Hyperparams) Stepper {
			return &adagrad{lr: h["lr"]}
		},
	})

	register(Spec{
		ID: "adadelta",
		Space: Space{
			{Name: "rho", Kind: Float, Min: 0.8, Max: 0.999},
		},
		New: func(h Hyperparams) Stepper {
			return &adadelta{rho: h["rho"]}
		},
	})

	register(Spec{
		ID: "rmsprop",
		Space: Space{
			lrParam,
			{Name: "alpha", Kind: Float, Min: 0.8, Max: 0.999},
		},
		New: func(h Hyperparams) Stepper {
			return &rmsprop{lr: h["lr"], alpha: h["alpha"]}
		},
	})

	register(Spec{
		ID:    "adam",
		Space: Space{lrParam, beta1Param, beta2Param},
		New: func(h Hyperparams) Stepper {
			return &adam{lr: h["lr"], beta1: h["beta1"], beta2: h["beta2"]}
		},
	})

	register(Spec{
		ID: "adamw",
		Space: Space{
			lrParam, beta1Param, beta2Param,
			{Name: "weight_decay", Kind: Float, Min: 0.0, Max: 0.1},
		},
		New: func(h Hyperparams) Stepper {
			return &adam{
				lr: h["lr"], beta1: h["beta1"], beta2: h["beta2"],
				weightDecay: h["weight_decay"],
			}
		},
	})

	register(Spec{
		ID:    "amsgrad",
		Space: Space{lrParam, beta1Param, beta2Param},
		New: func(h Hyperparams) Stepper {
			return &adam{
				lr: h["lr"], beta1: h["beta1"], beta2: h["beta2"],
				amsgrad: true,
			}
		},
	})

	register(Spec{
		ID:    "adamax",
		Space: Space{lrParam, beta1Param, beta2Param},
		New: func(h Hyperparams) Stepper {
			return &adamax{lr: h["lr"], beta1: h["beta1"], beta2: h["beta2"]}
		},
	})

	register(Spec{
		ID: "lion",
		Space: Space{
			{Name: "lr", Kind: Float, Min: 1e-4, Max: 0.1},
			beta1Param, beta2Param,
		},
		New: func(h Hyperparams) Stepper {
			return &lion{lr: h["lr"], beta1: h["beta1"], beta2: h["beta2"]}
		},
	})
}
