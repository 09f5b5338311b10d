// Package trial runs a single optimizer against a single test function for
// a fixed iteration budget and scores the resulting trajectory.
package trial

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/copyleftdev/optbench/internal/catalog"
	"github.com/copyleftdev/optbench/internal/optimizer"
)

// Status reports how a trial ended.
type Status string

const (
	// StatusOK means the trial ran its full iteration budget.
	StatusOK Status = "ok"
	// StatusFailed means the trial produced a non-finite loss, gradient or
	// position and was cut short.
	StatusFailed Status = "failed"
)

// Sample is one recorded trajectory point.
type Sample struct {
	Position [2]float64 `json:"position"`
	Loss     float64    `json:"loss"`
	GradNorm float64    `json:"gradNorm"`
	StepSize float64    `json:"stepSize"`
}

// Trajectory is the ordered sequence of samples an optimizer visited.
type Trajectory []Sample

// Result is the outcome of one trial.
type Result struct {
	Optimizer  string                `json:"optimizer"`
	Function   string                `json:"function"`
	Params     optimizer.Hyperparams `json:"params"`
	Penalty    float64               `json:"penalty"`
	Status     Status                `json:"status"`
	Metrics    map[string]float64    `json:"metrics,omitempty"`
	Trajectory Trajectory            `json:"trajectory,omitempty"`
}

// Failed reports whether the trial diverged.
func (r Result) Failed() bool { return r.Status == StatusFailed }

// Run executes one trial: iterations steps of spec's update rule on fn,
// starting from fn.Start. Gradients are estimated numerically. The trial
// never returns an error: a non-finite value terminates it early with the
// sentinel penalty so the tuner can compare failed trials like any other.
func Run(spec optimizer.Spec, fn catalog.Function, params optimizer.Hyperparams, iterations int) Result {
	res := Result{
		Optimizer: spec.ID,
		Function:  fn.ID,
		Params:    params,
	}

	stepper := spec.New(params)
	pos := []float64{fn.Start[0], fn.Start[1]}
	grad := make([]float64, 2)

	traj := make(Trajectory, 0, iterations+1)
	traj = append(traj, Sample{
		Position: [2]float64{pos[0], pos[1]},
		Loss:     fn.Eval(pos),
	})

	for i := 0; i < iterations; i++ {
		loss := fn.Eval(pos)
		fd.Gradient(grad, fn.Eval, pos, nil)

		if !finite(loss) || !finiteSlice(grad) {
			return failed(res, traj)
		}

		next := stepper.Step(pos, grad)
		if !finiteSlice(next) {
			return failed(res, traj)
		}

		traj = append(traj, Sample{
			Position: [2]float64{next[0], next[1]},
			Loss:     fn.Eval(next),
			GradNorm: math.Hypot(grad[0], grad[1]),
			StepSize: math.Hypot(next[0]-pos[0], next[1]-pos[1]),
		})
		pos = next
	}

	penalty, metrics := Score(fn, traj)
	res.Penalty = penalty
	res.Status = StatusOK
	res.Metrics = metrics
	res.Trajectory = traj
	if math.IsInf(penalty, 1) {
		res.Status = StatusFailed
		res.Metrics = nil
	}
	return res
}

// failed finalizes a diverged trial: sentinel penalty, trajectory truncated
// at the step where the divergence surfaced. The last sample keeps the
// non-finite loss that ended the trial.
func failed(res Result, traj Trajectory) Result {
	res.Penalty = FailurePenalty
	res.Status = StatusFailed
	res.Trajectory = traj
	return res
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteSlice(vs []float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}
