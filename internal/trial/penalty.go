package trial

import (
	"math"

	"github.com/copyleftdev/optbench/internal/catalog"
)

// FailurePenalty is the sentinel score of a diverged trial. It orders after
// every finite score, so the tuner can compare failed trials without
// special cases.
var FailurePenalty = math.Inf(1)

// Penalty weights. Loss alone is an unreliable comparator across functions
// with different loss scales, so the score mixes the final loss with
// distance-to-optimum and trajectory-discipline terms, all distances
// normalized by the search-space diagonal. The weights are a tuning choice,
// not a correctness contract.
const (
	// FinalValueWeight scales the loss at the final position.
	FinalValueWeight = 0.8
	// BoundaryWeight scales the squared normalized domain violation.
	BoundaryWeight = 20.0
	// FinalDistanceWeight scales the normalized distance from the final
	// position to the nearest known global minimum.
	FinalDistanceWeight = 1.5
	// AvgDistanceWeight scales the mean normalized distance of the whole
	// trajectory to the final position (wandering).
	AvgDistanceWeight = 0.3
	// ConvergenceWeight scales how late the trajectory first comes within
	// ConvergenceTol of a global minimum.
	ConvergenceWeight = 0.1
	// ConvergenceTol is the fraction of the diagonal within which a
	// point counts as converged.
	ConvergenceTol = 0.01
	// OscillationWeight scales the sharp-turn penalty.
	OscillationWeight = 1.0
	// LuckyJumpWeight scales the penalty for single steps so large they
	// amount to teleporting across the landscape.
	LuckyJumpWeight = 1.0
	// LuckyJumpThreshold is the relative step size considered too large.
	LuckyJumpThreshold = 0.05
	// MinMovementWeight scales the penalty for trajectories that barely
	// move at all.
	MinMovementWeight = 0.6
	// MinMovementThreshold is the fraction of the window's longer side
	// under which total displacement counts as insufficient.
	MinMovementThreshold = 0.5
	// FinalProximityWeight scales the penalty for finishing next to the
	// start point.
	FinalProximityWeight = 8.0
	// FinalProximityThreshold is the fraction of the window's longer side
	// under which the final displacement counts as "never left".
	FinalProximityThreshold = 0.1
)

// scale compresses a raw term: sublinear growth for small contributions,
// linear tail for large ones.
func scale(x float64) float64 {
	return math.Sqrt(x) + x/3
}

// Score reduces a trajectory to the scalar penalty the tuner minimizes,
// plus the per-term contributions. Lower is better. A NaN total maps to
// the failure sentinel.
func Score(fn catalog.Function, traj Trajectory) (float64, map[string]float64) {
	if len(traj) == 0 {
		return FailurePenalty, nil
	}

	diag := fn.Domain.Diagonal()
	maxSide := fn.Domain.MaxSide()
	final := traj[len(traj)-1].Position
	start := traj[0].Position

	total := 0.0
	metrics := make(map[string]float64)
	add := func(name string, contrib float64) {
		metrics[name] = contrib
		total += contrib
	}

	// Loss at the final position.
	finalLoss := math.Max(fn.Eval([]float64{final[0], final[1]}), 0)
	add("final loss", scale(finalLoss*FinalValueWeight))

	// Domain violation, worst excursion per side.
	worst := func(f func(Sample) float64) float64 {
		v := 0.0
		for _, s := range traj {
			v = math.Max(v, f(s))
		}
		return v
	}
	violation := worst(func(s Sample) float64 { return fn.Domain.X.Min - s.Position[0] }) +
		worst(func(s Sample) float64 { return s.Position[0] - fn.Domain.X.Max }) +
		worst(func(s Sample) float64 { return fn.Domain.Y.Min - s.Position[1] }) +
		worst(func(s Sample) float64 { return s.Position[1] - fn.Domain.Y.Max })
	normViolation := violation / diag
	add("boundary violation", normViolation*normViolation*BoundaryWeight)

	// Distance from the final position to the nearest known minimum.
	finalDist := nearestMinimum(fn, final)
	add("final distance to global minimum", scale(finalDist/diag*FinalDistanceWeight))

	// Mean trajectory distance to the final point.
	sumDist := 0.0
	for _, s := range traj {
		sumDist += dist(s.Position, final)
	}
	avgDist := sumDist / float64(len(traj))
	add("average distance to final point", scale(avgDist/diag*AvgDistanceWeight))

	// Convergence speed: first sample within tolerance of a minimum.
	steps := len(traj) - 1
	if steps < 1 {
		steps = 1
	}
	tol := ConvergenceTol * diag
	firstHit := steps
	for i, s := range traj {
		if nearestMinimum(fn, s.Position) < tol {
			firstHit = i
			break
		}
	}
	add("convergence", scale(float64(firstHit)/float64(steps)*ConvergenceWeight))

	// Oscillation: mean sharpness of direction reversals, weighted by mean
	// step size.
	if len(traj) > 2 {
		meanStep := 0.0
		sharpSum := 0.0
		sharpCount := 0
		var prevUnit [2]float64
		havePrev := false
		for i := 1; i < len(traj); i++ {
			dx := traj[i].Position[0] - traj[i-1].Position[0]
			dy := traj[i].Position[1] - traj[i-1].Position[1]
			norm := math.Hypot(dx, dy)
			meanStep += norm
			unit := [2]float64{dx / (norm + 1e-12), dy / (norm + 1e-12)}
			if havePrev {
				sharp := -(unit[0]*prevUnit[0] + unit[1]*prevUnit[1])
				if sharp > 0 {
					sharpSum += sharp
				}
				sharpCount++
			}
			prevUnit = unit
			havePrev = true
		}
		meanStep /= float64(len(traj) - 1)
		if sharpCount > 0 {
			penalty := sharpSum / float64(sharpCount) * (meanStep / diag)
			add("oscillation", scale(penalty*OscillationWeight))
		}
	}

	// Lucky jump: a single step spanning a large fraction of the landscape.
	largest := 0.0
	minX, maxX := traj[0].Position[0], traj[0].Position[0]
	minY, maxY := traj[0].Position[1], traj[0].Position[1]
	for i := 1; i < len(traj); i++ {
		largest = math.Max(largest, dist(traj[i].Position, traj[i-1].Position))
		minX = math.Min(minX, traj[i].Position[0])
		maxX = math.Max(maxX, traj[i].Position[0])
		minY = math.Min(minY, traj[i].Position[1])
		maxY = math.Max(maxY, traj[i].Position[1])
	}
	span := math.Max(maxX-minX, maxY-minY)
	relStep := largest / math.Max(diag, span)
	if relStep > LuckyJumpThreshold {
		delta := (relStep - LuckyJumpThreshold) / LuckyJumpThreshold
		add("lucky jump", scale(delta*delta*LuckyJumpWeight))
	}

	// Insufficient movement: the whole trajectory stayed in a small ball
	// around the start.
	maxDisp := 0.0
	for _, s := range traj {
		maxDisp = math.Max(maxDisp, dist(s.Position, start))
	}
	if maxDisp < MinMovementThreshold*maxSide {
		delta := (MinMovementThreshold*maxSide - maxDisp) / maxSide
		add("min movement", scale(delta*delta*MinMovementWeight))
	}

	// Final position suspiciously close to the start.
	finalDisp := dist(final, start)
	if finalDisp < FinalProximityThreshold*maxSide {
		delta := (FinalProximityThreshold*maxSide - finalDisp) / maxSide
		expPenalty := math.Exp(delta*10.0) - 1.0
		add("final proximity", scale(expPenalty*FinalProximityWeight))
	}

	if math.IsNaN(total) {
		return FailurePenalty, nil
	}
	return total + 1, metrics
}

func nearestMinimum(fn catalog.Function, p [2]float64) float64 {
	best := math.Inf(1)
	for _, m := range fn.Minima {
		best = math.Min(best, dist(p, m))
	}
	return best
}

func dist(a, b [2]float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
