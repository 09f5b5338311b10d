// Package rank reduces per-(optimizer, function) results into the two
// global orderings the dashboard consumes: average rank position across
// functions, and weighted average error rate. Both are total orders with a
// deterministic tie-break on optimizer identifier.
package rank

import (
	"math"
	"sort"

	"github.com/copyleftdev/optbench/internal/cache"
	"github.com/copyleftdev/optbench/internal/errors"
)

// Score is one optimizer's aggregate under a single metric.
type Score struct {
	Optimizer string
	Value     float64
}

// Rankings is the outcome of one aggregation pass. Aggregation is a full
// recomputation every time; there is no incremental update.
type Rankings struct {
	// ByAvgRank orders optimizers by the mean of their per-function rank
	// positions (1 = best on that function), ascending. This is the
	// primary ranking: rank positions are immune to functions whose loss
	// scale dwarfs the others.
	ByAvgRank []Score

	// ByErrorRate orders optimizers by the mean of their weighted
	// per-function penalties, ascending.
	ByErrorRate []Score

	// Incomplete lists optimizers that are missing a result for at least
	// one catalog function. They appear in neither ordering: averaging an
	// optimizer over fewer functions than its peers would bias it.
	Incomplete []string

	// FunctionRanks holds each ranked optimizer's rank position per
	// function, for inspection.
	FunctionRanks map[string]map[string]int
}

// Aggregate computes both rankings from a set of cached pair results.
// functions is the full catalog ID list and weights maps function IDs to
// their error weight (missing keys default to 1). Optimizers lacking an
// entry for any function are reported incomplete. Failed pairs
// participate with their sentinel penalty, so a diverging optimizer ranks
// last rather than vanishing.
func Aggregate(entries []cache.Entry, functions []string, weights map[string]float64) (*Rankings, error) {
	const op = "rank.Aggregate"

	if len(functions) == 0 {
		return nil, errors.New("function list must not be empty").WithOperation(op).WithComponent("rank")
	}

	// penalty[optimizer][function]
	penalty := map[string]map[string]float64{}
	for _, e := range entries {
		if penalty[e.Optimizer] == nil {
			penalty[e.Optimizer] = map[string]float64{}
		}
		penalty[e.Optimizer][e.Function] = e.Penalty
	}

	var complete, incomplete []string
	for opt := range penalty {
		missing := false
		for _, fn := range functions {
			if _, ok := penalty[opt][fn]; !ok {
				missing = true
				break
			}
		}
		if missing {
			incomplete = append(incomplete, opt)
		} else {
			complete = append(complete, opt)
		}
	}
	sort.Strings(complete)
	sort.Strings(incomplete)

	r := &Rankings{
		Incomplete:    incomplete,
		FunctionRanks: map[string]map[string]int{},
	}
	for _, opt := range complete {
		r.FunctionRanks[opt] = map[string]int{}
	}

	// Competition ranking per function: equal penalties share a rank, and
	// the next distinct penalty takes the position it would have had
	// without the tie (1, 2, 2, 4).
	for _, fn := range functions {
		scores := make([]Score, 0, len(complete))
		for _, opt := range complete {
			scores = append(scores, Score{Optimizer: opt, Value: penalty[opt][fn]})
		}
		sortScores(scores)

		pos := 1
		prev := math.NaN()
		for i, s := range scores {
			if i == 0 || s.Value != prev {
				pos = i + 1
			}
			r.FunctionRanks[s.Optimizer][fn] = pos
			prev = s.Value
		}
	}

	for _, opt := range complete {
		var rankSum float64
		var errSum float64
		for _, fn := range functions {
			rankSum += float64(r.FunctionRanks[opt][fn])
			w := 1.0
			if v, ok := weights[fn]; ok && v > 0 {
				w = v
			}
			errSum += penalty[opt][fn] * w
		}
		n := float64(len(functions))
		r.ByAvgRank = append(r.ByAvgRank, Score{Optimizer: opt, Value: rankSum / n})
		r.ByErrorRate = append(r.ByErrorRate, Score{Optimizer: opt, Value: errSum / n})
	}
	sortScores(r.ByAvgRank)
	sortScores(r.ByErrorRate)

	return r, nil
}

// sortScores orders ascending by value with NaN and +Inf last, breaking
// ties lexicographically by optimizer ID so the order is independent of
// input iteration order.
func sortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		vi, vj := scores[i].Value, scores[j].Value
		if vi != vj {
			if math.IsNaN(vj) {
				return !math.IsNaN(vi)
			}
			if math.IsNaN(vi) {
				return false
			}
			return vi < vj
		}
		return scores[i].Optimizer < scores[j].Optimizer
	})
}
