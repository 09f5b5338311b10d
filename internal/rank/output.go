package rank

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/copyleftdev/optbench/internal/errors"
)

// FailedMarker is the display value for optimizers whose aggregate could
// not be computed (an infinite or undefined average). Consumers use it to
// tell "ran and diverged" apart from "never run".
const FailedMarker = "Failed ⚠️"

// OutputEntry is one row of the serialized ranking tables.
type OutputEntry struct {
	Rank      int    `json:"rank"`
	Optimizer string `json:"optimizer"`
	Value     string `json:"value"`
	Vis       string `json:"vis"`
}

// Output is the document the dashboard renderer consumes.
type Output struct {
	RankingByAvgRank   []OutputEntry `json:"rankingByAvgRank"`
	RankingByErrorRate []OutputEntry `json:"rankingByErrorRate"`
	Incomplete         []string      `json:"incomplete,omitempty"`
}

// BuildOutput converts rankings into the serialized shape. visBase is
// prefixed to each optimizer ID to form its visualization link.
func BuildOutput(r *Rankings, visBase string) Output {
	return Output{
		RankingByAvgRank:   outputRows(r.ByAvgRank, visBase),
		RankingByErrorRate: outputRows(r.ByErrorRate, visBase),
		Incomplete:         r.Incomplete,
	}
}

func outputRows(scores []Score, visBase string) []OutputEntry {
	rows := make([]OutputEntry, 0, len(scores))
	for i, s := range scores {
		rows = append(rows, OutputEntry{
			Rank:      i + 1,
			Optimizer: s.Optimizer,
			Value:     formatValue(s.Value),
			Vis:       visBase + s.Optimizer,
		})
	}
	return rows
}

// formatValue renders a score with four decimals, trailing zeros trimmed.
func formatValue(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return FailedMarker
	}
	s := strings.TrimRight(fmt.Sprintf("%.4f", v), "0")
	return strings.TrimRight(s, ".")
}

// WriteFile atomically writes the ranking document to path.
func WriteFile(path string, out Output) error {
	const op = "rank.WriteFile"

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode rankings").WithOperation(op).WithComponent("rank")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory").WithOperation(op).WithComponent("rank")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ranks-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file").WithOperation(op).WithComponent("rank")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write rankings").WithOperation(op).WithComponent("rank")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file").WithOperation(op).WithComponent("rank")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "failed to publish rankings").WithOperation(op).WithComponent("rank")
	}
	return nil
}
