// Package cache persists per-(optimizer, function) benchmark results on
// disk so interrupted runs resume where they left off. Writes are atomic:
// results are staged to a temp file and renamed into place, so a crash
// mid-write never leaves a truncated entry behind.
package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/copyleftdev/optbench/internal/errors"
	"github.com/copyleftdev/optbench/internal/logging"
	"github.com/copyleftdev/optbench/internal/trial"
)

// Version marks the on-disk entry format. Entries written by a different
// version are treated as cache misses rather than parsed optimistically.
const Version = 1

// Entry is the persisted outcome of one tuned (optimizer, function) pair.
type Entry struct {
	Version    int                `json:"version"`
	Optimizer  string             `json:"optimizer"`
	Function   string             `json:"function"`
	Status     trial.Status       `json:"status"`
	Penalty    float64            `json:"penalty"`
	Params     map[string]float64 `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
	Trajectory trial.Trajectory   `json:"trajectory,omitempty"`
}

// entryJSON is the wire form of Entry. Failed pairs carry an infinite
// penalty, which JSON cannot express, so the penalty travels as a string.
type entryJSON struct {
	Version    int                `json:"version"`
	Optimizer  string             `json:"optimizer"`
	Function   string             `json:"function"`
	Status     trial.Status       `json:"status"`
	Penalty    jsonFloat          `json:"penalty"`
	Params     map[string]float64 `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
	Trajectory []sampleJSON       `json:"trajectory,omitempty"`
}

// sampleJSON is the wire form of a trajectory sample. A diverged trial's
// last sample holds the non-finite loss that ended it, so the loss travels
// through jsonFloat like the penalty does.
type sampleJSON struct {
	Position [2]float64 `json:"position"`
	Loss     jsonFloat  `json:"loss"`
	GradNorm float64    `json:"gradNorm"`
	StepSize float64    `json:"stepSize"`
}

func trajectoryToWire(t trial.Trajectory) []sampleJSON {
	if t == nil {
		return nil
	}
	wire := make([]sampleJSON, len(t))
	for i, s := range t {
		wire[i] = sampleJSON{
			Position: s.Position,
			Loss:     jsonFloat(s.Loss),
			GradNorm: s.GradNorm,
			StepSize: s.StepSize,
		}
	}
	return wire
}

func trajectoryFromWire(wire []sampleJSON) trial.Trajectory {
	if wire == nil {
		return nil
	}
	t := make(trial.Trajectory, len(wire))
	for i, s := range wire {
		t[i] = trial.Sample{
			Position: s.Position,
			Loss:     float64(s.Loss),
			GradNorm: s.GradNorm,
			StepSize: s.StepSize,
		}
	}
	return t
}

// Store is a filesystem-backed result cache rooted at a directory.
type Store struct {
	dir    string
	logger *logging.Logger
}

// NewStore creates the cache directory if needed and returns a store.
func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	const op = "cache.NewStore"

	if dir == "" {
		return nil, errors.New("cache directory must not be empty").WithOperation(op).WithComponent("cache")
	}
	if err := os.MkdirAll(filepath.Join(dir, "pairs"), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory").WithOperation(op).WithComponent("cache")
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the cache root.
func (s *Store) Dir() string { return s.dir }

// path returns the entry file for a pair. One directory per optimizer
// keeps listings small and lets `Get` stay a single stat away.
func (s *Store) path(optimizerID, functionID string) string {
	return filepath.Join(s.dir, "pairs", optimizerID, functionID+".json")
}

// Get returns the cached entry for a pair. Missing, unreadable, corrupt,
// or version-mismatched entries all report ok=false; the caller re-runs
// the pair and overwrites whatever was there.
func (s *Store) Get(optimizerID, functionID string) (Entry, bool) {
	data, err := os.ReadFile(s.path(optimizerID, functionID))
	if err != nil {
		return Entry{}, false
	}

	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"optimizer": optimizerID,
			"function":  functionID,
		}).Warn("Discarding corrupt cache entry")
		return Entry{}, false
	}
	if raw.Version != Version || raw.Optimizer != optimizerID || raw.Function != functionID {
		return Entry{}, false
	}

	return Entry{
		Version:    raw.Version,
		Optimizer:  raw.Optimizer,
		Function:   raw.Function,
		Status:     raw.Status,
		Penalty:    float64(raw.Penalty),
		Params:     raw.Params,
		Metrics:    raw.Metrics,
		Trajectory: trajectoryFromWire(raw.Trajectory),
	}, true
}

// Put persists an entry atomically.
func (s *Store) Put(e Entry) error {
	const op = "Store.Put"

	e.Version = Version
	if e.Optimizer == "" || e.Function == "" {
		return errors.New("entry must name its optimizer and function").WithOperation(op).WithComponent("cache")
	}

	raw := entryJSON{
		Version:    e.Version,
		Optimizer:  e.Optimizer,
		Function:   e.Function,
		Status:     e.Status,
		Penalty:    jsonFloat(e.Penalty),
		Params:     e.Params,
		Metrics:    e.Metrics,
		Trajectory: trajectoryToWire(e.Trajectory),
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode cache entry").WithOperation(op).WithComponent("cache")
	}

	target := s.path(e.Optimizer, e.Function)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, "failed to create optimizer directory").WithOperation(op).WithComponent("cache")
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+e.Function+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file").WithOperation(op).WithComponent("cache")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write temp file").WithOperation(op).WithComponent("cache")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync temp file").WithOperation(op).WithComponent("cache")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file").WithOperation(op).WithComponent("cache")
	}

	if err := os.Rename(tmpName, target); err != nil {
		return errors.Wrap(err, "failed to publish cache entry").WithOperation(op).WithComponent("cache")
	}
	return nil
}

// All walks the cache and returns every valid entry, keyed per pair.
// Invalid files are skipped, matching Get semantics.
func (s *Store) All() ([]Entry, error) {
	const op = "Store.All"

	root := filepath.Join(s.dir, "pairs")
	optDirs, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list cache").WithOperation(op).WithComponent("cache")
	}

	var entries []Entry
	for _, od := range optDirs {
		if !od.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, od.Name()))
		if err != nil {
			return nil, errors.Wrap(err, "failed to list optimizer directory").WithOperation(op).WithComponent("cache")
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || filepath.Ext(name) != ".json" {
				continue
			}
			if e, ok := s.Get(od.Name(), name[:len(name)-len(".json")]); ok {
				entries = append(entries, e)
			}
		}
	}
	return entries, nil
}

// jsonFloat round-trips non-finite floats through JSON as strings.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = jsonFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "NaN":
		*f = jsonFloat(math.NaN())
	case "Infinity":
		*f = jsonFloat(math.Inf(1))
	case "-Infinity":
		*f = jsonFloat(math.Inf(-1))
	default:
		return fmt.Errorf("invalid float value %q", s)
	}
	return nil
}
