package cache

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/optbench/internal/catalog"
	"github.com/copyleftdev/optbench/internal/logging"
	"github.com/copyleftdev/optbench/internal/optimizer"
	"github.com/copyleftdev/optbench/internal/trial"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger, err := logging.NewLogger(&logging.Config{Level: "ERROR", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	s, err := NewStore(t.TempDir(), logger)
	require.NoError(t, err)
	return s
}

func okEntry() Entry {
	return Entry{
		Optimizer: "adam",
		Function:  "Sphere",
		Status:    trial.StatusOK,
		Penalty:   1.2345,
		Params:    map[string]float64{"lr": 0.01, "beta1": 0.9},
		Metrics:   map[string]float64{"final loss": 0.1},
		Trajectory: trial.Trajectory{
			{Position: [2]float64{10, 10}, Loss: 200},
			{Position: [2]float64{0, 0}, Loss: 0, GradNorm: 1, StepSize: 14.14},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := testStore(t)
	want := okEntry()

	require.NoError(t, s.Put(want))

	got, ok := s.Get("adam", "Sphere")
	require.True(t, ok)
	want.Version = Version
	assert.Equal(t, want, got)
}

func TestStoreMiss(t *testing.T) {
	s := testStore(t)
	_, ok := s.Get("adam", "Sphere")
	assert.False(t, ok)
}

// Failed pairs carry an infinite penalty, which must survive the trip
// through JSON.
func TestStoreInfinitePenalty(t *testing.T) {
	s := testStore(t)
	e := okEntry()
	e.Status = trial.StatusFailed
	e.Penalty = math.Inf(1)
	e.Metrics = nil
	e.Trajectory = nil

	require.NoError(t, s.Put(e))

	got, ok := s.Get("adam", "Sphere")
	require.True(t, ok)
	assert.True(t, math.IsInf(got.Penalty, 1))
	assert.Equal(t, trial.StatusFailed, got.Status)
}

// A diverged trial's trajectory ends at the sample whose loss went
// non-finite. That entry must persist like any other so reruns hit the
// cache instead of recomputing the pair forever.
func TestStoreFailedTrajectoryRoundTrip(t *testing.T) {
	s := testStore(t)

	calls := 0
	fn := catalog.Function{
		ID: "NanMidway",
		Eval: func(p []float64) float64 {
			calls++
			if calls > 20 {
				return math.NaN()
			}
			return p[0]*p[0] + p[1]*p[1]
		},
		Domain:      catalog.Domain{X: catalog.Bounds{Min: -15, Max: 15}, Y: catalog.Bounds{Min: -15, Max: 15}},
		Start:       [2]float64{10, 10},
		Minima:      [][2]float64{{0, 0}},
		Iterations:  200,
		ErrorWeight: 1,
	}
	spec, err := optimizer.Lookup("sgd")
	require.NoError(t, err)
	res := trial.Run(spec, fn, optimizer.Hyperparams{"lr": 0.1}, 200)
	require.Equal(t, trial.StatusFailed, res.Status)
	require.True(t, math.IsNaN(res.Trajectory[len(res.Trajectory)-1].Loss))

	e := Entry{
		Optimizer:  "sgd",
		Function:   fn.ID,
		Status:     res.Status,
		Penalty:    res.Penalty,
		Params:     map[string]float64{"lr": 0.1},
		Metrics:    res.Metrics,
		Trajectory: res.Trajectory,
	}
	require.NoError(t, s.Put(e))

	got, ok := s.Get("sgd", fn.ID)
	require.True(t, ok)
	assert.Equal(t, trial.StatusFailed, got.Status)
	assert.True(t, math.IsInf(got.Penalty, 1))
	require.Len(t, got.Trajectory, len(res.Trajectory))
	assert.True(t, math.IsNaN(got.Trajectory[len(got.Trajectory)-1].Loss))
	assert.Equal(t, res.Trajectory[:len(res.Trajectory)-1], got.Trajectory[:len(got.Trajectory)-1])
}

// A partially written file from a crashed process reads as a miss, never
// as an error.
func TestStoreCorruptEntryIsMiss(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(okEntry()))

	path := filepath.Join(s.Dir(), "pairs", "adam", "Sphere.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"optimizer":"adam","fu`), 0o644))

	_, ok := s.Get("adam", "Sphere")
	assert.False(t, ok)
}

// Entries written under a different format version are recomputed rather
// than parsed optimistically.
func TestStoreVersionMismatchIsMiss(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(okEntry()))

	path := filepath.Join(s.Dir(), "pairs", "adam", "Sphere.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["version"] = Version + 1
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, ok := s.Get("adam", "Sphere")
	assert.False(t, ok)
}

// An entry whose body names a different pair than its path is a miss: it
// cannot be trusted to belong to the key.
func TestStoreMismatchedKeyIsMiss(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(okEntry()))

	src := filepath.Join(s.Dir(), "pairs", "adam", "Sphere.json")
	dst := filepath.Join(s.Dir(), "pairs", "adam", "Ackley.json")
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))

	_, ok := s.Get("adam", "Ackley")
	assert.False(t, ok)
}

func TestStorePutOverwrites(t *testing.T) {
	s := testStore(t)
	e := okEntry()
	require.NoError(t, s.Put(e))

	e.Penalty = 9.9
	require.NoError(t, s.Put(e))

	got, ok := s.Get("adam", "Sphere")
	require.True(t, ok)
	assert.Equal(t, 9.9, got.Penalty)
}

func TestStorePutValidation(t *testing.T) {
	s := testStore(t)

	e := okEntry()
	e.Optimizer = ""
	assert.Error(t, s.Put(e))

	e = okEntry()
	e.Function = ""
	assert.Error(t, s.Put(e))
}

func TestStoreAll(t *testing.T) {
	s := testStore(t)

	entries, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, entries)

	a := okEntry()
	b := okEntry()
	b.Optimizer = "sgd"
	c := okEntry()
	c.Function = "Ackley"
	for _, e := range []Entry{a, b, c} {
		require.NoError(t, s.Put(e))
	}

	// A stray corrupt file must be skipped, not fail the walk.
	stray := filepath.Join(s.Dir(), "pairs", "adam", "broken.json")
	require.NoError(t, os.WriteFile(stray, []byte("not json"), 0o644))

	entries, err = s.All()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	keys := map[[2]string]bool{}
	for _, e := range entries {
		keys[[2]string{e.Optimizer, e.Function}] = true
	}
	assert.True(t, keys[[2]string{"adam", "Sphere"}])
	assert.True(t, keys[[2]string{"sgd", "Sphere"}])
	assert.True(t, keys[[2]string{"adam", "Ackley"}])
}

// Temp files from interrupted writes never surface as entries.
func TestStoreIgnoresTempFiles(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(okEntry()))

	tmp := filepath.Join(s.Dir(), "pairs", "adam", ".Sphere-123.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("partial"), 0o644))

	entries, err := s.All()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
