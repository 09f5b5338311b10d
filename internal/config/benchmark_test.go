package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/optbench/internal/optimizer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBenchmarkMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	b, err := LoadBenchmark(path, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultBenchmark(), b)

	_, err = LoadBenchmark(path, true)
	assert.Error(t, err)
}

func TestLoadBenchmark(t *testing.T) {
	path := writeConfig(t, `
trials: 25
seed: 99
kernel: rbf
ignored_optimizers: [lion]
vis_base_url: "https://example.org/vis/"
functions:
  Ackley:
    iterations: 500
    error_weight: 2.0
hyperparameters:
  default:
    lr: [0.001, 0.2]
  adam:
    lr: [0.0005, 0.1]
    beta1: [0.85, 0.95]
`)

	b, err := LoadBenchmark(path, true)
	require.NoError(t, err)

	assert.Equal(t, 25, b.Trials)
	assert.Equal(t, int64(99), b.Seed)
	assert.Equal(t, "rbf", b.Kernel)
	assert.True(t, b.Ignored("lion"))
	assert.False(t, b.Ignored("adam"))
	assert.Equal(t, "https://example.org/vis/", b.VisBaseURL)

	fn, err := b.Function("Ackley")
	require.NoError(t, err)
	assert.Equal(t, 500, fn.Iterations)
	assert.Equal(t, 2.0, fn.ErrorWeight)

	// Functions without an override keep their catalog settings.
	sphere, err := b.Function("Sphere")
	require.NoError(t, err)
	assert.Equal(t, 300, sphere.Iterations)
	assert.Equal(t, 1.0, sphere.ErrorWeight)
}

func TestLoadBenchmarkRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "zero trials", content: "trials: 0"},
		{name: "unknown kernel", content: "kernel: tricube"},
		{name: "unknown ignored optimizer", content: "ignored_optimizers: [warpdrive]"},
		{name: "unknown function", content: "functions:\n  NoSuch:\n    iterations: 10"},
		{name: "unknown optimizer in search space", content: "hyperparameters:\n  warpdrive:\n    lr: [0.1, 0.2]"},
		{name: "inverted bounds", content: "hyperparameters:\n  adam:\n    lr: [0.5, 0.1]"},
		{name: "not yaml", content: "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBenchmark(writeConfig(t, tt.content), true)
			assert.Error(t, err)
		})
	}
}

func TestSpaceOverrides(t *testing.T) {
	adam, err := optimizer.Lookup("adam")
	require.NoError(t, err)
	sgd, err := optimizer.Lookup("sgd")
	require.NoError(t, err)

	b := DefaultBenchmark()
	b.SearchSpace = map[string]map[string][2]float64{
		"default": {"lr": {0.001, 0.2}},
		"adam":    {"beta1": {0.85, 0.95}},
	}

	// A named entry wins over default and only touches listed params.
	adamSpace := b.Space(adam)
	for _, p := range adamSpace {
		switch p.Name {
		case "beta1":
			assert.Equal(t, 0.85, p.Min)
			assert.Equal(t, 0.95, p.Max)
		case "lr":
			// Not overridden by the adam entry, default does not apply.
			assert.Equal(t, 1e-4, p.Min)
		}
	}

	// Optimizers without a named entry fall back to default.
	sgdSpace := b.Space(sgd)
	require.Len(t, sgdSpace, len(sgd.Space))
	assert.Equal(t, 0.001, sgdSpace[0].Min)
	assert.Equal(t, 0.2, sgdSpace[0].Max)

	// The declared spec is never mutated.
	assert.Equal(t, 1e-4, sgd.Space[0].Min)
}

func TestSpaceNoOverrides(t *testing.T) {
	sgd, err := optimizer.Lookup("sgd")
	require.NoError(t, err)

	b := DefaultBenchmark()
	assert.Equal(t, sgd.Space, b.Space(sgd))
}
