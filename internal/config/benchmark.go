package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/optbench/internal/catalog"
	"github.com/copyleftdev/optbench/internal/errors"
	"github.com/copyleftdev/optbench/internal/optimizer"
	"github.com/copyleftdev/optbench/internal/search/kernels"
)

// Benchmark is the benchmark definition read from the settings file.
type Benchmark struct {
	// Trials is the hyperparameter evaluation budget per pair.
	Trials int `yaml:"trials"`

	// Seed re-rolls the whole benchmark while staying reproducible.
	Seed int64 `yaml:"seed"`

	// Kernel selects the search engine's covariance function (rbf or
	// matern52; empty keeps the Matérn 5/2 default).
	Kernel string `yaml:"kernel"`

	// IgnoredOptimizers are excluded from the run entirely.
	IgnoredOptimizers []string `yaml:"ignored_optimizers"`

	// Functions overrides per-function settings from the catalog.
	Functions map[string]FunctionOverride `yaml:"functions"`

	// SearchSpace overrides hyperparameter bounds per optimizer. The
	// "default" key applies to optimizers without their own entry.
	SearchSpace map[string]map[string][2]float64 `yaml:"hyperparameters"`

	// VisBaseURL is prefixed to optimizer IDs to form dashboard links.
	VisBaseURL string `yaml:"vis_base_url"`
}

// FunctionOverride adjusts one catalog function's run settings.
type FunctionOverride struct {
	Iterations  int     `yaml:"iterations"`
	ErrorWeight float64 `yaml:"error_weight"`
}

// DefaultBenchmark returns the built-in benchmark definition, used when no
// settings file is present.
func DefaultBenchmark() *Benchmark {
	return &Benchmark{
		Trials:     50,
		VisBaseURL: "vis/",
	}
}

// LoadBenchmark reads and validates the settings file. A missing file is
// only an error when the path was set explicitly.
func LoadBenchmark(path string, required bool) (*Benchmark, error) {
	const op = "config.LoadBenchmark"

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return DefaultBenchmark(), nil
		}
		return nil, errors.Wrapf(err, "failed to read config file %s", path).
			WithOperation(op).WithComponent("config")
	}

	b := DefaultBenchmark()
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path).
			WithOperation(op).WithComponent("config")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate rejects settings that reference unknown identifiers or carry
// nonsensical values. Failing fast here beats discovering a typo after an
// hour of benchmarking.
func (b *Benchmark) Validate() error {
	const op = "Benchmark.Validate"

	if b.Trials <= 0 {
		return errors.Newf("trials must be positive, got %d", b.Trials).
			WithOperation(op).WithComponent("config")
	}
	if _, err := kernels.New(b.Kernel); err != nil {
		return errors.Wrap(err, "invalid kernel").WithOperation(op).WithComponent("config")
	}
	for _, id := range b.IgnoredOptimizers {
		if _, err := optimizer.Lookup(id); err != nil {
			return errors.Wrapf(err, "ignored_optimizers references unknown optimizer %q", id).
				WithOperation(op).WithComponent("config")
		}
	}
	for id, o := range b.Functions {
		if _, err := catalog.Lookup(id); err != nil {
			return errors.Wrapf(err, "functions references unknown function %q", id).
				WithOperation(op).WithComponent("config")
		}
		if o.Iterations < 0 {
			return errors.Newf("function %q: iterations must not be negative", id).
				WithOperation(op).WithComponent("config")
		}
		if o.ErrorWeight < 0 {
			return errors.Newf("function %q: error_weight must not be negative", id).
				WithOperation(op).WithComponent("config")
		}
	}
	for id, space := range b.SearchSpace {
		if id != "default" {
			if _, err := optimizer.Lookup(id); err != nil {
				return errors.Wrapf(err, "hyperparameters references unknown optimizer %q", id).
					WithOperation(op).WithComponent("config")
			}
		}
		for name, bounds := range space {
			if bounds[0] >= bounds[1] {
				return errors.Newf("optimizer %q: parameter %q has invalid bounds [%g, %g]",
					id, name, bounds[0], bounds[1]).WithOperation(op).WithComponent("config")
			}
		}
	}
	return nil
}

// Function returns the catalog function with this benchmark's overrides
// applied.
func (b *Benchmark) Function(id string) (catalog.Function, error) {
	fn, err := catalog.Lookup(id)
	if err != nil {
		return catalog.Function{}, err
	}
	if o, ok := b.Functions[id]; ok {
		if o.Iterations > 0 {
			fn.Iterations = o.Iterations
		}
		if o.ErrorWeight > 0 {
			fn.ErrorWeight = o.ErrorWeight
		}
	}
	return fn, nil
}

// Space returns the optimizer's search space with bound overrides applied.
// A named entry wins over "default"; parameters without an override keep
// their declared bounds.
func (b *Benchmark) Space(spec optimizer.Spec) optimizer.Space {
	overrides, ok := b.SearchSpace[spec.ID]
	if !ok {
		overrides = b.SearchSpace["default"]
	}
	if len(overrides) == 0 {
		return spec.Space
	}

	space := make(optimizer.Space, len(spec.Space))
	copy(space, spec.Space)
	for i, p := range space {
		if bounds, ok := overrides[p.Name]; ok {
			space[i].Min = bounds[0]
			space[i].Max = bounds[1]
		}
	}
	return space
}

// Ignored reports whether an optimizer is excluded by configuration.
func (b *Benchmark) Ignored(id string) bool {
	for _, ig := range b.IgnoredOptimizers {
		if ig == id {
			return true
		}
	}
	return false
}
