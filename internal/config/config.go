// Package config loads process configuration from the environment and the
// benchmark settings file. Environment variables cover operational knobs
// (logging, directories, listen address); the YAML file carries the
// benchmark definition itself (budgets, per-function overrides,
// search-space overrides).
package config

import (
	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/optbench/internal/errors"
)

// Config is the process-level configuration.
type Config struct {
	// LogLevel controls logging verbosity (DEBUG, INFO, WARN, ERROR, FATAL)
	LogLevel string `env:"OPTBENCH_LOG_LEVEL" envDefault:"INFO"`

	// LogFormat selects the log entry rendering (json, text)
	LogFormat string `env:"OPTBENCH_LOG_FORMAT" envDefault:"json"`

	// LogOutput controls where logs are written (stdout, stderr, or file path)
	LogOutput string `env:"OPTBENCH_LOG_OUTPUT" envDefault:"stderr"`

	// CacheDir is the root of the on-disk result cache
	CacheDir string `env:"OPTBENCH_CACHE_DIR" envDefault:"results/cache"`

	// OutputDir receives the aggregated ranking document
	OutputDir string `env:"OPTBENCH_OUTPUT_DIR" envDefault:"results"`

	// ConfigPath is the benchmark settings file
	ConfigPath string `env:"OPTBENCH_CONFIG" envDefault:"config.yaml"`

	// ListenAddr enables the status HTTP server when non-empty
	ListenAddr string `env:"OPTBENCH_LISTEN_ADDR" envDefault:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	const op = "config.Load"

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment").WithOperation(op).WithComponent("config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	const op = "Config.Validate"

	switch c.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR", "FATAL":
	default:
		return errors.Newf("invalid log level %q", c.LogLevel).WithOperation(op).WithComponent("config")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return errors.Newf("invalid log format %q", c.LogFormat).WithOperation(op).WithComponent("config")
	}
	if c.CacheDir == "" {
		return errors.New("cache directory must not be empty").WithOperation(op).WithComponent("config")
	}
	if c.OutputDir == "" {
		return errors.New("output directory must not be empty").WithOperation(op).WithComponent("config")
	}
	return nil
}
