package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"OPTBENCH_LOG_LEVEL", "OPTBENCH_LOG_FORMAT", "OPTBENCH_LOG_OUTPUT",
		"OPTBENCH_CACHE_DIR", "OPTBENCH_OUTPUT_DIR", "OPTBENCH_CONFIG",
		"OPTBENCH_LISTEN_ADDR",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "results/cache", cfg.CacheDir)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, "config.yaml", cfg.ConfigPath)
	assert.Empty(t, cfg.ListenAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPTBENCH_LOG_LEVEL", "DEBUG")
	t.Setenv("OPTBENCH_LOG_FORMAT", "text")
	t.Setenv("OPTBENCH_CACHE_DIR", "/tmp/bench-cache")
	t.Setenv("OPTBENCH_LISTEN_ADDR", ":8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/tmp/bench-cache", cfg.CacheDir)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{LogLevel: "INFO", LogFormat: "json", CacheDir: "c", OutputDir: "o"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "TRACE" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "yaml" }, wantErr: true},
		{name: "empty cache dir", mutate: func(c *Config) { c.CacheDir = "" }, wantErr: true},
		{name: "empty output dir", mutate: func(c *Config) { c.OutputDir = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
