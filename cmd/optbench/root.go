package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/optbench/internal/config"
	"github.com/copyleftdev/optbench/internal/logging"
)

var (
	flagLogLevel string
	flagConfig   string
	flagCacheDir string

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "optbench",
	Short: "Benchmark first-order optimizers on synthetic 2D test functions",
	Long: `optbench evaluates optimization algorithms against a suite of synthetic
2D test functions. For each (optimizer, function) pair it tunes the
optimizer's hyperparameters with a sequential model-based search, caches
the best result on disk, and aggregates all results into reproducible
rankings.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		// Flags override the environment.
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = flagLogLevel
		}
		if cmd.Flags().Changed("config") {
			cfg.ConfigPath = flagConfig
		}
		if cmd.Flags().Changed("cache-dir") {
			cfg.CacheDir = flagCacheDir
		}

		logger, err = logging.NewLogger(&logging.Config{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: cfg.LogOutput,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR, FATAL)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "Benchmark settings file")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "Result cache directory")
}

// loadBenchmark reads the settings file named by flag or environment. The
// file is mandatory only when named explicitly.
func loadBenchmark(cmd *cobra.Command) (*config.Benchmark, error) {
	required := cmd.Flags().Changed("config") || os.Getenv("OPTBENCH_CONFIG") != ""
	return config.LoadBenchmark(cfg.ConfigPath, required)
}
