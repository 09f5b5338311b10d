package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/copyleftdev/optbench/internal/bench"
	"github.com/copyleftdev/optbench/internal/cache"
	"github.com/copyleftdev/optbench/internal/search/kernels"
	"github.com/copyleftdev/optbench/internal/server"
	"github.com/copyleftdev/optbench/internal/tuner"
)

var (
	flagRange     []int
	flagFilter    []string
	flagFunctions []string
	flagWorkers   int
	flagTrials    int
	flagSeed      int64
	flagListen    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark over an optimizer partition",
	Long: `Runs hyperparameter tuning for every (optimizer, function) pair in the
selected partition. Pairs with a valid cache entry are skipped, so an
interrupted run picks up where it stopped.`,
	RunE: runBenchmark,
}

func init() {
	runCmd.Flags().IntSliceVar(&flagRange, "range", []int{0, -1}, "Optimizer index range start,end (end -1 means all)")
	runCmd.Flags().StringSliceVar(&flagFilter, "filter", nil, "Restrict the run to these optimizers")
	runCmd.Flags().StringSliceVar(&flagFunctions, "functions", nil, "Restrict the run to these functions")
	runCmd.Flags().IntVar(&flagWorkers, "workers", 1, "Concurrent pairs within this process")
	runCmd.Flags().IntVar(&flagTrials, "trials", 0, "Tuning evaluations per pair (0 = from settings)")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Extra seed mixed into per-pair seeds")
	runCmd.Flags().StringVar(&flagListen, "listen", "", "Serve status API on this address while running")
	rootCmd.AddCommand(runCmd)
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if len(flagRange) != 2 {
		return fmt.Errorf("--range wants exactly two values, got %d", len(flagRange))
	}

	benchCfg, err := loadBenchmark(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("trials") && flagTrials > 0 {
		benchCfg.Trials = flagTrials
	}
	if cmd.Flags().Changed("seed") {
		benchCfg.Seed = flagSeed
	}

	store, err := cache.NewStore(cfg.CacheDir, logger)
	if err != nil {
		return err
	}

	kernel, err := kernels.New(benchCfg.Kernel)
	if err != nil {
		return err
	}
	t := tuner.New(logger,
		tuner.WithTrials(benchCfg.Trials),
		tuner.WithBaseSeed(benchCfg.Seed),
		tuner.WithKernel(kernel),
	)

	registry := prometheus.NewRegistry()
	metrics := bench.NewMetrics(registry)
	orch := bench.New(benchCfg, store, t, metrics, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listen := flagListen
	if listen == "" {
		listen = cfg.ListenAddr
	}
	if listen != "" {
		srv := server.New(listen, orch, store, registry, logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.WithError(err).Error("Status server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	summary, err := orch.Run(ctx, bench.Options{
		Start:     flagRange[0],
		End:       flagRange[1],
		Filter:    flagFilter,
		Functions: flagFunctions,
		Workers:   flagWorkers,
	})
	if err != nil {
		return err
	}

	fmt.Printf("pairs=%d completed=%d failed=%d cache_hits=%d errors=%d\n",
		summary.Pairs, summary.Completed, summary.Failed, summary.CacheHits, summary.Errors)
	if summary.Errors > 0 {
		return fmt.Errorf("%d pair(s) errored", summary.Errors)
	}
	return nil
}
