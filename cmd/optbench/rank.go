package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/optbench/internal/cache"
	"github.com/copyleftdev/optbench/internal/rank"
)

var rankOut string

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Aggregate cached results into the ranking document",
	Long: `Reads every cached pair result and recomputes both rankings from
scratch: average rank position across functions, and weighted average
error rate. Optimizers missing any function are listed as incomplete and
excluded from both orderings.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankOut, "out", "", "Output file (default <output dir>/ranks.json)")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	benchCfg, err := loadBenchmark(cmd)
	if err != nil {
		return err
	}

	store, err := cache.NewStore(cfg.CacheDir, logger)
	if err != nil {
		return err
	}
	entries, err := store.All()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no results in cache %s; run the benchmark first", store.Dir())
	}

	functions, weights, err := rankingInputs(benchCfg)
	if err != nil {
		return err
	}

	rankings, err := rank.Aggregate(entries, functions, weights)
	if err != nil {
		return err
	}

	for _, id := range rankings.Incomplete {
		logger.WithField("optimizer", id).Warn("Optimizer incomplete, excluded from rankings")
	}

	out := rankOut
	if out == "" {
		out = filepath.Join(cfg.OutputDir, "ranks.json")
	}
	if err := rank.WriteFile(out, rank.BuildOutput(rankings, benchCfg.VisBaseURL)); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"ranked":     len(rankings.ByAvgRank),
		"incomplete": len(rankings.Incomplete),
		"output":     out,
	}).Info("Rankings written")
	return nil
}
