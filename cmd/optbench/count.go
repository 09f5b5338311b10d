package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/optbench/internal/bench"
)

var countFilter []string

// countCmd prints the number of optimizers a run would cover, so external
// launchers can size their index partitions.
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of optimizers in the run",
	RunE: func(cmd *cobra.Command, args []string) error {
		benchCfg, err := loadBenchmark(cmd)
		if err != nil {
			return err
		}
		orch := bench.New(benchCfg, nil, nil, nil, logger)
		fmt.Println(len(orch.Optimizers(countFilter)))
		return nil
	},
}

func init() {
	countCmd.Flags().StringSliceVar(&countFilter, "filter", nil, "Restrict the count to these optimizers")
	rootCmd.AddCommand(countCmd)
}
