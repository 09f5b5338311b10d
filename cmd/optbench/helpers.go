package main

import (
	"github.com/copyleftdev/optbench/internal/catalog"
	"github.com/copyleftdev/optbench/internal/config"
)

// rankingInputs resolves the catalog with config overrides into the
// function ID list and weight map the aggregator consumes.
func rankingInputs(benchCfg *config.Benchmark) ([]string, map[string]float64, error) {
	functions := catalog.IDs()
	weights := make(map[string]float64, len(functions))
	for _, id := range functions {
		fn, err := benchCfg.Function(id)
		if err != nil {
			return nil, nil, err
		}
		weights[id] = fn.ErrorWeight
	}
	return functions, weights, nil
}
