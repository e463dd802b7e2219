package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jamesainslie/squish/pkg/squish/config"
	"github.com/jamesainslie/squish/pkg/squish/filter"
	"github.com/jamesainslie/squish/pkg/squish/output"
	"github.com/jamesainslie/squish/pkg/squish/tuner"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// renderResult writes the result through the formatter selected by the
// --output flag.
func renderResult(result *output.Result) error {
	name := viper.GetString("output")
	if name == "" {
		name = "pretty"
	}

	formatter, err := output.Get(name)
	if err != nil {
		return fmt.Errorf("unknown output format %q (available: %v)", name, output.Available())
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// resolveWorkers picks the worker count: the --jobs flag wins, then the
// config, then a size derived from detected system resources.
func resolveWorkers(cfg *config.Config, flagJobs int) int {
	override := flagJobs
	if override <= 0 {
		override = cfg.Jobs
	}

	resources, err := tuner.Detect()
	if err != nil {
		printVerbose("Resource detection failed, assuming defaults: %v", err)
		resources = tuner.SystemResources{
			CPUCores:     4,
			TotalRAM:     8 * types.GiB,
			AvailableRAM: 4 * types.GiB,
		}
	}
	return tuner.Workers(resources, override)
}

// buildFilters parses --filter expressions, wrapping parse failures
// with the expression that caused them.
func buildFilters(exprs []string) ([]*filter.Filter, error) {
	filters, err := filter.ParseAll(exprs)
	if err != nil {
		return nil, fmt.Errorf("invalid --filter: %w", err)
	}
	return filters, nil
}

// matchesAll reports whether the row satisfies every filter.
func matchesAll(filters []*filter.Filter, row filter.Row) bool {
	for _, f := range filters {
		if !f.Match(row) {
			return false
		}
	}
	return true
}
