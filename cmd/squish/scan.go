package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/squish/pkg/squish/app"
	"github.com/jamesainslie/squish/pkg/squish/filter"
	"github.com/jamesainslie/squish/pkg/squish/output"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "List the images an optimize run would process",
	Long: `Scan paths for supported images without transforming anything.

Directories are walked recursively; symlinks are not followed. Use
--filter to narrow the listing.

Examples:
  squish scan ~/Pictures
  squish scan -f "size>1MB" ~/Pictures
  squish scan -f "name~*.png" -o null . | xargs -0 du -ch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

var scanFilters []string

func init() {
	scanCmd.Flags().StringArrayVarP(&scanFilters, "filter", "f", nil,
		`filter expression, e.g. "size>1MB" or "name~*.png" (repeatable)`)
	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, args []string) error {
	filters, err := buildFilters(scanFilters)
	if err != nil {
		return err
	}

	application := app.New(app.Options{})
	defer func() { _ = application.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	files, err := application.ScanInputs(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to scan inputs: %w", err)
	}

	result := &output.Result{}
	for _, path := range files {
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}

		match := filter.Row{
			Name:   filepath.Base(path),
			Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			Size:   size,
		}
		if !matchesAll(filters, match) {
			continue
		}

		result.Rows = append(result.Rows, output.Row{
			Path:      path,
			Action:    "found",
			Size:      size,
			SizeHuman: types.FormatSize(size),
		})
		result.Stats.TotalOriginal += size
	}
	result.Stats.Requested = len(result.Rows)
	result.Stats.Duration = time.Since(start)

	return renderResult(result)
}
