package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/squish/pkg/squish/config"
	"github.com/jamesainslie/squish/pkg/squish/pipeline"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove leftover staging files",
	Long: `Remove staging files left in the scratch directory.

Crashed or interrupted runs can leave staged results behind. Only files
matching the staging name pattern are touched; anything else in the
directory is left alone.

Examples:
  squish clean
  squish clean --age 1h
  squish clean --age 0s --dry-run`,
	RunE: runClean,
}

var (
	cleanAge    time.Duration
	cleanDryRun bool
)

func init() {
	cleanCmd.Flags().DurationVar(&cleanAge, "age", 24*time.Hour, "only remove staging files older than this")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "list what would be removed without deleting")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg := config.LoadOrDefault()

	scratch := cfg.ScratchDir
	if scratch == "" {
		scratch = pipeline.DefaultScratchDir()
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		if os.IsNotExist(err) {
			printInfo("Nothing to clean: %s does not exist.", scratch)
			return nil
		}
		return fmt.Errorf("failed to read scratch directory: %w", err)
	}

	cutoff := time.Now().Add(-cleanAge)

	var removed int
	var freed int64
	for _, entry := range entries {
		if entry.IsDir() || !pipeline.IsStagedName(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(scratch, entry.Name())
		if cleanDryRun {
			printInfo("Would remove %s (%s)", path, types.FormatSize(info.Size()))
			removed++
			freed += info.Size()
			continue
		}
		if err := os.Remove(path); err != nil {
			printError("Failed to remove %s: %v", path, err)
			continue
		}
		printVerbose("Removed %s", path)
		removed++
		freed += info.Size()
	}

	switch {
	case removed == 0:
		printInfo("No stale staging files found in %s.", scratch)
	case cleanDryRun:
		printInfo("Would remove %d files (%s) from %s.", removed, types.FormatSize(freed), scratch)
	default:
		printInfo("Removed %d staging files, freed %s.", removed, types.FormatSize(freed))
	}

	return nil
}
