package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/squish/pkg/squish/config"
	"github.com/jamesainslie/squish/pkg/squish/filter"
	"github.com/jamesainslie/squish/pkg/squish/history"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View transform history",
	Long: `View the history of optimize and convert operations.

Every transform is recorded: what was done, to which file, and how many
bytes it saved. Use --filter to narrow the listing.

Examples:
  squish history
  squish history -l 50
  squish history -f "action=failed"
  squish history -f "saved>1MB" -f "name~*.png"`,
	RunE: runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate history statistics",
	Long:  `Display per-action counts and total bytes saved across all records.`,
	RunE:  runHistoryStats,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history records",
	Long: `Delete every history record and seen-marker.

After clearing, previously optimized files are treated as new again by
--skip-known and by the watcher.`,
	RunE: runHistoryClear,
}

var (
	historyLimit   int
	historyFilters []string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")
	historyCmd.Flags().StringArrayVarP(&historyFilters, "filter", "f", nil,
		`filter expression, e.g. "action=failed" or "saved>1MB" (repeatable)`)

	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// getHistoryStore opens the history store at the configured path.
func getHistoryStore() (*history.Store, error) {
	cfg := config.LoadOrDefault()
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled in config")
	}

	path := cfg.History.Path
	if path == "" {
		path = config.DefaultDBPath()
	}

	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// runHistoryList lists recent transforms, newest first.
func runHistoryList(cmd *cobra.Command, args []string) error {
	filters, err := buildFilters(historyFilters)
	if err != nil {
		return err
	}

	store, err := getHistoryStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// With filters the whole log is scanned so the limit applies to
	// matches, not to raw records.
	fetch := historyLimit
	if len(filters) > 0 {
		fetch = 0
	}
	records, err := store.List(fetch)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	shown := make([]history.Record, 0, len(records))
	for _, rec := range records {
		if !matchesAll(filters, recordFilterRow(rec)) {
			continue
		}
		shown = append(shown, rec)
		if historyLimit > 0 && len(shown) >= historyLimit {
			break
		}
	}

	if len(shown) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'squish optimize [path]' to transform images.")
		return nil
	}

	// Print header
	fmt.Printf("\n%-16s  %-9s  %-10s  %-22s  %s\n", "TIME", "ACTION", "SAVED", "SIZE", "FILE")
	fmt.Println(strings.Repeat("-", 90))

	for _, rec := range shown {
		saved := types.FormatSize(rec.SavedBytes)
		size := fmt.Sprintf("%s -> %s", types.FormatSize(rec.OriginalSize), types.FormatSize(rec.NewSize))
		detail := rec.SourcePath
		if rec.Action == history.ActionFailed {
			saved = "-"
			size = "-"
			detail = fmt.Sprintf("%s (%s)", rec.SourcePath, truncateString(rec.Error, 40))
		}
		fmt.Printf("%-16s  %-9s  %-10s  %-22s  %s\n",
			rec.Time.Format("2006-01-02 15:04"),
			rec.Action,
			saved,
			size,
			detail,
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(shown))

	return nil
}

// runHistoryStats displays aggregate statistics.
func runHistoryStats(cmd *cobra.Command, args []string) error {
	store, err := getHistoryStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to aggregate history: %w", err)
	}

	fmt.Println("\nHistory Statistics")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Records:     %d\n", stats.Records)
	fmt.Printf("Optimized:   %d\n", stats.Optimized)
	fmt.Printf("Converted:   %d\n", stats.Converted)
	fmt.Printf("Skipped:     %d\n", stats.Skipped)
	fmt.Printf("Failed:      %d\n", stats.Failed)
	fmt.Printf("Total saved: %s\n", types.FormatSize(stats.SavedBytes))

	return nil
}

// runHistoryClear deletes all records and seen-markers.
func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := getHistoryStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	printInfo("History cleared.")
	return nil
}

// recordFilterRow maps a history record to the filterable row shape.
func recordFilterRow(rec history.Record) filter.Row {
	return filter.Row{
		Name:    filepath.Base(rec.SourcePath),
		Action:  rec.Action,
		Format:  rec.Format,
		Size:    rec.OriginalSize,
		NewSize: rec.NewSize,
		Saved:   rec.SavedBytes,
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
