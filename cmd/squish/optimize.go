package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/squish/pkg/squish/app"
	"github.com/jamesainslie/squish/pkg/squish/config"
	"github.com/jamesainslie/squish/pkg/squish/output"
	"github.com/jamesainslie/squish/pkg/squish/pipeline"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [paths...]",
	Short: "Optimize or convert images",
	Long: `Optimize images in place or convert them to another format.

Directories are scanned recursively for supported images. Same-format
optimization replaces the original only when the result is smaller;
conversions always leave the source file in place.

Examples:
  squish optimize photo.png              # Recompress one file
  squish optimize ~/Pictures             # Recompress a whole tree
  squish optimize -c webp banner.png     # Convert to WebP
  squish optimize --no-overwrite pics/   # Keep originals untouched
  squish optimize -a out.zip pics/       # Also pack results into a zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOptimize,
}

var (
	optOverwrite   bool
	optNoOverwrite bool
	optConvert     string
	optJobs        int
	optSkipKnown   bool
	optArchive     string
)

func init() {
	optimizeCmd.Flags().BoolVar(&optOverwrite, "overwrite", false, "replace originals in place (default from config)")
	optimizeCmd.Flags().BoolVar(&optNoOverwrite, "no-overwrite", false, "never touch originals; results land next to them")
	optimizeCmd.Flags().StringVarP(&optConvert, "convert", "c", "", "convert to format (png, jpg, webp)")
	optimizeCmd.Flags().IntVarP(&optJobs, "jobs", "j", 0, "concurrent transform workers (0 = auto)")
	optimizeCmd.Flags().BoolVar(&optSkipKnown, "skip-known", false, "skip unchanged files already in history")
	optimizeCmd.Flags().StringVarP(&optArchive, "archive", "a", "", "pack results into a zip archive at this path")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := config.LoadOrDefault()

	target, err := resolveTarget(cfg)
	if err != nil {
		return err
	}

	overwrite := cfg.Overwrite
	if cmd.Flags().Changed("overwrite") {
		overwrite = optOverwrite
	}
	if optNoOverwrite {
		overwrite = false
	}

	application := app.New(app.Options{})
	defer func() { _ = application.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	files, err := application.ScanInputs(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to scan inputs: %w", err)
	}
	if len(files) == 0 {
		printInfo("No supported images found.")
		return nil
	}

	workers := resolveWorkers(cfg, optJobs)
	printVerbose("Transforming %d files with %d workers (target=%s overwrite=%v)",
		len(files), workers, target, overwrite)

	report := application.OptimizeBatch(ctx, files, app.BatchOptions{
		Overwrite: overwrite,
		Target:    target,
		Workers:   workers,
		SkipKnown: optSkipKnown,
	})

	result := batchResult(report)

	var archiveErr error
	if optArchive != "" {
		archivePath, err := packResults(ctx, application, report, optArchive)
		if err != nil {
			archiveErr = fmt.Errorf("failed to write archive: %w", err)
			result.Warnings = append(result.Warnings, archiveErr.Error())
		} else {
			result.Archive = archivePath
		}
	}

	if err := renderResult(result); err != nil {
		return err
	}
	return archiveErr
}

// resolveTarget picks the conversion target: the --convert flag wins,
// then the config's default conversion, then same-format.
func resolveTarget(cfg *config.Config) (types.Format, error) {
	if optConvert != "" {
		target, err := types.ParseFormat(optConvert)
		if err != nil {
			return "", fmt.Errorf("invalid --convert format: %w", err)
		}
		return target, nil
	}
	if cfg.Convert.Enabled {
		target, err := types.ParseFormat(cfg.Convert.Format)
		if err != nil {
			printVerbose("Ignoring invalid convert.format in config: %v", err)
			return types.FormatSame, nil
		}
		return target, nil
	}
	return types.FormatSame, nil
}

// packResults archives every output the batch produced. Skipped files
// contribute their untouched source so the archive holds the full set.
func packResults(ctx context.Context, application *app.App, report app.BatchReport, dest string) (string, error) {
	entries := make([]types.ArchiveEntry, 0, len(report.Results))
	for _, res := range report.Results {
		if res.Err != nil {
			continue
		}
		entries = append(entries, types.ArchiveEntry{
			SourcePath: res.Outcome.OutputPath,
			Name:       filepath.Base(res.Outcome.OutputPath),
		})
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no files to archive")
	}
	return application.PackageArchive(ctx, entries, dest)
}

// batchResult flattens a batch report into display rows and totals.
func batchResult(report app.BatchReport) *output.Result {
	rows := make([]output.Row, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, resultRow(res))
	}

	result := &output.Result{
		Rows: rows,
		Stats: output.BatchStats{
			Requested:     len(report.Results),
			Succeeded:     report.Summary.Processed - report.Summary.Skipped,
			Skipped:       report.Summary.Skipped,
			Failed:        report.Summary.Failed,
			TotalOriginal: report.Summary.OriginalBytes,
			TotalNew:      report.Summary.NewBytes,
			TotalSaved:    report.Summary.SavedBytes,
			Duration:      report.Summary.Duration,
		},
	}
	if n := len(report.SkippedKnown); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d unchanged file(s) skipped via --skip-known", n))
	}
	return result
}

// resultRow prepares one file outcome for display.
func resultRow(res pipeline.FileResult) output.Row {
	row := output.Row{
		Path:   res.Path,
		Action: res.Action(),
	}
	if res.Err != nil {
		row.Error = res.Err.Error()
		return row
	}

	o := res.Outcome
	row.Output = o.OutputPath
	row.Size = o.OriginalSize
	row.SizeHuman = types.FormatSize(o.OriginalSize)
	row.NewSize = o.NewSize
	row.NewHuman = types.FormatSize(o.NewSize)
	row.Saved = o.SavedBytes
	row.SavedHuman = types.FormatSize(o.SavedBytes)
	row.Percent = o.SavingsPercent()
	row.Duration = o.Duration
	if row.Action == "converted" {
		row.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(o.OutputPath)), ".")
	}
	return row
}
