package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/squish/pkg/squish/app"
	"github.com/jamesainslie/squish/pkg/squish/config"
	"github.com/jamesainslie/squish/pkg/squish/types"
	"github.com/jamesainslie/squish/pkg/squish/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Watch directories and optimize new images automatically",
	Long: `Watch directories and optimize every new image that appears.

New subdirectories are picked up as they are created. A file is only
processed once it has been quiet for the settle period, so partially
written downloads and screenshots are left alone. Results already in
history are skipped, including the watcher's own output.

Overwrite and conversion behavior come from the config file. Only one
watcher runs per machine; a second invocation exits immediately.

Examples:
  squish watch ~/Downloads
  squish watch --settle 2s ~/Pictures/incoming ~/Downloads`,
	RunE: runWatch,
}

var watchSettle time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 0,
		"quiet period before a new file is processed (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	cfg := config.LoadOrDefault()

	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	settle := time.Duration(cfg.Watch.SettleMS) * time.Millisecond
	if watchSettle > 0 {
		settle = watchSettle
	}

	target := types.FormatSame
	if cfg.Convert.Enabled {
		if t, err := types.ParseFormat(cfg.Convert.Format); err == nil {
			target = t
		} else {
			printVerbose("Ignoring invalid convert.format in config: %v", err)
		}
	}

	application := app.New(app.Options{})
	defer func() { _ = application.Close() }()

	if err := config.EnsureStateDir(); err != nil {
		return fmt.Errorf("failed to prepare state directory: %w", err)
	}

	w, err := watcher.New(watcher.Options{
		Settle: settle,
		Process: func(ctx context.Context, path string) (types.TransformOutcome, error) {
			return application.OptimizeOrConvert(ctx, types.TransformRequest{
				SourcePath: path,
				Overwrite:  cfg.Overwrite,
				Target:     target,
			})
		},
		Seen:     application.Seen,
		LockPath: filepath.Join(config.StateDir(), "watch.lock"),
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	for _, dir := range dirs {
		if err := w.Watch(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	if len(dirs) == 1 {
		printInfo("Watching %s (settle %s). Press Ctrl-C to stop.", dirs[0], settle)
	} else {
		printInfo("Watching %d directories (settle %s). Press Ctrl-C to stop.", len(dirs), settle)
	}

	if err := w.Run(ctx); err != nil {
		if errors.Is(err, watcher.ErrAlreadyRunning) {
			return errors.New("another squish watcher is already running")
		}
		return err
	}

	printInfo("Watcher stopped.")
	return nil
}
