package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/squish/pkg/squish/app"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

var packCmd = &cobra.Command{
	Use:   "pack -o FILE [paths...]",
	Short: "Pack images into a zip archive without transforming them",
	Long: `Pack supported images into a flat zip archive.

Files keep their current bytes; nothing is optimized. Name collisions
inside the archive get numeric suffixes ("a.png", "a (1).png"). Entries
are stored uncompressed because image formats are already compressed.

For this command -o names the archive file, not the output format.

Examples:
  squish pack -o shoot.zip ~/Pictures/shoot
  squish pack -o assets.zip logo.png banner.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPack,
}

var packDest string

func init() {
	// Shadows the global --output formatter flag; pack only prints a
	// summary line, so the formatter has nothing to format.
	packCmd.Flags().StringVarP(&packDest, "output", "o", "", "archive path to write (required)")
	_ = packCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(packCmd)
}

func runPack(_ *cobra.Command, args []string) error {
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

	entries := make([]types.ArchiveEntry, 0, len(files))
	var total int64
	for _, path := range files {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
		entries = append(entries, types.ArchiveEntry{
			SourcePath: path,
			Name:       filepath.Base(path),
		})
	}

	dest, err := application.PackageArchive(ctx, entries, packDest)
	if err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	printInfo("Packed %d files (%s) into %s", len(entries), types.FormatSize(total), dest)
	return nil
}
