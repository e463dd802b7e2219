// Package pipeline runs optimize-or-convert transforms through a staged
// write flow. Every transform lands in a uniquely named scratch file
// first; the source is touched only after the transform fully succeeds
// and the skip policy has decided the result is worth keeping.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/codec"
	"github.com/jamesainslie/squish/pkg/squish/logging"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Options configures a Pipeline.
type Options struct {
	// ScratchDir is where staged files are written. Empty uses
	// DefaultScratchDir.
	ScratchDir string
}

// Pipeline executes transforms. It is safe for concurrent use; each
// invocation stages into its own uniquely named scratch file.
type Pipeline struct {
	scratch string
	log     *logging.Logger
}

// DefaultScratchDir returns the stock staging directory, a dedicated
// subdirectory of the system temp dir. Keeping staged files under one
// root lets "squish clean" sweep up leftovers from crashed runs.
func DefaultScratchDir() string {
	return filepath.Join(os.TempDir(), "squish")
}

// New creates a Pipeline with the given options. The scratch directory
// is created if missing; creation failures surface on first use.
func New(opts Options) *Pipeline {
	scratch := opts.ScratchDir
	if scratch == "" {
		scratch = DefaultScratchDir()
	}
	_ = os.MkdirAll(scratch, 0o700)
	return &Pipeline{
		scratch: scratch,
		log:     logging.Get("pipeline"),
	}
}

// Run executes one transform request end to end: validate, stage the
// transformed result, apply the skip policy, and commit. The returned
// outcome's OutputPath is the file the caller should treat as the result.
func (p *Pipeline) Run(ctx context.Context, req types.TransformRequest) (types.TransformOutcome, error) {
	var out types.TransformOutcome
	start := time.Now()

	if err := req.Validate(); err != nil {
		return out, err
	}

	info, err := os.Stat(req.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, fmt.Errorf("%w: %s", types.ErrNotFound, req.SourcePath)
		}
		return out, fmt.Errorf("stat %s: %w: %w", req.SourcePath, types.ErrIO, err)
	}
	originalSize := info.Size()

	stem, srcExt := splitName(filepath.Base(req.SourcePath))

	c, err := codec.Select(srcExt, req.Target)
	if err != nil {
		return out, err
	}

	conversion := isConversion(srcExt, req.Target)
	staged := p.stagePath(stem, srcExt, req.Target)

	p.log.Debug("transform start",
		"path", req.SourcePath,
		"codec", c.Name(),
		"target", req.Target.String(),
		"staged", staged)

	if err := c.Transform(ctx, req.SourcePath, staged); err != nil {
		removeQuiet(staged)
		return out, fmt.Errorf("transform %s: %w", req.SourcePath, err)
	}

	stagedInfo, err := os.Stat(staged)
	if err != nil {
		removeQuiet(staged)
		return out, fmt.Errorf("stat staged %s: %w: %w", staged, types.ErrIO, err)
	}
	newSize := stagedInfo.Size()

	// Skip policy: without a genuine format change, a result at least as
	// large as the original is discarded and the source kept untouched.
	if !conversion && newSize >= originalSize {
		if err := os.Remove(staged); err != nil {
			return out, fmt.Errorf("discard staged %s: %w: %w", staged, types.ErrIO, err)
		}
		p.log.Debug("skipped, no improvement",
			"path", req.SourcePath,
			"original_size", originalSize,
			"staged_size", newSize)
		return types.TransformOutcome{
			OriginalSize: originalSize,
			NewSize:      originalSize,
			SavedBytes:   0,
			OutputPath:   req.SourcePath,
			Skipped:      true,
			Duration:     time.Since(start),
		}, nil
	}

	outputPath, err := p.commit(req, staged, conversion, info.Mode().Perm())
	if err != nil {
		return out, err
	}

	saved := originalSize - newSize
	if saved < 0 {
		saved = 0
	}

	out = types.TransformOutcome{
		OriginalSize: originalSize,
		NewSize:      newSize,
		SavedBytes:   saved,
		OutputPath:   outputPath,
		Skipped:      false,
		Duration:     time.Since(start),
	}

	p.log.Info("transform complete",
		"path", req.SourcePath,
		"output", outputPath,
		"saved", types.FormatSize(saved),
		"duration", out.Duration)

	return out, nil
}

// extFormat maps a lowercase source extension to the format it
// canonically carries. Extensions outside the transform target set
// (gif, bmp, tiff, ...) report false.
func extFormat(ext string) (types.Format, bool) {
	switch ext {
	case "png":
		return types.FormatPNG, true
	case "jpg", "jpeg":
		return types.FormatJPEG, true
	case "webp":
		return types.FormatWebP, true
	}
	return "", false
}

// isConversion reports whether the request changes the file's format.
// FormatSame never converts, and an explicit target matching the format
// the source extension carries is a re-optimization, not a conversion.
func isConversion(srcExt string, target types.Format) bool {
	if target == types.FormatSame {
		return false
	}
	f, ok := extFormat(srcExt)
	return !ok || f != target
}

// splitName splits a base filename into stem and lowercase extension
// (without the dot). Dotfiles are all stem.
func splitName(base string) (stem, ext string) {
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	if stem == "" {
		return base, ""
	}
	return stem, strings.ToLower(strings.TrimPrefix(ext, "."))
}
