// Package types provides core data types for the squish image optimizer.
// It includes the transform request/outcome model, archive entries, window
// geometry records, and utility functions for parsing and formatting sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// Format identifies a transform target format.
// FormatSame requests a same-format re-optimization of the source;
// the remaining values request a conversion to that format.
type Format string

// Supported transform targets. The set is closed: any other value is
// rejected before any file I/O happens.
const (
	FormatSame Format = "same"
	FormatJPEG Format = "jpg"
	FormatWebP Format = "webp"
	FormatPNG  Format = "png"
)

// ParseFormat parses a user-supplied format name into a Format.
// Matching is case-insensitive and accepts "jpeg" as an alias for "jpg".
// An empty string parses to FormatSame. Anything else returns
// ErrUnsupportedFormat.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "same":
		return FormatSame, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Valid reports whether f is one of the supported transform targets.
func (f Format) Valid() bool {
	switch f {
	case FormatSame, FormatJPEG, FormatWebP, FormatPNG:
		return true
	}
	return false
}

// Ext returns the canonical file extension for the format, without the
// leading dot. FormatSame has no extension of its own and returns "".
func (f Format) Ext() string {
	if f == FormatSame {
		return ""
	}
	return string(f)
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// TransformRequest describes a single optimize-or-convert operation.
type TransformRequest struct {
	// SourcePath is the path of the image to transform.
	SourcePath string `json:"source_path"`

	// Overwrite controls final placement: when true, the result replaces
	// the source (same format) or lands beside it (format conversion).
	// When false, the staged file itself is returned as the result.
	Overwrite bool `json:"overwrite"`

	// Target selects the transform. FormatSame means re-optimize the
	// source in its existing format.
	Target Format `json:"target_format"`
}

// Validate checks the request against the supported target set.
// It runs before any filesystem access.
func (r *TransformRequest) Validate() error {
	if r.SourcePath == "" {
		return fmt.Errorf("%w: empty source path", ErrNotFound)
	}
	if !r.Target.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(r.Target))
	}
	return nil
}

// TransformOutcome reports the result of a single transform.
//
// When Skipped is true the transform produced no improvement and was
// discarded: OutputPath equals the source path, SavedBytes is zero, and
// NewSize reports the original size (the size of the file the caller keeps).
type TransformOutcome struct {
	// OriginalSize is the source file size in bytes before the transform.
	OriginalSize int64 `json:"original_size"`

	// NewSize is the size in bytes of the file at OutputPath.
	NewSize int64 `json:"new_size"`

	// SavedBytes is max(0, OriginalSize-NewSize). Never negative: a
	// conversion that grows the file reports zero savings.
	SavedBytes int64 `json:"saved_bytes"`

	// OutputPath is the path of the resulting file.
	OutputPath string `json:"output_path"`

	// Skipped indicates the staged result was discarded because it was
	// not smaller than the original and no format change was requested.
	Skipped bool `json:"skipped"`

	// Duration is the wall-clock time of the whole transform. Reported
	// for observability only.
	Duration time.Duration `json:"duration"`
}

// SavingsPercent returns the relative size reduction as a percentage of
// the original size, clamped at zero. Returns 0 for an empty original.
func (o *TransformOutcome) SavingsPercent() float64 {
	if o.OriginalSize <= 0 || o.SavedBytes <= 0 {
		return 0
	}
	return float64(o.SavedBytes) / float64(o.OriginalSize) * 100
}

// ArchiveEntry pairs a source file with its desired name inside an archive.
// The packager resolves the final in-archive name; all final names within
// one archive invocation are pairwise distinct.
type ArchiveEntry struct {
	// SourcePath is the file whose content is stored.
	SourcePath string `json:"source_path"`

	// Name is the desired in-archive name before collision resolution.
	Name string `json:"name"`
}

// WindowState is a persisted window rectangle.
// Width and height are floored to the configured minimums when restored.
type WindowState struct {
	X      int `json:"x" mapstructure:"x"`
	Y      int `json:"y" mapstructure:"y"`
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// Monitor describes one attached display as a position plus size.
type Monitor struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point (x, y) lies within the monitor bounds.
// The right and bottom edges are exclusive.
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It supports the following formats:
//   - Plain bytes: "1024", "0"
//   - With byte suffix: "512B", "512b"
//   - Kilobytes: "100K", "100k", "100KB", "100KiB"
//   - Megabytes: "50M", "50m", "50MB", "50MiB"
//   - Gigabytes: "2G", "2g", "2GB", "2GiB"
//   - Terabytes: "1T", "1t", "1TB", "1TiB"
//
// Decimal values are supported and truncated to the nearest byte.
// Leading and trailing whitespace is ignored.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	// Strip 'B' or 'iB' to get just the unit letter.
	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string.
// It uses binary (IEC) units (KiB, MiB, GiB, TiB) for consistency
// with common filesystem tools.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
