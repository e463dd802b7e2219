// Package scanner expands mixed file and directory inputs into a flat,
// order-stable list of supported raster image files. Directories are
// traversed recursively with fastwalk; unreadable entries are recorded
// and skipped, never fatal.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// DefaultExtensions is the supported raster set, lowercase without dots.
// JPEG and PNG additionally have same-format optimizers; the rest are
// conversion sources only.
var DefaultExtensions = []string{"png", "jpg", "jpeg", "webp", "gif", "bmp", "tiff"}

// ScanError pairs a path with the error encountered there. Scan errors
// never abort a scan; they are collected for reporting.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Options configures the scanner.
type Options struct {
	// Extensions is the accepted extension set, lowercase without dots.
	// Empty means DefaultExtensions.
	Extensions []string

	// OnFile is called for every matched file as it is found, before
	// ordering. It must be safe to call from multiple goroutines.
	OnFile func(path string)
}

// Scanner collects matching files across one or more Scan calls.
type Scanner struct {
	opts Options
	exts map[string]struct{}

	dirsScanned  atomic.Int64
	filesScanned atomic.Int64

	errs   []ScanError
	errsMu sync.Mutex
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return &Scanner{opts: opts, exts: set}
}

// Scan expands inputs into matching files. Inputs are processed in the
// given order; each directory's matches are appended in lexical path
// order, so the result is reproducible for the same tree. Unreadable
// paths are recorded via Errors and skipped. The only terminal error is
// context cancellation.
func (s *Scanner) Scan(ctx context.Context, inputs []string) ([]string, error) {
	var out []string

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		info, err := os.Stat(input)
		if err != nil {
			s.addError(input, err)
			continue
		}

		if !info.IsDir() {
			s.filesScanned.Add(1)
			if s.matches(input) {
				if s.opts.OnFile != nil {
					s.opts.OnFile(input)
				}
				out = append(out, input)
			}
			continue
		}

		matched, err := s.walkDir(ctx, input)
		if err != nil {
			return out, err
		}
		out = append(out, matched...)
	}

	return out, nil
}

// walkDir traverses one directory root and returns its matches sorted.
func (s *Scanner) walkDir(ctx context.Context, root string) ([]string, error) {
	conf := fastwalk.Config{
		Follow: false, // default traversal only, no symlink chasing
	}

	var (
		matched   []string
		matchedMu sync.Mutex
	)

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Record traversal errors and keep going.
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if d.IsDir() {
			s.dirsScanned.Add(1)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		s.filesScanned.Add(1)
		if !s.matches(path) {
			return nil
		}

		if s.opts.OnFile != nil {
			s.opts.OnFile(path)
		}
		matchedMu.Lock()
		matched = append(matched, path)
		matchedMu.Unlock()
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// fastwalk only fails hard on a bad root; treat it like any
		// other unreadable input.
		s.addError(root, err)
	}

	// Parallel traversal finds files in nondeterministic order.
	sort.Strings(matched)
	return matched, nil
}

// matches reports whether the file extension is in the accepted set.
func (s *Scanner) matches(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := s.exts[ext]
	return ok
}

// Errors returns the scan errors collected so far.
func (s *Scanner) Errors() []ScanError {
	s.errsMu.Lock()
	defer s.errsMu.Unlock()
	out := make([]ScanError, len(s.errs))
	copy(out, s.errs)
	return out
}

// Stats returns the number of directories and files examined.
func (s *Scanner) Stats() (dirs, files int64) {
	return s.dirsScanned.Load(), s.filesScanned.Load()
}

func (s *Scanner) addError(path string, err error) {
	s.errsMu.Lock()
	s.errs = append(s.errs, ScanError{Path: path, Error: err.Error()})
	s.errsMu.Unlock()
}

// Supported reports whether path has a supported raster extension.
// It is the package-level check used by callers that filter single
// files without building a Scanner.
func Supported(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range DefaultExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
