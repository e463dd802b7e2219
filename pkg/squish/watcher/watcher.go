// Package watcher provides filesystem watching for the auto-optimize
// loop. It watches directory roots recursively and hands settled new or
// changed image files to a processing callback.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/jamesainslie/squish/pkg/squish/logging"
	"github.com/jamesainslie/squish/pkg/squish/scanner"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// ErrAlreadyRunning indicates another watch process holds the lock file.
var ErrAlreadyRunning = errors.New("another squish watcher is already running")

// DefaultSettle is how long a file must stay quiet after its last event
// before it is processed. Image writes from cameras and editors arrive
// as bursts; processing a half-written file would corrupt the result.
const DefaultSettle = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Settle overrides DefaultSettle when positive.
	Settle time.Duration

	// Process transforms one settled file.
	Process func(ctx context.Context, path string) (types.TransformOutcome, error)

	// Seen reports whether a path was already processed and is
	// unchanged. Seen paths are skipped, which also breaks the feedback
	// loop caused by the watcher observing its own output files.
	// Nil skips nothing.
	Seen func(path string) bool

	// LockPath is the lock file enforcing a single watcher per state
	// directory. Empty disables locking.
	LockPath string
}

// Watcher watches directories and schedules settled files for
// processing.
type Watcher struct {
	watcher *fsnotify.Watcher
	settle  time.Duration
	process func(ctx context.Context, path string) (types.TransformOutcome, error)
	seen    func(path string) bool
	lock    *flock.Flock
	log     *logging.Logger

	mu     sync.Mutex
	paths  map[string]bool
	timers map[string]*time.Timer
	closed bool
}

// New creates a new Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.Process == nil {
		return nil, errors.New("watcher needs a process callback")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w: %w", types.ErrIO, err)
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	w := &Watcher{
		watcher: fsw,
		settle:  settle,
		process: opts.Process,
		seen:    opts.Seen,
		log:     logging.Get("watcher"),
		paths:   make(map[string]bool),
		timers:  make(map[string]*time.Timer),
	}
	if opts.LockPath != "" {
		w.lock = flock.New(opts.LockPath)
	}
	return w, nil
}

// Watch starts watching a path recursively.
// It adds watches to the root directory and all subdirectories.
// Symlinks are not followed to avoid loops.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return fmt.Errorf("watch %s: %w: %w", root, types.ErrNotFound, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory: %w", root, types.ErrIO)
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return w.addWatch(path)
		}
		return nil
	})
}

// addWatch adds a single directory to the watch list.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		w.log.Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// Run acquires the singleton lock and processes events until the
// context is cancelled. A clean shutdown returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	if w.lock != nil {
		ok, err := w.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire watch lock: %w: %w", types.ErrIO, err)
		}
		if !ok {
			return ErrAlreadyRunning
		}
		defer func() { _ = w.lock.Unlock() }()
	}

	for {
		select {
		case <-ctx.Done():
			w.cancelTimers()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(ctx, event.Name)
	case event.Op&fsnotify.Write != 0:
		if scanner.Supported(event.Name) {
			w.scheduleSettle(ctx, event.Name)
		}
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		// Rename is treated as a remove - the new name will trigger a create
		w.handleRemove(event.Name)
	}
}

// handleCreate handles file/directory creation events. New directories
// are watched recursively; subdirectories created in one burst with
// their parent would otherwise be missed.
func (w *Watcher) handleCreate(ctx context.Context, path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return // Already gone
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		return
	}

	if info.IsDir() {
		_ = w.addWatch(path)
		_ = filepath.WalkDir(path, func(subpath string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil //nolint:nilerr // Skip entries with errors
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if d.IsDir() && subpath != path {
				_ = w.addWatch(subpath)
			}
			return nil
		})
		return
	}

	if scanner.Supported(path) {
		w.scheduleSettle(ctx, path)
	}
}

// handleRemove drops watches and pending settle timers under a removed
// path.
func (w *Watcher) handleRemove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}

	if w.paths[path] {
		_ = w.watcher.Remove(path)
		delete(w.paths, path)
	}
	for childPath := range w.paths {
		if isSubPath(childPath, path) {
			_ = w.watcher.Remove(childPath)
			delete(w.paths, childPath)
		}
	}
}

// scheduleSettle arms (or re-arms) the settle timer for a path. Every
// event on the path pushes processing back by the full settle window,
// so a file still being written is never picked up mid-stream.
func (w *Watcher) scheduleSettle(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.settled(ctx, path)
	})
}

// settled runs once a path has been quiet for the settle window.
func (w *Watcher) settled(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.timers, path)
	closed := w.closed
	w.mu.Unlock()

	if closed || ctx.Err() != nil {
		return
	}

	if w.seen != nil && w.seen(path) {
		w.log.Debug("already processed, skipping", "path", path)
		return
	}
	if _, err := os.Stat(path); err != nil {
		return // Vanished while settling
	}

	outcome, err := w.process(ctx, path)
	if err != nil {
		w.log.Warn("auto-optimize failed", "path", path, "error", err)
		return
	}

	w.log.Info("auto-optimized",
		"path", path,
		"output", outcome.OutputPath,
		"saved", types.FormatSize(outcome.SavedBytes),
		"skipped", outcome.Skipped)
}

// cancelTimers stops every pending settle timer.
func (w *Watcher) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
