// Package watcher provides filesystem watching for the auto-optimize
// loop.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// recorder collects processed paths for assertions.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) process(_ context.Context, path string) (types.TransformOutcome, error) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	return types.TransformOutcome{OutputPath: path}, nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// waitForPaths polls until the recorder holds at least n paths or the
// deadline passes.
func (r *recorder) waitForPaths(n int, timeout time.Duration) []string {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		got := r.snapshot()
		if len(got) >= n {
			return got
		}
		time.Sleep(20 * time.Millisecond)
	}
	return r.snapshot()
}

func newTestWatcher(t *testing.T, opts Options) (*Watcher, *recorder) {
	t.Helper()
	rec := &recorder{}
	if opts.Process == nil {
		opts.Process = rec.process
	}
	if opts.Settle == 0 {
		opts.Settle = 50 * time.Millisecond
	}
	w, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, rec
}

func TestNew(t *testing.T) {
	w, _ := newTestWatcher(t, Options{})

	if w.watcher == nil {
		t.Error("New() did not create fsnotify watcher")
	}
	if w.settle != 50*time.Millisecond {
		t.Errorf("settle = %v, want 50ms", w.settle)
	}
}

func TestNewDefaultSettle(t *testing.T) {
	w, err := New(Options{Process: (&recorder{}).process})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if w.settle != DefaultSettle {
		t.Errorf("settle = %v, want %v", w.settle, DefaultSettle)
	}
}

func TestNewRequiresProcess(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() should reject nil process callback")
	}
}

func TestWatch(t *testing.T) {
	w, _ := newTestWatcher(t, Options{})

	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.mu.Lock()
	_, rootTracked := w.paths[tmpDir]
	_, subDirTracked := w.paths[subDir]
	w.mu.Unlock()

	if !rootTracked {
		t.Error("Watch() did not track root directory")
	}
	if !subDirTracked {
		t.Error("Watch() did not track subdirectory")
	}
}

func TestWatchNonExistent(t *testing.T) {
	w, _ := newTestWatcher(t, Options{})

	err := w.Watch("/nonexistent/path/that/does/not/exist")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Watch() error = %v, want ErrNotFound", err)
	}
}

func TestWatchRejectsFile(t *testing.T) {
	w, _ := newTestWatcher(t, Options{})

	file := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if err := w.Watch(file); err == nil {
		t.Error("Watch() should reject a plain file root")
	}
}

func TestWatchRecursive(t *testing.T) {
	w, _ := newTestWatcher(t, Options{})

	tmpDir := t.TempDir()
	level1 := filepath.Join(tmpDir, "level1")
	level2 := filepath.Join(level1, "level2")
	level3 := filepath.Join(level2, "level3")

	if err := os.MkdirAll(level3, 0o755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, dir := range []string{tmpDir, level1, level2, level3} {
		if _, tracked := w.paths[dir]; !tracked {
			t.Errorf("Watch() did not track nested directory: %s", dir)
		}
	}
}

func TestWatchIgnoresSymlinks(t *testing.T) {
	w, _ := newTestWatcher(t, Options{})

	tmpDir := t.TempDir()
	realDir := filepath.Join(tmpDir, "real")
	symlink := filepath.Join(tmpDir, "symlink")

	if err := os.MkdirAll(realDir, 0o755); err != nil {
		t.Fatalf("failed to create real dir: %v", err)
	}
	if err := os.Symlink(realDir, symlink); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, tracked := w.paths[realDir]; !tracked {
		t.Error("Watch() did not track real directory")
	}
	if _, tracked := w.paths[symlink]; tracked {
		t.Error("Watch() followed a symlink")
	}
}

func TestRunProcessesNewFile(t *testing.T) {
	w, rec := newTestWatcher(t, Options{})

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "photo.png")
	if err := os.WriteFile(testFile, []byte("fake png"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	got := rec.waitForPaths(1, 3*time.Second)
	if len(got) == 0 {
		t.Fatal("Run() did not process new file")
	}
	if got[0] != testFile {
		t.Errorf("processed %s, want %s", got[0], testFile)
	}
}

func TestRunSkipsUnsupportedExtension(t *testing.T) {
	w, rec := newTestWatcher(t, Options{})

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("text"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Positive control: a supported file written afterwards must be the
	// only thing processed.
	testFile := filepath.Join(tmpDir, "photo.png")
	if err := os.WriteFile(testFile, []byte("fake png"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	got := rec.waitForPaths(1, 3*time.Second)
	if len(got) != 1 || got[0] != testFile {
		t.Errorf("processed %v, want only %s", got, testFile)
	}
}

func TestRunSkipsSeenFiles(t *testing.T) {
	w, rec := newTestWatcher(t, Options{
		Seen: func(string) bool { return true },
	})

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "photo.png"), []byte("fake png"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	time.Sleep(300 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("Run() processed seen files: %v", got)
	}
}

func TestSettleCoalescesRapidWrites(t *testing.T) {
	w, rec := newTestWatcher(t, Options{Settle: 150 * time.Millisecond})

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "photo.png")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(testFile, make([]byte, 100*(i+1)), 0o644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	rec.waitForPaths(1, 3*time.Second)
	// Allow any stray second settle window to expire before counting.
	time.Sleep(300 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("processed %d times, want 1 (burst should coalesce): %v", len(got), got)
	}
}

func TestRunProcessesFilesInNewSubdirectory(t *testing.T) {
	w, rec := newTestWatcher(t, Options{})

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)

	newDir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		t.Fatalf("failed to create new dir: %v", err)
	}

	// Give the create event time to land and the watch to be added.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w.mu.Lock()
		_, tracked := w.paths[newDir]
		w.mu.Unlock()
		if tracked {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	w.mu.Lock()
	_, tracked := w.paths[newDir]
	w.mu.Unlock()
	if !tracked {
		t.Fatal("Run() did not add watch for newly created directory")
	}

	testFile := filepath.Join(newDir, "photo.png")
	if err := os.WriteFile(testFile, []byte("fake png"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	got := rec.waitForPaths(1, 3*time.Second)
	if len(got) == 0 || got[len(got)-1] != testFile {
		t.Errorf("processed %v, want %s", got, testFile)
	}
}

func TestRunContextCancellation(t *testing.T) {
	w, _ := newTestWatcher(t, Options{})

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run() did not return after context cancellation")
	}
}

func TestRunLockExcludesSecondWatcher(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "watch.lock")

	first, _ := newTestWatcher(t, Options{LockPath: lockPath})
	second, _ := newTestWatcher(t, Options{LockPath: lockPath})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	err := second.Run(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("first Run() did not return after cancellation")
	}
}

func TestClose(t *testing.T) {
	w, err := New(Options{Process: (&recorder{}).process})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestIsSubPath(t *testing.T) {
	tests := []struct {
		path   string
		parent string
		want   bool
	}{
		{"/a/b/c", "/a/b", true},
		{"/a/b", "/a/b", false},
		{"/a/bc", "/a/b", false},
		{"/a", "/a/b", false},
	}

	for _, tt := range tests {
		if got := isSubPath(tt.path, tt.parent); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.path, tt.parent, tt.want, got)
		}
	}
}
