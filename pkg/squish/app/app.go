// Package app is the orchestration layer behind the UI shell and the
// CLI. It owns the mutable application state: loaded settings, window
// geometry, the lifecycle phase, and the persist-debounce timestamp,
// all guarded by one mutex. Transform work is delegated to the pipeline
// and never holds that lock.
package app

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/config"
	"github.com/jamesainslie/squish/pkg/squish/history"
	"github.com/jamesainslie/squish/pkg/squish/logging"
	"github.com/jamesainslie/squish/pkg/squish/pipeline"
	"github.com/jamesainslie/squish/pkg/squish/sessions"
	"github.com/jamesainslie/squish/pkg/squish/types"
	"github.com/jamesainslie/squish/pkg/squish/window"
)

// DefaultDebounce is the minimum interval between geometry persists.
// Drag events arrive far faster than the config file needs to change;
// intermediate positions are deliberately lost.
const DefaultDebounce = 500 * time.Millisecond

// Store loads and saves the application configuration. The indirection
// exists so tests can count writes without touching the real config
// file.
type Store interface {
	Load() (*config.Config, error)
	Save(*config.Config) error
}

// FileStore is the production Store, backed by the config package's
// XDG config file.
type FileStore struct{}

// Load implements Store.
func (FileStore) Load() (*config.Config, error) { return config.Load() }

// Save implements Store.
func (FileStore) Save(cfg *config.Config) error { return config.Save(cfg) }

// MonitorProvider enumerates the attached displays. The UI shell wires
// the platform's real enumeration; headless callers use StaticMonitors.
type MonitorProvider interface {
	Monitors() []types.Monitor
}

// StaticMonitors is a fixed monitor list.
type StaticMonitors []types.Monitor

// Monitors implements MonitorProvider.
func (s StaticMonitors) Monitors() []types.Monitor { return s }

// Options configures an App.
type Options struct {
	// Store persists settings. Nil uses the config file.
	Store Store

	// Monitors enumerates displays for window restore. Nil means no
	// monitors, which leaves restore as a pure size-floor.
	Monitors MonitorProvider

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// Constraints overrides the minimum window size when non-zero.
	Constraints window.Constraints
}

// App is the application facade. One instance lives for the process
// lifetime.
type App struct {
	store    Store
	monitors MonitorProvider
	pipe     *pipeline.Pipeline
	log      *logging.Logger

	// mu guards cfg, phase, geometry, and lastPersist. The persist
	// decision reads and advances lastPersist under this same lock.
	mu          sync.Mutex
	cfg         *config.Config
	phase       window.Phase
	geometry    types.WindowState
	lastPersist time.Time
	debounce    time.Duration
	constraints window.Constraints

	// History opens lazily on first use; a failed open logs once and
	// leaves hist nil so transforms keep working without it.
	histOnce sync.Once
	hist     *history.Store
}

// New creates the App, loading settings from the store. A load failure
// is logged and replaced with defaults; startup never fails on a bad
// config file.
func New(opts Options) *App {
	a := &App{
		store:       opts.Store,
		monitors:    opts.Monitors,
		log:         logging.Get("app"),
		phase:       window.PhaseUninitialized,
		debounce:    opts.Debounce,
		constraints: opts.Constraints,
	}
	if a.store == nil {
		a.store = FileStore{}
	}
	if a.monitors == nil {
		a.monitors = StaticMonitors(nil)
	}
	if a.debounce <= 0 {
		a.debounce = DefaultDebounce
	}
	if a.constraints == (window.Constraints{}) {
		a.constraints = window.DefaultConstraints()
	}

	cfg, err := a.store.Load()
	if err != nil {
		a.log.Warn("config load failed, using defaults", "error", err)
		cfg = config.Default()
	}
	a.cfg = cfg
	a.geometry = cfg.Window

	a.pipe = pipeline.New(pipeline.Options{ScratchDir: cfg.ScratchDir})
	return a
}

// Settings returns a copy of the current configuration.
func (a *App) Settings() config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// snapshotLocked deep-copies cfg so callers can't mutate shared state
// through the map field.
func (a *App) snapshotLocked() config.Config {
	cp := *a.cfg
	cp.Logging.Components = maps.Clone(a.cfg.Logging.Components)
	return cp
}

// UpdateSettings applies a mutation to the configuration and persists
// it immediately. The in-memory state keeps the mutation even when the
// write fails; settings changes are never silently dropped.
func (a *App) UpdateSettings(apply func(*config.Config)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	apply(a.cfg)

	if err := a.store.Save(a.cfg); err != nil {
		a.log.Warn("settings persist failed", "error", err)
		return fmt.Errorf("persist settings: %w: %w", types.ErrConfig, err)
	}
	a.lastPersist = time.Now()
	return nil
}

// historyStore returns the lazily opened history store, or nil when
// history is disabled or unavailable.
func (a *App) historyStore() *history.Store {
	a.mu.Lock()
	enabled := a.cfg.History.Enabled
	path := a.cfg.History.Path
	a.mu.Unlock()

	if !enabled {
		return nil
	}
	if path == "" {
		path = config.DefaultDBPath()
	}

	a.histOnce.Do(func() {
		h, err := history.Open(path)
		if err != nil {
			a.log.Warn("history unavailable", "path", path, "error", err)
			return
		}
		a.mu.Lock()
		a.hist = h
		a.mu.Unlock()
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hist
}

// sessionLog returns the session log, or nil when sessions are
// disabled.
func (a *App) sessionLog() *sessions.Log {
	a.mu.Lock()
	enabled := a.cfg.Sessions.Enabled
	dir := a.cfg.Sessions.Path
	a.mu.Unlock()

	if !enabled {
		return nil
	}
	if dir == "" {
		dir = config.DefaultSessionsDir()
	}

	l, err := sessions.New(dir)
	if err != nil {
		a.log.Warn("session log unavailable", "dir", dir, "error", err)
		return nil
	}
	if err := l.EnsureDir(); err != nil {
		a.log.Warn("session log unavailable", "dir", dir, "error", err)
		return nil
	}
	return l
}

// Seen reports whether path was already processed and is unchanged
// since. Without a history store nothing counts as seen.
func (a *App) Seen(path string) bool {
	h := a.historyStore()
	if h == nil {
		return false
	}
	return h.Seen(path)
}

// Close persists the final state and releases the history store.
func (a *App) Close() error {
	a.mu.Lock()
	a.persistGeometryLocked(true)
	hist := a.hist
	a.hist = nil
	a.mu.Unlock()

	if hist != nil {
		if err := hist.Close(); err != nil {
			return fmt.Errorf("close history: %w", err)
		}
	}
	return nil
}
