package app

import (
	"time"

	"github.com/jamesainslie/squish/pkg/squish/types"
	"github.com/jamesainslie/squish/pkg/squish/window"
)

// RestoreWindow computes and applies the startup window rectangle from
// the persisted geometry and the attached monitors. It moves the
// lifecycle to Live; move and resize events are ignored until then,
// since anything earlier echoes our own programmatic placement.
func (a *App) RestoreWindow() types.WindowState {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase != window.PhaseUninitialized {
		return a.geometry
	}

	a.phase = window.PhaseRestoring
	a.geometry = window.Restore(a.cfg.Window, a.monitors.Monitors(), a.constraints)
	a.cfg.Window = a.geometry
	a.phase = window.PhaseLive

	a.log.Debug("window restored",
		"x", a.geometry.X, "y", a.geometry.Y,
		"width", a.geometry.Width, "height", a.geometry.Height)

	return a.geometry
}

// Phase returns the current window lifecycle phase.
func (a *App) Phase() window.Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Geometry returns the current in-memory window rectangle. Between
// debounced writes it can be newer than the persisted one.
func (a *App) Geometry() types.WindowState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.geometry
}

// WindowMoved records a user-driven window move.
func (a *App) WindowMoved(x, y int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase != window.PhaseLive {
		return
	}
	a.geometry.X = x
	a.geometry.Y = y
	a.persistGeometryLocked(false)
}

// WindowResized records a user-driven window resize.
func (a *App) WindowResized(width, height int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase != window.PhaseLive {
		return
	}
	a.geometry.Width = width
	a.geometry.Height = height
	a.persistGeometryLocked(false)
}

// WindowClosed persists the final geometry unconditionally.
func (a *App) WindowClosed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persistGeometryLocked(true)
}

// persistGeometryLocked writes the current geometry through the store.
// Unforced writes inside the debounce window are dropped; the state
// that matters is wherever the window ends up, not the path it took.
// lastPersist advances even when the write fails so a broken config
// file is not retried on every drag event.
//
// Callers must hold a.mu.
func (a *App) persistGeometryLocked(force bool) {
	if a.phase != window.PhaseLive {
		return
	}
	if !force && time.Since(a.lastPersist) < a.debounce {
		return
	}

	a.cfg.Window = a.geometry
	a.lastPersist = time.Now()

	if err := a.store.Save(a.cfg); err != nil {
		a.log.Warn("geometry persist failed", "error", err)
	}
}
