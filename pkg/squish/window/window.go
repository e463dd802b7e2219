// Package window validates persisted window geometry against the
// attached monitors. Restore computes the rectangle to apply at startup:
// floor the size to the configured minimums, pick the monitor owning the
// rectangle's top-left corner (first monitor as fallback), cap the size
// to that monitor, and clamp the position so the whole rectangle stays
// visible.
//
// The package is pure geometry. Lifecycle, locking, and persistence
// belong to the caller.
package window

import (
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Phase tracks where the window lifecycle stands. Move and resize
// events only matter once the window is Live; events arriving during
// restore echo the programmatic placement and are not user intent.
type Phase int

// Lifecycle phases in order.
const (
	PhaseUninitialized Phase = iota
	PhaseRestoring
	PhaseLive
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRestoring:
		return "restoring"
	case PhaseLive:
		return "live"
	default:
		return "unknown"
	}
}

// Constraints carries the minimum window dimensions.
type Constraints struct {
	MinWidth  int
	MinHeight int
}

// DefaultConstraints returns the stock minimum window size.
func DefaultConstraints() Constraints {
	return Constraints{MinWidth: 400, MinHeight: 300}
}

// PickMonitor returns the monitor whose bounds contain the point (x, y),
// or the first monitor when none does. ok is false only when the monitor
// list is empty.
func PickMonitor(monitors []types.Monitor, x, y int) (m types.Monitor, ok bool) {
	if len(monitors) == 0 {
		return types.Monitor{}, false
	}
	for _, mon := range monitors {
		if mon.Contains(x, y) {
			return mon, true
		}
	}
	return monitors[0], true
}

// Clamp fits state onto the monitor: the size is capped to the monitor's,
// then the position is adjusted so the full rectangle lies within the
// monitor's bounds. The right and bottom edges are pulled in first, then
// the left and top, so a rectangle hanging off both sides ends up pinned
// to the monitor's origin.
func Clamp(state types.WindowState, m types.Monitor, c Constraints) types.WindowState {
	state = floorSize(state, c)

	if state.Width > m.Width {
		state.Width = m.Width
	}
	if state.Height > m.Height {
		state.Height = m.Height
	}

	if state.X+state.Width > m.X+m.Width {
		state.X = m.X + m.Width - state.Width
	}
	if state.Y+state.Height > m.Y+m.Height {
		state.Y = m.Y + m.Height - state.Height
	}
	if state.X < m.X {
		state.X = m.X
	}
	if state.Y < m.Y {
		state.Y = m.Y
	}

	return state
}

// Restore computes the rectangle to apply at startup from a persisted
// state and the attached monitors. With no monitors enumerable the size
// floor still applies and the position is left alone.
func Restore(state types.WindowState, monitors []types.Monitor, c Constraints) types.WindowState {
	state = floorSize(state, c)

	m, ok := PickMonitor(monitors, state.X, state.Y)
	if !ok {
		return state
	}
	return Clamp(state, m, c)
}

func floorSize(state types.WindowState, c Constraints) types.WindowState {
	if state.Width < c.MinWidth {
		state.Width = c.MinWidth
	}
	if state.Height < c.MinHeight {
		state.Height = c.MinHeight
	}
	return state
}
