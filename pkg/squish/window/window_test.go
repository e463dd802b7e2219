package window

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

var (
	primary   = types.Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}
	secondary = types.Monitor{X: 1920, Y: 0, Width: 2560, Height: 1440}
)

func TestPickMonitor(t *testing.T) {
	monitors := []types.Monitor{primary, secondary}

	tests := []struct {
		name string
		x, y int
		want types.Monitor
	}{
		{name: "origin on primary", x: 0, y: 0, want: primary},
		{name: "middle of primary", x: 960, y: 540, want: primary},
		{name: "right edge exclusive", x: 1920, y: 0, want: secondary},
		{name: "middle of secondary", x: 3000, y: 700, want: secondary},
		{name: "off all monitors falls back to first", x: -5000, y: -5000, want: primary},
		{name: "below all monitors falls back to first", x: 500, y: 9999, want: primary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickMonitor(monitors, tt.x, tt.y)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickMonitorEmpty(t *testing.T) {
	_, ok := PickMonitor(nil, 100, 100)
	assert.False(t, ok)
}

func TestClamp(t *testing.T) {
	c := DefaultConstraints()

	tests := []struct {
		name  string
		state types.WindowState
		m     types.Monitor
		want  types.WindowState
	}{
		{
			name:  "already inside is unchanged",
			state: types.WindowState{X: 100, Y: 100, Width: 900, Height: 600},
			m:     primary,
			want:  types.WindowState{X: 100, Y: 100, Width: 900, Height: 600},
		},
		{
			name:  "size floored to minimums",
			state: types.WindowState{X: 100, Y: 100, Width: 50, Height: 50},
			m:     primary,
			want:  types.WindowState{X: 100, Y: 100, Width: 400, Height: 300},
		},
		{
			name:  "size capped to monitor",
			state: types.WindowState{X: 0, Y: 0, Width: 5000, Height: 4000},
			m:     primary,
			want:  types.WindowState{X: 0, Y: 0, Width: 1920, Height: 1080},
		},
		{
			name:  "hanging off the right is pulled back",
			state: types.WindowState{X: 1800, Y: 100, Width: 900, Height: 600},
			m:     primary,
			want:  types.WindowState{X: 1020, Y: 100, Width: 900, Height: 600},
		},
		{
			name:  "hanging off the bottom is pulled up",
			state: types.WindowState{X: 100, Y: 900, Width: 900, Height: 600},
			m:     primary,
			want:  types.WindowState{X: 100, Y: 480, Width: 900, Height: 600},
		},
		{
			name:  "left of the monitor is pushed right",
			state: types.WindowState{X: -500, Y: 100, Width: 900, Height: 600},
			m:     primary,
			want:  types.WindowState{X: 0, Y: 100, Width: 900, Height: 600},
		},
		{
			name:  "above the monitor is pushed down",
			state: types.WindowState{X: 100, Y: -300, Width: 900, Height: 600},
			m:     primary,
			want:  types.WindowState{X: 100, Y: 0, Width: 900, Height: 600},
		},
		{
			name:  "oversized and misplaced pins to origin",
			state: types.WindowState{X: -100, Y: -100, Width: 5000, Height: 4000},
			m:     primary,
			want:  types.WindowState{X: 0, Y: 0, Width: 1920, Height: 1080},
		},
		{
			name:  "secondary monitor offset respected",
			state: types.WindowState{X: 4300, Y: 1200, Width: 900, Height: 600},
			m:     secondary,
			want:  types.WindowState{X: 3580, Y: 840, Width: 900, Height: 600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.state, tt.m, c)
			assert.Equal(t, tt.want, got)

			// Whatever the input, the result fits inside the monitor.
			assert.GreaterOrEqual(t, got.X, tt.m.X)
			assert.GreaterOrEqual(t, got.Y, tt.m.Y)
			assert.LessOrEqual(t, got.X+got.Width, tt.m.X+tt.m.Width)
			assert.LessOrEqual(t, got.Y+got.Height, tt.m.Y+tt.m.Height)
		})
	}
}

func TestRestoreOffscreenLandsOnFirstMonitor(t *testing.T) {
	monitors := []types.Monitor{primary, secondary}

	// A rectangle from a detached monitor: entirely outside both.
	state := types.WindowState{X: -4000, Y: -2000, Width: 900, Height: 600}

	got := Restore(state, monitors, DefaultConstraints())

	assert.GreaterOrEqual(t, got.X, primary.X)
	assert.GreaterOrEqual(t, got.Y, primary.Y)
	assert.LessOrEqual(t, got.X+got.Width, primary.X+primary.Width)
	assert.LessOrEqual(t, got.Y+got.Height, primary.Y+primary.Height)
	assert.GreaterOrEqual(t, got.Width, 400)
	assert.GreaterOrEqual(t, got.Height, 300)
}

func TestRestoreKeepsRectOnItsMonitor(t *testing.T) {
	monitors := []types.Monitor{primary, secondary}

	state := types.WindowState{X: 2500, Y: 200, Width: 1000, Height: 800}
	got := Restore(state, monitors, DefaultConstraints())
	assert.Equal(t, state, got, "a rectangle already visible on its monitor is untouched")
}

func TestRestoreNoMonitors(t *testing.T) {
	state := types.WindowState{X: 42, Y: 42, Width: 100, Height: 100}
	got := Restore(state, nil, DefaultConstraints())

	// Only the size floor applies.
	assert.Equal(t, types.WindowState{X: 42, Y: 42, Width: 400, Height: 300}, got)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "uninitialized", PhaseUninitialized.String())
	assert.Equal(t, "restoring", PhaseRestoring.String())
	assert.Equal(t, "live", PhaseLive.String())
	assert.Equal(t, "unknown", Phase(99).String())
}
