// Package config provides configuration management for the squish image
// optimizer. Settings live in a per-user YAML file; every field has a
// default so a partial or absent file still yields a complete Config.
package config

// Default configuration values for squish.
const (
	// DefaultWindowX and DefaultWindowY position a fresh window.
	DefaultWindowX = 100
	DefaultWindowY = 100

	// DefaultWindowWidth and DefaultWindowHeight size a fresh window.
	DefaultWindowWidth  = 900
	DefaultWindowHeight = 600

	// MinWindowWidth and MinWindowHeight are the restore-time floors.
	MinWindowWidth  = 400
	MinWindowHeight = 300

	// DefaultJobs is the worker count for batch transforms.
	// Zero means size automatically from the machine.
	DefaultJobs = 0

	// DefaultConvertFormat is the conversion target offered when
	// conversion is enabled but no format was chosen.
	DefaultConvertFormat = "webp"

	// DefaultRetentionDays is how long session summaries are kept.
	DefaultRetentionDays = 30

	// DefaultSettleMS is how long the watcher waits after the last
	// write event before transforming a file.
	DefaultSettleMS = 500
)
