// Package tuner sizes the transform worker pool from detected system
// resources. It detects CPU cores and RAM, then derives a worker count
// that keeps every core busy without letting decoded pixel buffers
// exhaust memory.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the available (free) RAM in bytes.
	// This may be an estimate based on system heuristics.
	AvailableRAM int64
}
