//go:build darwin

package tuner

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Detect detects available system resources (CPU and RAM).
// On darwin (macOS), it uses runtime.NumCPU() for CPU cores and
// unix.SysctlUint64 for memory information.
func Detect() (SystemResources, error) {
	resources := SystemResources{
		CPUCores: runtime.NumCPU(),
	}

	totalRAM, err := getTotalRAM()
	if err != nil {
		return resources, fmt.Errorf("failed to get total RAM: %w", err)
	}
	resources.TotalRAM = totalRAM
	resources.AvailableRAM = estimateAvailableRAM(totalRAM)

	return resources, nil
}

// getTotalRAM retrieves the total physical memory on darwin using sysctl.
func getTotalRAM() (int64, error) {
	// hw.memsize returns the total physical memory as a 64-bit value
	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, fmt.Errorf("sysctl hw.memsize: %w", err)
	}

	return int64(memsize), nil
}

// estimateAvailableRAM estimates available memory on darwin. Precise
// availability needs vm_stat or host_statistics; a 50% heuristic is
// enough for sizing a worker pool, leaving headroom for the OS, the
// file system cache, and other applications.
func estimateAvailableRAM(totalRAM int64) int64 {
	return totalRAM / 2
}
