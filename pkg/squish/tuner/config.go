package tuner

// Worker pool limits.
const (
	// maxWorkers is the ceiling for any pool. Image encoding is
	// CPU-heavy, so past this point extra workers only add context
	// switching and memory pressure.
	maxWorkers = 16

	// minWorkers keeps the pool alive even on starved systems.
	minWorkers = 1
)

// bytesPerWorker estimates peak memory held by one in-flight transform.
// A 24-megapixel photo decodes to roughly 96 MiB of RGBA, and a
// transform holds the decoded image plus encoder state, so 256 MiB per
// worker is a conservative budget.
const bytesPerWorker = 256 * 1024 * 1024

// Workers returns the tuned transform worker count.
//
// A positive override wins outright (still capped at maxWorkers); this
// backs the --jobs flag. Otherwise the count is the smaller of the CPU
// core count and what available RAM can feed, clamped to
// [minWorkers, maxWorkers]. Transforms are memory-bound as much as
// CPU-bound: every in-flight file pins a fully decoded pixel buffer.
func Workers(resources SystemResources, override int) int {
	if override > 0 {
		return min(override, maxWorkers)
	}

	workers := resources.CPUCores
	if byMemory := int(resources.AvailableRAM / bytesPerWorker); byMemory < workers {
		workers = byMemory
	}

	workers = max(workers, minWorkers)
	workers = min(workers, maxWorkers)

	return workers
}
