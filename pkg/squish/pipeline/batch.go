package pipeline

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// FileResult pairs one input path with its transform outcome or error.
type FileResult struct {
	Path    string
	Outcome types.TransformOutcome
	Err     error
}

// Action labels the result: optimized, converted, skipped, or failed.
// A changed extension between source and output means the format
// changed; re-optimizations always keep the source's exact extension.
func (r FileResult) Action() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Outcome.Skipped:
		return "skipped"
	case !strings.EqualFold(filepath.Ext(r.Path), filepath.Ext(r.Outcome.OutputPath)):
		return "converted"
	default:
		return "optimized"
	}
}

// BatchSummary aggregates the results of one batch run.
type BatchSummary struct {
	// Processed counts files whose transform succeeded, including skips.
	Processed int

	// Skipped counts transforms discarded for lack of improvement.
	Skipped int

	// Failed counts files whose transform returned an error.
	Failed int

	// OriginalBytes and NewBytes total the sizes of successful transforms.
	OriginalBytes int64
	NewBytes      int64

	// SavedBytes totals the clamped per-file savings.
	SavedBytes int64

	// Duration is the wall-clock time of the whole batch.
	Duration time.Duration
}

// RunBatch transforms each path concurrently on up to workers goroutines,
// all with the same overwrite and target settings. Per-file failures are
// recorded in the corresponding result and never abort the batch. Results
// come back in input order. A cancelled context stops dispatching new
// files; undispatched paths are reported with the context's error.
func (p *Pipeline) RunBatch(ctx context.Context, paths []string, overwrite bool, target types.Format, workers int) ([]FileResult, BatchSummary) {
	start := time.Now()

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]FileResult, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				path := paths[idx]
				outcome, err := p.Run(ctx, types.TransformRequest{
					SourcePath: path,
					Overwrite:  overwrite,
					Target:     target,
				})
				results[idx] = FileResult{Path: path, Outcome: outcome, Err: err}
			}
		}()
	}

	sent := 0
dispatch:
	for sent < len(paths) {
		select {
		case jobs <- sent:
			sent++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for idx := sent; idx < len(paths); idx++ {
		results[idx] = FileResult{Path: paths[idx], Err: ctx.Err()}
	}

	summary := Summarize(results)
	summary.Duration = time.Since(start)
	return results, summary
}

// Summarize folds per-file results into a BatchSummary. The Duration
// field is left zero; RunBatch fills it in.
func Summarize(results []FileResult) BatchSummary {
	var s BatchSummary
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Processed++
		if r.Outcome.Skipped {
			s.Skipped++
		}
		s.OriginalBytes += r.Outcome.OriginalSize
		s.NewBytes += r.Outcome.NewSize
		s.SavedBytes += r.Outcome.SavedBytes
	}
	return s
}
