package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/archive"
	"github.com/jamesainslie/squish/pkg/squish/history"
	"github.com/jamesainslie/squish/pkg/squish/pipeline"
	"github.com/jamesainslie/squish/pkg/squish/scanner"
	"github.com/jamesainslie/squish/pkg/squish/sessions"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// OptimizeOrConvert runs a single transform and records it in the
// history store. History failures never fail the transform.
func (a *App) OptimizeOrConvert(ctx context.Context, req types.TransformRequest) (types.TransformOutcome, error) {
	outcome, err := a.pipe.Run(ctx, req)
	a.record(pipeline.FileResult{Path: req.SourcePath, Outcome: outcome, Err: err})
	return outcome, err
}

// BatchOptions configures one batch run.
type BatchOptions struct {
	// Overwrite replaces originals in place for same-format results.
	Overwrite bool

	// Target is the conversion target; FormatSame optimizes in the
	// source format.
	Target types.Format

	// Workers caps transform concurrency. Zero or less lets the
	// pipeline pick.
	Workers int

	// SkipKnown drops inputs whose history seen-marker still matches,
	// avoiding repeat work on files already processed.
	SkipKnown bool
}

// BatchReport is the full account of one batch run.
type BatchReport struct {
	// Results holds one entry per processed path, in input order.
	Results []pipeline.FileResult

	// Summary aggregates the results.
	Summary pipeline.BatchSummary

	// SkippedKnown lists inputs dropped by BatchOptions.SkipKnown
	// before the pipeline saw them.
	SkippedKnown []string

	// SessionID names the persisted session summary, empty when
	// session recording is disabled or failed.
	SessionID string
}

// OptimizeBatch transforms paths concurrently, records history and
// seen-markers per file, and persists a session summary. Per-file
// failures land in the report; nothing here aborts the batch.
func (a *App) OptimizeBatch(ctx context.Context, paths []string, opts BatchOptions) BatchReport {
	var report BatchReport

	if opts.SkipKnown {
		if h := a.historyStore(); h != nil {
			kept := paths[:0:0]
			for _, p := range paths {
				if h.Seen(p) {
					report.SkippedKnown = append(report.SkippedKnown, p)
					continue
				}
				kept = append(kept, p)
			}
			paths = kept
		}
	}

	startedAt := time.Now()
	report.Results, report.Summary = a.pipe.RunBatch(ctx, paths, opts.Overwrite, opts.Target, opts.Workers)

	for _, res := range report.Results {
		a.record(res)
	}
	report.SessionID = a.recordSession(report.Results, startedAt, report.Summary.Duration)

	return report
}

// record appends one transform to history and refreshes seen-markers.
// All of it is best-effort; a broken history store only costs the
// skip-known optimization.
func (a *App) record(res pipeline.FileResult) {
	h := a.historyStore()
	if h == nil {
		return
	}

	rec := history.Record{
		SourcePath: res.Path,
		Action:     res.Action(),
		Format:     formatOf(res.Path),
		Duration:   res.Outcome.Duration,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	} else {
		rec.OutputPath = res.Outcome.OutputPath
		rec.Format = formatOf(res.Outcome.OutputPath)
		rec.OriginalSize = res.Outcome.OriginalSize
		rec.NewSize = res.Outcome.NewSize
		rec.SavedBytes = res.Outcome.SavedBytes
	}

	if err := h.Append(rec); err != nil {
		a.log.Warn("history append failed", "path", res.Path, "error", err)
	}
	if res.Err != nil {
		return
	}

	// Mark both files: the output so the watcher never reprocesses its
	// own write, the source so an unchanged original is not examined
	// again.
	if err := h.MarkSeen(res.Outcome.OutputPath); err != nil {
		a.log.Debug("seen-marker failed", "path", res.Outcome.OutputPath, "error", err)
	}
	if res.Outcome.OutputPath != res.Path {
		if err := h.MarkSeen(res.Path); err != nil {
			a.log.Debug("seen-marker failed", "path", res.Path, "error", err)
		}
	}
}

// recordSession persists the batch summary and prunes old sessions.
func (a *App) recordSession(results []pipeline.FileResult, startedAt time.Time, elapsed time.Duration) string {
	l := a.sessionLog()
	if l == nil || len(results) == 0 {
		return ""
	}

	entries := make([]sessions.Entry, 0, len(results))
	for _, res := range results {
		e := sessions.Entry{
			Path:         res.Path,
			Action:       res.Action(),
			OriginalSize: res.Outcome.OriginalSize,
			NewSize:      res.Outcome.NewSize,
			SavedBytes:   res.Outcome.SavedBytes,
			Skipped:      res.Outcome.Skipped,
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
		} else {
			e.OutputPath = res.Outcome.OutputPath
		}
		entries = append(entries, e)
	}

	session, err := l.Record(entries, startedAt, elapsed)
	if err != nil {
		a.log.Warn("session record failed", "error", err)
		return ""
	}

	a.mu.Lock()
	retention := a.cfg.Sessions.RetentionDays
	a.mu.Unlock()
	if err := l.Cleanup(retention); err != nil {
		a.log.Debug("session cleanup failed", "error", err)
	}

	return session.ID
}

// formatOf returns the lowercase extension without the dot.
func formatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// PackageArchive packs entries into a zip at dest. Any unreadable
// source aborts the whole archive.
func (a *App) PackageArchive(ctx context.Context, entries []types.ArchiveEntry, dest string) (string, error) {
	return archive.Pack(ctx, entries, dest)
}

// ScanInputs expands files and directories into the list of supported
// image files, in stable order.
func (a *App) ScanInputs(ctx context.Context, paths []string) ([]string, error) {
	s := scanner.New(scanner.Options{})
	files, err := s.Scan(ctx, paths)
	if errs := s.Errors(); len(errs) > 0 {
		a.log.Debug("scan finished with unreadable paths", "count", len(errs))
	}
	return files, err
}

// SaveFile copies src to dst byte for byte. It backs the UI's
// "save a copy" action; dst comes from a save dialog that has already
// resolved collisions.
func (a *App) SaveFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, src)
		}
		return fmt.Errorf("open %s: %w: %w", src, types.ErrIO, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", dst, types.ErrIO, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w: %w", dst, types.ErrIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", dst, types.ErrIO, err)
	}
	return nil
}
