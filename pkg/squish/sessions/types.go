// Package sessions provides session logging for batch transform runs.
// Every batch writes one JSON summary file; the log is browsable after
// the fact and prunable by age.
package sessions

import "time"

// Entry represents a single file outcome within a session.
type Entry struct {
	Path         string `json:"path"`
	OutputPath   string `json:"output_path,omitempty"`
	Action       string `json:"action"`
	OriginalSize int64  `json:"original_size"`
	NewSize      int64  `json:"new_size"`
	SavedBytes   int64  `json:"saved_bytes"`
	Skipped      bool   `json:"skipped,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Session summarizes one batch run.
type Session struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed"`
	Requested     int           `json:"requested"`
	Succeeded     int           `json:"succeeded"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	TotalOriginal int64         `json:"total_original"`
	TotalNew      int64         `json:"total_new"`
	TotalSaved    int64         `json:"total_saved"`
	Entries       []Entry       `json:"entries"`
}
