package output

import (
	"bytes"
	"encoding/json"
	"time"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Rows  []jsonRow `json:"rows"`
	Stats jsonStats `json:"stats"`
	Meta  jsonMeta  `json:"meta"`
}

// jsonRow represents a file outcome in JSON output.
type jsonRow struct {
	Path       string  `json:"path"`
	Output     string  `json:"output,omitempty"`
	Action     string  `json:"action"`
	Format     string  `json:"format,omitempty"`
	Size       int64   `json:"size"`
	SizeHuman  string  `json:"size_human,omitempty"`
	NewSize    int64   `json:"new_size"`
	NewHuman   string  `json:"new_size_human,omitempty"`
	Saved      int64   `json:"saved"`
	SavedHuman string  `json:"saved_human,omitempty"`
	Percent    float64 `json:"percent"`
	Duration   string  `json:"duration,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// jsonStats represents batch statistics in JSON output.
type jsonStats struct {
	Requested      int     `json:"requested"`
	Succeeded      int     `json:"succeeded"`
	Skipped        int     `json:"skipped"`
	Failed         int     `json:"failed"`
	TotalOriginal  int64   `json:"total_original"`
	TotalNew       int64   `json:"total_new"`
	TotalSaved     int64   `json:"total_saved"`
	SavingsPercent float64 `json:"savings_percent"`
	Duration       string  `json:"duration"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	Archive  string   `json:"archive,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with rows, stats, and meta sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts Result to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *Result) jsonOutput {
	rows := make([]jsonRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = buildJSONRow(row)
	}

	stats := jsonStats{
		Requested:      r.Stats.Requested,
		Succeeded:      r.Stats.Succeeded,
		Skipped:        r.Stats.Skipped,
		Failed:         r.Stats.Failed,
		TotalOriginal:  r.Stats.TotalOriginal,
		TotalNew:       r.Stats.TotalNew,
		TotalSaved:     r.Stats.TotalSaved,
		SavingsPercent: r.Stats.SavingsPercent(),
		Duration:       formatDurationString(r.Stats.Duration),
	}

	meta := jsonMeta{
		Archive:  r.Archive,
		Warnings: r.Warnings,
	}

	return jsonOutput{
		Rows:  rows,
		Stats: stats,
		Meta:  meta,
	}
}

// buildJSONRow converts a Row to its JSON shape.
func buildJSONRow(row Row) jsonRow {
	return jsonRow{
		Path:       row.Path,
		Output:     row.Output,
		Action:     row.Action,
		Format:     row.Format,
		Size:       row.Size,
		SizeHuman:  row.SizeHuman,
		NewSize:    row.NewSize,
		NewHuman:   row.NewHuman,
		Saved:      row.Saved,
		SavedHuman: row.SavedHuman,
		Percent:    row.Percent,
		Duration:   formatDurationString(row.Duration),
		Error:      row.Error,
	}
}

// formatDurationString formats a duration as a string for structured output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per line).
// Each row is written as a compact JSON object on its own line.
// This format is suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows {
		data, err := json.Marshal(buildJSONRow(row))
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
