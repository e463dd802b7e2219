package output

import (
	"bytes"
)

// PathsFormatter formats output as one result path per line.
// It produces a simple list of paths suitable for piping to other tools.
// For each row the output path is preferred; failures fall back to the
// source path.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows {
		w.WriteString(rowPath(row))
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)

// NullFormatter formats output as null-delimited paths.
// It produces paths separated by null bytes (0x00), suitable for use with
// xargs -0 or other tools that support null-delimited input.
// This format safely handles paths containing spaces, newlines, or other
// special characters.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows {
		w.WriteString(rowPath(row))
		w.WriteByte(0) // Null byte delimiter
	}
	return nil
}

func rowPath(row Row) string {
	if row.Output != "" {
		return row.Output
	}
	return row.Path
}

func init() {
	Register("null", func() Formatter {
		return &NullFormatter{}
	})
}

// Ensure NullFormatter implements Formatter.
var _ Formatter = (*NullFormatter)(nil)
