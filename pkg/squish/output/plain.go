package output

import (
	"bytes"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Use tabwriter for aligned columns
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("ACTION\tSAVED\tSIZE\tNEW\tPATH\tOUTPUT\tERROR\n")); err != nil {
		return err
	}

	for _, row := range r.Rows {
		line := row.Action + "\t" +
			orDash(row.SavedHuman) + "\t" +
			orDash(row.SizeHuman) + "\t" +
			orDash(row.NewHuman) + "\t" +
			row.Path + "\t" +
			orDash(row.Output) + "\t" +
			orDash(row.Error) + "\n"
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// orDash keeps empty cells visible so column counts stay stable for awk
// and cut.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
