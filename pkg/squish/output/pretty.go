package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// actionWidth fits the longest action label ("optimized", "converted").
const actionWidth = 9

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatTable(r))

	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}

	return nil
}

// formatHeader builds the header box with run counts.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var parts []string

	processedLabel := LabelStyle.Render("Processed:")
	processedValue := ValueStyle.Render(fmt.Sprintf("%d files in %s",
		r.Stats.Requested, formatDuration(r.Stats.Duration)))
	parts = append(parts, fmt.Sprintf("%s %s", processedLabel, processedValue))

	if r.Stats.Skipped > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("skipped: %d", r.Stats.Skipped)))
	}
	if r.Stats.Failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("failed: %d", r.Stats.Failed)))
	}

	return HeaderBox.Render(strings.Join(parts, "  "))
}

// formatTable builds the per-file table with ACTION, SAVED, PCT, and
// FILE columns.
func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Rows) == 0 {
		return MutedStyle.Render("  Nothing to do\n")
	}

	// Calculate saved column width for alignment. Scan listings show the
	// file size in that column instead.
	savedWidth := 8
	for _, row := range r.Rows {
		if len(row.SavedHuman) > savedWidth {
			savedWidth = len(row.SavedHuman)
		}
		if row.Action == "found" && len(row.SizeHuman) > savedWidth {
			savedWidth = len(row.SizeHuman)
		}
	}
	const pctWidth = 6

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("ACTION", actionWidth)),
		TableHeaderStyle.Render(padLeft("SAVED", savedWidth)),
		TableHeaderStyle.Render(padLeft("PCT", pctWidth)),
		TableHeaderStyle.Render("FILE")))

	for _, row := range r.Rows {
		action := f.styleAction(row.Action)

		switch row.Action {
		case "failed":
			sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s %s\n",
				action,
				padLeft("-", savedWidth),
				padLeft("-", pctWidth),
				PathStyle.Render(row.Path),
				ErrorStyle.Render("("+row.Error+")")))
		case "skipped":
			sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s %s\n",
				action,
				padLeft("-", savedWidth),
				padLeft("-", pctWidth),
				PathStyle.Render(row.Path),
				MutedStyle.Render("(already optimal)")))
		case "found":
			sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
				action,
				SizeStyle.Render(padLeft(row.SizeHuman, savedWidth)),
				padLeft("-", pctWidth),
				PathStyle.Render(row.Path)))
		default:
			file := PathStyle.Render(row.Path)
			if row.Output != "" && row.Output != row.Path {
				file += MutedStyle.Render(" -> ") + PathStyle.Render(row.Output)
			}
			sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
				action,
				SizeStyle.Render(padLeft(row.SavedHuman, savedWidth)),
				SuccessStyle.Render(padLeft(fmt.Sprintf("%.1f%%", row.Percent), pctWidth)),
				file))
		}
	}

	return sb.String()
}

// styleAction pads and colors an action label.
func (f *PrettyFormatter) styleAction(action string) string {
	padded := padRight(action, actionWidth)
	switch action {
	case "skipped":
		return WarningStyle.Render(padded)
	case "failed":
		return ErrorStyle.Render(padded)
	default:
		return SuccessStyle.Render(padded)
	}
}

// formatFooter builds the footer box with byte totals.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	filesLabel := LabelStyle.Render("Files:")
	filesValue := ValueStyle.Render(fmt.Sprintf("%d", r.Stats.Requested))
	parts = append(parts, fmt.Sprintf("%s %s", filesLabel, filesValue))

	savedLabel := LabelStyle.Render("Saved:")
	savedValue := SizeStyle.Render(humanize.IBytes(uint64(max(r.Stats.TotalSaved, 0))))
	pct := MutedStyle.Render(fmt.Sprintf("(%.1f%%)", r.Stats.SavingsPercent()))
	parts = append(parts, fmt.Sprintf("%s %s %s", savedLabel, savedValue, pct))

	hint := MutedStyle.Render("Use -o plain for unformatted output")
	parts = append(parts, hint)

	lines := []string{strings.Join(parts, "  ")}
	if r.Archive != "" {
		archiveLabel := LabelStyle.Render("Archive:")
		archiveValue := ValueStyle.Render(r.Archive)
		lines = append(lines, fmt.Sprintf("%s %s", archiveLabel, archiveValue))
	}

	return FooterBox.Render(strings.Join(lines, "\n"))
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
