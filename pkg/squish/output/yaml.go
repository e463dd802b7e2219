package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Rows  []yamlRow `yaml:"rows"`
	Stats yamlStats `yaml:"stats"`
	Meta  yamlMeta  `yaml:"meta"`
}

// yamlRow represents a file outcome in YAML output.
type yamlRow struct {
	Path       string  `yaml:"path"`
	Output     string  `yaml:"output,omitempty"`
	Action     string  `yaml:"action"`
	Format     string  `yaml:"format,omitempty"`
	Size       int64   `yaml:"size"`
	SizeHuman  string  `yaml:"size_human,omitempty"`
	NewSize    int64   `yaml:"new_size"`
	NewHuman   string  `yaml:"new_size_human,omitempty"`
	Saved      int64   `yaml:"saved"`
	SavedHuman string  `yaml:"saved_human,omitempty"`
	Percent    float64 `yaml:"percent"`
	Duration   string  `yaml:"duration,omitempty"`
	Error      string  `yaml:"error,omitempty"`
}

// yamlStats represents batch statistics in YAML output.
type yamlStats struct {
	Requested      int     `yaml:"requested"`
	Succeeded      int     `yaml:"succeeded"`
	Skipped        int     `yaml:"skipped"`
	Failed         int     `yaml:"failed"`
	TotalOriginal  int64   `yaml:"total_original"`
	TotalNew       int64   `yaml:"total_new"`
	TotalSaved     int64   `yaml:"total_saved"`
	SavingsPercent float64 `yaml:"savings_percent"`
	Duration       string  `yaml:"duration"`
}

// yamlMeta represents metadata in YAML output.
type yamlMeta struct {
	Archive  string   `yaml:"archive,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
}

// YAMLFormatter formats output as a single YAML document.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	rows := make([]yamlRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = yamlRow{
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

	out := yamlOutput{
		Rows: rows,
		Stats: yamlStats{
			Requested:      r.Stats.Requested,
			Succeeded:      r.Stats.Succeeded,
			Skipped:        r.Stats.Skipped,
			Failed:         r.Stats.Failed,
			TotalOriginal:  r.Stats.TotalOriginal,
			TotalNew:       r.Stats.TotalNew,
			TotalSaved:     r.Stats.TotalSaved,
			SavingsPercent: r.Stats.SavingsPercent(),
			Duration:       formatDurationString(r.Stats.Duration),
		},
		Meta: yamlMeta{
			Archive:  r.Archive,
			Warnings: r.Warnings,
		},
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
