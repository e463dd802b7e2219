package types

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "empty means same", input: "", want: FormatSame},
		{name: "same", input: "same", want: FormatSame},
		{name: "jpg", input: "jpg", want: FormatJPEG},
		{name: "jpeg alias", input: "jpeg", want: FormatJPEG},
		{name: "uppercase", input: "PNG", want: FormatPNG},
		{name: "webp", input: "webp", want: FormatWebP},
		{name: "whitespace trimmed", input: "  png  ", want: FormatPNG},
		{name: "heic rejected", input: "heic", wantErr: true},
		{name: "gif rejected as target", input: "gif", wantErr: true},
		{name: "garbage rejected", input: "not-a-format", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatExt(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatSame, ""},
		{FormatJPEG, "jpg"},
		{FormatWebP, "webp"},
		{FormatPNG, "png"},
	}

	for _, tt := range tests {
		if got := tt.format.Ext(); got != tt.want {
			t.Errorf("Format(%q).Ext() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestTransformRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     TransformRequest
		wantErr error
	}{
		{
			name: "valid optimize",
			req:  TransformRequest{SourcePath: "/tmp/a.png", Target: FormatSame},
		},
		{
			name: "valid conversion",
			req:  TransformRequest{SourcePath: "/tmp/a.png", Target: FormatWebP, Overwrite: true},
		},
		{
			name:    "empty source",
			req:     TransformRequest{Target: FormatSame},
			wantErr: ErrNotFound,
		},
		{
			name:    "unknown target",
			req:     TransformRequest{SourcePath: "/tmp/a.png", Target: Format("bmp")},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "empty target is invalid at request level",
			req:     TransformRequest{SourcePath: "/tmp/a.png", Target: Format("")},
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransformOutcomeSavingsPercent(t *testing.T) {
	tests := []struct {
		name    string
		outcome TransformOutcome
		want    float64
	}{
		{name: "half saved", outcome: TransformOutcome{OriginalSize: 1000, SavedBytes: 500}, want: 50},
		{name: "nothing saved", outcome: TransformOutcome{OriginalSize: 1000, SavedBytes: 0}, want: 0},
		{name: "zero original", outcome: TransformOutcome{OriginalSize: 0, SavedBytes: 0}, want: 0},
		{name: "quarter saved", outcome: TransformOutcome{OriginalSize: 4000, SavedBytes: 1000}, want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.SavingsPercent(); got != tt.want {
				t.Errorf("SavingsPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonitorContains(t *testing.T) {
	m := Monitor{X: 100, Y: 50, Width: 1920, Height: 1080}

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{name: "top-left corner", x: 100, y: 50, want: true},
		{name: "interior", x: 500, y: 500, want: true},
		{name: "right edge exclusive", x: 2020, y: 500, want: false},
		{name: "bottom edge exclusive", x: 500, y: 1130, want: false},
		{name: "left of monitor", x: 99, y: 500, want: false},
		{name: "above monitor", x: 500, y: 49, want: false},
		{name: "last contained pixel", x: 2019, y: 1129, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "bytes with B suffix", input: "512B", want: 512},
		{name: "kilobytes", input: "100K", want: 100 * 1024},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * 1024},
		{name: "megabytes", input: "50MB", want: 50 * 1024 * 1024},
		{name: "gigabytes", input: "2G", want: 2 * 1024 * 1024 * 1024},
		{name: "decimal truncated", input: "1.5G", want: 1610612736},
		{name: "whitespace", input: "  100M  ", want: 100 * 1024 * 1024},
		{name: "empty string", input: "", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 500, want: "500 B"},
		{name: "kilobytes", bytes: 1024, want: "1.0 KiB"},
		{name: "megabytes", bytes: 1024 * 1024, want: "1.0 MiB"},
		{name: "mixed size", bytes: 1536 * 1024, want: "1.5 MiB"},
		{name: "negative delta", bytes: -1024, want: "-1.0 KiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSize(tt.bytes); got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
