package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var out jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Rows, 4)
	assert.Equal(t, "/photos/a.png", out.Rows[0].Path)
	assert.Equal(t, "optimized", out.Rows[0].Action)
	assert.Equal(t, "120ms", out.Rows[0].Duration)
	assert.Equal(t, "webp", out.Rows[1].Format)
	assert.Equal(t, "file not found", out.Rows[3].Error)

	assert.Equal(t, 4, out.Stats.Requested)
	assert.Equal(t, 2, out.Stats.Succeeded)
	assert.Equal(t, "1s", out.Stats.Duration)
	assert.InDelta(t, 46.9, out.Stats.SavingsPercent, 0.5)
}

func TestJSONFormatterArchiveAndWarnings(t *testing.T) {
	r := sampleResult()
	r.Archive = "/photos/batch.zip"
	r.Warnings = []string{"boom"}

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))

	var out jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "/photos/batch.zip", out.Meta.Archive)
	assert.Equal(t, []string{"boom"}, out.Meta.Warnings)
}

func TestJSONLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	for _, line := range lines {
		var row jsonRow
		require.NoError(t, json.Unmarshal([]byte(line), &row), "each line is standalone JSON")
	}

	var first jsonRow
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "/photos/a.png", first.Path)
}

func TestJSONLFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, &Result{}))
	assert.Zero(t, buf.Len())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleResult()))

	var out yamlOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Rows, 4)
	assert.Equal(t, "/photos/b.webp", out.Rows[1].Output)
	assert.Equal(t, 4, out.Stats.Requested)
}
