package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrinterFlagWins(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, OutputJSON, OutputTable)
	assert.True(t, p.JSON())
}

func TestNewPrinterFallsBackToConfigDefault(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "", OutputSimple)
	assert.Equal(t, OutputSimple, p.Format)
}

func TestTableJSONMode(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: OutputJSON}
	require.NoError(t, p.Table("Logs", []string{"Name", "ID"}, [][]string{
		{"audit", "abc"},
		{"firewall"},
	}))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "audit", rows[0]["Name"])
	assert.Equal(t, "", rows[1]["ID"])
}

func TestTableSimpleMode(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: OutputSimple}
	require.NoError(t, p.Table("Logs", []string{"Name", "ID"}, [][]string{{"audit", "abc"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name\tID", lines[0])
	assert.Equal(t, "audit\tabc", lines[1])
}

func TestTableModeIncludesTitleAndCells(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: OutputTable}
	require.NoError(t, p.Table("Logs", []string{"Name"}, [][]string{{"audit"}}))

	out := buf.String()
	assert.Contains(t, out, "Logs")
	assert.Contains(t, out, "audit")
}

func TestDimSuppressedInJSONMode(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: OutputJSON}
	p.Dim("using cached result")
	assert.Empty(t, buf.String())

	p.Format = OutputTable
	p.Dim("using cached result")
	assert.Contains(t, buf.String(), "using cached result")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "lon...", Truncate("longer text", 3))
	assert.Equal(t, "untouched", Truncate("untouched", 0))
}

func TestTimestampMillis(t *testing.T) {
	assert.Empty(t, TimestampMillis(0))
	got := TimestampMillis(1735689600000)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, got)
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "512 B", Bytes(512))
	assert.Equal(t, "1.0 KiB", Bytes(1024))
	assert.Equal(t, "2.5 MiB", Bytes(2621440))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", Cell(nil))
	assert.Equal(t, "x", Cell("x"))
	assert.Equal(t, "42", Cell(float64(42)))
	assert.Equal(t, "1.5", Cell(float64(1.5)))
	assert.Equal(t, "a, b", Cell([]any{"a", "b"}))
}
