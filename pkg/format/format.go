// Package format renders command output as JSON, bordered tables, or
// plain tab-separated text.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

// Output format names accepted by --output.
const (
	OutputSimple = "simple"
	OutputTable  = "table"
	OutputJSON   = "json"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Printer writes rendered output to a destination stream.
type Printer struct {
	Out    io.Writer
	Format string
}

// NewPrinter picks the effective format: an explicit flag wins, then a
// non-TTY stdout forces JSON so pipes get machine-readable output, then
// the configured default applies.
func NewPrinter(out io.Writer, flagFormat, configDefault string) *Printer {
	format := flagFormat
	if format == "" {
		if f, ok := out.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			format = OutputJSON
		} else {
			format = configDefault
		}
	}
	return &Printer{Out: out, Format: format}
}

// JSON reports whether the printer emits JSON.
func (p *Printer) JSON() bool { return p.Format == OutputJSON }

// WriteJSON pretty-prints v as indented JSON.
func (p *Printer) WriteJSON(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders headers and rows in the active format. JSON mode emits an
// array of objects keyed by header, simple mode emits tab-separated lines,
// table mode draws a bordered table.
func (p *Printer) Table(title string, headers []string, rows [][]string) error {
	switch p.Format {
	case OutputJSON:
		objs := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					obj[h] = row[i]
				} else {
					obj[h] = ""
				}
			}
			objs = append(objs, obj)
		}
		return p.WriteJSON(objs)
	case OutputSimple:
		fmt.Fprintln(p.Out, strings.Join(headers, "\t"))
		for _, row := range rows {
			fmt.Fprintln(p.Out, strings.Join(row, "\t"))
		}
		return nil
	default:
		if title != "" {
			fmt.Fprintln(p.Out, titleStyle.Render(title))
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle.Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			}).
			Headers(headers...).
			Rows(rows...)
		fmt.Fprintln(p.Out, t.Render())
		return nil
	}
}

// Dim prints a faint status line, suppressed in JSON mode to keep the
// stream parseable.
func (p *Printer) Dim(msg string, args ...any) {
	if p.JSON() {
		return
	}
	fmt.Fprintln(p.Out, dimStyle.Render(fmt.Sprintf(msg, args...)))
}

// Warn prints a highlighted warning line, suppressed in JSON mode.
func (p *Printer) Warn(msg string, args ...any) {
	if p.JSON() {
		return
	}
	fmt.Fprintln(p.Out, warnStyle.Render(fmt.Sprintf(msg, args...)))
}

// Error renders an error message for stderr.
func Error(msg string) string {
	return errStyle.Render(msg)
}

// Truncate cuts s to max runes, appending an ellipsis when cut. A max of
// zero disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

// TimestampMillis renders an epoch-milliseconds value as local time.
// Zero yields an empty string.
func TimestampMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

// Bytes renders a byte count with a binary unit suffix.
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Cell renders an arbitrary JSON value for a table cell. Lists join with
// commas, nil becomes empty, everything else stringifies.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, Cell(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
