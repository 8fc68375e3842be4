package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"board-tracker/internal/models"
)

// Styles used by Output when colour is on.
var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleLevel   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleBold    = lipgloss.NewStyle().Bold(true)
	styleDim     = lipgloss.NewStyle().Faint(true)
	styleBox     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// Output writes command results either as text or, with --json, as JSON.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates an Output bound to cmd's writer and flags.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	w := cmd.OutOrStdout()
	return &Output{
		writer:       w,
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// DisableColor turns colour off regardless of the terminal.
func (o *Output) DisableColor() {
	o.colorEnabled = false
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON writes data as indented JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

func (o *Output) Success(format string, args ...interface{}) { o.line(styleSuccess, format, args...) }
func (o *Output) Error(format string, args ...interface{})   { o.line(styleError, format, args...) }
func (o *Output) Warning(format string, args ...interface{}) { o.line(styleWarning, format, args...) }
func (o *Output) Info(format string, args ...interface{})    { o.line(styleInfo, format, args...) }
func (o *Output) Bold(format string, args ...interface{})    { o.line(styleBold, format, args...) }
func (o *Output) Dim(format string, args ...interface{})     { o.line(styleDim, format, args...) }

func (o *Output) line(style lipgloss.Style, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.paint(style, fmt.Sprintf(format, args...)))
}

// paint applies style to text when colour is on.
func (o *Output) paint(style lipgloss.Style, text string) string {
	if !o.colorEnabled {
		return text
	}
	return style.Render(text)
}

func (o *Output) Green(text string) string   { return o.paint(styleSuccess, text) }
func (o *Output) Red(text string) string     { return o.paint(styleError, text) }
func (o *Output) DimText(text string) string { return o.paint(styleDim, text) }

// RunState renders the agent run flag.
func (o *Output) RunState(running bool) string {
	if running {
		return o.Green("● RUNNING")
	}
	return o.DimText("○ STOPPED")
}

// Level renders a journal level.
func (o *Output) Level(level string) string {
	label := strings.ToUpper(level)
	switch level {
	case models.LogLevelError:
		return o.Red(label)
	case models.LogLevelSuccess:
		return o.Green(label)
	default:
		return o.paint(styleLevel, label)
	}
}

// Table is a column-aligned text table.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

func NewTable(output *Output, headers ...string) *Table {
	return &Table{headers: headers, output: output}
}

func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the header, a dashed rule and every row. Column widths
// ignore styling.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	t.row(t.headers, widths, styleBold)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	t.output.Println(t.output.paint(styleDim, strings.Join(rule, "--")))
	for _, row := range t.rows {
		t.row(row, widths, lipgloss.NewStyle())
	}
}

func (t *Table) row(cells []string, widths []int, style lipgloss.Style) {
	parts := make([]string, 0, len(widths))
	for i := 0; i < len(cells) && i < len(widths); i++ {
		pad := strings.Repeat(" ", max(0, widths[i]-lipgloss.Width(cells[i])))
		parts = append(parts, t.output.paint(style, cells[i])+pad)
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

// Box draws a bordered panel with a title line above content.
func (o *Output) Box(title string, content []string) {
	body := append([]string{o.paint(styleBold, title), ""}, content...)
	o.Println(styleBox.Render(strings.Join(body, "\n")))
}
