// Package ui renders CLI output: status lines, tables, markdown and
// spinners.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/ehrquery/pkg/frame"
)

var (
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// NullText is how NULL values are shown in tables.
const NullText = "NULL"

// Interactive reports whether stdout is a terminal that accepts styling.
func Interactive() bool {
	return !color.NoColor
}

// PrintSuccess prints a success message.
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message.
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints a dimmed informational line.
func PrintInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SecondaryStyle.Render(fmt.Sprintf(format, args...)))
}

// PrintTitle prints a bold heading.
func PrintTitle(w io.Writer, title string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
}

// PrintList prints a bulleted list.
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}

// PrintTable prints a table using pterm.
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}

// PrintFrame prints at most maxRows rows of f as a table, followed by a
// row count. maxRows <= 0 prints every row.
func PrintFrame(w io.Writer, f *frame.Frame, maxRows int) error {
	headers, rows := FrameTable(f, maxRows)
	if len(headers) == 0 {
		PrintInfo(w, "(no columns)")
		return nil
	}
	if err := PrintTable(w, headers, rows); err != nil {
		return err
	}
	if len(rows) < f.Len() {
		PrintInfo(w, "%d of %d rows", len(rows), f.Len())
	} else {
		PrintInfo(w, "%d rows", f.Len())
	}
	return nil
}

// FrameTable formats f as table cells.
func FrameTable(f *frame.Frame, maxRows int) ([]string, [][]string) {
	n := f.Len()
	if maxRows > 0 && maxRows < n {
		n = maxRows
	}
	rows := make([][]string, n)
	for i := range n {
		row := f.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		rows[i] = cells
	}
	return f.ColumnNames(), rows
}

// FormatValue renders a frame value for display.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return NullText
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.DateTime)
	default:
		return fmt.Sprint(v)
	}
}

// MarkdownTable builds a markdown document with a heading and a table.
func MarkdownTable(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

// PrintMarkdown renders markdown with glamour. Without a terminal the
// source is printed unchanged.
func PrintMarkdown(w io.Writer, content string) error {
	if !Interactive() {
		_, err := io.WriteString(w, content)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Spinner shows progress on a terminal and is silent otherwise.
type Spinner struct {
	printer *pterm.SpinnerPrinter
}

// StartSpinner starts a spinner writing to w.
func StartSpinner(w io.Writer, text string) *Spinner {
	if !Interactive() {
		return &Spinner{}
	}
	p, err := pterm.DefaultSpinner.WithWriter(w).WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return &Spinner{}
	}
	return &Spinner{printer: p}
}

// Update changes the spinner text.
func (s *Spinner) Update(text string) {
	if s.printer != nil {
		s.printer.UpdateText(text)
	}
}

// Stop removes the spinner.
func (s *Spinner) Stop() {
	if s.printer != nil {
		_ = s.printer.Stop()
		s.printer = nil
	}
}
