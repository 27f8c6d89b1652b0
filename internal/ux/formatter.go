package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data interface{}) error
}

// Tabular is data that can be drawn as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables colored output for text and table formatters
	NoColor bool
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"table", "text", "json", "yaml"}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml":
		return &YAMLFormatter{opts: opts}, nil
	case "table":
		return &TableFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: table, text, json, yaml)", format)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data interface{}) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data interface{}) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// TableFormatter draws Tabular data with a rounded border.
type TableFormatter struct {
	opts *FormatterOptions
}

// Format writes data as a table. Data must implement Tabular.
func (f *TableFormatter) Format(data interface{}) error {
	tab, ok := data.(Tabular)
	if !ok {
		return fmt.Errorf("table formatter requires tabular data, got %T", data)
	}

	rows := tab.Rows()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(f.opts.Writer, "No records.")
		return err
	}

	_, err := fmt.Fprintln(f.opts.Writer, RenderTable(tab.Headers(), rows, f.opts.NoColor))
	return err
}

// RenderTable draws headers and rows with lipgloss.
func RenderTable(headers []string, rows [][]string, noColor bool) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	borderStyle := lipgloss.NewStyle()
	if !noColor {
		headerStyle = headerStyle.Foreground(lipgloss.Color("12"))
		borderStyle = borderStyle.Foreground(lipgloss.Color("8"))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.Render()
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	opts *FormatterOptions
}

// Format writes data as formatted text. Data must be a string, a
// fmt.Stringer or Tabular.
func (f *TextFormatter) Format(data interface{}) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	case Tabular:
		return (&TableFormatter{opts: &FormatterOptions{Writer: f.opts.Writer, NoColor: true}}).Format(v)
	default:
		return fmt.Errorf("text formatter requires data to implement String() method or be a primitive type")
	}
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TableFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
