package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style
	Border    lipgloss.Style
	ErrorBox  lipgloss.Style
	Action    lipgloss.Style
	FilterKey lipgloss.Style
	Table     table.Styles
}

// DefaultStyles returns the default lipgloss styles. With noColor only
// bold and borders remain.
func DefaultStyles(noColor bool) Styles {
	color := func(c string) lipgloss.TerminalColor {
		if noColor {
			return lipgloss.NoColor{}
		}
		return lipgloss.Color(c)
	}

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(color("240")).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(color("230")).
		Background(color("63")).
		Bold(true)
	if noColor {
		ts.Selected = lipgloss.NewStyle().Reverse(true)
	}

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(color("241")),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color("63")).
			Padding(0, 1),
		ErrorBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color("196")).
			Padding(0, 1),
		Action: lipgloss.NewStyle().
			Foreground(color("86")), // Cyan
		FilterKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(color("63")),
		Table: ts,
	}
}
