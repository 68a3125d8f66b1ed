// Package components provides reusable TUI widgets.
package components

import "github.com/charmbracelet/lipgloss"

// Styles is the palette a widget renders with. The tui package fills it
// from the active theme.
type Styles struct {
	Header   lipgloss.Style
	Row      lipgloss.Style
	RowAlt   lipgloss.Style
	Selected lipgloss.Style
	Border   lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Focus    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Title    lipgloss.Style
}

// DefaultStyles is the green phosphor palette.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#66FF66")),
		Row:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		RowAlt:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		Selected: lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000")),
		Border:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Focus:    lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#006600")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")),
		Title:    lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true),
	}
}
