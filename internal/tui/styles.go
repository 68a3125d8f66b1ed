// Package tui provides the terminal user interface for Oreline.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oreline/oreline/internal/config"
	"github.com/oreline/oreline/internal/tui/components"
)

// palette is the raw colors of one color scheme.
type palette struct {
	primary, secondary, accent lipgloss.Color
	background, muted          lipgloss.Color
	errorColor, warning        lipgloss.Color
	statusBackground           lipgloss.Color
}

// Theme contains all style definitions for the TUI.
type Theme struct {
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Accent    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Box      lipgloss.Style
	Selected lipgloss.Style
	Focused  lipgloss.Style

	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	TableHeader lipgloss.Style
	TableRow    lipgloss.Style
	TableRowAlt lipgloss.Style

	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
}

// NewTheme creates a theme for the configured color scheme.
func NewTheme(scheme config.ColorScheme) *Theme {
	switch scheme {
	case config.ColorSchemeAmber:
		return buildTheme(palette{
			primary:          "#FFAA00",
			secondary:        "#AA7700",
			accent:           "#FFCC66",
			background:       "#000000",
			muted:            "#664400",
			errorColor:       "#FF4444",
			warning:          "#FFFF00",
			statusBackground: "#110800",
		})
	case config.ColorSchemeWhite:
		return buildTheme(palette{
			primary:          "#FFFFFF",
			secondary:        "#AAAAAA",
			accent:           "#FFFFFF",
			background:       "#000000",
			muted:            "#666666",
			errorColor:       "#FF4444",
			warning:          "#FFAA00",
			statusBackground: "#111111",
		})
	default:
		return buildTheme(palette{
			primary:          "#00FF00",
			secondary:        "#00AA00",
			accent:           "#66FF66",
			background:       "#000000",
			muted:            "#006600",
			errorColor:       "#FF4444",
			warning:          "#FFAA00",
			statusBackground: "#001100",
		})
	}
}

func buildTheme(p palette) *Theme {
	t := &Theme{
		Primary:   lipgloss.NewStyle().Foreground(p.primary),
		Secondary: lipgloss.NewStyle().Foreground(p.secondary),
		Accent:    lipgloss.NewStyle().Foreground(p.accent),
		Error:     lipgloss.NewStyle().Foreground(p.errorColor),
		Warning:   lipgloss.NewStyle().Foreground(p.warning),
		Muted:     lipgloss.NewStyle().Foreground(p.muted),
	}

	t.Header = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(p.secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.Label = lipgloss.NewStyle().Foreground(p.secondary)
	t.Value = lipgloss.NewStyle().Foreground(p.primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.secondary).
		Padding(0, 1)

	t.Selected = lipgloss.NewStyle().
		Foreground(p.background).
		Background(p.primary).
		Bold(true)

	t.Focused = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.Alert = lipgloss.NewStyle().
		Foreground(p.primary).
		Bold(true)

	t.AlertWarn = lipgloss.NewStyle().
		Foreground(p.warning).
		Bold(true)

	t.AlertCrit = lipgloss.NewStyle().
		Foreground(p.errorColor).
		Bold(true).
		Blink(true)

	t.TableHeader = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.TableRow = lipgloss.NewStyle().Foreground(p.primary)
	t.TableRowAlt = lipgloss.NewStyle().Foreground(p.secondary)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(p.secondary).
		Background(p.statusBackground).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(p.accent).
		Bold(true)

	t.StatusValue = lipgloss.NewStyle().Foreground(p.primary)

	return t
}

// Styles returns the widget palette for this theme.
func (t *Theme) Styles() components.Styles {
	return components.Styles{
		Header:   t.TableHeader,
		Row:      t.TableRow,
		RowAlt:   t.TableRowAlt,
		Selected: t.Selected,
		Border:   t.Secondary,
		Label:    t.Label,
		Value:    t.Value,
		Focus:    t.Focused,
		Muted:    t.Muted,
		Error:    t.Error,
		Title:    t.Title,
	}
}

// Box characters for drawing
const (
	BoxHorizontal       = "─"
	BoxDoubleHorizontal = "═"
)

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Secondary.Render(strings.Repeat(BoxHorizontal, max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat(BoxDoubleHorizontal, max(width, 0)))
}
