package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func numberedRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{string(rune('a' + i))}
	}
	return rows
}

func TestNewTable(t *testing.T) {
	table := NewTable([]Column{{Title: "Item", Width: 10}, {Title: "Amount", Width: 8}})
	if table == nil {
		t.Fatal("Expected non-nil table")
	}
	if !table.Empty() {
		t.Error("New table should be empty")
	}
	if table.SelectedRow() != nil {
		t.Errorf("SelectedRow() = %v, want nil", table.SelectedRow())
	}
}

func TestTable_Navigation(t *testing.T) {
	table := NewTable([]Column{{Title: "ID", Width: 5}})
	table.SetRows(numberedRows(5))

	steps := []struct {
		name string
		move func()
		want int
	}{
		{"Down", table.MoveDown, 1},
		{"Up", table.MoveUp, 0},
		{"Up stops at top", table.MoveUp, 0},
		{"Bottom", table.GoToBottom, 4},
		{"Down stops at bottom", table.MoveDown, 4},
		{"Top", table.GoToTop, 0},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			step.move()
			if got := table.Selected(); got != step.want {
				t.Errorf("Selected() = %d, want %d", got, step.want)
			}
		})
	}
}

func TestTable_SetRowsClampsSelection(t *testing.T) {
	table := NewTable([]Column{{Title: "ID", Width: 5}})
	table.SetRows(numberedRows(5))
	table.GoToBottom()

	table.SetRows(numberedRows(2))
	if table.Selected() != 1 {
		t.Errorf("Selected() = %d, want 1", table.Selected())
	}

	table.SetRows(nil)
	if table.Selected() != 0 || table.SelectedRow() != nil {
		t.Errorf("empty table Selected() = %d, row = %v", table.Selected(), table.SelectedRow())
	}
}

func TestTable_Scrolling(t *testing.T) {
	table := NewTable([]Column{{Title: "ID", Width: 5}})
	table.SetVisibleRows(3)
	table.SetRows(numberedRows(6))

	for range 4 {
		table.MoveDown()
	}

	out := table.Render()
	if !strings.Contains(out, "3-5 of 6") {
		t.Errorf("Render() missing scroll indicator:\n%s", out)
	}
	if strings.Contains(out, " a ") {
		t.Errorf("Render() shows a scrolled-off row:\n%s", out)
	}
	if !strings.Contains(out, "e") {
		t.Errorf("Render() missing selected row:\n%s", out)
	}
}

func TestTable_Render(t *testing.T) {
	table := NewTable([]Column{
		{Title: "Item", Width: 8},
		{Title: "Amount", Width: 6, Align: lipgloss.Right},
	})
	table.SetRows([][]string{
		{"ironOre", "42"},
		{"a-very-long-item-name", "1"},
	})

	out := table.Render()

	t.Run("Headers", func(t *testing.T) {
		if !strings.Contains(out, "Item") || !strings.Contains(out, "Amount") {
			t.Errorf("Render() missing headers:\n%s", out)
		}
	})

	t.Run("Right aligned", func(t *testing.T) {
		if !strings.Contains(out, "    42") {
			t.Errorf("Render() amount not right aligned:\n%s", out)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		if !strings.Contains(out, "a-very-…") {
			t.Errorf("Render() long cell not truncated:\n%s", out)
		}
	})

	t.Run("No indicator when everything fits", func(t *testing.T) {
		if strings.Contains(out, " of ") {
			t.Errorf("Render() shows scroll indicator:\n%s", out)
		}
	})
}
