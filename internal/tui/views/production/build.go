package production

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/tui/components"
)

// BuildView lists machine types with their cost and availability.
type BuildView struct {
	src    Source
	table  *components.Table
	defs   []catalog.MachineDef
	styles components.Styles
}

// NewBuildView creates a build menu view.
func NewBuildView(src Source) *BuildView {
	table := components.NewTable([]components.Column{
		{Title: "Machine", Width: 14},
		{Title: "Kind", Width: 10},
		{Title: "Cost", Width: 34},
		{Title: "Owned", Width: 5, Align: lipgloss.Right},
		{Title: "Status", Width: 10},
	})
	table.Focus(true)

	return &BuildView{
		src:    src,
		table:  table,
		styles: components.DefaultStyles(),
	}
}

// SetStyles sets the palette.
func (v *BuildView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// Refresh reloads machine availability.
func (v *BuildView) Refresh() {
	cat := v.src.Catalog()
	v.defs = cat.Machines()

	rows := make([][]string, 0, len(v.defs))
	for _, def := range v.defs {
		status := "READY"
		switch {
		case !v.src.IsUnlocked(def.ID):
			status = "LOCKED"
		case !v.src.CanAfford(def.BuildCost):
			status = "SHORT"
		}
		rows = append(rows, []string{
			def.Name,
			strings.ToLower(def.Kind.String()),
			formatCost(cat, def),
			fmt.Sprintf("%g", v.src.Amount(def.ID)),
			status,
		})
	}
	v.table.SetRows(rows)
}

func formatCost(cat *catalog.Catalog, def catalog.MachineDef) string {
	keys := def.BuildCost.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%g %s", def.BuildCost[k], cat.Name(k))
	}
	if len(parts) == 0 {
		return "free"
	}
	return strings.Join(parts, ", ")
}

// MoveUp moves the selection up.
func (v *BuildView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *BuildView) MoveDown() {
	v.table.MoveDown()
}

// SelectedMachine returns the selected machine definition.
func (v *BuildView) SelectedMachine() (catalog.MachineDef, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.defs) {
		return v.defs[idx], true
	}
	return catalog.MachineDef{}, false
}

// Render renders the build menu.
func (v *BuildView) Render(width, height int) string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== BUILD ==="))
	b.WriteString("\n\n")

	v.table.SetVisibleRows(max(height-8, 3))
	b.WriteString(v.table.Render())

	b.WriteString("\n")
	help := "Up/Down:Select  Enter/b:Build"
	if width < 60 {
		help = "b:Build"
	}
	b.WriteString(v.styles.Muted.Render(help))

	return b.String()
}
