package factory

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/tui/components"
)

// MachinesView lists placed machines with what each one is doing.
type MachinesView struct {
	src      Source
	table    *components.Table
	machines []models.PlacedMachine
	styles   components.Styles
}

// NewMachinesView creates a machine list view.
func NewMachinesView(src Source) *MachinesView {
	table := components.NewTable([]components.Column{
		{Title: "Machine", Width: 10},
		{Title: "Type", Width: 14},
		{Title: "State", Width: 17},
		{Title: "Target", Width: 18},
		{Title: "Activity", Width: 16, Align: lipgloss.Right},
	})
	table.Focus(true)

	return &MachinesView{
		src:    src,
		table:  table,
		styles: components.DefaultStyles(),
	}
}

// SetStyles sets the palette.
func (v *MachinesView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// Refresh reloads placed machines.
func (v *MachinesView) Refresh() {
	v.machines = v.src.Machines()
	cat := v.src.Catalog()

	rows := make([][]string, 0, len(v.machines))
	for _, m := range v.machines {
		target, activity := "-", "-"
		switch {
		case m.IsExtraction():
			if m.AssignedNodeID != "" {
				target = shortID(m.AssignedNodeID)
				activity = fmt.Sprintf("%.2f/s", v.src.ExtractionRate(m.ID))
			}
		default:
			if p, ok := v.src.ActiveCraft(m.ID); ok {
				target = cat.Name(p.RecipeID)
				verb := "craft"
				if p.Status == models.CraftStatusPaused {
					verb = "held"
				}
				activity = fmt.Sprintf("%s %d/%d", verb, p.UnitsCompleted, p.Quantity)
			} else if m.RecipeID != "" {
				target = cat.Name(m.RecipeID)
				activity = "auto"
			}
		}
		rows = append(rows, []string{
			shortID(m.ID),
			cat.Name(m.Type),
			m.State().String(),
			target,
			activity,
		})
	}
	v.table.SetRows(rows)
}

// MoveUp moves the selection up.
func (v *MachinesView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *MachinesView) MoveDown() {
	v.table.MoveDown()
}

// SelectedMachine returns the selected machine.
func (v *MachinesView) SelectedMachine() (models.PlacedMachine, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.machines) {
		return v.machines[idx], true
	}
	return models.PlacedMachine{}, false
}

// Render renders the machine list.
func (v *MachinesView) Render(width, height int) string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== MACHINES ==="))
	b.WriteString("\n\n")

	v.table.SetVisibleRows(max(height-8, 3))
	if v.table.Empty() {
		b.WriteString(v.styles.Label.Render("No machines placed."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.Render())
	}

	b.WriteString("\n")
	help := "Up/Down:Select  p:Pause/Resume  r:Recipe  u:Detach  n:Place processor"
	if width < 80 {
		help = "p:Pause r:Recipe u:Detach n:Place"
	}
	b.WriteString(v.styles.Muted.Render(help))

	return b.String()
}
