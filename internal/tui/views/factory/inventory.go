// Package factory provides TUI views for the physical factory: stock,
// resource nodes and placed machines.
package factory

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/tui/components"
)

// Source is the engine surface the factory views read from.
type Source interface {
	Catalog() *catalog.Catalog
	Inventory() []models.InventoryEntry
	ResourceCap() float64
	DiscoveredNodes() []models.ResourceNode
	Player() models.Position
	MachinesOnNode(nodeID string) []models.PlacedMachine
	MaxMachinesPerNode() int
	Machines() []models.PlacedMachine
	ExtractionRate(machineID string) float64
	ActiveCraft(machineID string) (models.CraftingProcess, bool)
}

// InventoryView lists held items and machines waiting to be placed.
type InventoryView struct {
	src      Source
	table    *components.Table
	entries  []models.InventoryEntry
	unplaced map[string]int
	styles   components.Styles
}

// NewInventoryView creates an inventory view.
func NewInventoryView(src Source) *InventoryView {
	table := components.NewTable([]components.Column{
		{Title: "Item", Width: 16},
		{Title: "Name", Width: 22},
		{Title: "Category", Width: 20},
		{Title: "Amount", Width: 10, Align: lipgloss.Right},
		{Title: "Cap", Width: 5, Align: lipgloss.Right},
	})
	table.Focus(true)

	return &InventoryView{
		src:    src,
		table:  table,
		styles: components.DefaultStyles(),
	}
}

// SetStyles sets the palette.
func (v *InventoryView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// Refresh reloads the inventory from the engine.
func (v *InventoryView) Refresh() {
	v.entries = v.src.Inventory()
	cat := v.src.Catalog()
	limit := v.src.ResourceCap()

	rows := make([][]string, 0, len(v.entries))
	for _, e := range v.entries {
		category := "-"
		if def, ok := cat.Item(e.ItemID); ok {
			category = string(def.Category)
		}
		rows = append(rows, []string{
			e.ItemID,
			e.Name,
			category,
			formatAmount(e.Amount),
			components.Percent(e.Amount / limit),
		})
	}
	v.table.SetRows(rows)

	v.unplaced = make(map[string]int)
	for _, e := range v.entries {
		if _, ok := cat.Machine(e.ItemID); ok && e.Amount >= 1 {
			v.unplaced[e.ItemID] = int(e.Amount)
		}
	}
}

// MoveUp moves the selection up.
func (v *InventoryView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *InventoryView) MoveDown() {
	v.table.MoveDown()
}

// SelectedEntry returns the selected inventory entry.
func (v *InventoryView) SelectedEntry() (models.InventoryEntry, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.entries) {
		return v.entries[idx], true
	}
	return models.InventoryEntry{}, false
}

// Render renders the inventory view.
func (v *InventoryView) Render(width, height int) string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== INVENTORY ==="))
	b.WriteString("\n\n")

	v.table.SetVisibleRows(max(height-8, 3))
	if v.table.Empty() {
		b.WriteString(v.styles.Label.Render("Inventory is empty."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.Render())
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Label.Render("Machines in storage: "))
	if len(v.unplaced) == 0 {
		b.WriteString(v.styles.Muted.Render("none"))
	} else {
		cat := v.src.Catalog()
		parts := make([]string, 0, len(v.unplaced))
		for _, def := range cat.Machines() {
			if n := v.unplaced[def.ID]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s x%d", def.Name, n))
			}
		}
		b.WriteString(v.styles.Value.Render(strings.Join(parts, ", ")))
	}
	b.WriteString("\n\n")

	help := "Up/Down:Select"
	if width < 60 {
		help = "Up/Dn"
	}
	b.WriteString(v.styles.Muted.Render(help))

	return b.String()
}

func formatAmount(a float64) string {
	if a == float64(int64(a)) {
		return fmt.Sprintf("%d", int64(a))
	}
	return fmt.Sprintf("%.2f", a)
}
