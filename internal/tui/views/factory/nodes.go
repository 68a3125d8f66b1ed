package factory

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/tui/components"
)

// NodesView lists discovered resource nodes in discovery order.
type NodesView struct {
	src    Source
	table  *components.Table
	nodes  []models.ResourceNode
	player models.Position
	styles components.Styles
}

// NewNodesView creates a node list view.
func NewNodesView(src Source) *NodesView {
	table := components.NewTable([]components.Column{
		{Title: "Node", Width: 10},
		{Title: "Type", Width: 16},
		{Title: "Pos", Width: 9},
		{Title: "Dist", Width: 5, Align: lipgloss.Right},
		{Title: "Remaining", Width: 10, Align: lipgloss.Right},
		{Title: "Left", Width: 5, Align: lipgloss.Right},
		{Title: "Miners", Width: 6, Align: lipgloss.Center},
	})
	table.Focus(true)

	return &NodesView{
		src:    src,
		table:  table,
		styles: components.DefaultStyles(),
	}
}

// SetStyles sets the palette.
func (v *NodesView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// Refresh reloads discovered nodes and the player position.
func (v *NodesView) Refresh() {
	v.player = v.src.Player()
	v.nodes = v.src.DiscoveredNodes()
	cat := v.src.Catalog()
	maxPer := v.src.MaxMachinesPerNode()

	rows := make([][]string, 0, len(v.nodes))
	for _, n := range v.nodes {
		left := "EMPTY"
		if !n.IsDepleted() {
			left = fmt.Sprintf("%.0f%%", n.PercentRemaining())
		}
		rows = append(rows, []string{
			shortID(n.ID),
			cat.Name(n.Type),
			fmt.Sprintf("%d,%d", n.Position.X, n.Position.Y),
			fmt.Sprintf("%.1f", math.Sqrt(float64(v.player.DistanceSq(n.Position)))),
			formatAmount(n.Remaining),
			left,
			fmt.Sprintf("%d/%d", len(v.src.MachinesOnNode(n.ID)), maxPer),
		})
	}
	v.table.SetRows(rows)
}

// MoveUp moves the selection up.
func (v *NodesView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *NodesView) MoveDown() {
	v.table.MoveDown()
}

// SelectedNode returns the selected node.
func (v *NodesView) SelectedNode() (models.ResourceNode, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.nodes) {
		return v.nodes[idx], true
	}
	return models.ResourceNode{}, false
}

// Render renders the node list.
func (v *NodesView) Render(width, height int) string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== RESOURCE NODES ==="))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Label.Render("Player at: "))
	b.WriteString(v.styles.Value.Render(fmt.Sprintf("%d,%d", v.player.X, v.player.Y)))
	b.WriteString("\n\n")

	v.table.SetVisibleRows(max(height-10, 3))
	if v.table.Empty() {
		b.WriteString(v.styles.Label.Render("No nodes discovered. Move to explore."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.Render())
	}

	if n, ok := v.SelectedNode(); ok {
		def, _ := v.src.Catalog().Node(n.Type)
		b.WriteString("\n")
		b.WriteString(v.styles.Label.Render("Yields "))
		b.WriteString(v.styles.Value.Render(v.src.Catalog().Name(def.Output)))
		b.WriteString(v.styles.Label.Render(" via "))
		b.WriteString(v.styles.Value.Render(v.src.Catalog().Name(def.MachineRequired)))
		if def.ManualMineable {
			b.WriteString(v.styles.Label.Render(" or by hand"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "Up/Down:Select  m:Mine  p:Place miner  w/a/s/d:Move"
	if width < 60 {
		help = "m:Mine p:Place wasd:Move"
	}
	b.WriteString(v.styles.Muted.Render(help))

	return b.String()
}

func shortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:8]
}
