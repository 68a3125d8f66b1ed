// Package production provides TUI views for crafting, milestone progress
// and machine construction.
package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/tui/components"
	"github.com/oreline/oreline/internal/util"
)

// Source is the engine surface the production views read from.
type Source interface {
	Catalog() *catalog.Catalog
	Clock() *util.GameClock
	Machines() []models.PlacedMachine
	CraftingQueue() []models.CraftingProcess
	Milestones() []models.Milestone
	CurrentMilestone() (models.Milestone, bool)
	MilestoneProgress() []models.RequirementProgress
	CanCompleteCurrentMilestone() bool
	IsUnlocked(machineType string) bool
	CanAfford(cost models.ItemAmounts) bool
	Amount(itemID string) float64
}

// CraftRequest is a submitted crafting form.
type CraftRequest struct {
	MachineID string
	RecipeID  string
	Quantity  int
}

// CraftingView lists crafting processes and hosts the new-craft form.
type CraftingView struct {
	src       Source
	table     *components.Table
	processes []models.CraftingProcess
	now       time.Time
	styles    components.Styles

	form        *components.Form
	formMachine *components.Select
	formRecipe  *components.Select
	formQty     *components.Input
	machineIDs  []string
	recipeIDs   []string
}

// NewCraftingView creates a crafting view.
func NewCraftingView(src Source) *CraftingView {
	table := components.NewTable([]components.Column{
		{Title: "Process", Width: 10},
		{Title: "Item", Width: 18},
		{Title: "Machine", Width: 10},
		{Title: "Status", Width: 10},
		{Title: "Units", Width: 7},
		{Title: "Unit", Width: 6},
		{Title: "Batch", Width: 14},
	})
	table.Focus(true)

	return &CraftingView{
		src:    src,
		table:  table,
		styles: components.DefaultStyles(),
	}
}

// SetStyles sets the palette.
func (v *CraftingView) SetStyles(s components.Styles) {
	v.styles = s
	v.table.SetStyles(s)
}

// Refresh reloads the crafting queue.
func (v *CraftingView) Refresh() {
	v.now = v.src.Clock().Now()
	v.processes = v.src.CraftingQueue()

	rows := make([][]string, 0, len(v.processes))
	for _, p := range v.processes {
		status := p.Status.String()
		if p.Halted {
			status = "HALTED"
		}
		unit := "-"
		if p.Status.IsActive() && p.UnitTime > 0 {
			unit = components.Percent(float64(p.UnitElapsed(v.now)) / float64(p.UnitTime))
		}
		rows = append(rows, []string{
			util.ShortID(p.ID),
			p.ItemName,
			util.ShortID(p.MachineID),
			status,
			fmt.Sprintf("%d/%d", p.UnitsCompleted, p.Quantity),
			unit,
			components.Bar(p.Fraction(v.now), 14),
		})
	}
	v.table.SetRows(rows)
}

// MoveUp moves the selection up.
func (v *CraftingView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *CraftingView) MoveDown() {
	v.table.MoveDown()
}

// SelectedProcess returns the selected crafting process.
func (v *CraftingView) SelectedProcess() (models.CraftingProcess, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.processes) {
		return v.processes[idx], true
	}
	return models.CraftingProcess{}, false
}

// ============================================================================
// NEW CRAFT FORM
// ============================================================================

// OpenForm starts the new-craft form. It returns false when no placed
// machine can run a recipe.
func (v *CraftingView) OpenForm() bool {
	cat := v.src.Catalog()

	v.machineIDs = v.machineIDs[:0]
	var machineLabels []string
	for _, m := range v.src.Machines() {
		if m.IsProcessing() && len(cat.RecipesFor(m.Type)) > 0 {
			v.machineIDs = append(v.machineIDs, m.ID)
			machineLabels = append(machineLabels, cat.Name(m.Type)+" "+util.ShortID(m.ID))
		}
	}
	if len(v.machineIDs) == 0 {
		return false
	}

	v.formRecipe = nil
	v.formMachine = components.NewSelect("Machine", machineLabels).SetStyles(v.styles)
	v.formQty = components.NewNumberInput("Quantity").SetValue("1").SetStyles(v.styles)
	v.form = components.NewForm("START CRAFT").SetStyles(v.styles)
	v.form.AddField(v.formMachine)
	v.rebuildRecipes()
	v.form.AddField(v.formRecipe).AddField(v.formQty)
	return true
}

// rebuildRecipes refreshes the recipe options for the chosen machine.
func (v *CraftingView) rebuildRecipes() {
	cat := v.src.Catalog()
	machines := v.src.Machines()

	v.recipeIDs = v.recipeIDs[:0]
	var labels []string
	chosen := v.machineIDs[v.formMachine.SelectedIndex()]
	for _, m := range machines {
		if m.ID != chosen {
			continue
		}
		for _, r := range cat.RecipesFor(m.Type) {
			v.recipeIDs = append(v.recipeIDs, r.ID)
			labels = append(labels, r.Name)
		}
	}

	focused := v.formRecipe != nil && v.formRecipe.IsFocused()
	if v.formRecipe == nil {
		v.formRecipe = components.NewSelect("Recipe", labels).SetStyles(v.styles)
		return
	}
	// Swap options in place so the form keeps its field order.
	*v.formRecipe = *components.NewSelect("Recipe", labels).SetStyles(v.styles)
	v.formRecipe.Focus(focused)
}

// FormOpen reports whether the new-craft form is showing.
func (v *CraftingView) FormOpen() bool {
	return v.form != nil
}

// HandleFormKey routes a key to the form. It returns a request when the form
// is submitted with valid values; cancelled reports that the form closed.
func (v *CraftingView) HandleFormKey(key string) (req *CraftRequest, cancelled bool) {
	if v.form == nil {
		return nil, false
	}

	before := v.formMachine.SelectedIndex()
	v.form.HandleKey(key)
	if v.formMachine.SelectedIndex() != before {
		v.rebuildRecipes()
	}

	if v.form.IsCancelled() {
		v.CloseForm()
		return nil, true
	}
	if !v.form.IsSubmitted() {
		return nil, false
	}

	qty, err := v.formQty.Int()
	if err != nil {
		v.form.SetError(err.Error())
		v.form.Reopen()
		return nil, false
	}
	if len(v.recipeIDs) == 0 {
		v.form.SetError("machine has no recipes")
		v.form.Reopen()
		return nil, false
	}

	return &CraftRequest{
		MachineID: v.machineIDs[v.formMachine.SelectedIndex()],
		RecipeID:  v.recipeIDs[v.formRecipe.SelectedIndex()],
		Quantity:  qty,
	}, false
}

// RejectForm shows an engine error on the open form.
func (v *CraftingView) RejectForm(err error) {
	if v.form == nil {
		return
	}
	v.form.SetError(err.Error())
	v.form.Reopen()
}

// CloseForm hides the new-craft form.
func (v *CraftingView) CloseForm() {
	v.form = nil
	v.formMachine = nil
	v.formRecipe = nil
	v.formQty = nil
}

// Render renders the crafting queue, or the form when it is open.
func (v *CraftingView) Render(width, height int) string {
	if v.form != nil {
		return v.form.Render()
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("=== CRAFTING ==="))
	b.WriteString("\n\n")

	v.table.SetVisibleRows(max(height-10, 3))
	if v.table.Empty() {
		b.WriteString(v.styles.Label.Render("No crafting processes. Press n to start one."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.Render())
	}

	if p, ok := v.SelectedProcess(); ok {
		b.WriteString("\n")
		b.WriteString(v.renderDetail(p))
	}

	b.WriteString("\n")
	help := "Up/Down:Select  n:New  p:Pause/Resume  x:Cancel  c:Clear finished"
	if width < 80 {
		help = "n:New p:Pause x:Cancel c:Clear"
	}
	b.WriteString(v.styles.Muted.Render(help))

	return b.String()
}

func (v *CraftingView) renderDetail(p models.CraftingProcess) string {
	var b strings.Builder
	label := v.styles.Label.Width(14)

	b.WriteString(label.Render("Started:"))
	b.WriteString(v.styles.Value.Render(util.FormatElapsed(p.StartedAt.Sub(v.src.Clock().Epoch()))))
	b.WriteString("\n")

	b.WriteString(label.Render("Unit time:"))
	b.WriteString(v.styles.Value.Render(util.FormatSeconds(p.UnitTime)))
	b.WriteString("\n")

	if ends, ok := p.UnitEndsAt(); ok {
		b.WriteString(label.Render("Next unit in:"))
		b.WriteString(v.styles.Value.Render(util.FormatSeconds(max(ends.Sub(v.now), 0))))
		b.WriteString("\n")
	}
	if p.Halted {
		b.WriteString(v.styles.Error.Render("Halted: " + p.HaltReason))
		b.WriteString("\n")
	}
	return b.String()
}
