package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/machines"
)

var (
	errNoProcessor     = errors.New("place a processing machine first")
	errNoMinerForNode  = errors.New("this node has no extraction machine type")
	errNoProcessorItem = errors.New("no processing machine in storage; build one on F8")
	errNoRecipes       = errors.New("this machine has no recipes")
)

// handleInventoryKeys handles key presses in the inventory module.
func (a *App) handleInventoryKeys(msg tea.KeyMsg) {
	switch {
	case a.keys.Up.Matches(msg):
		a.inventoryView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.inventoryView.MoveDown()
	}
}

// handleNodeKeys handles movement, manual mining and miner placement.
func (a *App) handleNodeKeys(msg tea.KeyMsg) {
	switch {
	case a.keys.Up.Matches(msg):
		a.nodesView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.nodesView.MoveDown()
	case a.keys.MoveNorth.Matches(msg):
		a.walk(0, -1)
	case a.keys.MoveSouth.Matches(msg):
		a.walk(0, 1)
	case a.keys.MoveWest.Matches(msg):
		a.walk(-1, 0)
	case a.keys.MoveEast.Matches(msg):
		a.walk(1, 0)
	case a.keys.Mine.Matches(msg):
		node, ok := a.nodesView.SelectedNode()
		if !ok {
			return
		}
		mined, err := a.engine.ManualMine(node.ID)
		if err != nil {
			a.fail(err)
			return
		}
		cat := a.engine.Catalog()
		output := node.Type
		if def, ok := cat.Node(node.Type); ok {
			output = def.Output
		}
		a.AddAlert(AlertInfo, fmt.Sprintf("Mined %g %s", mined, cat.Name(output)))
	case a.keys.Place.Matches(msg):
		node, ok := a.nodesView.SelectedNode()
		if !ok {
			return
		}
		def, ok := a.engine.Catalog().Node(node.Type)
		if !ok || def.MachineRequired == "" {
			a.fail(errNoMinerForNode)
			return
		}
		if _, err := a.engine.PlaceMachine(machines.PlaceInput{ItemID: def.MachineRequired, NodeID: node.ID}); err != nil {
			a.fail(err)
		}
	}
}

func (a *App) walk(dx, dy int) {
	a.engine.MovePlayer(a.engine.Player().Add(dx, dy))
}

// handleMachineKeys handles pause, recipe binding, detaching and placement.
func (a *App) handleMachineKeys(msg tea.KeyMsg) {
	switch {
	case a.keys.Up.Matches(msg):
		a.machinesView.MoveUp()
		return
	case a.keys.Down.Matches(msg):
		a.machinesView.MoveDown()
		return
	case a.keys.New.Matches(msg):
		a.placeProcessor()
		return
	}

	m, ok := a.machinesView.SelectedMachine()
	if !ok {
		return
	}

	var err error
	switch {
	case a.keys.Toggle.Matches(msg):
		if m.IsIdle {
			err = a.engine.ResumeMachine(m.ID)
		} else {
			err = a.engine.PauseMachine(m.ID)
		}
	case a.keys.Recipe.Matches(msg):
		err = a.cycleRecipe(m)
	case a.keys.Detach.Matches(msg):
		_, err = a.engine.ReassignMachine(m.ID, "")
	}
	if err != nil {
		a.fail(err)
	}
}

// cycleRecipe binds the next recipe the machine type can run.
func (a *App) cycleRecipe(m models.PlacedMachine) error {
	recipes := a.engine.Catalog().RecipesFor(m.Type)
	if len(recipes) == 0 {
		return errNoRecipes
	}
	next := recipes[0].ID
	for i, r := range recipes {
		if r.ID == m.RecipeID {
			next = recipes[(i+1)%len(recipes)].ID
			break
		}
	}
	_, err := a.engine.AssignRecipe(m.ID, next)
	return err
}

// placeProcessor places the first processing machine held in storage.
func (a *App) placeProcessor() {
	for _, def := range a.engine.Catalog().Machines() {
		if def.Kind != models.MachineKindProcessing || a.engine.Amount(def.ID) < 1 {
			continue
		}
		if _, err := a.engine.PlaceMachine(machines.PlaceInput{ItemID: def.ID}); err != nil {
			a.fail(err)
		}
		return
	}
	a.fail(errNoProcessorItem)
}

// handleCraftingKeys handles the crafting queue list.
func (a *App) handleCraftingKeys(msg tea.KeyMsg) {
	switch {
	case a.keys.Up.Matches(msg):
		a.craftingView.MoveUp()
		return
	case a.keys.Down.Matches(msg):
		a.craftingView.MoveDown()
		return
	case a.keys.New.Matches(msg):
		if !a.craftingView.OpenForm() {
			a.fail(errNoProcessor)
		}
		return
	case a.keys.Clear.Matches(msg):
		if n := a.engine.ClearFinishedCrafts(); n > 0 {
			a.AddAlert(AlertInfo, fmt.Sprintf("Cleared %d finished processes", n))
		}
		return
	}

	p, ok := a.craftingView.SelectedProcess()
	if !ok {
		return
	}

	var err error
	switch {
	case a.keys.Toggle.Matches(msg):
		if p.Status == models.CraftStatusPaused {
			_, err = a.engine.ResumeCrafting(p.ID)
		} else {
			_, err = a.engine.PauseCrafting(p.ID)
		}
	case a.keys.Cancel.Matches(msg):
		_, err = a.engine.CancelCrafting(p.ID)
	}
	if err != nil {
		a.fail(err)
	}
}

// handleFormKeys routes keys to the open crafting form.
func (a *App) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req, cancelled := a.craftingView.HandleFormKey(msg.String())
	if cancelled || req == nil {
		return a, nil
	}

	p, err := a.engine.StartCraft(req.MachineID, req.RecipeID, req.Quantity)
	if err != nil {
		a.craftingView.RejectForm(err)
		return a, nil
	}

	a.craftingView.CloseForm()
	a.AddAlert(AlertInfo, fmt.Sprintf("Started %d x %s", p.Quantity, a.engine.Catalog().Name(p.RecipeID)))
	return a, nil
}

// handleMilestoneKeys completes the current milestone.
func (a *App) handleMilestoneKeys(msg tea.KeyMsg) {
	if !a.keys.Complete.Matches(msg) {
		return
	}
	if _, err := a.engine.CompleteCurrentMilestone(); err != nil {
		a.fail(err)
	}
}

// handleBuildKeys handles the build list.
func (a *App) handleBuildKeys(msg tea.KeyMsg) {
	switch {
	case a.keys.Up.Matches(msg):
		a.buildView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.buildView.MoveDown()
	case a.keys.Build.Matches(msg):
		def, ok := a.buildView.SelectedMachine()
		if !ok {
			return
		}
		if _, err := a.engine.Build(def.ID); err != nil {
			a.fail(err)
		}
	}
}
