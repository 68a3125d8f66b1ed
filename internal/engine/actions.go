package engine

import (
	"fmt"
	"time"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/crafting"
	"github.com/oreline/oreline/internal/services/machines"
)

// ============================================================================
// INVENTORY
// ============================================================================

// AddResource adds up to amount of an item, clamped at the resource cap.
// It returns the amount actually added.
func (e *Engine) AddResource(itemID string, amount float64) float64 {
	e.mu.Lock()
	defer e.unlock()
	return e.st.inventory.AddResource(itemID, amount)
}

// RemoveResources removes every item in cost or none of them.
func (e *Engine) RemoveResources(cost models.ItemAmounts) error {
	e.mu.Lock()
	defer e.unlock()
	return e.st.inventory.RemoveResources(cost)
}

// CanAfford reports whether every item in cost is held in full.
func (e *Engine) CanAfford(cost models.ItemAmounts) bool {
	e.mu.Lock()
	defer e.unlock()
	return e.st.inventory.CanAfford(cost)
}

// Amount returns the held quantity of an item.
func (e *Engine) Amount(itemID string) float64 {
	e.mu.Lock()
	defer e.unlock()
	return e.st.inventory.Amount(itemID)
}

// Inventory returns all inventory entries sorted by item id.
func (e *Engine) Inventory() []models.InventoryEntry {
	e.mu.Lock()
	defer e.unlock()
	return e.st.inventory.Snapshot()
}

// ResourceCap returns the per-item inventory ceiling.
func (e *Engine) ResourceCap() float64 {
	return e.opts.ResourceCap
}

// OwnedMachines returns every machine record, placed or not.
func (e *Engine) OwnedMachines() []models.OwnedMachine {
	e.mu.Lock()
	defer e.unlock()
	return e.st.inventory.OwnedMachines()
}

// ============================================================================
// MACHINES
// ============================================================================

// Build pays a machine's build cost and adds it to inventory. Machine types
// gated by an uncompleted milestone are rejected.
func (e *Engine) Build(itemID string) (models.OwnedMachine, error) {
	e.mu.Lock()
	defer e.unlock()

	if err := e.st.milestones.CheckUnlocked(itemID); err != nil {
		return models.OwnedMachine{}, err
	}
	owned, err := e.st.machines.Build(itemID)
	if err != nil {
		return models.OwnedMachine{}, err
	}
	e.emit(models.Event{Type: models.EventMachineBuilt, MachineID: owned.ID, ItemID: itemID, Amount: 1})
	return owned, nil
}

// PlaceMachine takes one machine out of inventory and places it. Nothing is
// deducted unless placement succeeds.
func (e *Engine) PlaceMachine(input machines.PlaceInput) (models.PlacedMachine, error) {
	e.mu.Lock()
	defer e.unlock()

	pm, err := e.st.machines.Place(input, e.clock.Now())
	if err != nil {
		return models.PlacedMachine{}, err
	}
	e.emit(models.Event{
		Type:      models.EventMachinePlaced,
		At:        pm.PlacedAt,
		MachineID: pm.ID,
		NodeID:    pm.AssignedNodeID,
		ItemID:    pm.Type,
	})
	return pm, nil
}

// PauseMachine stops a machine from producing on future ticks.
func (e *Engine) PauseMachine(machineID string) error {
	e.mu.Lock()
	defer e.unlock()

	if _, err := e.st.machines.Pause(machineID); err != nil {
		return err
	}
	e.emit(models.Event{Type: models.EventMachinePaused, MachineID: machineID})
	return nil
}

// ResumeMachine lets a paused machine produce again.
func (e *Engine) ResumeMachine(machineID string) error {
	e.mu.Lock()
	defer e.unlock()

	if _, err := e.st.machines.Resume(machineID); err != nil {
		return err
	}
	e.emit(models.Event{Type: models.EventMachineResumed, MachineID: machineID})
	return nil
}

// ReassignMachine moves an extraction machine to another node. An empty
// nodeID detaches it.
func (e *Engine) ReassignMachine(machineID, nodeID string) (models.PlacedMachine, error) {
	e.mu.Lock()
	defer e.unlock()

	before, _ := e.st.machines.Machine(machineID)
	pm, err := e.st.machines.Reassign(machineID, nodeID)
	if err != nil {
		return models.PlacedMachine{}, err
	}
	if before.AssignedNodeID != pm.AssignedNodeID {
		e.emit(models.Event{Type: models.EventMachineReassigned, MachineID: machineID, NodeID: nodeID})
	}
	return pm, nil
}

// AssignRecipe binds a recipe to a processing machine.
func (e *Engine) AssignRecipe(machineID, recipeID string) (models.PlacedMachine, error) {
	e.mu.Lock()
	defer e.unlock()

	pm, err := e.st.machines.AssignRecipe(machineID, recipeID)
	if err != nil {
		return models.PlacedMachine{}, err
	}
	e.emit(models.Event{Type: models.EventRecipeAssigned, MachineID: machineID, ItemID: recipeID})
	return pm, nil
}

// Machine returns a placed machine by id.
func (e *Engine) Machine(id string) (models.PlacedMachine, bool) {
	e.mu.Lock()
	defer e.unlock()
	return e.st.machines.Machine(id)
}

// Machines returns placed machines in placement order.
func (e *Engine) Machines() []models.PlacedMachine {
	e.mu.Lock()
	defer e.unlock()
	return e.st.machines.Machines()
}

// MachinesOnNode returns the machines assigned to a node.
func (e *Engine) MachinesOnNode(nodeID string) []models.PlacedMachine {
	e.mu.Lock()
	defer e.unlock()
	return e.st.machines.OnNode(nodeID)
}

// MaxMachinesPerNode returns the per-node assignment limit.
func (e *Engine) MaxMachinesPerNode() int {
	return e.opts.MaxMachinesPerNode
}

// ExtractionRate returns what an extraction machine would pull on the next tick.
func (e *Engine) ExtractionRate(machineID string) float64 {
	e.mu.Lock()
	defer e.unlock()

	pm, ok := e.st.machines.Machine(machineID)
	if !ok || pm.IsIdle || !pm.IsExtraction() {
		return 0
	}
	return e.st.scheduler.ExtractionAmount(pm)
}

// ============================================================================
// NODES & DISCOVERY
// ============================================================================

// DepleteNode sets a node's remaining amount. Remaining never increases and
// never drops below zero.
func (e *Engine) DepleteNode(nodeID string, newAmount float64) error {
	e.mu.Lock()
	defer e.unlock()

	removed, err := e.st.world.Deplete(nodeID, newAmount)
	if err != nil {
		return err
	}
	if removed > 0 && e.st.world.Remaining(nodeID) <= 0 {
		e.emit(models.Event{Type: models.EventNodeDepleted, NodeID: nodeID})
	}
	return nil
}

// Node returns a node by id.
func (e *Engine) Node(id string) (models.ResourceNode, bool) {
	e.mu.Lock()
	defer e.unlock()
	return e.st.world.Node(id)
}

// Nodes returns every node, discovered or not.
func (e *Engine) Nodes() []models.ResourceNode {
	e.mu.Lock()
	defer e.unlock()
	return e.st.world.Nodes()
}

// DiscoveredNodes returns discovered nodes in discovery order.
func (e *Engine) DiscoveredNodes() []models.ResourceNode {
	e.mu.Lock()
	defer e.unlock()

	ids := e.st.world.Discovered()
	out := make([]models.ResourceNode, 0, len(ids))
	for _, id := range ids {
		if n, ok := e.st.world.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// IsDiscovered reports whether a node has been found.
func (e *Engine) IsDiscovered(nodeID string) bool {
	e.mu.Lock()
	defer e.unlock()
	return e.st.world.IsDiscovered(nodeID)
}

// Player returns the player's position.
func (e *Engine) Player() models.Position {
	e.mu.Lock()
	defer e.unlock()
	return e.st.world.Player()
}

// MovePlayer moves the player and discovers nodes within the discovery
// radius. It returns the ids found by this move.
func (e *Engine) MovePlayer(pos models.Position) []string {
	e.mu.Lock()
	defer e.unlock()

	found := e.st.world.MovePlayer(pos, e.opts.DiscoveryRadius)
	for _, id := range found {
		e.emit(models.Event{Type: models.EventNodeDiscovered, NodeID: id})
	}
	return found
}

// ManualMine takes one unit from a nearby hand-mineable node.
func (e *Engine) ManualMine(nodeID string) (float64, error) {
	e.mu.Lock()
	defer e.unlock()

	if err := e.st.world.CheckEligible(nodeID); err != nil {
		return 0, err
	}
	def, _ := e.st.world.Def(nodeID)
	if !def.ManualMineable {
		return 0, fmt.Errorf("%w: %s", ErrNotManualMineable, nodeID)
	}
	if !e.st.world.InReach(nodeID, e.opts.DiscoveryRadius) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfReach, nodeID)
	}

	amount := min(1, e.st.inventory.Headroom(def.Output), e.st.world.Remaining(nodeID))
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInventoryFull, def.Output)
	}
	removed, err := e.st.world.Deplete(nodeID, e.st.world.Remaining(nodeID)-amount)
	if err != nil {
		return 0, err
	}
	added := e.st.inventory.AddResource(def.Output, removed)

	e.emit(models.Event{Type: models.EventNodeMined, NodeID: nodeID, ItemID: def.Output, Amount: added})
	if e.st.world.Remaining(nodeID) <= 0 {
		e.emit(models.Event{Type: models.EventNodeDepleted, NodeID: nodeID})
	}
	return added, nil
}

// ============================================================================
// CRAFTING
// ============================================================================

// StartCraft queues quantity units of a recipe on a placed processing machine.
func (e *Engine) StartCraft(machineID, recipeID string, quantity int) (models.CraftingProcess, error) {
	e.mu.Lock()
	defer e.unlock()

	pm, ok := e.st.machines.Machine(machineID)
	if !ok {
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", machines.ErrMachineNotFound, machineID)
	}
	p, err := e.st.crafting.Start(pm, crafting.StartInput{RecipeID: recipeID, Quantity: quantity}, e.clock.Now())
	if err != nil {
		return models.CraftingProcess{}, err
	}
	e.emit(models.Event{
		Type:      models.EventCraftStarted,
		At:        p.StartedAt,
		MachineID: machineID,
		ProcessID: p.ID,
		ItemID:    recipeID,
		Amount:    float64(quantity),
	})
	return p, nil
}

// PauseCrafting freezes a running craft, keeping its elapsed time.
func (e *Engine) PauseCrafting(processID string) (models.CraftingProcess, error) {
	return e.craftTransition(processID, models.EventCraftPaused, (*crafting.Queue).Pause)
}

// ResumeCrafting continues a paused craft from its banked elapsed time.
func (e *Engine) ResumeCrafting(processID string) (models.CraftingProcess, error) {
	return e.craftTransition(processID, models.EventCraftResumed, (*crafting.Queue).Resume)
}

// CancelCrafting stops a craft. The unit in progress is discarded with no
// resource exchange.
func (e *Engine) CancelCrafting(processID string) (models.CraftingProcess, error) {
	return e.craftTransition(processID, models.EventCraftCancelled, (*crafting.Queue).Cancel)
}

func (e *Engine) craftTransition(
	processID string,
	event models.EventType,
	apply func(*crafting.Queue, string, time.Time) (models.CraftingProcess, error),
) (models.CraftingProcess, error) {
	e.mu.Lock()
	defer e.unlock()

	// Units that finished before now are settled first.
	e.updateCrafting(&TickSummary{})

	p, err := apply(e.st.crafting, processID, e.clock.Now())
	if err != nil {
		return models.CraftingProcess{}, err
	}
	e.emit(models.Event{Type: event, MachineID: p.MachineID, ProcessID: p.ID, ItemID: p.RecipeID})
	return p, nil
}

// CraftingQueue returns every tracked craft in start order.
func (e *Engine) CraftingQueue() []models.CraftingProcess {
	e.mu.Lock()
	defer e.unlock()
	return e.st.crafting.Processes()
}

// ActiveCraft returns the pending or paused craft on a machine.
func (e *Engine) ActiveCraft(machineID string) (models.CraftingProcess, bool) {
	e.mu.Lock()
	defer e.unlock()
	return e.st.crafting.Active(machineID)
}

// ClearFinishedCrafts drops completed and cancelled crafts from the queue.
func (e *Engine) ClearFinishedCrafts() int {
	e.mu.Lock()
	defer e.unlock()
	return e.st.crafting.ClearFinished()
}

// ============================================================================
// MILESTONES
// ============================================================================

// CurrentMilestone returns the first milestone not yet completed.
func (e *Engine) CurrentMilestone() (models.Milestone, bool) {
	e.mu.Lock()
	defer e.unlock()
	return e.st.milestones.Current()
}

// MilestoneProgress reports each requirement of the current milestone.
func (e *Engine) MilestoneProgress() []models.RequirementProgress {
	e.mu.Lock()
	defer e.unlock()
	return e.st.milestones.Progress(e.st.inventory, e.st.world.DiscoveredCount())
}

// CanCompleteCurrentMilestone reports whether the current milestone's
// requirements are all met.
func (e *Engine) CanCompleteCurrentMilestone() bool {
	e.mu.Lock()
	defer e.unlock()
	return e.st.milestones.CanCompleteCurrent(e.st.inventory, e.st.world.DiscoveredCount())
}

// CompleteCurrentMilestone unlocks the current milestone. Requirements are
// checked, not consumed.
func (e *Engine) CompleteCurrentMilestone() (models.Milestone, error) {
	e.mu.Lock()
	defer e.unlock()

	m, err := e.st.milestones.CompleteCurrent(e.st.inventory, e.st.world.DiscoveredCount(), e.clock.Now())
	if err != nil {
		return models.Milestone{}, err
	}
	e.emit(models.Event{Type: models.EventMilestoneComplete, MilestoneID: m.ID})
	return m, nil
}

// Milestones returns every milestone in progression order.
func (e *Engine) Milestones() []models.Milestone {
	e.mu.Lock()
	defer e.unlock()
	return e.st.milestones.Milestones()
}

// IsUnlocked reports whether a machine type may be built.
func (e *Engine) IsUnlocked(machineType string) bool {
	e.mu.Lock()
	defer e.unlock()
	return e.st.milestones.IsUnlocked(machineType)
}
