// Package machines provides the machine placement manager.
//
// Placement validates every precondition before paying the one machine unit
// from inventory, so a rejected placement never costs anything.
package machines

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/inventory"
	"github.com/oreline/oreline/internal/services/world"
)

// DefaultMaxMachinesPerNode caps how many extractors share one node.
const DefaultMaxMachinesPerNode = 4

var (
	ErrUnknownMachine   = errors.New("not a buildable machine")
	ErrNotOwned         = errors.New("machine not owned")
	ErrNodeRequired     = errors.New("extraction machine needs a target node")
	ErrNodeSaturated    = errors.New("node has no free machine slot")
	ErrIncompatibleNode = errors.New("machine cannot work this node")
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrRecipeMismatch   = errors.New("recipe does not run on this machine")
	ErrMachineNotFound  = errors.New("machine not found")
	ErrNotExtraction    = errors.New("not an extraction machine")
	ErrNotProcessing    = errors.New("not a processing machine")
	ErrAlreadyPaused    = errors.New("machine already paused")
	ErrNotPaused        = errors.New("machine not paused")
)

// Manager creates placed machines and maintains node assignments.
// It is not safe for concurrent use; the engine serializes access.
type Manager struct {
	catalog    *catalog.Catalog
	inventory  *inventory.Ledger
	world      *world.Registry
	maxPerNode int
	placed     map[string]*models.PlacedMachine
	order      []string
	logger     *slog.Logger
}

// NewManager creates a placement manager.
func NewManager(cat *catalog.Catalog, inv *inventory.Ledger, reg *world.Registry, maxPerNode int, logger *slog.Logger) *Manager {
	if maxPerNode <= 0 {
		maxPerNode = DefaultMaxMachinesPerNode
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		catalog:    cat,
		inventory:  inv,
		world:      reg,
		maxPerNode: maxPerNode,
		placed:     make(map[string]*models.PlacedMachine),
		logger:     logger,
	}
}

// MaxPerNode returns the per-node machine cap.
func (m *Manager) MaxPerNode() int {
	return m.maxPerNode
}

// ============================================================================
// BUILD
// ============================================================================

// Build pays a machine's build cost and adds one unit of it to inventory.
// Unlock gating is the caller's concern.
func (m *Manager) Build(itemID string) (models.OwnedMachine, error) {
	def, ok := m.catalog.Machine(itemID)
	if !ok {
		return models.OwnedMachine{}, fmt.Errorf("%w: %s", ErrUnknownMachine, itemID)
	}
	if err := m.inventory.RemoveResources(def.BuildCost); err != nil {
		return models.OwnedMachine{}, fmt.Errorf("building %s: %w", itemID, err)
	}
	m.inventory.AddResource(itemID, 1)
	owned := m.inventory.AddOwnedMachine(itemID)

	m.logger.Info("machine built", "type", itemID, "machine_id", owned.ID)
	return owned, nil
}

// ============================================================================
// PLACEMENT
// ============================================================================

// Place validates input, pays one unit of the machine from inventory and
// creates the placed instance.
func (m *Manager) Place(input PlaceInput, now time.Time) (models.PlacedMachine, error) {
	def, ok := m.catalog.Machine(input.ItemID)
	if !ok {
		return models.PlacedMachine{}, fmt.Errorf("%w: %s", ErrUnknownMachine, input.ItemID)
	}
	if m.inventory.Amount(input.ItemID) < 1 {
		return models.PlacedMachine{}, fmt.Errorf("%w: %s", ErrNotOwned, input.ItemID)
	}

	switch def.Kind {
	case models.MachineKindExtraction:
		if input.NodeID == "" {
			return models.PlacedMachine{}, ErrNodeRequired
		}
		if err := m.checkNode(def.ID, input.NodeID); err != nil {
			return models.PlacedMachine{}, err
		}
	case models.MachineKindProcessing:
		if input.RecipeID != "" {
			if err := m.checkRecipe(def.ID, input.RecipeID); err != nil {
				return models.PlacedMachine{}, err
			}
		}
	}

	if err := m.inventory.RemoveResources(models.ItemAmounts{input.ItemID: 1}); err != nil {
		return models.PlacedMachine{}, fmt.Errorf("%w: %v", ErrNotOwned, err)
	}
	owned := m.inventory.ClaimOwnedMachine(input.ItemID)

	pm := &models.PlacedMachine{
		ID:         owned.ID,
		Type:       def.ID,
		Kind:       def.Kind,
		Efficiency: 1,
		PlacedAt:   now,
	}
	if def.Kind == models.MachineKindExtraction {
		pm.AssignedNodeID = input.NodeID
	} else {
		pm.RecipeID = input.RecipeID
		if input.RecipeID != "" {
			_ = m.inventory.SetOwnedRecipe(pm.ID, input.RecipeID)
		}
	}
	m.placed[pm.ID] = pm
	m.order = append(m.order, pm.ID)

	m.logger.Info("machine placed",
		"machine_id", pm.ID,
		"type", pm.Type,
		"node", pm.AssignedNodeID,
		"recipe", pm.RecipeID,
	)
	return *pm, nil
}

// checkNode validates that a machine type may be bound to a node.
func (m *Manager) checkNode(machineType, nodeID string) error {
	if err := m.world.CheckEligible(nodeID); err != nil {
		return err
	}
	nodeDef, _ := m.world.Def(nodeID)
	if nodeDef.MachineRequired != "" && nodeDef.MachineRequired != machineType {
		return fmt.Errorf("%w: %s needs %s, not %s",
			ErrIncompatibleNode, nodeID, nodeDef.MachineRequired, machineType)
	}
	if n := m.CountOnNode(nodeID); n >= m.maxPerNode {
		return fmt.Errorf("%w: %s has %d of %d", ErrNodeSaturated, nodeID, n, m.maxPerNode)
	}
	return nil
}

func (m *Manager) checkRecipe(machineType, recipeID string) error {
	recipe, ok := m.catalog.Recipe(recipeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecipeNotFound, recipeID)
	}
	if recipe.Machine != machineType {
		return fmt.Errorf("%w: %s runs on %s, not %s",
			ErrRecipeMismatch, recipeID, recipe.Machine, machineType)
	}
	return nil
}

// ============================================================================
// STATE CHANGES
// ============================================================================

// Reassign binds an extraction machine to another node in place.
// An empty nodeID detaches the machine. Identity and efficiency are kept.
func (m *Manager) Reassign(machineID, nodeID string) (models.PlacedMachine, error) {
	pm, err := m.get(machineID)
	if err != nil {
		return models.PlacedMachine{}, err
	}
	if !pm.IsExtraction() {
		return models.PlacedMachine{}, fmt.Errorf("%w: %s", ErrNotExtraction, machineID)
	}
	if nodeID == pm.AssignedNodeID {
		return *pm, nil
	}
	if nodeID != "" {
		if err := m.checkNode(pm.Type, nodeID); err != nil {
			return models.PlacedMachine{}, err
		}
	}

	from := pm.AssignedNodeID
	pm.AssignedNodeID = nodeID
	m.logger.Info("machine reassigned", "machine_id", machineID, "from", from, "to", nodeID)
	return *pm, nil
}

// AssignRecipe binds a recipe to a processing machine. An empty recipeID unbinds.
func (m *Manager) AssignRecipe(machineID, recipeID string) (models.PlacedMachine, error) {
	pm, err := m.get(machineID)
	if err != nil {
		return models.PlacedMachine{}, err
	}
	if !pm.IsProcessing() {
		return models.PlacedMachine{}, fmt.Errorf("%w: %s", ErrNotProcessing, machineID)
	}
	if recipeID != "" {
		if err := m.checkRecipe(pm.Type, recipeID); err != nil {
			return models.PlacedMachine{}, err
		}
	}
	pm.RecipeID = recipeID
	_ = m.inventory.SetOwnedRecipe(machineID, recipeID)
	return *pm, nil
}

// Pause marks a machine idle.
func (m *Manager) Pause(machineID string) (models.PlacedMachine, error) {
	pm, err := m.get(machineID)
	if err != nil {
		return models.PlacedMachine{}, err
	}
	if pm.IsIdle {
		return models.PlacedMachine{}, fmt.Errorf("%w: %s", ErrAlreadyPaused, machineID)
	}
	pm.IsIdle = true
	return *pm, nil
}

// Resume clears a machine's idle flag.
func (m *Manager) Resume(machineID string) (models.PlacedMachine, error) {
	pm, err := m.get(machineID)
	if err != nil {
		return models.PlacedMachine{}, err
	}
	if !pm.IsIdle {
		return models.PlacedMachine{}, fmt.Errorf("%w: %s", ErrNotPaused, machineID)
	}
	pm.IsIdle = false
	return *pm, nil
}

// ============================================================================
// QUERIES
// ============================================================================

// Machine returns a placed machine by id.
func (m *Manager) Machine(id string) (models.PlacedMachine, bool) {
	pm, ok := m.placed[id]
	if !ok {
		return models.PlacedMachine{}, false
	}
	return *pm, true
}

// Machines returns placed machines in placement order.
func (m *Manager) Machines() []models.PlacedMachine {
	out := make([]models.PlacedMachine, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.placed[id])
	}
	return out
}

// CountOnNode returns how many machines are currently assigned to a node.
// Idle machines still hold their slot.
func (m *Manager) CountOnNode(nodeID string) int {
	n := 0
	for _, pm := range m.placed {
		if pm.AssignedNodeID == nodeID {
			n++
		}
	}
	return n
}

// OnNode returns the machines assigned to a node in placement order.
func (m *Manager) OnNode(nodeID string) []models.PlacedMachine {
	var out []models.PlacedMachine
	for _, id := range m.order {
		if pm := m.placed[id]; pm.AssignedNodeID == nodeID {
			out = append(out, *pm)
		}
	}
	return out
}

func (m *Manager) get(id string) (*models.PlacedMachine, error) {
	pm, ok := m.placed[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, id)
	}
	return pm, nil
}

// Restore replaces all placed machines, keeping the given order.
func (m *Manager) Restore(machines []models.PlacedMachine) error {
	m.placed = make(map[string]*models.PlacedMachine, len(machines))
	m.order = nil
	for _, pm := range machines {
		if _, dup := m.placed[pm.ID]; dup {
			return fmt.Errorf("restoring machines: duplicate id %s", pm.ID)
		}
		if !pm.Kind.Valid() {
			kind, ok := catalog.MachineKindOf(pm.Type)
			if !ok {
				return fmt.Errorf("restoring machines: %w: %s", ErrUnknownMachine, pm.Type)
			}
			pm.Kind = kind
		}
		if pm.Efficiency <= 0 {
			pm.Efficiency = 1
		}
		m.placed[pm.ID] = &pm
		m.order = append(m.order, pm.ID)
	}
	return nil
}
