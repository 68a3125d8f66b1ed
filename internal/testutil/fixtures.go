package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/util"
)

// Epoch is the fixed game start used by fixtures and paused clocks.
var Epoch = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

// PausedClock returns a game clock stopped at Epoch. Tests move it with Advance.
func PausedClock() *util.GameClock {
	c := util.NewGameClock(Epoch, 1)
	c.Pause()
	return c
}

// FixtureNode creates an iron node at the origin with a full reserve.
func FixtureNode(overrides ...func(*models.ResourceNode)) models.ResourceNode {
	node := models.ResourceNode{
		ID:        "node-001",
		Type:      "ironNode",
		Position:  models.Position{},
		Capacity:  models.DefaultNodeCapacity,
		Remaining: models.DefaultNodeCapacity,
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// FixtureMiner creates a placed miner assigned to node-001.
func FixtureMiner(overrides ...func(*models.PlacedMachine)) models.PlacedMachine {
	m := models.PlacedMachine{
		ID:             uuid.New().String(),
		Type:           "miner",
		Kind:           models.MachineKindExtraction,
		AssignedNodeID: "node-001",
		Efficiency:     1,
		PlacedAt:       Epoch,
	}

	for _, override := range overrides {
		override(&m)
	}

	return m
}

// FixtureSmelter creates a placed smelter bound to the ironIngot recipe.
func FixtureSmelter(overrides ...func(*models.PlacedMachine)) models.PlacedMachine {
	m := models.PlacedMachine{
		ID:         uuid.New().String(),
		Type:       "smelter",
		Kind:       models.MachineKindProcessing,
		RecipeID:   "ironIngot",
		Efficiency: 1,
		PlacedAt:   Epoch,
	}

	for _, override := range overrides {
		override(&m)
	}

	return m
}

// FixtureCraftingProcess creates a pending single-unit ironIngot craft started at Epoch.
func FixtureCraftingProcess(machineID string, overrides ...func(*models.CraftingProcess)) models.CraftingProcess {
	p := models.CraftingProcess{
		ID:        uuid.New().String(),
		MachineID: machineID,
		RecipeID:  "ironIngot",
		ItemName:  "Iron Ingot",
		Quantity:  1,
		UnitTime:  2 * time.Second,
		ResumedAt: Epoch,
		StartedAt: Epoch,
		Status:    models.CraftStatusPending,
	}

	for _, override := range overrides {
		override(&p)
	}

	return p
}

// FixtureSnapshot creates a small but complete saved game.
func FixtureSnapshot(overrides ...func(*models.GameSnapshot)) *models.GameSnapshot {
	miner := FixtureMiner(func(m *models.PlacedMachine) { m.ID = "machine-miner" })
	smelter := FixtureSmelter(func(m *models.PlacedMachine) { m.ID = "machine-smelter" })
	completedAt := Epoch.Add(time.Minute)

	snap := &models.GameSnapshot{
		Version:  models.SnapshotVersion,
		Name:     "Test Factory",
		Seed:     7,
		Tick:     120,
		Epoch:    Epoch,
		GameTime: Epoch.Add(120 * time.Second),
		SavedAt:  time.Now().UTC().Truncate(time.Second),
		Player:   models.Position{X: 2, Y: 3},
		Inventory: []models.InventoryEntry{
			{ItemID: "ironIngot", Name: "Iron Ingot", Amount: 12},
			{ItemID: "ironOre", Name: "Iron Ore", Amount: 37.5},
		},
		OwnedMachines: []models.OwnedMachine{
			{ID: miner.ID, Type: "miner", Placed: true},
			{ID: smelter.ID, Type: "smelter", CurrentRecipeID: "ironIngot", Placed: true},
			{ID: "machine-spare", Type: "miner"},
		},
		Nodes: []models.ResourceNode{
			FixtureNode(func(n *models.ResourceNode) { n.Remaining = 880; n.Extracted = 120 }),
			FixtureNode(func(n *models.ResourceNode) {
				n.ID = "node-002"
				n.Type = "copperNode"
				n.Position = models.Position{X: 10, Y: 10}
			}),
		},
		Discovered:     []string{"node-001"},
		PlacedMachines: []models.PlacedMachine{miner, smelter},
		Crafting: []models.CraftingProcess{
			FixtureCraftingProcess(smelter.ID, func(p *models.CraftingProcess) {
				p.ID = "craft-1"
				p.Quantity = 3
				p.UnitsCompleted = 1
				p.Accrued = 500 * time.Millisecond
				p.Status = models.CraftStatusPaused
			}),
		},
		Milestones: []models.Milestone{
			{ID: "first-ingots", Name: "First Ingots", Unlocked: true, CompletedAt: &completedAt},
			{ID: "wiring", Name: "Wiring"},
		},
	}

	for _, override := range overrides {
		override(snap)
	}

	return snap
}

// TimePtr returns a pointer to a time.
func TimePtr(t time.Time) *time.Time {
	return &t
}
