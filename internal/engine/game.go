package engine

import (
	"fmt"
	"time"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/world"
)

// GameSetup describes a new game.
type GameSetup struct {
	Name string
	Seed uint64

	Width        int
	Height       int
	NodeCount    int
	NodeCapacity float64
	Start        models.Position

	// Nodes, when set, replaces world generation.
	Nodes []models.ResourceNode

	StartingInventory models.ItemAmounts
}

// DefaultStartingInventory is enough to place a first miner and smelter and
// pay for early builds.
func DefaultStartingInventory() models.ItemAmounts {
	return models.ItemAmounts{
		"miner":     2,
		"smelter":   1,
		"ironPlate": 20,
		"cable":     10,
	}
}

// NewGame discards all state and starts a fresh game at the clock's current
// time. Nodes near the start position are discovered immediately.
func (e *Engine) NewGame(setup GameSetup) error {
	nodes := setup.Nodes
	if nodes == nil {
		capacity := setup.NodeCapacity
		if capacity <= 0 {
			capacity = models.DefaultNodeCapacity
		}
		generated, err := world.Generate(e.catalog, world.GenerateInput{
			Seed:          setup.Seed,
			Width:         setup.Width,
			Height:        setup.Height,
			Count:         setup.NodeCount,
			Capacity:      capacity,
			Start:         setup.Start,
			StarterRadius: e.opts.DiscoveryRadius,
		})
		if err != nil {
			return fmt.Errorf("generating world: %w", err)
		}
		nodes = generated
	}

	st := e.newState()
	for _, n := range nodes {
		if err := st.world.AddNode(n); err != nil {
			return fmt.Errorf("adding node: %w", err)
		}
	}
	for _, item := range setup.StartingInventory.Keys() {
		st.inventory.AddResource(item, setup.StartingInventory[item])
	}

	e.mu.Lock()
	defer e.unlock()

	e.clock.SetEpoch(e.clock.Now())
	e.st = st
	e.name = setup.Name
	e.seed = setup.Seed
	e.lastTick = 0

	for _, id := range st.world.MovePlayer(setup.Start, e.opts.DiscoveryRadius) {
		e.emit(models.Event{Type: models.EventNodeDiscovered, NodeID: id})
	}

	e.logger.Info("new game",
		"name", setup.Name,
		"seed", setup.Seed,
		"nodes", len(nodes),
		"discovered", st.world.DiscoveredCount(),
	)
	return nil
}

// Snapshot copies the complete simulation state.
func (e *Engine) Snapshot() *models.GameSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &models.GameSnapshot{
		Version:        models.SnapshotVersion,
		Name:           e.name,
		Seed:           e.seed,
		Tick:           e.lastTick,
		Epoch:          e.clock.Epoch(),
		GameTime:       e.clock.Now(),
		SavedAt:        time.Now().UTC(),
		Player:         e.st.world.Player(),
		Inventory:      e.st.inventory.Snapshot(),
		OwnedMachines:  e.st.inventory.OwnedMachines(),
		Nodes:          e.st.world.Nodes(),
		Discovered:     e.st.world.Discovered(),
		PlacedMachines: e.st.machines.Machines(),
		Crafting:       e.st.crafting.Processes(),
		Milestones:     e.st.milestones.Milestones(),
	}
}

// Restore replaces all state with a snapshot and moves the clock to the
// snapshot's game time. On error the current game is left untouched.
func (e *Engine) Restore(snap *models.GameSnapshot) error {
	if snap == nil {
		return fmt.Errorf("restoring game: nil snapshot")
	}
	if snap.Version != models.SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
	}

	st := e.newState()
	st.inventory.Restore(snap.Inventory, snap.OwnedMachines)
	if err := st.world.Restore(snap.Nodes, snap.Discovered, snap.Player); err != nil {
		return err
	}
	if err := st.machines.Restore(snap.PlacedMachines); err != nil {
		return err
	}
	if err := st.crafting.Restore(snap.Crafting); err != nil {
		return err
	}
	st.milestones.Restore(snap.Milestones)

	e.mu.Lock()
	defer e.unlock()

	wasPaused := e.clock.IsPaused()
	e.clock.Pause()
	e.clock.SetEpoch(snap.Epoch)
	if err := e.clock.SetTime(snap.GameTime); err != nil {
		return fmt.Errorf("restoring clock: %w", err)
	}
	if !wasPaused {
		e.clock.Resume()
	}

	e.st = st
	e.name = snap.Name
	e.seed = snap.Seed
	e.lastTick = snap.Tick

	e.emit(models.Event{Type: models.EventGameRestored})
	e.logger.Info("game restored",
		"name", snap.Name,
		"tick", snap.Tick,
		"machines", len(snap.PlacedMachines),
		"crafting", len(snap.Crafting),
	)
	return nil
}
