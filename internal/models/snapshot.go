package models

import "time"

// SnapshotVersion is bumped whenever GameSnapshot changes shape.
const SnapshotVersion = 1

// GameSnapshot is a complete copy of simulation state, suitable for saving.
type GameSnapshot struct {
	Version  int
	Name     string
	Seed     uint64
	Tick     int64
	Epoch    time.Time
	GameTime time.Time
	SavedAt  time.Time

	Player         Position
	Inventory      []InventoryEntry
	OwnedMachines  []OwnedMachine
	Nodes          []ResourceNode
	Discovered     []string
	PlacedMachines []PlacedMachine
	Crafting       []CraftingProcess
	Milestones     []Milestone
}

// InventoryAmount returns the amount held of an item, or zero.
func (s *GameSnapshot) InventoryAmount(itemID string) float64 {
	for _, e := range s.Inventory {
		if e.ItemID == itemID {
			return e.Amount
		}
	}
	return 0
}

// Node returns the snapshot of a node by ID.
func (s *GameSnapshot) Node(id string) (ResourceNode, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return ResourceNode{}, false
}

// SaveSummary describes a stored save slot without loading it.
type SaveSummary struct {
	Slot     string
	Name     string
	Version  int
	Tick     int64
	GameTime time.Time
	SavedAt  time.Time
}
