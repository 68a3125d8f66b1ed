package models

import "time"

// MachineKind separates machines that pull from nodes from machines that run recipes.
type MachineKind string

const (
	MachineKindExtraction MachineKind = "EXTRACTION"
	MachineKindProcessing MachineKind = "PROCESSING"
)

// Valid returns true if the machine kind is valid.
func (k MachineKind) Valid() bool {
	switch k {
	case MachineKindExtraction, MachineKindProcessing:
		return true
	default:
		return false
	}
}

func (k MachineKind) String() string {
	return string(k)
}

// MachineState is the placement state of a machine instance. A machine that
// is not placed has no instance; it is an inventory amount.
type MachineState string

const (
	MachineStateUnassigned MachineState = "PLACED_UNASSIGNED"
	MachineStateAssigned   MachineState = "PLACED_ASSIGNED"
	MachineStatePaused     MachineState = "PAUSED"
)

func (s MachineState) String() string {
	return string(s)
}

// PlacedMachine is a machine instance in the factory.
type PlacedMachine struct {
	ID   string
	Type string
	Kind MachineKind

	// AssignedNodeID is empty for processing machines and detached extractors.
	AssignedNodeID string

	// RecipeID is empty until a recipe is bound (processing machines only).
	RecipeID string

	Efficiency float64
	IsIdle     bool
	PlacedAt   time.Time
}

// State derives the placement state from the instance fields.
func (m *PlacedMachine) State() MachineState {
	switch {
	case m.IsIdle:
		return MachineStatePaused
	case m.AssignedNodeID != "":
		return MachineStateAssigned
	default:
		return MachineStateUnassigned
	}
}

// IsExtraction returns true for node-bound machines.
func (m *PlacedMachine) IsExtraction() bool {
	return m.Kind == MachineKindExtraction
}

// IsProcessing returns true for recipe-running machines.
func (m *PlacedMachine) IsProcessing() bool {
	return m.Kind == MachineKindProcessing
}
