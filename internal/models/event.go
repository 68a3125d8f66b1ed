package models

import "time"

// EventType identifies a state change published by the engine.
type EventType string

const (
	EventMachineBuilt      EventType = "MACHINE_BUILT"
	EventMachinePlaced     EventType = "MACHINE_PLACED"
	EventMachineReassigned EventType = "MACHINE_REASSIGNED"
	EventMachinePaused     EventType = "MACHINE_PAUSED"
	EventMachineResumed    EventType = "MACHINE_RESUMED"
	EventRecipeAssigned    EventType = "RECIPE_ASSIGNED"
	EventNodeDiscovered    EventType = "NODE_DISCOVERED"
	EventNodeDepleted      EventType = "NODE_DEPLETED"
	EventNodeMined         EventType = "NODE_MINED"
	EventCraftStarted      EventType = "CRAFT_STARTED"
	EventCraftUnit         EventType = "CRAFT_UNIT_COMPLETED"
	EventCraftCompleted    EventType = "CRAFT_COMPLETED"
	EventCraftHalted       EventType = "CRAFT_HALTED"
	EventCraftPaused       EventType = "CRAFT_PAUSED"
	EventCraftResumed      EventType = "CRAFT_RESUMED"
	EventCraftCancelled    EventType = "CRAFT_CANCELLED"
	EventMilestoneComplete EventType = "MILESTONE_COMPLETED"
	EventGameRestored      EventType = "GAME_RESTORED"
)

func (t EventType) String() string {
	return string(t)
}

// Event is a notification delivered to engine subscribers after a state change.
// Only the fields relevant to Type are set.
type Event struct {
	Type        EventType
	Tick        int64
	At          time.Time
	MachineID   string
	NodeID      string
	ProcessID   string
	ItemID      string
	MilestoneID string
	Amount      float64
}
