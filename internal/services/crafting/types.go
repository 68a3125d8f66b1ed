package crafting

import "time"

// StartInput contains data for starting a crafting batch.
type StartInput struct {
	RecipeID string
	Quantity int
}

// UnitDone records one completed unit.
type UnitDone struct {
	ProcessID string
	MachineID string
	At        time.Time
}

// UpdateReport summarizes one Update call.
type UpdateReport struct {
	Units     []UnitDone
	Completed []string // process ids that finished every unit
	Halted    []string // process ids stopped because a unit could not be paid
}
