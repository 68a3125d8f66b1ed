package models

import "time"

// CraftStatus represents the lifecycle state of a crafting process.
type CraftStatus string

const (
	CraftStatusPending   CraftStatus = "PENDING"
	CraftStatusPaused    CraftStatus = "PAUSED"
	CraftStatusCancelled CraftStatus = "CANCELLED"
	CraftStatusCompleted CraftStatus = "COMPLETED"
)

// Valid returns true if the status is valid.
func (s CraftStatus) Valid() bool {
	switch s {
	case CraftStatusPending, CraftStatusPaused, CraftStatusCancelled, CraftStatusCompleted:
		return true
	default:
		return false
	}
}

// IsActive returns true while the process holds its machine's recipe slot.
func (s CraftStatus) IsActive() bool {
	return s == CraftStatusPending || s == CraftStatusPaused
}

// IsFinished returns true for terminal states.
func (s CraftStatus) IsFinished() bool {
	return s == CraftStatusCancelled || s == CraftStatusCompleted
}

func (s CraftStatus) String() string {
	return string(s)
}

// CraftingProcess is a player-initiated batch of recipe units on one machine.
//
// Time for the unit in progress is tracked as Accrued (banked before the last
// resume) plus the running segment since ResumedAt. Pausing banks the running
// segment, so paused wall time is never counted.
type CraftingProcess struct {
	ID        string
	MachineID string
	RecipeID  string
	ItemName  string

	Quantity       int
	UnitsCompleted int
	UnitTime       time.Duration

	Accrued   time.Duration
	ResumedAt time.Time
	StartedAt time.Time
	EndedAt   *time.Time

	Status     CraftStatus
	Halted     bool
	HaltReason string
}

// UnitElapsed returns the time counted toward the unit in progress, capped at UnitTime.
func (p *CraftingProcess) UnitElapsed(now time.Time) time.Duration {
	elapsed := p.Accrued
	if p.Status == CraftStatusPending {
		if running := now.Sub(p.ResumedAt); running > 0 {
			elapsed += running
		}
	}
	return min(elapsed, p.UnitTime)
}

// TotalTime is the time needed for the whole batch.
func (p *CraftingProcess) TotalTime() time.Duration {
	return time.Duration(p.Quantity) * p.UnitTime
}

// Progress returns cumulative batch progress: completed units plus the unit in flight.
func (p *CraftingProcess) Progress(now time.Time) time.Duration {
	done := time.Duration(p.UnitsCompleted) * p.UnitTime
	if p.Status.IsFinished() {
		return done
	}
	return min(done+p.UnitElapsed(now), p.TotalTime())
}

// Fraction returns batch progress in [0, 1].
func (p *CraftingProcess) Fraction(now time.Time) float64 {
	total := p.TotalTime()
	if total <= 0 {
		return 0
	}
	return float64(p.Progress(now)) / float64(total)
}

// UnitEndsAt returns when the unit in progress completes if left running.
// The second return is false when the process is not running.
func (p *CraftingProcess) UnitEndsAt() (time.Time, bool) {
	if p.Status != CraftStatusPending {
		return time.Time{}, false
	}
	return p.ResumedAt.Add(p.UnitTime - p.Accrued), true
}

// UnitsRemaining returns the number of units not yet produced.
func (p *CraftingProcess) UnitsRemaining() int {
	return p.Quantity - p.UnitsCompleted
}
