package models

import "time"

// Milestone is a progression gate. Once Unlocked is true it stays true.
type Milestone struct {
	ID           string
	Name         string
	Requirements ItemAmounts
	Unlocks      []string // machine types
	Unlocked     bool
	CompletedAt  *time.Time
}

// RequirementProgress reports one requirement of a milestone against current state.
type RequirementProgress struct {
	Key      string
	Name     string
	Required float64
	Current  float64
}

// Met returns true if the requirement is currently satisfied.
func (r RequirementProgress) Met() bool {
	return r.Current >= r.Required
}

// Fraction returns progress toward the threshold in [0, 1].
func (r RequirementProgress) Fraction() float64 {
	if r.Required <= 0 {
		return 1
	}
	return min(r.Current/r.Required, 1)
}
