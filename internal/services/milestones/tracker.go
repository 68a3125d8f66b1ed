// Package milestones tracks progression milestones and the machine unlocks they grant.
package milestones

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
)

var (
	ErrRequirementsNotMet = errors.New("milestone requirements not met")
	ErrAllComplete        = errors.New("all milestones complete")
	ErrMachineLocked      = errors.New("machine locked by milestone")
)

// Inventory is the read-only view of stock the tracker evaluates against.
type Inventory interface {
	Amount(itemID string) float64
}

// Tracker holds milestones in progression order.
// It never mutates inventory or discovery state.
type Tracker struct {
	catalog    *catalog.Catalog
	milestones []*models.Milestone
	lockedBy   map[string]string // machine type -> milestone id
	logger     *slog.Logger
}

// NewTracker creates a tracker with every catalog milestone locked.
func NewTracker(cat *catalog.Catalog, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		catalog:  cat,
		lockedBy: make(map[string]string),
		logger:   logger,
	}
	for _, def := range cat.Milestones() {
		t.milestones = append(t.milestones, &models.Milestone{
			ID:           def.ID,
			Name:         def.Name,
			Requirements: def.Requirements.Clone(),
			Unlocks:      append([]string(nil), def.Unlocks...),
		})
		for _, machine := range def.Unlocks {
			if _, seen := t.lockedBy[machine]; !seen {
				t.lockedBy[machine] = def.ID
			}
		}
	}
	return t
}

// Current returns the first milestone that is not yet unlocked.
func (t *Tracker) Current() (models.Milestone, bool) {
	m := t.current()
	if m == nil {
		return models.Milestone{}, false
	}
	return *m, true
}

func (t *Tracker) current() *models.Milestone {
	for _, m := range t.milestones {
		if !m.Unlocked {
			return m
		}
	}
	return nil
}

// Progress reports every requirement of the current milestone, sorted by key.
func (t *Tracker) Progress(inv Inventory, discovered int) []models.RequirementProgress {
	m := t.current()
	if m == nil {
		return nil
	}
	out := make([]models.RequirementProgress, 0, len(m.Requirements))
	for _, key := range m.Requirements.Keys() {
		current := float64(discovered)
		if key != models.DiscoveredNodesKey {
			current = inv.Amount(key)
		}
		out = append(out, models.RequirementProgress{
			Key:      key,
			Name:     t.catalog.Name(key),
			Required: m.Requirements[key],
			Current:  current,
		})
	}
	return out
}

// CanCompleteCurrent reports whether every requirement of the current
// milestone is satisfied right now.
func (t *Tracker) CanCompleteCurrent(inv Inventory, discovered int) bool {
	if t.current() == nil {
		return false
	}
	for _, r := range t.Progress(inv, discovered) {
		if !r.Met() {
			return false
		}
	}
	return true
}

// CompleteCurrent unlocks the current milestone if its requirements are met.
// Nothing changes otherwise.
func (t *Tracker) CompleteCurrent(inv Inventory, discovered int, now time.Time) (models.Milestone, error) {
	m := t.current()
	if m == nil {
		return models.Milestone{}, ErrAllComplete
	}
	if !t.CanCompleteCurrent(inv, discovered) {
		return models.Milestone{}, fmt.Errorf("%w: %s", ErrRequirementsNotMet, m.ID)
	}

	m.Unlocked = true
	m.CompletedAt = &now

	t.logger.Info("milestone completed", "milestone", m.ID, "unlocks", m.Unlocks)
	return *m, nil
}

// IsUnlocked reports whether a machine type may be built. Machine types no
// milestone mentions are always available.
func (t *Tracker) IsUnlocked(machineType string) bool {
	id, gated := t.lockedBy[machineType]
	if !gated {
		return true
	}
	for _, m := range t.milestones {
		if m.ID == id {
			return m.Unlocked
		}
	}
	return true
}

// CheckUnlocked returns ErrMachineLocked naming the gating milestone.
func (t *Tracker) CheckUnlocked(machineType string) error {
	if t.IsUnlocked(machineType) {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", ErrMachineLocked, machineType, t.lockedBy[machineType])
}

// Milestones returns every milestone in order.
func (t *Tracker) Milestones() []models.Milestone {
	out := make([]models.Milestone, len(t.milestones))
	for i, m := range t.milestones {
		out[i] = *m
	}
	return out
}

// Restore applies saved unlock state by milestone id. Milestones missing from
// the catalog are ignored; unlocked flags never revert.
func (t *Tracker) Restore(saved []models.Milestone) {
	byID := make(map[string]models.Milestone, len(saved))
	for _, m := range saved {
		byID[m.ID] = m
	}
	for _, m := range t.milestones {
		s, ok := byID[m.ID]
		if !ok || !s.Unlocked {
			continue
		}
		m.Unlocked = true
		m.CompletedAt = s.CompletedAt
	}
}
