// Package inventory provides the inventory ledger for Oreline.
//
// The ledger is the only owner of item quantities. Every change goes through
// AddResource or RemoveResources; amounts stay within [0, cap].
package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/util"
)

// DefaultResourceCap is the per-item stock limit.
const DefaultResourceCap = 10000

// UnknownItemName is the display name of items missing from the catalog.
const UnknownItemName = "Unknown"

var (
	// ErrInsufficientResources is returned when a cost cannot be paid in full.
	ErrInsufficientResources = errors.New("insufficient resources")

	// ErrOwnedMachineNotFound is returned for an unknown owned machine id.
	ErrOwnedMachineNotFound = errors.New("owned machine not found")
)

// Ledger holds item stock and the owned-machine list.
// It is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	catalog     *catalog.Catalog
	resourceCap float64
	entries     map[string]*models.InventoryEntry
	owned       []*models.OwnedMachine
	ids         *util.IDGenerator
	logger      *slog.Logger
}

// NewLedger creates an empty ledger. A non-positive cap uses DefaultResourceCap.
func NewLedger(cat *catalog.Catalog, resourceCap float64, ids *util.IDGenerator, logger *slog.Logger) *Ledger {
	if resourceCap <= 0 {
		resourceCap = DefaultResourceCap
	}
	if ids == nil {
		ids = util.NewIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		catalog:     cat,
		resourceCap: resourceCap,
		entries:     make(map[string]*models.InventoryEntry),
		ids:         ids,
		logger:      logger,
	}
}

// Cap returns the per-item stock limit.
func (l *Ledger) Cap() float64 {
	return l.resourceCap
}

// ============================================================================
// QUANTITIES
// ============================================================================

// AddResource adds amount of an item, clamped to the cap, and returns the
// amount actually added. Unknown items are created on first use.
// Non-positive amounts are ignored.
func (l *Ledger) AddResource(itemID string, amount float64) float64 {
	e := l.entry(itemID)
	if amount <= 0 {
		return 0
	}
	before := e.Amount
	e.Amount = min(e.Amount+amount, l.resourceCap)
	return e.Amount - before
}

// RemoveResources deducts every item in cost or none of them.
func (l *Ledger) RemoveResources(cost models.ItemAmounts) error {
	if item, ok := l.shortfall(cost); !ok {
		return fmt.Errorf("%w: need %g %s, have %g",
			ErrInsufficientResources, cost[item], item, l.Amount(item))
	}
	for item, qty := range cost {
		if qty <= 0 {
			continue
		}
		e := l.entry(item)
		e.Amount = max(e.Amount-qty, 0)
	}
	return nil
}

// CanAfford reports whether cost could be paid right now.
func (l *Ledger) CanAfford(cost models.ItemAmounts) bool {
	_, ok := l.shortfall(cost)
	return ok
}

// shortfall returns the first item (in sorted order) that cannot be paid.
func (l *Ledger) shortfall(cost models.ItemAmounts) (string, bool) {
	for _, item := range cost.Keys() {
		if l.Amount(item) < cost[item] {
			return item, false
		}
	}
	return "", true
}

// Amount returns the held amount of an item, zero if never seen.
func (l *Ledger) Amount(itemID string) float64 {
	if e, ok := l.entries[itemID]; ok {
		return e.Amount
	}
	return 0
}

// Headroom returns how much more of an item fits under the cap.
func (l *Ledger) Headroom(itemID string) float64 {
	return max(l.resourceCap-l.Amount(itemID), 0)
}

// Entry returns the ledger entry for an item.
func (l *Ledger) Entry(itemID string) (models.InventoryEntry, bool) {
	e, ok := l.entries[itemID]
	if !ok {
		return models.InventoryEntry{}, false
	}
	return *e, true
}

// Snapshot returns all entries sorted by item id.
func (l *Ledger) Snapshot() []models.InventoryEntry {
	out := make([]models.InventoryEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b models.InventoryEntry) int {
		return strings.Compare(a.ItemID, b.ItemID)
	})
	return out
}

// Total returns the sum of all held amounts.
func (l *Ledger) Total() float64 {
	var total float64
	for _, e := range l.entries {
		total += e.Amount
	}
	return total
}

func (l *Ledger) entry(itemID string) *models.InventoryEntry {
	if e, ok := l.entries[itemID]; ok {
		return e
	}
	name := UnknownItemName
	if def, ok := l.catalog.Item(itemID); ok {
		name = def.Name
	} else {
		l.logger.Warn("inventory: unknown item materialized", "item", itemID)
	}
	e := &models.InventoryEntry{ItemID: itemID, Name: name}
	l.entries[itemID] = e
	return e
}

// ============================================================================
// OWNED MACHINES
// ============================================================================

// AddOwnedMachine records a newly built machine.
func (l *Ledger) AddOwnedMachine(machineType string) models.OwnedMachine {
	m := &models.OwnedMachine{ID: l.ids.NewID(), Type: machineType}
	l.owned = append(l.owned, m)
	return *m
}

// ClaimOwnedMachine marks the first unplaced machine of a type as placed.
// Machines granted as plain inventory have no record yet; one is created.
func (l *Ledger) ClaimOwnedMachine(machineType string) models.OwnedMachine {
	for _, m := range l.owned {
		if m.Type == machineType && !m.Placed {
			m.Placed = true
			return *m
		}
	}
	m := &models.OwnedMachine{ID: l.ids.NewID(), Type: machineType, Placed: true}
	l.owned = append(l.owned, m)
	return *m
}

// SetOwnedRecipe records the recipe currently bound to an owned machine.
func (l *Ledger) SetOwnedRecipe(machineID, recipeID string) error {
	for _, m := range l.owned {
		if m.ID == machineID {
			m.CurrentRecipeID = recipeID
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOwnedMachineNotFound, machineID)
}

// OwnedMachines returns the owned-machine list in creation order.
func (l *Ledger) OwnedMachines() []models.OwnedMachine {
	out := make([]models.OwnedMachine, len(l.owned))
	for i, m := range l.owned {
		out[i] = *m
	}
	return out
}

// ============================================================================
// RESTORE
// ============================================================================

// Restore replaces all ledger state. Amounts are clamped into [0, cap].
func (l *Ledger) Restore(entries []models.InventoryEntry, owned []models.OwnedMachine) {
	l.entries = make(map[string]*models.InventoryEntry, len(entries))
	for _, e := range entries {
		e.Amount = min(max(e.Amount, 0), l.resourceCap)
		if e.Name == "" {
			e.Name = l.catalog.Name(e.ItemID)
		}
		l.entries[e.ItemID] = &e
	}
	l.owned = make([]*models.OwnedMachine, len(owned))
	for i := range owned {
		m := owned[i]
		l.owned[i] = &m
	}
}
