// Package crafting provides the timed crafting queue.
//
// A crafting process produces Quantity units of a recipe on one machine, one
// unit per processing time. Inputs are paid when a unit completes, not when it
// starts, so cancelling never costs anything and a unit that cannot be paid at
// completion halts the batch with earlier units kept.
package crafting

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/inventory"
	"github.com/oreline/oreline/internal/util"
)

var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrRecipeMismatch  = errors.New("recipe does not run on this machine")
	ErrNotProcessing   = errors.New("not a processing machine")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrMachineBusy     = errors.New("machine already has an active craft")
	ErrProcessNotFound = errors.New("crafting process not found")
	ErrNotPending      = errors.New("crafting process is not running")
	ErrNotPausedCraft  = errors.New("crafting process is not paused")
	ErrFinished        = errors.New("crafting process already finished")
)

// Queue tracks crafting processes. It is not safe for concurrent use; the
// engine serializes access.
type Queue struct {
	catalog   *catalog.Catalog
	inventory *inventory.Ledger
	ids       *util.IDGenerator
	processes []*models.CraftingProcess
	logger    *slog.Logger
}

// NewQueue creates an empty crafting queue.
func NewQueue(cat *catalog.Catalog, inv *inventory.Ledger, ids *util.IDGenerator, logger *slog.Logger) *Queue {
	if ids == nil {
		ids = util.NewIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		catalog:   cat,
		inventory: inv,
		ids:       ids,
		logger:    logger,
	}
}

// Start begins a batch on a placed processing machine. One unit's inputs must
// be affordable now; each unit is paid again when it completes.
func (q *Queue) Start(machine models.PlacedMachine, input StartInput, now time.Time) (models.CraftingProcess, error) {
	if !machine.IsProcessing() {
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", ErrNotProcessing, machine.ID)
	}
	if input.Quantity <= 0 {
		return models.CraftingProcess{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, input.Quantity)
	}
	recipe, ok := q.catalog.Recipe(input.RecipeID)
	if !ok {
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, input.RecipeID)
	}
	if recipe.Machine != machine.Type {
		return models.CraftingProcess{}, fmt.Errorf("%w: %s runs on %s, not %s",
			ErrRecipeMismatch, recipe.ID, recipe.Machine, machine.Type)
	}
	if active, ok := q.active(machine.ID); ok {
		return models.CraftingProcess{}, fmt.Errorf("%w: %s is running %s", ErrMachineBusy, machine.ID, active.ID)
	}
	if !q.inventory.CanAfford(recipe.Inputs) {
		return models.CraftingProcess{}, fmt.Errorf("starting %s: %w", recipe.ID, inventory.ErrInsufficientResources)
	}

	p := &models.CraftingProcess{
		ID:        q.ids.NewID(),
		MachineID: machine.ID,
		RecipeID:  recipe.ID,
		ItemName:  recipe.Name,
		Quantity:  input.Quantity,
		UnitTime:  recipe.ProcessingTime,
		ResumedAt: now,
		StartedAt: now,
		Status:    models.CraftStatusPending,
	}
	q.processes = append(q.processes, p)

	q.logger.Info("craft started",
		"process_id", p.ID,
		"machine_id", p.MachineID,
		"recipe", p.RecipeID,
		"quantity", p.Quantity,
	)
	return *p, nil
}

// Pause banks the elapsed time of the unit in progress and stops the clock.
func (q *Queue) Pause(processID string, now time.Time) (models.CraftingProcess, error) {
	p, err := q.get(processID)
	if err != nil {
		return models.CraftingProcess{}, err
	}
	switch p.Status {
	case models.CraftStatusPending:
	case models.CraftStatusPaused:
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", ErrNotPending, processID)
	default:
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", ErrFinished, processID)
	}

	p.Accrued = p.UnitElapsed(now)
	p.Status = models.CraftStatusPaused
	return *p, nil
}

// Resume restarts the clock from the banked elapsed time.
func (q *Queue) Resume(processID string, now time.Time) (models.CraftingProcess, error) {
	p, err := q.get(processID)
	if err != nil {
		return models.CraftingProcess{}, err
	}
	switch p.Status {
	case models.CraftStatusPaused:
	case models.CraftStatusPending:
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", ErrNotPausedCraft, processID)
	default:
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", ErrFinished, processID)
	}

	p.ResumedAt = now
	p.Status = models.CraftStatusPending
	return *p, nil
}

// Cancel stops a batch. The unit in progress is discarded without any
// resource exchange; completed units keep their outputs.
func (q *Queue) Cancel(processID string, now time.Time) (models.CraftingProcess, error) {
	p, err := q.get(processID)
	if err != nil {
		return models.CraftingProcess{}, err
	}
	if p.Status.IsFinished() {
		return models.CraftingProcess{}, fmt.Errorf("%w: %s", ErrFinished, processID)
	}

	p.Accrued = 0
	p.Status = models.CraftStatusCancelled
	p.EndedAt = &now

	q.logger.Info("craft cancelled", "process_id", p.ID, "units_completed", p.UnitsCompleted)
	return *p, nil
}

// Update completes every unit whose time has elapsed by now. Time beyond a
// unit's end carries into the next unit of the same batch.
func (q *Queue) Update(now time.Time) UpdateReport {
	var report UpdateReport

	for _, p := range q.processes {
		if p.Status != models.CraftStatusPending {
			continue
		}
		recipe, ok := q.catalog.Recipe(p.RecipeID)
		if !ok {
			q.halt(p, now, "recipe no longer in catalog", &report)
			continue
		}

		for p.Status == models.CraftStatusPending {
			unitEnd, _ := p.UnitEndsAt()
			if now.Before(unitEnd) {
				break
			}

			if err := q.inventory.RemoveResources(recipe.Inputs); err != nil {
				q.halt(p, unitEnd, err.Error(), &report)
				break
			}
			for item, qty := range recipe.Outputs {
				q.inventory.AddResource(item, qty)
			}
			p.UnitsCompleted++
			report.Units = append(report.Units, UnitDone{ProcessID: p.ID, MachineID: p.MachineID, At: unitEnd})

			p.Accrued = 0
			p.ResumedAt = unitEnd
			if p.UnitsCompleted >= p.Quantity {
				p.Status = models.CraftStatusCompleted
				p.EndedAt = &unitEnd
				report.Completed = append(report.Completed, p.ID)
				q.logger.Info("craft completed", "process_id", p.ID, "units", p.UnitsCompleted)
			}
		}
	}

	return report
}

func (q *Queue) halt(p *models.CraftingProcess, at time.Time, reason string, report *UpdateReport) {
	p.Status = models.CraftStatusCompleted
	p.Halted = true
	p.HaltReason = reason
	p.Accrued = 0
	p.EndedAt = &at
	report.Halted = append(report.Halted, p.ID)

	q.logger.Info("craft halted",
		"process_id", p.ID,
		"units_completed", p.UnitsCompleted,
		"quantity", p.Quantity,
		"reason", reason,
	)
}

// ============================================================================
// QUERIES
// ============================================================================

// Process returns a process by id.
func (q *Queue) Process(id string) (models.CraftingProcess, bool) {
	p, err := q.get(id)
	if err != nil {
		return models.CraftingProcess{}, false
	}
	return *p, true
}

// Processes returns every process in start order.
func (q *Queue) Processes() []models.CraftingProcess {
	out := make([]models.CraftingProcess, len(q.processes))
	for i, p := range q.processes {
		out[i] = *p
	}
	return out
}

// Active returns the process holding a machine's recipe slot.
func (q *Queue) Active(machineID string) (models.CraftingProcess, bool) {
	p, ok := q.active(machineID)
	if !ok {
		return models.CraftingProcess{}, false
	}
	return *p, true
}

// IsBusy reports whether a machine has a pending or paused process.
func (q *Queue) IsBusy(machineID string) bool {
	_, ok := q.active(machineID)
	return ok
}

// ClearFinished drops completed and cancelled processes. It returns how many were removed.
func (q *Queue) ClearFinished() int {
	kept := q.processes[:0]
	for _, p := range q.processes {
		if !p.Status.IsFinished() {
			kept = append(kept, p)
		}
	}
	removed := len(q.processes) - len(kept)
	clear(q.processes[len(kept):])
	q.processes = kept
	return removed
}

// Restore replaces all processes.
func (q *Queue) Restore(processes []models.CraftingProcess) error {
	busy := make(map[string]string)
	q.processes = make([]*models.CraftingProcess, 0, len(processes))
	for _, p := range processes {
		if !p.Status.Valid() {
			return fmt.Errorf("restoring crafting process %s: invalid status %q", p.ID, p.Status)
		}
		if p.Status.IsActive() {
			if other, dup := busy[p.MachineID]; dup {
				return fmt.Errorf("restoring crafting process %s: %w (%s)", p.ID, ErrMachineBusy, other)
			}
			busy[p.MachineID] = p.ID
		}
		q.processes = append(q.processes, &p)
	}
	return nil
}

func (q *Queue) active(machineID string) (*models.CraftingProcess, bool) {
	for _, p := range q.processes {
		if p.MachineID == machineID && p.Status.IsActive() {
			return p, true
		}
	}
	return nil, false
}

func (q *Queue) get(id string) (*models.CraftingProcess, error) {
	for _, p := range q.processes {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, id)
}
