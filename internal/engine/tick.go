package engine

import (
	"time"

	"github.com/oreline/oreline/internal/models"
)

// TickSummary aggregates the work done by one TickTo call.
type TickSummary struct {
	From     int64 // first tick applied
	To       int64 // last tick applied
	Applied  int
	Produced models.ItemAmounts
	Consumed models.ItemAmounts
	Stalled  int

	UnitsCrafted   int
	CraftsFinished int
	CraftsHalted   int
}

// TickTo applies every production tick after the last applied one up to and
// including n. Ticks already applied are never applied again, so calling it
// twice with the same n does nothing the second time. Crafting completions up
// to the clock's current time are processed first.
func (e *Engine) TickTo(n int64) TickSummary {
	e.mu.Lock()
	defer e.unlock()
	return e.tickTo(n)
}

// Tick applies exactly one more production tick.
func (e *Engine) Tick() TickSummary {
	e.mu.Lock()
	defer e.unlock()
	return e.tickTo(e.lastTick + 1)
}

// Sync catches production up with the game clock: one tick per elapsed
// simulated second since the epoch.
func (e *Engine) Sync() TickSummary {
	n := int64(e.clock.Elapsed() / time.Second)
	return e.TickTo(n)
}

func (e *Engine) tickTo(n int64) TickSummary {
	summary := TickSummary{
		From:     e.lastTick + 1,
		To:       e.lastTick,
		Produced: make(models.ItemAmounts),
		Consumed: make(models.ItemAmounts),
	}

	e.updateCrafting(&summary)

	for t := e.lastTick + 1; t <= n; t++ {
		report := e.st.scheduler.Tick(t)
		e.lastTick = t

		for item, qty := range report.Produced {
			summary.Produced[item] += qty
		}
		for item, qty := range report.Consumed {
			summary.Consumed[item] += qty
		}
		summary.Stalled += len(report.Stalled)
		for _, id := range report.Depleted {
			e.emit(models.Event{Type: models.EventNodeDepleted, NodeID: id})
		}
		summary.Applied++
	}
	summary.To = e.lastTick

	if summary.Applied > 0 {
		e.logger.Debug("ticks applied",
			"from", summary.From,
			"to", summary.To,
			"produced", summary.Produced.Total(),
			"stalled", summary.Stalled,
		)
	}
	return summary
}

func (e *Engine) updateCrafting(summary *TickSummary) {
	report := e.st.crafting.Update(e.clock.Now())

	for _, u := range report.Units {
		p, _ := e.st.crafting.Process(u.ProcessID)
		e.emit(models.Event{
			Type:      models.EventCraftUnit,
			At:        u.At,
			MachineID: u.MachineID,
			ProcessID: u.ProcessID,
			ItemID:    p.RecipeID,
			Amount:    1,
		})
	}
	for _, id := range report.Completed {
		p, _ := e.st.crafting.Process(id)
		e.emit(models.Event{
			Type:      models.EventCraftCompleted,
			MachineID: p.MachineID,
			ProcessID: id,
			ItemID:    p.RecipeID,
			Amount:    float64(p.UnitsCompleted),
		})
	}
	for _, id := range report.Halted {
		p, _ := e.st.crafting.Process(id)
		e.emit(models.Event{
			Type:      models.EventCraftHalted,
			MachineID: p.MachineID,
			ProcessID: id,
			ItemID:    p.RecipeID,
			Amount:    float64(p.UnitsCompleted),
		})
	}

	summary.UnitsCrafted = len(report.Units)
	summary.CraftsFinished = len(report.Completed)
	summary.CraftsHalted = len(report.Halted)
}
