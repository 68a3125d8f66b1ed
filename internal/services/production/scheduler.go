// Package production provides the per-tick production scheduler.
//
// One tick is one simulated second. Each tick every active extraction machine
// pulls from its node into inventory, and every active processing machine that
// is not running a crafting batch tries to pay and emit its bound recipe.
package production

import (
	"log/slog"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/inventory"
	"github.com/oreline/oreline/internal/services/machines"
	"github.com/oreline/oreline/internal/services/world"
)

const (
	// DefaultExtractionRate is the units one machine pulls per tick at efficiency 1.
	DefaultExtractionRate = 1

	// DefaultNodeThroughputCap is the cumulative extraction allowed per assigned machine.
	DefaultNodeThroughputCap = 1000
)

// BusyFunc reports whether a machine is driven by the crafting queue.
type BusyFunc func(machineID string) bool

// Config holds scheduler tuning.
type Config struct {
	ExtractionRate    float64
	NodeThroughputCap float64
}

// TickReport summarizes one tick.
type TickReport struct {
	Tick      int64
	Extracted map[string]float64 // node id -> amount
	Produced  models.ItemAmounts
	Consumed  models.ItemAmounts
	Stalled   []string // processing machines that could not pay their recipe
	Depleted  []string // nodes that reached zero this tick
}

// Scheduler applies production ticks.
type Scheduler struct {
	catalog   *catalog.Catalog
	inventory *inventory.Ledger
	world     *world.Registry
	machines  *machines.Manager
	busy      BusyFunc
	cfg       Config
	logger    *slog.Logger
}

// NewScheduler creates a scheduler. busy may be nil when no crafting queue exists.
func NewScheduler(
	cat *catalog.Catalog,
	inv *inventory.Ledger,
	reg *world.Registry,
	mgr *machines.Manager,
	busy BusyFunc,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	if cfg.ExtractionRate <= 0 {
		cfg.ExtractionRate = DefaultExtractionRate
	}
	if cfg.NodeThroughputCap <= 0 {
		cfg.NodeThroughputCap = DefaultNodeThroughputCap
	}
	if busy == nil {
		busy = func(string) bool { return false }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		catalog:   cat,
		inventory: inv,
		world:     reg,
		machines:  mgr,
		busy:      busy,
		cfg:       cfg,
		logger:    logger,
	}
}

// Tick runs one tick over all placed machines in placement order.
// A machine that cannot produce is skipped; it never stops the tick.
func (s *Scheduler) Tick(tick int64) TickReport {
	report := TickReport{
		Tick:      tick,
		Extracted: make(map[string]float64),
		Produced:  make(models.ItemAmounts),
		Consumed:  make(models.ItemAmounts),
	}

	for _, m := range s.machines.Machines() {
		if m.IsIdle {
			continue
		}
		switch m.Kind {
		case models.MachineKindExtraction:
			s.extract(m, &report)
		case models.MachineKindProcessing:
			s.process(m, &report)
		}
	}

	if len(report.Stalled) > 0 || len(report.Depleted) > 0 {
		s.logger.Debug("tick applied",
			"tick", tick,
			"produced", report.Produced.Total(),
			"stalled", len(report.Stalled),
			"depleted", report.Depleted,
		)
	}
	return report
}

// ExtractionAmount returns how much a machine may pull from its node right now:
// the per-tick quantum, bounded by the node's remaining reserve, the node's
// shared throughput ceiling and the inventory headroom for the output item.
func (s *Scheduler) ExtractionAmount(m models.PlacedMachine) float64 {
	if m.AssignedNodeID == "" {
		return 0
	}
	node, ok := s.world.Node(m.AssignedNodeID)
	if !ok || node.Remaining <= 0 {
		return 0
	}
	def, ok := s.catalog.Node(node.Type)
	if !ok {
		return 0
	}

	efficiency := m.Efficiency
	if efficiency <= 0 {
		efficiency = 1
	}
	quantum := s.cfg.ExtractionRate * efficiency

	// Count from live assignments so machines sharing a node see the same ceiling.
	maxAllowed := float64(s.machines.CountOnNode(node.ID)) * s.cfg.NodeThroughputCap
	headroom := maxAllowed - node.Extracted

	amount := min(quantum, node.Remaining, headroom, s.inventory.Headroom(def.Output))
	return max(amount, 0)
}

func (s *Scheduler) extract(m models.PlacedMachine, report *TickReport) {
	amount := s.ExtractionAmount(m)
	if amount <= 0 {
		return
	}
	node, _ := s.world.Node(m.AssignedNodeID)
	def, _ := s.catalog.Node(node.Type)

	taken, err := s.world.Extract(node.ID, amount)
	if err != nil {
		s.logger.Warn("extraction failed", "machine_id", m.ID, "node", node.ID, "error", err)
		return
	}
	added := s.inventory.AddResource(def.Output, taken)

	report.Extracted[node.ID] += taken
	report.Produced[def.Output] += added
	if taken > 0 && s.world.Remaining(node.ID) <= 0 {
		report.Depleted = append(report.Depleted, node.ID)
	}
}

func (s *Scheduler) process(m models.PlacedMachine, report *TickReport) {
	if m.RecipeID == "" || s.busy(m.ID) {
		return
	}
	recipe, ok := s.catalog.Recipe(m.RecipeID)
	if !ok {
		return
	}
	if err := s.inventory.RemoveResources(recipe.Inputs); err != nil {
		report.Stalled = append(report.Stalled, m.ID)
		return
	}
	for item, qty := range recipe.Inputs {
		report.Consumed[item] += qty
	}
	for item, qty := range recipe.Outputs {
		report.Produced[item] += s.inventory.AddResource(item, qty)
	}
}
