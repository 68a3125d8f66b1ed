// Package engine owns the factory simulation state and is the single entry
// point for every mutation.
//
// The engine wires the inventory ledger, node registry, placement manager,
// production scheduler, crafting queue and milestone tracker together. All
// calls are serialized by one mutex, so a host may drive ticks from a timer
// goroutine while the UI issues commands. Subscribers are notified after the
// lock is released, in the order the changes happened.
package engine

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/crafting"
	"github.com/oreline/oreline/internal/services/inventory"
	"github.com/oreline/oreline/internal/services/machines"
	"github.com/oreline/oreline/internal/services/milestones"
	"github.com/oreline/oreline/internal/services/production"
	"github.com/oreline/oreline/internal/services/world"
	"github.com/oreline/oreline/internal/util"
)

var (
	ErrNotManualMineable = errors.New("node cannot be mined by hand")
	ErrOutOfReach        = errors.New("node out of reach")
	ErrInventoryFull     = errors.New("inventory full")
	ErrSnapshotVersion   = errors.New("unsupported snapshot version")
)

// Options tunes the simulation. Zero values take the package defaults.
type Options struct {
	ResourceCap        float64
	MaxMachinesPerNode int
	NodeThroughputCap  float64
	ExtractionRate     float64
	DiscoveryRadius    float64

	Clock  *util.GameClock
	IDs    *util.IDGenerator
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ResourceCap <= 0 {
		o.ResourceCap = inventory.DefaultResourceCap
	}
	if o.MaxMachinesPerNode <= 0 {
		o.MaxMachinesPerNode = machines.DefaultMaxMachinesPerNode
	}
	if o.NodeThroughputCap <= 0 {
		o.NodeThroughputCap = production.DefaultNodeThroughputCap
	}
	if o.ExtractionRate <= 0 {
		o.ExtractionRate = production.DefaultExtractionRate
	}
	if o.DiscoveryRadius <= 0 {
		o.DiscoveryRadius = world.DefaultDiscoveryRadius
	}
	if o.IDs == nil {
		o.IDs = util.NewIDGenerator()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// state is one complete set of simulation components. NewGame and Restore
// build a fresh state and swap it in only when it is fully valid.
type state struct {
	inventory  *inventory.Ledger
	world      *world.Registry
	machines   *machines.Manager
	scheduler  *production.Scheduler
	crafting   *crafting.Queue
	milestones *milestones.Tracker
}

// Engine coordinates all simulation components.
type Engine struct {
	mu sync.Mutex

	catalog *catalog.Catalog
	clock   *util.GameClock
	opts    Options
	logger  *slog.Logger

	st       *state
	name     string
	seed     uint64
	lastTick int64

	subscribers map[int]func(models.Event)
	nextSubID   int
	pending     []models.Event
}

// New creates an engine with an empty world. Call NewGame or Restore before play.
func New(cat *catalog.Catalog, opts Options) *Engine {
	opts = opts.withDefaults()
	clock := opts.Clock
	if clock == nil {
		clock = util.NewGameClock(time.Now().UTC().Truncate(time.Second), 1)
	}
	e := &Engine{
		catalog:     cat,
		clock:       clock,
		opts:        opts,
		logger:      opts.Logger,
		subscribers: make(map[int]func(models.Event)),
	}
	e.st = e.newState()
	return e
}

func (e *Engine) newState() *state {
	st := &state{}
	st.inventory = inventory.NewLedger(e.catalog, e.opts.ResourceCap, e.opts.IDs, e.logger)
	st.world = world.NewRegistry(e.catalog, e.logger)
	st.machines = machines.NewManager(e.catalog, st.inventory, st.world, e.opts.MaxMachinesPerNode, e.logger)
	st.crafting = crafting.NewQueue(e.catalog, st.inventory, e.opts.IDs, e.logger)
	st.scheduler = production.NewScheduler(
		e.catalog,
		st.inventory,
		st.world,
		st.machines,
		st.crafting.IsBusy,
		production.Config{
			ExtractionRate:    e.opts.ExtractionRate,
			NodeThroughputCap: e.opts.NodeThroughputCap,
		},
		e.logger,
	)
	st.milestones = milestones.NewTracker(e.catalog, e.logger)
	return st
}

// Catalog returns the item catalog the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Clock returns the game clock.
func (e *Engine) Clock() *util.GameClock {
	return e.clock
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Name returns the current game's name.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Seed returns the world seed of the current game.
func (e *Engine) Seed() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seed
}

// LastTick returns the last applied production tick.
func (e *Engine) LastTick() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTick
}

// ============================================================================
// OBSERVERS
// ============================================================================

// Subscribe registers fn for every future event and returns a function that
// removes it. fn runs on the goroutine that made the change, outside the
// engine lock, so it may call back into the engine.
func (e *Engine) Subscribe(fn func(models.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// emit queues an event for delivery once the current call releases the lock.
func (e *Engine) emit(ev models.Event) {
	ev.Tick = e.lastTick
	if ev.At.IsZero() {
		ev.At = e.clock.Now()
	}
	e.pending = append(e.pending, ev)
}

// unlock releases the lock and delivers queued events.
func (e *Engine) unlock() {
	events := e.pending
	e.pending = nil

	var subs []func(models.Event)
	if len(events) > 0 {
		ids := make([]int, 0, len(e.subscribers))
		for id := range e.subscribers {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			subs = append(subs, e.subscribers[id])
		}
	}
	e.mu.Unlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}
