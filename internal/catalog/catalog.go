// Package catalog provides the static item, recipe, machine, node and
// milestone definitions for Oreline.
//
// The catalog is read from YAML once and resolved into typed definitions.
// After loading it is immutable and safe for concurrent reads.
package catalog

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/oreline/oreline/internal/models"
)

// NodeSuffix marks catalog entries that describe resource deposits.
const NodeSuffix = "Node"

// Category classifies catalog items.
type Category string

const (
	CategoryRawMaterial         Category = "rawMaterial"
	CategoryIntermediateProduct Category = "intermediateProduct"
	CategoryFinalProduct        Category = "finalProduct"
	CategoryConsumable          Category = "consumable"
	CategoryBuildable           Category = "buildable"
	CategoryRecipe              Category = "recipe"
)

// Valid returns true if the category is valid.
func (c Category) Valid() bool {
	switch c {
	case CategoryRawMaterial, CategoryIntermediateProduct, CategoryFinalProduct,
		CategoryConsumable, CategoryBuildable, CategoryRecipe:
		return true
	default:
		return false
	}
}

// machineKinds lists the machine types the simulation knows how to run.
var machineKinds = map[string]models.MachineKind{
	"miner":        models.MachineKindExtraction,
	"oilExtractor": models.MachineKindExtraction,
	"smelter":      models.MachineKindProcessing,
	"constructor":  models.MachineKindProcessing,
	"assembler":    models.MachineKindProcessing,
	"foundry":      models.MachineKindProcessing,
	"refinery":     models.MachineKindProcessing,
	"manufacturer": models.MachineKindProcessing,
}

// MachineKindOf returns the kind of a machine type.
func MachineKindOf(machineType string) (models.MachineKind, bool) {
	k, ok := machineKinds[machineType]
	return k, ok
}

// ItemDef is any catalog entry.
type ItemDef struct {
	ID             string
	Name           string
	Category       Category
	ManualMineable bool
}

// RecipeDef turns inputs into outputs on a processing machine.
type RecipeDef struct {
	ID             string
	Name           string
	Inputs         models.ItemAmounts
	Outputs        models.ItemAmounts
	Machine        string
	ProcessingTime time.Duration
}

// MachineDef is a buildable machine.
type MachineDef struct {
	ID        string
	Name      string
	Kind      models.MachineKind
	BuildCost models.ItemAmounts
}

// NodeDef is a resource deposit type.
type NodeDef struct {
	ID              string
	Name            string
	Output          string
	MachineRequired string
	ManualMineable  bool
}

// MilestoneDef is a progression gate.
type MilestoneDef struct {
	ID           string
	Name         string
	Requirements models.ItemAmounts
	Unlocks      []string
}

// Catalog is the resolved, immutable set of definitions.
type Catalog struct {
	items      map[string]ItemDef
	recipes    map[string]RecipeDef
	machines   map[string]MachineDef
	nodes      map[string]NodeDef
	milestones []MilestoneDef
}

// Item returns an item definition.
func (c *Catalog) Item(id string) (ItemDef, bool) {
	d, ok := c.items[id]
	return d, ok
}

// Name returns the display name of an item, or the id itself if unknown.
func (c *Catalog) Name(id string) string {
	if id == models.DiscoveredNodesKey {
		return "Discovered Nodes"
	}
	if d, ok := c.items[id]; ok {
		return d.Name
	}
	return id
}

// Recipe returns a recipe definition.
func (c *Catalog) Recipe(id string) (RecipeDef, bool) {
	d, ok := c.recipes[id]
	return d, ok
}

// Machine returns a machine definition.
func (c *Catalog) Machine(id string) (MachineDef, bool) {
	d, ok := c.machines[id]
	return d, ok
}

// Node returns a node type definition.
func (c *Catalog) Node(id string) (NodeDef, bool) {
	d, ok := c.nodes[id]
	return d, ok
}

// Items returns all item definitions sorted by ID.
func (c *Catalog) Items() []ItemDef {
	return sortedValues(c.items, func(d ItemDef) string { return d.ID })
}

// Recipes returns all recipes sorted by ID.
func (c *Catalog) Recipes() []RecipeDef {
	return sortedValues(c.recipes, func(d RecipeDef) string { return d.ID })
}

// RecipesFor returns the recipes a machine type can run, sorted by ID.
func (c *Catalog) RecipesFor(machineType string) []RecipeDef {
	var out []RecipeDef
	for _, r := range c.Recipes() {
		if r.Machine == machineType {
			out = append(out, r)
		}
	}
	return out
}

// Machines returns all machine definitions sorted by ID.
func (c *Catalog) Machines() []MachineDef {
	return sortedValues(c.machines, func(d MachineDef) string { return d.ID })
}

// Nodes returns all node type definitions sorted by ID.
func (c *Catalog) Nodes() []NodeDef {
	return sortedValues(c.nodes, func(d NodeDef) string { return d.ID })
}

// Milestones returns milestone definitions in progression order.
func (c *Catalog) Milestones() []MilestoneDef {
	return slices.Clone(c.milestones)
}

// IsNodeType reports whether an id names a resource deposit type.
func IsNodeType(id string) bool {
	return strings.HasSuffix(id, NodeSuffix) && len(id) > len(NodeSuffix)
}

func sortedValues[T any](m map[string]T, key func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(key(a), key(b)) })
	return out
}
