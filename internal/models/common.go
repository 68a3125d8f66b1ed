package models

import (
	"maps"
	"slices"
)

// DiscoveredNodesKey is the milestone requirement key that is satisfied by the
// number of discovered resource nodes rather than by an inventory amount.
const DiscoveredNodesKey = "discoveredNodes"

// ItemAmounts maps item IDs to quantities. Used for recipe inputs and outputs,
// build costs and milestone requirements.
type ItemAmounts map[string]float64

// Keys returns the item IDs in sorted order.
func (a ItemAmounts) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Total returns the sum of all quantities.
func (a ItemAmounts) Total() float64 {
	var total float64
	for _, v := range a {
		total += v
	}
	return total
}

// Scale returns a copy with every quantity multiplied by n.
func (a ItemAmounts) Scale(n float64) ItemAmounts {
	out := make(ItemAmounts, len(a))
	for k, v := range a {
		out[k] = v * n
	}
	return out
}

// Clone returns a copy of the map.
func (a ItemAmounts) Clone() ItemAmounts {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}

// Position is a tile coordinate on the world grid.
type Position struct {
	X int
	Y int
}

// DistanceSq returns the squared Euclidean distance to another position.
func (p Position) DistanceSq(o Position) int {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// Within reports whether o lies within radius of p (Euclidean, inclusive).
func (p Position) Within(o Position, radius float64) bool {
	return float64(p.DistanceSq(o)) <= radius*radius
}

// Add returns the position offset by dx, dy.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}
