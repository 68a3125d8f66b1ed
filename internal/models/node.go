package models

// DefaultNodeCapacity is the reserve of a freshly generated resource node.
const DefaultNodeCapacity = 1000

// ResourceNode is a resource deposit in the world.
type ResourceNode struct {
	ID       string
	Type     string // catalog node ID, e.g. "ironNode"
	Position Position
	Capacity float64
	// Remaining never increases and never drops below zero.
	Remaining float64
	// Extracted is the cumulative amount pulled by machines (not by hand).
	Extracted float64
}

// IsDepleted returns true if nothing is left to mine.
func (n *ResourceNode) IsDepleted() bool {
	return n.Remaining <= 0
}

// PercentRemaining returns the remaining reserve as a percentage of capacity.
func (n *ResourceNode) PercentRemaining() float64 {
	if n.Capacity <= 0 {
		return 0
	}
	return n.Remaining / n.Capacity * 100
}
