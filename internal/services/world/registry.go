// Package world provides the resource node registry and node discovery.
package world

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
)

// DefaultDiscoveryRadius is the distance within which nodes become known.
const DefaultDiscoveryRadius = 5

var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrNodeUndiscovered = errors.New("node not discovered")
	ErrNodeDepleted     = errors.New("node depleted")
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrDuplicateNode    = errors.New("duplicate node")
	ErrInvalidCapacity  = errors.New("invalid node capacity")
)

// Registry owns node depletion state, the discovery set and the player position.
// It is not safe for concurrent use; the engine serializes access.
type Registry struct {
	catalog    *catalog.Catalog
	nodes      map[string]*models.ResourceNode
	order      []string
	discovered map[string]bool
	discOrder  []string
	player     models.Position
	logger     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(cat *catalog.Catalog, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		catalog:    cat,
		nodes:      make(map[string]*models.ResourceNode),
		discovered: make(map[string]bool),
		logger:     logger,
	}
}

// AddNode registers a node. Remaining is clamped into [0, capacity].
func (r *Registry) AddNode(n models.ResourceNode) error {
	if _, ok := r.catalog.Node(n.Type); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, n.Type)
	}
	if _, dup := r.nodes[n.ID]; dup || n.ID == "" {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	if n.Capacity <= 0 {
		return fmt.Errorf("%w: %s has capacity %g", ErrInvalidCapacity, n.ID, n.Capacity)
	}
	n.Remaining = min(max(n.Remaining, 0), n.Capacity)
	n.Extracted = max(n.Extracted, 0)
	r.nodes[n.ID] = &n
	r.order = append(r.order, n.ID)
	return nil
}

// Node returns a node by id.
func (r *Registry) Node(id string) (models.ResourceNode, bool) {
	n, ok := r.nodes[id]
	if !ok {
		return models.ResourceNode{}, false
	}
	return *n, true
}

// Def returns the catalog definition of a node's type.
func (r *Registry) Def(id string) (catalog.NodeDef, bool) {
	n, ok := r.nodes[id]
	if !ok {
		return catalog.NodeDef{}, false
	}
	return r.catalog.Node(n.Type)
}

// Nodes returns all nodes in registration order.
func (r *Registry) Nodes() []models.ResourceNode {
	out := make([]models.ResourceNode, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.nodes[id])
	}
	return out
}

// Remaining returns what is left in a node.
func (r *Registry) Remaining(id string) float64 {
	if n, ok := r.nodes[id]; ok {
		return n.Remaining
	}
	return 0
}

// Deplete sets a node's remaining amount to max(0, newAmount). Remaining
// never increases, so a larger value leaves the node unchanged. It returns
// the amount removed.
func (r *Registry) Deplete(id string, newAmount float64) (float64, error) {
	n, ok := r.nodes[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	next := min(n.Remaining, max(newAmount, 0))
	removed := n.Remaining - next
	n.Remaining = next
	if removed > 0 && next == 0 {
		r.logger.Info("node depleted", "node", id, "type", n.Type)
	}
	return removed, nil
}

// Extract takes up to amount from a node on behalf of machines and counts it
// toward the node's cumulative extraction. It returns the amount taken.
func (r *Registry) Extract(id string, amount float64) (float64, error) {
	n, ok := r.nodes[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if amount <= 0 {
		return 0, nil
	}
	taken, err := r.Deplete(id, n.Remaining-amount)
	if err != nil {
		return 0, err
	}
	n.Extracted += taken
	return taken, nil
}

// CheckEligible returns nil if a node exists, is discovered and is not depleted.
func (r *Registry) CheckEligible(id string) error {
	n, ok := r.nodes[id]
	switch {
	case !ok:
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	case !r.discovered[id]:
		return fmt.Errorf("%w: %s", ErrNodeUndiscovered, id)
	case n.IsDepleted():
		return fmt.Errorf("%w: %s", ErrNodeDepleted, id)
	}
	return nil
}

// ============================================================================
// DISCOVERY
// ============================================================================

// Discover marks a node as known. It returns true the first time only.
func (r *Registry) Discover(id string) bool {
	if _, ok := r.nodes[id]; !ok || r.discovered[id] {
		return false
	}
	r.discovered[id] = true
	r.discOrder = append(r.discOrder, id)
	r.logger.Debug("node discovered", "node", id)
	return true
}

// IsDiscovered reports whether a node is known.
func (r *Registry) IsDiscovered(id string) bool {
	return r.discovered[id]
}

// DiscoveredCount returns the number of known nodes.
func (r *Registry) DiscoveredCount() int {
	return len(r.discOrder)
}

// Discovered returns known node ids in discovery order.
func (r *Registry) Discovered() []string {
	return append([]string(nil), r.discOrder...)
}

// Player returns the player position.
func (r *Registry) Player() models.Position {
	return r.player
}

// MovePlayer sets the player position and discovers every node within
// radius. It returns the ids discovered by this move.
func (r *Registry) MovePlayer(pos models.Position, radius float64) []string {
	r.player = pos
	var found []string
	for _, id := range r.order {
		if pos.Within(r.nodes[id].Position, radius) && r.Discover(id) {
			found = append(found, id)
		}
	}
	return found
}

// InReach reports whether a node is within radius of the player.
func (r *Registry) InReach(id string, radius float64) bool {
	n, ok := r.nodes[id]
	return ok && r.player.Within(n.Position, radius)
}

// NodeAt returns the node on a tile, if any.
func (r *Registry) NodeAt(pos models.Position) (models.ResourceNode, bool) {
	for _, id := range r.order {
		if r.nodes[id].Position == pos {
			return *r.nodes[id], true
		}
	}
	return models.ResourceNode{}, false
}

// Restore replaces all registry state.
func (r *Registry) Restore(nodes []models.ResourceNode, discovered []string, player models.Position) error {
	r.nodes = make(map[string]*models.ResourceNode, len(nodes))
	r.order = nil
	r.discovered = make(map[string]bool, len(discovered))
	r.discOrder = nil
	r.player = player

	for _, n := range nodes {
		if err := r.AddNode(n); err != nil {
			return fmt.Errorf("restoring node: %w", err)
		}
	}
	for _, id := range discovered {
		r.Discover(id)
	}
	return nil
}
