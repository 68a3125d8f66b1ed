package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/models"
)

// ErrWorldTooSmall is returned when the requested nodes cannot be placed.
var ErrWorldTooSmall = errors.New("world too small for node count")

// GenerateInput controls world generation.
type GenerateInput struct {
	Seed     uint64
	Width    int
	Height   int
	Count    int
	Capacity float64
	Start    models.Position

	// StarterRadius places one node of every hand-mineable type this close
	// to the start so a new game can always begin.
	StarterRadius float64
}

// Generate lays out resource nodes deterministically from the seed.
// No two nodes share a tile and none sits on the start tile.
func Generate(cat *catalog.Catalog, in GenerateInput) ([]models.ResourceNode, error) {
	types := cat.Nodes()
	if len(types) == 0 {
		return nil, errors.New("catalog defines no node types")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return nil, fmt.Errorf("invalid world size %dx%d", in.Width, in.Height)
	}
	if in.Count > in.Width*in.Height-1 {
		return nil, fmt.Errorf("%w: %d nodes on %dx%d", ErrWorldTooSmall, in.Count, in.Width, in.Height)
	}
	if in.Capacity <= 0 {
		in.Capacity = models.DefaultNodeCapacity
	}

	rng := rand.New(rand.NewPCG(in.Seed, in.Seed^0x9e3779b97f4a7c15))
	occupied := map[models.Position]bool{in.Start: true}
	nodes := make([]models.ResourceNode, 0, in.Count)

	inBounds := func(p models.Position) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < in.Width && p.Y < in.Height
	}
	add := func(nodeType string, p models.Position) {
		occupied[p] = true
		nodes = append(nodes, models.ResourceNode{
			ID:        fmt.Sprintf("node-%03d", len(nodes)+1),
			Type:      nodeType,
			Position:  p,
			Capacity:  in.Capacity,
			Remaining: in.Capacity,
		})
	}

	if in.StarterRadius >= 1 {
		r := int(math.Floor(in.StarterRadius))
		for _, def := range types {
			if !def.ManualMineable || len(nodes) >= in.Count {
				continue
			}
			for range 200 {
				p := in.Start.Add(rng.IntN(2*r+1)-r, rng.IntN(2*r+1)-r)
				if inBounds(p) && !occupied[p] && in.Start.Within(p, in.StarterRadius) {
					add(def.ID, p)
					break
				}
			}
		}
	}

	attempts := 0
	for len(nodes) < in.Count {
		attempts++
		if attempts > in.Count*100+1000 {
			return nil, fmt.Errorf("%w: placed %d of %d", ErrWorldTooSmall, len(nodes), in.Count)
		}
		p := models.Position{X: rng.IntN(in.Width), Y: rng.IntN(in.Height)}
		if occupied[p] {
			continue
		}
		add(types[rng.IntN(len(types))].ID, p)
	}

	return nodes, nil
}
