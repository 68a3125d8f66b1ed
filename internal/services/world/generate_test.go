package world

import (
	"errors"
	"slices"
	"testing"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/testutil"
)

func TestGenerate(t *testing.T) {
	cat := testutil.TestCatalog(t)
	in := GenerateInput{
		Seed:          42,
		Width:         30,
		Height:        20,
		Count:         25,
		Start:         models.Position{X: 15, Y: 10},
		StarterRadius: 4,
	}

	nodes, err := Generate(cat, in)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	t.Run("Count and defaults", func(t *testing.T) {
		if len(nodes) != 25 {
			t.Fatalf("len(nodes) = %d, want 25", len(nodes))
		}
		for _, n := range nodes {
			if n.Capacity != models.DefaultNodeCapacity || n.Remaining != n.Capacity {
				t.Errorf("node %s capacity %v remaining %v", n.ID, n.Capacity, n.Remaining)
			}
			if _, ok := cat.Node(n.Type); !ok {
				t.Errorf("node %s has unknown type %s", n.ID, n.Type)
			}
		}
	})

	t.Run("No shared tiles and start is free", func(t *testing.T) {
		seen := map[models.Position]string{}
		for _, n := range nodes {
			if n.Position == in.Start {
				t.Errorf("node %s on start tile", n.ID)
			}
			if other, dup := seen[n.Position]; dup {
				t.Errorf("nodes %s and %s share %v", other, n.ID, n.Position)
			}
			seen[n.Position] = n.ID
			if n.Position.X < 0 || n.Position.Y < 0 || n.Position.X >= in.Width || n.Position.Y >= in.Height {
				t.Errorf("node %s out of bounds at %v", n.ID, n.Position)
			}
		}
	})

	t.Run("Hand-mineable starter near start", func(t *testing.T) {
		found := false
		for _, n := range nodes {
			if n.Type == "ironNode" && in.Start.Within(n.Position, in.StarterRadius) {
				found = true
			}
		}
		if !found {
			t.Error("no ironNode within starter radius")
		}
	})

	t.Run("Deterministic from seed", func(t *testing.T) {
		again, err := Generate(cat, in)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !slices.Equal(nodes, again) {
			t.Error("same seed produced different worlds")
		}

		in2 := in
		in2.Seed = 43
		other, _ := Generate(cat, in2)
		if slices.Equal(nodes, other) {
			t.Error("different seeds produced identical worlds")
		}
	})
}

func TestGenerate_Invalid(t *testing.T) {
	cat := testutil.TestCatalog(t)

	tests := []struct {
		name    string
		in      GenerateInput
		wantErr error
	}{
		{"Too many nodes", GenerateInput{Width: 2, Height: 2, Count: 4}, ErrWorldTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(cat, tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("Zero size", func(t *testing.T) {
		if _, err := Generate(cat, GenerateInput{Count: 1}); err == nil {
			t.Error("Generate() expected error for zero-size world")
		}
	})
}
