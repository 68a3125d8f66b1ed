package inventory

import (
	"errors"
	"testing"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/testutil"
)

func newTestLedger(t *testing.T, resourceCap float64) *Ledger {
	t.Helper()
	return NewLedger(testutil.TestCatalog(t), resourceCap, nil, testutil.DiscardLogger())
}

func TestLedger_AddResource(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		add       float64
		wantAdded float64
		wantTotal float64
	}{
		{"Add to empty", 0, 5, 5, 5},
		{"Add to existing", 10, 2.5, 2.5, 12.5},
		{"Clamped at cap", 95, 10, 5, 100},
		{"Already at cap", 100, 1, 0, 100},
		{"Zero ignored", 10, 0, 0, 10},
		{"Negative ignored", 10, -4, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t, 100)
			l.AddResource("ironOre", tt.start)

			if got := l.AddResource("ironOre", tt.add); got != tt.wantAdded {
				t.Errorf("AddResource() = %v, want %v", got, tt.wantAdded)
			}
			if got := l.Amount("ironOre"); got != tt.wantTotal {
				t.Errorf("Amount() = %v, want %v", got, tt.wantTotal)
			}
		})
	}
}

func TestLedger_AddResource_UnknownItem(t *testing.T) {
	l := newTestLedger(t, 100)

	l.AddResource("mysteryGoo", 3)

	e, ok := l.Entry("mysteryGoo")
	if !ok {
		t.Fatal("unknown item was not materialized")
	}
	if e.Name != UnknownItemName {
		t.Errorf("Name = %q, want %q", e.Name, UnknownItemName)
	}
	if e.Amount != 3 {
		t.Errorf("Amount = %v, want 3", e.Amount)
	}

	l.AddResource("ironOre", 0)
	iron, ok := l.Entry("ironOre")
	if !ok || iron.Name != "Iron Ore" || iron.Amount != 0 {
		t.Errorf("zero add should materialize a zero entry with catalog name, got %+v ok=%v", iron, ok)
	}
}

func TestLedger_CapInvariant(t *testing.T) {
	l := newTestLedger(t, 50)
	amounts := []float64{7, 13, -2, 0.5, 40, 9, 100, 3}

	for i, a := range amounts {
		l.AddResource("coal", a)
		got := l.Amount("coal")
		if got < 0 || got > 50 {
			t.Fatalf("after add %d amount = %v, outside [0, 50]", i, got)
		}
	}
	if got := l.Amount("coal"); got != 50 {
		t.Errorf("final amount = %v, want 50", got)
	}
}

func TestLedger_RemoveResources(t *testing.T) {
	t.Run("Pays every item", func(t *testing.T) {
		l := newTestLedger(t, 100)
		l.AddResource("ironIngot", 3)
		l.AddResource("wire", 2)

		if err := l.RemoveResources(models.ItemAmounts{"ironIngot": 1, "wire": 2}); err != nil {
			t.Fatalf("RemoveResources() error = %v", err)
		}
		if got := l.Amount("ironIngot"); got != 2 {
			t.Errorf("ironIngot = %v, want 2", got)
		}
		if got := l.Amount("wire"); got != 0 {
			t.Errorf("wire = %v, want 0", got)
		}
	})

	t.Run("Partial affordability changes nothing", func(t *testing.T) {
		l := newTestLedger(t, 100)
		l.AddResource("ironIngot", 5)
		l.AddResource("wire", 5)
		l.AddResource("coal", 1)
		before := l.Snapshot()

		err := l.RemoveResources(models.ItemAmounts{"ironIngot": 1, "wire": 1, "coal": 2})
		if !errors.Is(err, ErrInsufficientResources) {
			t.Fatalf("RemoveResources() error = %v, want ErrInsufficientResources", err)
		}

		after := l.Snapshot()
		if len(after) != len(before) {
			t.Fatalf("snapshot length changed: %d -> %d", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("entry %s changed: %+v -> %+v", before[i].ItemID, before[i], after[i])
			}
		}
	})

	t.Run("Unknown item cannot be paid", func(t *testing.T) {
		l := newTestLedger(t, 100)
		if err := l.RemoveResources(models.ItemAmounts{"mysteryGoo": 1}); !errors.Is(err, ErrInsufficientResources) {
			t.Errorf("RemoveResources() error = %v, want ErrInsufficientResources", err)
		}
	})

	t.Run("Empty cost succeeds", func(t *testing.T) {
		l := newTestLedger(t, 100)
		if err := l.RemoveResources(nil); err != nil {
			t.Errorf("RemoveResources(nil) error = %v", err)
		}
	})
}

func TestLedger_CanAfford(t *testing.T) {
	l := newTestLedger(t, 100)
	l.AddResource("ironOre", 5)

	tests := []struct {
		name string
		cost models.ItemAmounts
		want bool
	}{
		{"Exact amount", models.ItemAmounts{"ironOre": 5}, true},
		{"Less", models.ItemAmounts{"ironOre": 1}, true},
		{"More", models.ItemAmounts{"ironOre": 6}, false},
		{"Missing item", models.ItemAmounts{"ironOre": 1, "coal": 1}, false},
		{"Nothing", models.ItemAmounts{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.CanAfford(tt.cost); got != tt.want {
				t.Errorf("CanAfford(%v) = %v, want %v", tt.cost, got, tt.want)
			}
		})
	}
	if got := l.Amount("ironOre"); got != 5 {
		t.Errorf("CanAfford mutated inventory: ironOre = %v", got)
	}
}

func TestLedger_Conservation(t *testing.T) {
	l := newTestLedger(t, 100)
	l.AddResource("ironOre", 5)
	totalBefore := l.Total()

	cost := models.ItemAmounts{"ironOre": 5}
	outputs := models.ItemAmounts{"ironIngot": 1}
	if err := l.RemoveResources(cost); err != nil {
		t.Fatalf("RemoveResources() error = %v", err)
	}
	for item, qty := range outputs {
		l.AddResource(item, qty)
	}

	if got, want := l.Total(), totalBefore-cost.Total()+outputs.Total(); got != want {
		t.Errorf("Total() = %v, want %v", got, want)
	}
	if l.Amount("ironOre") != 0 || l.Amount("ironIngot") != 1 {
		t.Errorf("ironOre = %v, ironIngot = %v; want 0, 1", l.Amount("ironOre"), l.Amount("ironIngot"))
	}
}

func TestLedger_Headroom(t *testing.T) {
	l := newTestLedger(t, 100)
	l.AddResource("coal", 70)

	if got := l.Headroom("coal"); got != 30 {
		t.Errorf("Headroom(coal) = %v, want 30", got)
	}
	if got := l.Headroom("ironOre"); got != 100 {
		t.Errorf("Headroom(ironOre) = %v, want 100", got)
	}
}

func TestLedger_OwnedMachines(t *testing.T) {
	l := newTestLedger(t, 100)

	built := l.AddOwnedMachine("miner")
	if built.ID == "" || built.Placed {
		t.Fatalf("AddOwnedMachine() = %+v", built)
	}

	t.Run("Claim uses existing unplaced record", func(t *testing.T) {
		claimed := l.ClaimOwnedMachine("miner")
		if claimed.ID != built.ID {
			t.Errorf("claimed %s, want %s", claimed.ID, built.ID)
		}
		if !claimed.Placed {
			t.Error("claimed machine should be marked placed")
		}
	})

	t.Run("Claim mints a record when none is free", func(t *testing.T) {
		claimed := l.ClaimOwnedMachine("miner")
		if claimed.ID == built.ID {
			t.Error("claimed the already placed machine twice")
		}
		if got := len(l.OwnedMachines()); got != 2 {
			t.Errorf("len(OwnedMachines()) = %d, want 2", got)
		}
	})

	t.Run("SetOwnedRecipe", func(t *testing.T) {
		if err := l.SetOwnedRecipe(built.ID, "ironIngot"); err != nil {
			t.Fatalf("SetOwnedRecipe() error = %v", err)
		}
		if got := l.OwnedMachines()[0].CurrentRecipeID; got != "ironIngot" {
			t.Errorf("CurrentRecipeID = %q, want ironIngot", got)
		}
		if err := l.SetOwnedRecipe("nope", "ironIngot"); !errors.Is(err, ErrOwnedMachineNotFound) {
			t.Errorf("SetOwnedRecipe(nope) error = %v, want ErrOwnedMachineNotFound", err)
		}
	})
}

func TestLedger_Restore(t *testing.T) {
	l := newTestLedger(t, 100)
	l.AddResource("coal", 9)

	l.Restore(
		[]models.InventoryEntry{
			{ItemID: "ironOre", Amount: 40},
			{ItemID: "wire", Amount: 250},
			{ItemID: "coal", Amount: -3},
		},
		[]models.OwnedMachine{{ID: "m1", Type: "miner", Placed: true}},
	)

	if got := l.Amount("ironOre"); got != 40 {
		t.Errorf("ironOre = %v, want 40", got)
	}
	if got := l.Amount("wire"); got != 100 {
		t.Errorf("wire = %v, want clamped 100", got)
	}
	if got := l.Amount("coal"); got != 0 {
		t.Errorf("coal = %v, want clamped 0", got)
	}
	if e, _ := l.Entry("ironOre"); e.Name != "Iron Ore" {
		t.Errorf("restored name = %q, want Iron Ore", e.Name)
	}
	if owned := l.OwnedMachines(); len(owned) != 1 || owned[0].ID != "m1" {
		t.Errorf("OwnedMachines() = %+v", owned)
	}
}
