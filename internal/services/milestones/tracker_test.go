package milestones

import (
	"errors"
	"testing"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/testutil"
)

// stock is an in-memory Inventory.
type stock map[string]float64

func (s stock) Amount(itemID string) float64 { return s[itemID] }

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return NewTracker(testutil.TestCatalog(t), testutil.DiscardLogger())
}

func TestTracker_IronIngotMilestone(t *testing.T) {
	tr := newTestTracker(t)
	inv := stock{"ironIngot": 19}

	if tr.CanCompleteCurrent(inv, 0) {
		t.Error("CanCompleteCurrent() = true at 19 ingots")
	}
	if _, err := tr.CompleteCurrent(inv, 0, testutil.Epoch); !errors.Is(err, ErrRequirementsNotMet) {
		t.Errorf("CompleteCurrent() error = %v, want ErrRequirementsNotMet", err)
	}
	if m, _ := tr.Current(); m.ID != "first-ingots" || m.Unlocked {
		t.Errorf("failed completion changed state: %+v", m)
	}

	inv["ironIngot"] = 20
	if !tr.CanCompleteCurrent(inv, 0) {
		t.Fatal("CanCompleteCurrent() = false at 20 ingots")
	}

	done, err := tr.CompleteCurrent(inv, 0, testutil.Epoch)
	if err != nil {
		t.Fatalf("CompleteCurrent() error = %v", err)
	}
	if !done.Unlocked || done.CompletedAt == nil || done.ID != "first-ingots" {
		t.Errorf("CompleteCurrent() = %+v", done)
	}
	if inv["ironIngot"] != 20 {
		t.Error("completion consumed inventory")
	}

	t.Run("Second call has no further effect", func(t *testing.T) {
		before := tr.Milestones()
		if _, err := tr.CompleteCurrent(inv, 0, testutil.Epoch); !errors.Is(err, ErrRequirementsNotMet) {
			t.Errorf("second CompleteCurrent() error = %v, want ErrRequirementsNotMet", err)
		}
		after := tr.Milestones()
		for i := range before {
			if before[i].Unlocked != after[i].Unlocked {
				t.Errorf("milestone %s changed on repeat call", before[i].ID)
			}
		}
	})

	t.Run("Unlock never reverts", func(t *testing.T) {
		inv["ironIngot"] = 0
		if ms := tr.Milestones(); !ms[0].Unlocked {
			t.Error("milestone reverted after inventory dropped")
		}
	})
}

func TestTracker_DiscoveredNodesRequirement(t *testing.T) {
	tr := newTestTracker(t)
	inv := stock{"ironIngot": 20, "wire": 10}
	if _, err := tr.CompleteCurrent(inv, 0, testutil.Epoch); err != nil {
		t.Fatalf("CompleteCurrent() error = %v", err)
	}

	tests := []struct {
		name       string
		discovered int
		want       bool
	}{
		{"Below", 2, false},
		{"Exact", 3, true},
		{"Above", 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.CanCompleteCurrent(inv, tt.discovered); got != tt.want {
				t.Errorf("CanCompleteCurrent(discovered=%d) = %v, want %v", tt.discovered, got, tt.want)
			}
		})
	}

	progress := tr.Progress(inv, 2)
	if len(progress) != 2 || progress[0].Key != models.DiscoveredNodesKey || progress[0].Current != 2 {
		t.Errorf("Progress() = %+v", progress)
	}
	if progress[0].Name != "Discovered Nodes" || progress[1].Name != "Wire" {
		t.Errorf("Progress() names = %q, %q", progress[0].Name, progress[1].Name)
	}
}

func TestTracker_AllComplete(t *testing.T) {
	tr := newTestTracker(t)
	inv := stock{"ironIngot": 20, "wire": 10}
	tr.CompleteCurrent(inv, 3, testutil.Epoch)
	tr.CompleteCurrent(inv, 3, testutil.Epoch)

	if _, ok := tr.Current(); ok {
		t.Error("Current() found a milestone after all completed")
	}
	if tr.CanCompleteCurrent(inv, 3) {
		t.Error("CanCompleteCurrent() true with nothing left")
	}
	if _, err := tr.CompleteCurrent(inv, 3, testutil.Epoch); !errors.Is(err, ErrAllComplete) {
		t.Errorf("CompleteCurrent() error = %v, want ErrAllComplete", err)
	}
	if tr.Progress(inv, 3) != nil {
		t.Error("Progress() should be nil when all complete")
	}
}

func TestTracker_IsUnlocked(t *testing.T) {
	tr := newTestTracker(t)

	tests := []struct {
		machine string
		want    bool
	}{
		{"miner", true},
		{"smelter", true},
		{"constructor", false},
		{"assembler", false},
		{"oilExtractor", false},
	}
	for _, tt := range tests {
		if got := tr.IsUnlocked(tt.machine); got != tt.want {
			t.Errorf("IsUnlocked(%s) = %v, want %v", tt.machine, got, tt.want)
		}
	}

	if err := tr.CheckUnlocked("constructor"); !errors.Is(err, ErrMachineLocked) {
		t.Errorf("CheckUnlocked(constructor) = %v, want ErrMachineLocked", err)
	}

	tr.CompleteCurrent(stock{"ironIngot": 20}, 0, testutil.Epoch)
	if !tr.IsUnlocked("constructor") {
		t.Error("constructor still locked after first milestone")
	}
	if tr.IsUnlocked("assembler") {
		t.Error("assembler unlocked early")
	}
}

func TestTracker_Restore(t *testing.T) {
	tr := newTestTracker(t)
	completedAt := testutil.TimePtr(testutil.Epoch)

	tr.Restore([]models.Milestone{
		{ID: "first-ingots", Unlocked: true, CompletedAt: completedAt},
		{ID: "retired-milestone", Unlocked: true},
	})

	ms := tr.Milestones()
	if !ms[0].Unlocked || ms[0].CompletedAt == nil || !ms[0].CompletedAt.Equal(testutil.Epoch) {
		t.Errorf("first milestone = %+v", ms[0])
	}
	if cur, _ := tr.Current(); cur.ID != "wiring" {
		t.Errorf("Current() = %s, want wiring", cur.ID)
	}

	tr.Restore([]models.Milestone{{ID: "first-ingots", Unlocked: false}})
	if !tr.Milestones()[0].Unlocked {
		t.Error("Restore reverted an unlocked milestone")
	}
}

func TestTracker_DefaultCatalogOrder(t *testing.T) {
	tr := NewTracker(testutil.DefaultCatalog(t), testutil.DiscardLogger())

	for _, machine := range []string{"miner", "smelter"} {
		if !tr.IsUnlocked(machine) {
			t.Errorf("starter machine %s locked", machine)
		}
	}
	if tr.IsUnlocked("manufacturer") {
		t.Error("manufacturer unlocked at start")
	}
}
