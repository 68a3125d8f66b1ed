package factory

import (
	"strings"
	"testing"

	"github.com/oreline/oreline/internal/engine"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/services/machines"
	"github.com/oreline/oreline/internal/testutil"
)

func newTestEngine(t *testing.T, starting models.ItemAmounts) *engine.Engine {
	t.Helper()

	e := engine.New(testutil.TestCatalog(t), engine.Options{
		Clock:  testutil.PausedClock(),
		Logger: testutil.DiscardLogger(),
	})
	err := e.NewGame(engine.GameSetup{
		Name: "View Test",
		Nodes: []models.ResourceNode{
			testutil.FixtureNode(),
			testutil.FixtureNode(func(n *models.ResourceNode) {
				n.ID = "node-002"
				n.Type = "copperNode"
				n.Position = models.Position{X: 3, Y: 4}
			}),
			testutil.FixtureNode(func(n *models.ResourceNode) {
				n.ID = "node-far"
				n.Position = models.Position{X: 40, Y: 40}
			}),
		},
		StartingInventory: starting,
	})
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	return e
}

func TestInventoryView(t *testing.T) {
	e := newTestEngine(t, models.ItemAmounts{"ironOre": 12.5, "miner": 2, "smelter": 1})
	view := NewInventoryView(e)
	view.Refresh()

	out := view.Render(120, 40)

	t.Run("Title and rows", func(t *testing.T) {
		if !strings.Contains(out, "INVENTORY") {
			t.Error("expected title in output")
		}
		if !strings.Contains(out, "Iron Ore") || !strings.Contains(out, "12.50") {
			t.Errorf("expected iron ore row:\n%s", out)
		}
	})

	t.Run("Machines in storage", func(t *testing.T) {
		if !strings.Contains(out, "Miner x2") || !strings.Contains(out, "Smelter x1") {
			t.Errorf("expected stored machines:\n%s", out)
		}
	})

	t.Run("Selection", func(t *testing.T) {
		first, ok := view.SelectedEntry()
		if !ok {
			t.Fatal("expected a selected entry")
		}
		view.MoveDown()
		second, _ := view.SelectedEntry()
		if first.ItemID == second.ItemID {
			t.Errorf("MoveDown() kept selection on %s", first.ItemID)
		}
	})
}

func TestInventoryView_Empty(t *testing.T) {
	e := newTestEngine(t, nil)
	view := NewInventoryView(e)
	view.Refresh()

	out := view.Render(50, 20)
	if !strings.Contains(out, "Inventory is empty") {
		t.Errorf("expected empty state:\n%s", out)
	}
	if !strings.Contains(out, "none") {
		t.Errorf("expected no stored machines:\n%s", out)
	}
	if _, ok := view.SelectedEntry(); ok {
		t.Error("SelectedEntry() on empty view should be false")
	}
}

func TestNodesView(t *testing.T) {
	e := newTestEngine(t, models.ItemAmounts{"miner": 1})
	if _, err := e.PlaceMachine(machines.PlaceInput{ItemID: "miner", NodeID: "node-001"}); err != nil {
		t.Fatalf("PlaceMachine() error = %v", err)
	}

	view := NewNodesView(e)
	view.Refresh()
	out := view.Render(120, 40)

	if !strings.Contains(out, "Iron Deposit") || !strings.Contains(out, "Copper Deposit") {
		t.Errorf("expected discovered nodes:\n%s", out)
	}
	if strings.Contains(out, "node-far") {
		t.Errorf("undiscovered node shown:\n%s", out)
	}
	if !strings.Contains(out, "1/4") {
		t.Errorf("expected miner count on node-001:\n%s", out)
	}
	if !strings.Contains(out, "5.0") {
		t.Errorf("expected distance to node-002:\n%s", out)
	}
	if !strings.Contains(out, "or by hand") {
		t.Errorf("expected manual mining hint for the selected iron node:\n%s", out)
	}

	node, ok := view.SelectedNode()
	if !ok || node.ID != "node-001" {
		t.Errorf("SelectedNode() = %+v, %v", node, ok)
	}
}

func TestNodesView_Depleted(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.DepleteNode("node-001", 0); err != nil {
		t.Fatalf("DepleteNode() error = %v", err)
	}

	view := NewNodesView(e)
	view.Refresh()

	if out := view.Render(120, 40); !strings.Contains(out, "EMPTY") {
		t.Errorf("expected depleted marker:\n%s", out)
	}
}

func TestMachinesView(t *testing.T) {
	e := newTestEngine(t, models.ItemAmounts{"miner": 1, "smelter": 1, "ironOre": 10})
	miner, err := e.PlaceMachine(machines.PlaceInput{ItemID: "miner", NodeID: "node-001"})
	if err != nil {
		t.Fatalf("PlaceMachine(miner) error = %v", err)
	}
	smelter, err := e.PlaceMachine(machines.PlaceInput{ItemID: "smelter"})
	if err != nil {
		t.Fatalf("PlaceMachine(smelter) error = %v", err)
	}
	if _, err := e.StartCraft(smelter.ID, "ironIngot", 2); err != nil {
		t.Fatalf("StartCraft() error = %v", err)
	}

	view := NewMachinesView(e)
	view.Refresh()
	out := view.Render(120, 40)

	tests := []struct {
		name string
		want string
	}{
		{"Miner type", "Miner"},
		{"Assigned state", string(models.MachineStateAssigned)},
		{"Extraction rate", "1.00/s"},
		{"Recipe target", "Iron Ingot"},
		{"Craft progress", "craft 0/2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(out, tt.want) {
				t.Errorf("expected %q in output:\n%s", tt.want, out)
			}
		})
	}

	got, ok := view.SelectedMachine()
	if !ok || got.ID != miner.ID {
		t.Errorf("SelectedMachine() = %+v, want miner", got)
	}
	view.MoveDown()
	if got, _ := view.SelectedMachine(); got.ID != smelter.ID {
		t.Errorf("SelectedMachine() after MoveDown = %s, want smelter", got.ID)
	}
}

func TestMachinesView_Paused(t *testing.T) {
	e := newTestEngine(t, models.ItemAmounts{"miner": 1})
	miner, err := e.PlaceMachine(machines.PlaceInput{ItemID: "miner", NodeID: "node-001"})
	if err != nil {
		t.Fatalf("PlaceMachine() error = %v", err)
	}
	if err := e.PauseMachine(miner.ID); err != nil {
		t.Fatalf("PauseMachine() error = %v", err)
	}

	view := NewMachinesView(e)
	view.Refresh()
	out := view.Render(70, 20)

	if !strings.Contains(out, string(models.MachineStatePaused)) || !strings.Contains(out, "0.00/s") {
		t.Errorf("expected paused machine with no output:\n%s", out)
	}
	if !strings.Contains(out, "p:Pause r:Recipe") {
		t.Errorf("expected compact help:\n%s", out)
	}
}
