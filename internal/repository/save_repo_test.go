package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/testutil"
)

func setupTestDB(t *testing.T) *testutil.TestDB {
	t.Helper()
	db := testutil.NewTestDB(t)
	db.RunMigrations(t, filepath.Join("..", "database", "migrations"))
	return db
}

func TestSaveRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSaveRepository(db.DB)
	ctx := context.Background()

	snap := testutil.FixtureSnapshot()
	if err := repo.Save(ctx, nil, "slot-1", snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := repo.Load(ctx, "slot-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	t.Run("Header", func(t *testing.T) {
		if loaded.Name != snap.Name || loaded.Seed != snap.Seed || loaded.Tick != snap.Tick {
			t.Errorf("header = %q/%d/%d, want %q/%d/%d",
				loaded.Name, loaded.Seed, loaded.Tick, snap.Name, snap.Seed, snap.Tick)
		}
		if loaded.Version != models.SnapshotVersion {
			t.Errorf("Version = %d", loaded.Version)
		}
		if !loaded.Epoch.Equal(snap.Epoch) || !loaded.GameTime.Equal(snap.GameTime) {
			t.Errorf("times = %v/%v, want %v/%v", loaded.Epoch, loaded.GameTime, snap.Epoch, snap.GameTime)
		}
		if loaded.Player != snap.Player {
			t.Errorf("Player = %+v, want %+v", loaded.Player, snap.Player)
		}
	})

	t.Run("Inventory", func(t *testing.T) {
		if got := loaded.InventoryAmount("ironOre"); got != 37.5 {
			t.Errorf("ironOre = %g, want 37.5", got)
		}
		if got := loaded.InventoryAmount("ironIngot"); got != 12 {
			t.Errorf("ironIngot = %g, want 12", got)
		}
	})

	t.Run("Machines keep their order", func(t *testing.T) {
		if len(loaded.OwnedMachines) != 3 {
			t.Fatalf("OwnedMachines = %d, want 3", len(loaded.OwnedMachines))
		}
		for i, m := range snap.OwnedMachines {
			if loaded.OwnedMachines[i] != m {
				t.Errorf("OwnedMachines[%d] = %+v, want %+v", i, loaded.OwnedMachines[i], m)
			}
		}

		if len(loaded.PlacedMachines) != 2 {
			t.Fatalf("PlacedMachines = %d, want 2", len(loaded.PlacedMachines))
		}
		miner := loaded.PlacedMachines[0]
		if miner.ID != "machine-miner" || miner.AssignedNodeID != snap.PlacedMachines[0].AssignedNodeID {
			t.Errorf("miner = %+v", miner)
		}
		if !miner.PlacedAt.Equal(testutil.Epoch) {
			t.Errorf("PlacedAt = %v", miner.PlacedAt)
		}
		if smelter := loaded.PlacedMachines[1]; smelter.Kind != models.MachineKindProcessing || smelter.AssignedNodeID != "" {
			t.Errorf("smelter = %+v", smelter)
		}
	})

	t.Run("Nodes and discovery", func(t *testing.T) {
		node, ok := loaded.Node("node-001")
		if !ok {
			t.Fatal("node-001 missing")
		}
		if node.Remaining != 880 || node.Extracted != 120 {
			t.Errorf("node-001 = %+v", node)
		}
		if len(loaded.Discovered) != 1 || loaded.Discovered[0] != "node-001" {
			t.Errorf("Discovered = %v", loaded.Discovered)
		}
	})

	t.Run("Crafting", func(t *testing.T) {
		if len(loaded.Crafting) != 1 {
			t.Fatalf("Crafting = %d, want 1", len(loaded.Crafting))
		}
		p := loaded.Crafting[0]
		if p.Status != models.CraftStatusPaused || p.UnitsCompleted != 1 || p.Quantity != 3 {
			t.Errorf("process = %+v", p)
		}
		if p.Accrued != 500*time.Millisecond || p.UnitTime != snap.Crafting[0].UnitTime {
			t.Errorf("durations = %v/%v", p.Accrued, p.UnitTime)
		}
		if p.EndedAt != nil {
			t.Errorf("EndedAt = %v, want nil", p.EndedAt)
		}
	})

	t.Run("Milestones", func(t *testing.T) {
		if len(loaded.Milestones) != 2 {
			t.Fatalf("Milestones = %d, want 2", len(loaded.Milestones))
		}
		first := loaded.Milestones[0]
		if !first.Unlocked || first.CompletedAt == nil || !first.CompletedAt.Equal(*snap.Milestones[0].CompletedAt) {
			t.Errorf("first milestone = %+v", first)
		}
		if loaded.Milestones[1].Unlocked || loaded.Milestones[1].CompletedAt != nil {
			t.Errorf("second milestone = %+v", loaded.Milestones[1])
		}
	})
}

func TestSaveRepository_SaveReplacesSlot(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSaveRepository(db.DB)
	ctx := context.Background()

	if err := repo.Save(ctx, nil, "auto", testutil.FixtureSnapshot()); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	later := testutil.FixtureSnapshot(func(s *models.GameSnapshot) {
		s.Tick = 300
		s.Inventory = s.Inventory[:1]
		s.Crafting = nil
	})
	if err := repo.Save(ctx, nil, "auto", later); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	db.AssertRowCount(t, "saves", 1)
	db.AssertRowCount(t, "inventory", 1)
	db.AssertRowCount(t, "crafting_processes", 0)

	loaded, err := repo.Load(ctx, "auto")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Tick != 300 {
		t.Errorf("Tick = %d, want 300", loaded.Tick)
	}
}

func TestSaveRepository_SaveWithTransaction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSaveRepository(db.DB)
	ctx := context.Background()

	t.Run("Rolled back save is not stored", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}
		if err := repo.Save(ctx, tx, "slot-1", testutil.FixtureSnapshot()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("rollback: %v", err)
		}

		db.AssertRowCount(t, "saves", 0)
		db.AssertRowCount(t, "resource_nodes", 0)
	})

	t.Run("Committed save is stored", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		if err := repo.Save(ctx, tx, "slot-1", testutil.FixtureSnapshot()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}

		db.AssertRowCount(t, "saves", 1)
		db.AssertRowCount(t, "resource_nodes", 2)
	})
}

func TestSaveRepository_SaveErrors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSaveRepository(db.DB)
	ctx := context.Background()

	tests := []struct {
		name string
		slot string
		snap *models.GameSnapshot
	}{
		{"Empty slot", "", testutil.FixtureSnapshot()},
		{"Nil snapshot", "slot-1", nil},
		{"Discovered node missing", "slot-1", testutil.FixtureSnapshot(func(s *models.GameSnapshot) {
			s.Discovered = append(s.Discovered, "node-999")
		})},
		{"Negative inventory", "slot-1", testutil.FixtureSnapshot(func(s *models.GameSnapshot) {
			s.Inventory[0].Amount = -1
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Save(ctx, nil, tt.slot, tt.snap); err == nil {
				t.Error("Save() error = nil")
			}
			db.AssertRowCount(t, "saves", 0)
		})
	}
}

func TestSaveRepository_LoadNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSaveRepository(db.DB)

	_, err := repo.Load(context.Background(), "missing")
	if !errors.Is(err, ErrSaveNotFound) {
		t.Errorf("Load() error = %v, want ErrSaveNotFound", err)
	}
}

func TestSaveRepository_ListExistsDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSaveRepository(db.DB)
	ctx := context.Background()

	older := testutil.FixtureSnapshot(func(s *models.GameSnapshot) {
		s.Name = "Older"
		s.SavedAt = testutil.Epoch
	})
	newer := testutil.FixtureSnapshot(func(s *models.GameSnapshot) {
		s.Name = "Newer"
		s.Tick = 500
		s.SavedAt = testutil.Epoch.Add(time.Hour)
	})
	if err := repo.Save(ctx, nil, "a", older); err != nil {
		t.Fatalf("Save(a) error = %v", err)
	}
	if err := repo.Save(ctx, nil, "b", newer); err != nil {
		t.Fatalf("Save(b) error = %v", err)
	}

	saves, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(saves) != 2 {
		t.Fatalf("List() = %d saves, want 2", len(saves))
	}
	if saves[0].Slot != "b" || saves[0].Name != "Newer" || saves[0].Tick != 500 {
		t.Errorf("saves[0] = %+v", saves[0])
	}
	if !saves[1].SavedAt.Equal(testutil.Epoch) {
		t.Errorf("saves[1].SavedAt = %v", saves[1].SavedAt)
	}

	if ok, err := repo.Exists(ctx, "a"); err != nil || !ok {
		t.Errorf("Exists(a) = %v, %v", ok, err)
	}

	if err := repo.Delete(ctx, nil, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := repo.Exists(ctx, "a"); ok {
		t.Error("slot a still exists after Delete")
	}
	db.AssertRowCount(t, "saves", 1)
	db.AssertRowCount(t, "resource_nodes", 2)

	if err := repo.Delete(ctx, nil, "a"); !errors.Is(err, ErrSaveNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSaveNotFound", err)
	}
}
