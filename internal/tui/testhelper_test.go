package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oreline/oreline/internal/config"
	"github.com/oreline/oreline/internal/database"
	"github.com/oreline/oreline/internal/engine"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/repository"
	"github.com/oreline/oreline/internal/testutil"
)

const testSlot = "test"

// newTestDeps builds an engine on the test catalog with a paused clock, and a
// save repository on a migrated in-memory database. Autosave is off.
func newTestDeps(t *testing.T) Deps {
	t.Helper()

	db, err := database.NewInMemory(testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrator, err := database.NewMigrator(db)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	if _, err := migrator.MigrateUp(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	eng := engine.New(testutil.TestCatalog(t), engine.Options{
		Clock:  testutil.PausedClock(),
		Logger: testutil.DiscardLogger(),
	})
	err = eng.NewGame(engine.GameSetup{
		Name: "Test Works",
		Seed: 7,
		Nodes: []models.ResourceNode{
			testutil.FixtureNode(),
			testutil.FixtureNode(func(n *models.ResourceNode) {
				n.ID = "node-002"
				n.Type = "copperNode"
				n.Position = models.Position{X: 3, Y: 4}
			}),
			testutil.FixtureNode(func(n *models.ResourceNode) {
				n.ID = "node-003"
				n.Position = models.Position{X: 0, Y: 8}
			}),
		},
		StartingInventory: models.ItemAmounts{
			"miner":     1,
			"smelter":   1,
			"ironOre":   10,
			"ironIngot": 2,
		},
	})
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}

	cfg := config.Default()
	cfg.Database.AutosaveIntervalSeconds = 0

	return Deps{
		Engine: eng,
		Saves:  repository.NewSaveRepository(db.DB),
		Slot:   testSlot,
		Config: cfg,
		Logger: testutil.DiscardLogger(),
	}
}

// newTestApp creates an attached App sized 120x40 and marked ready.
func newTestApp(t *testing.T) *App {
	t.Helper()

	app := New(newTestDeps(t))
	t.Cleanup(app.Attach())

	// Simulate a window size message to make the app ready
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	return app
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}

// press sends each key in order, running any returned command synchronously
// when it produces a save result.
func press(app *App, keys ...tea.KeyMsg) {
	for _, k := range keys {
		_, cmd := app.Update(k)
		runSave(app, cmd)
	}
}

// runSave executes cmd and feeds a resulting savedMsg back into the app.
func runSave(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg, ok := cmd().(savedMsg); ok {
		app.Update(msg)
	}
}
