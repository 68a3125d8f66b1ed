package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oreline.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Simulation.ResourceCap != 10000 || cfg.Simulation.MaxMachinesPerNode != 4 {
		t.Errorf("simulation defaults = %+v", cfg.Simulation)
	}
	if cfg.Simulation.TickInterval() != time.Second {
		t.Errorf("TickInterval() = %v, want 1s", cfg.Simulation.TickInterval())
	}
	if cfg.Database.AutosaveInterval() != time.Minute {
		t.Errorf("AutosaveInterval() = %v, want 1m", cfg.Database.AutosaveInterval())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"Empty name", func(c *Config) { c.Game.Name = "" }, "name is required"},
		{"Zero world", func(c *Config) { c.Game.WorldWidth = 0 }, "world_width and world_height must be positive"},
		{"Too many nodes", func(c *Config) { c.Game.NodeCount = 64 * 64 }, "does not fit"},
		{"Start outside", func(c *Config) { c.Game.StartX = 64 }, "outside the world"},
		{"Negative starting item", func(c *Config) { c.Game.StartingInventory["miner"] = -1 }, "starting_inventory.miner"},
		{"Negative time scale", func(c *Config) { c.Simulation.TimeScale = -1 }, "time_scale"},
		{"Zero tick interval", func(c *Config) { c.Simulation.TickIntervalMS = 0 }, "tick_interval_ms"},
		{"Zero resource cap", func(c *Config) { c.Simulation.ResourceCap = 0 }, "resource_cap"},
		{"Zero machines per node", func(c *Config) { c.Simulation.MaxMachinesPerNode = 0 }, "max_machines_per_node"},
		{"Zero node capacity", func(c *Config) { c.Simulation.NodeCapacity = 0 }, "node_capacity"},
		{"Zero throughput cap", func(c *Config) { c.Simulation.NodeThroughputCap = 0 }, "node_throughput_cap"},
		{"Zero extraction rate", func(c *Config) { c.Simulation.ExtractionRate = 0 }, "extraction_rate"},
		{"Bad color scheme", func(c *Config) { c.Display.ColorScheme = "neon" }, "invalid color_scheme"},
		{"Bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"No database path", func(c *Config) { c.Database.Path = "" }, "path is required"},
		{"Negative autosave", func(c *Config) { c.Database.AutosaveIntervalSeconds = -1 }, "autosave_interval_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AggregatesSections(t *testing.T) {
	cfg := Default()
	cfg.Game.Name = ""
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"game:", "logging:"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %q, missing %q", err, want)
		}
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	path := writeConfig(t, `
[game]
name = "Copper Works"
seed = 99

[simulation]
max_machines_per_node = 6
`)

	cfg, loadedFrom, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loadedFrom != path {
		t.Errorf("Load() path = %s, want %s", loadedFrom, path)
	}
	if cfg.Game.Name != "Copper Works" || cfg.Game.Seed != 99 {
		t.Errorf("game = %+v", cfg.Game)
	}
	if cfg.Simulation.MaxMachinesPerNode != 6 {
		t.Errorf("MaxMachinesPerNode = %d, want 6", cfg.Simulation.MaxMachinesPerNode)
	}

	t.Run("Unset values keep defaults", func(t *testing.T) {
		if cfg.Simulation.ResourceCap != 10000 {
			t.Errorf("ResourceCap = %g, want 10000", cfg.Simulation.ResourceCap)
		}
		if cfg.Game.StartingInventory["miner"] != 2 {
			t.Errorf("StartingInventory = %v", cfg.Game.StartingInventory)
		}
	})
}

func TestLoad_StartingInventoryReplacesDefault(t *testing.T) {
	path := writeConfig(t, `
[game.starting_inventory]
ironOre = 50
`)

	cfg, _, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := map[string]float64{"ironOre": 50}
	if len(cfg.Game.StartingInventory) != 1 || cfg.Game.StartingInventory["ironOre"] != 50 {
		t.Errorf("StartingInventory = %v, want %v", cfg.Game.StartingInventory, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Malformed TOML", "[game\nname = "},
		{"Invalid value", "[logging]\nlevel = \"loud\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			_, _, err := Load(path, false)

			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Load() error = %v, want *LoadError", err)
			}
			if loadErr.Path != path {
				t.Errorf("LoadError.Path = %s, want %s", loadErr.Path, path)
			}
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"), false)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Load() error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestLoad_XDGSearchAndDefault(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	xdgPath := filepath.Join(xdg, XDGConfigSubdir, DefaultConfigFileName)

	if _, _, err := Load("", false); err == nil {
		t.Fatal("Load() without any config and createDefault=false should fail")
	}

	cfg, path, err := Load("", true)
	if err != nil {
		t.Fatalf("Load(createDefault) error = %v", err)
	}
	if path != xdgPath {
		t.Errorf("default written to %s, want %s", path, xdgPath)
	}
	if cfg.Game.Name != Default().Game.Name {
		t.Errorf("Game.Name = %q", cfg.Game.Name)
	}
	if ConfigPath("") != xdgPath {
		t.Errorf("ConfigPath() = %s, want %s", ConfigPath(""), xdgPath)
	}

	reloaded, path, err := Load("", false)
	if err != nil {
		t.Fatalf("reloading written default: %v", err)
	}
	if path != xdgPath || reloaded.Database.Path != cfg.Database.Path {
		t.Errorf("reloaded %s: %+v", path, reloaded.Database)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Game.Name = "Round Trip"
	cfg.Game.StartingInventory = map[string]float64{"miner": 1, "ironPlate": 5}
	cfg.Display.ColorScheme = ColorSchemeAmber

	path := filepath.Join(t.TempDir(), "nested", "oreline.toml")
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# Oreline Configuration File") {
		t.Error("saved file is missing its header")
	}

	loaded, _, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Game.Name != "Round Trip" || loaded.Display.ColorScheme != ColorSchemeAmber {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Game.StartingInventory) != 2 || loaded.Game.StartingInventory["ironPlate"] != 5 {
		t.Errorf("StartingInventory = %v", loaded.Game.StartingInventory)
	}
}

func TestPaths(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)

	cfg := Default()

	dbPath, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("EnsureDataDir() error = %v", err)
	}
	if want := filepath.Join(data, XDGConfigSubdir, "oreline.db"); dbPath != want {
		t.Errorf("EnsureDataDir() = %s, want %s", dbPath, want)
	}

	backups, err := BackupDir(cfg)
	if err != nil {
		t.Fatalf("BackupDir() error = %v", err)
	}
	if want := filepath.Join(data, XDGConfigSubdir, "backups"); backups != want {
		t.Errorf("BackupDir() = %s, want %s", backups, want)
	}

	abs := filepath.Join(t.TempDir(), "saves", "game.db")
	cfg.Database.Path = abs
	if got, _ := EnsureDataDir(cfg); got != abs {
		t.Errorf("EnsureDataDir() absolute = %s", got)
	}

	cfg.Logging.File = ""
	if got, _ := EnsureLogDir(cfg); got != "" {
		t.Errorf("EnsureLogDir() = %q, want empty", got)
	}
}

func TestCatalogPath(t *testing.T) {
	cfg := Default()
	if got := CatalogPath(cfg, "/etc/oreline/oreline.toml"); got != "" {
		t.Errorf("CatalogPath() = %q, want empty", got)
	}

	cfg.Catalog.Path = "mods/catalog.yaml"
	if got, want := CatalogPath(cfg, "/etc/oreline/oreline.toml"), filepath.Join("/etc/oreline", "mods/catalog.yaml"); got != want {
		t.Errorf("CatalogPath() = %q, want %q", got, want)
	}

	cfg.Catalog.Path = "/srv/catalog.yaml"
	if got := CatalogPath(cfg, "/etc/oreline/oreline.toml"); got != "/srv/catalog.yaml" {
		t.Errorf("CatalogPath() absolute = %q", got)
	}
}
