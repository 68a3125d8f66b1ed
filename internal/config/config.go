// Package config provides configuration management for Oreline.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Game       GameConfig       `toml:"game"`
	Simulation SimulationConfig `toml:"simulation"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Display    DisplayConfig    `toml:"display"`
	Logging    LoggingConfig    `toml:"logging"`
	Database   DatabaseConfig   `toml:"database"`
}

// GameConfig describes how a new game is set up.
type GameConfig struct {
	Name              string             `toml:"name"`
	Seed              uint64             `toml:"seed"`
	WorldWidth        int                `toml:"world_width"`
	WorldHeight       int                `toml:"world_height"`
	NodeCount         int                `toml:"node_count"`
	StartX            int                `toml:"start_x"`
	StartY            int                `toml:"start_y"`
	StartingInventory map[string]float64 `toml:"starting_inventory"`
}

// SimulationConfig controls the production simulation.
type SimulationConfig struct {
	Enabled            bool    `toml:"enabled"`
	TimeScale          float64 `toml:"time_scale"`
	TickIntervalMS     int     `toml:"tick_interval_ms"`
	ResourceCap        float64 `toml:"resource_cap"`
	MaxMachinesPerNode int     `toml:"max_machines_per_node"`
	NodeCapacity       float64 `toml:"node_capacity"`
	NodeThroughputCap  float64 `toml:"node_throughput_cap"`
	ExtractionRate     float64 `toml:"extraction_rate"`
	DiscoveryRadius    float64 `toml:"discovery_radius"`
}

// CatalogConfig points at an optional catalog overriding the built-in one.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme      ColorScheme `toml:"color_scheme"`
	ProgressBarWidth int         `toml:"progress_bar_width"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeGreenPhosphor ColorScheme = "green_phosphor"
	ColorSchemeAmber         ColorScheme = "amber"
	ColorSchemeWhite         ColorScheme = "white"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      LogLevel `toml:"level"`
	File       string   `toml:"file"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls SQLite save database settings.
type DatabaseConfig struct {
	Path                    string `toml:"path"`
	AutosaveIntervalSeconds int    `toml:"autosave_interval_seconds"`
	BackupIntervalHours     int    `toml:"backup_interval_hours"`
	BackupRetentionDays     int    `toml:"backup_retention_days"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Game.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("game: %w", err))
	}

	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the game configuration is valid.
func (g *GameConfig) Validate() error {
	var errs []error

	if g.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	if g.WorldWidth < 1 || g.WorldHeight < 1 {
		errs = append(errs, errors.New("world_width and world_height must be positive"))
	}

	if g.NodeCount < 1 {
		errs = append(errs, errors.New("node_count must be positive"))
	} else if g.NodeCount > g.WorldWidth*g.WorldHeight-1 {
		errs = append(errs, fmt.Errorf("node_count %d does not fit a %dx%d world", g.NodeCount, g.WorldWidth, g.WorldHeight))
	}

	if g.StartX < 0 || g.StartY < 0 || g.StartX >= g.WorldWidth || g.StartY >= g.WorldHeight {
		errs = append(errs, fmt.Errorf("start position (%d,%d) is outside the world", g.StartX, g.StartY))
	}

	for item, amount := range g.StartingInventory {
		if amount < 0 {
			errs = append(errs, fmt.Errorf("starting_inventory.%s must be non-negative", item))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the simulation configuration is valid.
func (s *SimulationConfig) Validate() error {
	var errs []error

	if s.TimeScale < 0 {
		errs = append(errs, errors.New("time_scale must be non-negative"))
	}

	if s.TickIntervalMS < 1 {
		errs = append(errs, errors.New("tick_interval_ms must be positive"))
	}

	if s.ResourceCap <= 0 {
		errs = append(errs, errors.New("resource_cap must be positive"))
	}

	if s.MaxMachinesPerNode < 1 {
		errs = append(errs, errors.New("max_machines_per_node must be at least 1"))
	}

	if s.NodeCapacity <= 0 {
		errs = append(errs, errors.New("node_capacity must be positive"))
	}

	if s.NodeThroughputCap <= 0 {
		errs = append(errs, errors.New("node_throughput_cap must be positive"))
	}

	if s.ExtractionRate <= 0 {
		errs = append(errs, errors.New("extraction_rate must be positive"))
	}

	if s.DiscoveryRadius < 0 {
		errs = append(errs, errors.New("discovery_radius must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	var errs []error

	validSchemes := map[ColorScheme]bool{
		ColorSchemeGreenPhosphor: true,
		ColorSchemeAmber:         true,
		ColorSchemeWhite:         true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		errs = append(errs, fmt.Errorf("invalid color_scheme: %s", d.ColorScheme))
	}

	if d.ProgressBarWidth < 0 {
		errs = append(errs, errors.New("progress_bar_width must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		errs = append(errs, fmt.Errorf("invalid log level: %s", l.Level))
	}

	if l.MaxSizeMB < 0 {
		errs = append(errs, errors.New("max_size_mb must be non-negative"))
	}

	if l.MaxBackups < 0 {
		errs = append(errs, errors.New("max_backups must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.AutosaveIntervalSeconds < 0 {
		errs = append(errs, errors.New("autosave_interval_seconds must be non-negative"))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Name:        "New Factory",
			Seed:        1,
			WorldWidth:  64,
			WorldHeight: 64,
			NodeCount:   48,
			StartX:      32,
			StartY:      32,
			StartingInventory: map[string]float64{
				"miner":     2,
				"smelter":   1,
				"ironPlate": 20,
				"cable":     10,
			},
		},
		Simulation: SimulationConfig{
			Enabled:            true,
			TimeScale:          1.0,
			TickIntervalMS:     1000,
			ResourceCap:        10000,
			MaxMachinesPerNode: 4,
			NodeCapacity:       1000,
			NodeThroughputCap:  1000,
			ExtractionRate:     1,
			DiscoveryRadius:    5,
		},
		Catalog: CatalogConfig{
			Path: "",
		},
		Display: DisplayConfig{
			ColorScheme:      ColorSchemeGreenPhosphor,
			ProgressBarWidth: 20,
		},
		Logging: LoggingConfig{
			Level:      LogLevelInfo,
			File:       "logs/oreline.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Database: DatabaseConfig{
			Path:                    "oreline.db",
			AutosaveIntervalSeconds: 60,
			BackupIntervalHours:     24,
			BackupRetentionDays:     30,
		},
	}
}

// TickInterval returns the host timer period.
func (s *SimulationConfig) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMS) * time.Millisecond
}

// AutosaveInterval returns the autosave period, or zero when disabled.
func (d *DatabaseConfig) AutosaveInterval() time.Duration {
	return time.Duration(d.AutosaveIntervalSeconds) * time.Second
}
