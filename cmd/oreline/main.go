// Oreline: a factory idle game.
//
// Players discover resource nodes, place machines on them, craft
// intermediate products and climb a ladder of production milestones.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oreline/oreline/internal/catalog"
	"github.com/oreline/oreline/internal/config"
	"github.com/oreline/oreline/internal/database"
	"github.com/oreline/oreline/internal/engine"
	"github.com/oreline/oreline/internal/models"
	"github.com/oreline/oreline/internal/repository"
	"github.com/oreline/oreline/internal/services/production"
	"github.com/oreline/oreline/internal/tui"
	"github.com/oreline/oreline/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// options are the parsed command line flags.
type options struct {
	configPath  string
	slot        string
	migrateOnly bool
	newGame     bool
	headless    bool
	ticks       int
	debug       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.slot, "slot", "default", "Save slot to load and save")
	flag.BoolVar(&opts.migrateOnly, "migrate-only", false, "Run migrations and exit")
	flag.BoolVar(&opts.newGame, "new-game", false, "Start a new game, replacing the slot on save")
	flag.BoolVar(&opts.headless, "headless", false, "Run the simulation without the TUI")
	flag.IntVar(&opts.ticks, "ticks", 0, "With -headless, run this many ticks, save and exit")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Oreline version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		// Force exit after timeout
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, cfgPath, err := config.Load(opts.configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	closeLog, err := setupLogging(cfg, opts.debug, opts.headless)
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("Oreline starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
	)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		slog.Info("closing database")
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	if opts.migrateOnly {
		return printMigrationStatus(ctx, db)
	}

	cat, err := loadCatalog(cfg, cfgPath)
	if err != nil {
		return err
	}

	clock := util.NewGameClock(time.Now().UTC(), cfg.Simulation.TimeScale)
	eng := engine.New(cat, engine.Options{
		ResourceCap:        cfg.Simulation.ResourceCap,
		MaxMachinesPerNode: cfg.Simulation.MaxMachinesPerNode,
		NodeThroughputCap:  cfg.Simulation.NodeThroughputCap,
		ExtractionRate:     cfg.Simulation.ExtractionRate,
		DiscoveryRadius:    cfg.Simulation.DiscoveryRadius,
		Clock:              clock,
		Logger:             slog.Default(),
	})

	saves := repository.NewSaveRepository(db.DB)
	if err := loadOrCreateGame(ctx, eng, saves, cfg, opts); err != nil {
		return err
	}

	if !cfg.Simulation.Enabled {
		clock.Pause()
	}

	var runErr error
	switch {
	case opts.headless && opts.ticks > 0:
		runFixedTicks(eng, opts.ticks)
	case opts.headless:
		runErr = runHeadless(ctx, eng, saves, cfg, opts.slot)
	default:
		tui.Version = Version
		tui.BuildTime = BuildTime

		slog.Info("starting TUI", "game", eng.Name(), "slot", opts.slot)
		runErr = tui.Run(ctx, tui.Deps{
			Engine: eng,
			Saves:  saves,
			Slot:   opts.slot,
			Config: cfg,
			Logger: slog.Default(),
		})
	}

	// The game is saved on every exit path, even after a host error.
	if err := saveGame(eng, saves, opts.slot); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr != nil {
		return fmt.Errorf("running game: %w", runErr)
	}

	slog.Info("Oreline shutdown complete")
	return nil
}

// setupLogging installs the default slog logger. The TUI owns the terminal,
// so without a log file an interactive run discards log output.
func setupLogging(cfg *config.Config, debug, headless bool) (func(), error) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	closeFn := func() {}

	var logHandler slog.Handler
	switch {
	case logPath != "":
		if err := rotateLog(logPath, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups); err != nil {
			return nil, fmt.Errorf("rotating log file: %w", err)
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closeFn = func() { logFile.Close() }
		logHandler = slog.NewJSONHandler(logFile, handlerOpts)
	case headless:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.DiscardHandler
	}

	slog.SetDefault(slog.New(logHandler))
	return closeFn, nil
}

// rotateLog shifts path to path.1 (and older files up to path.N) when it has
// grown past maxSizeMB. A zero size disables rotation; surplus backups are
// removed.
func rotateLog(path string, maxSizeMB, maxBackups int) error {
	if maxSizeMB <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < int64(maxSizeMB)<<20 {
		return nil
	}

	if maxBackups <= 0 {
		return os.Remove(path)
	}
	os.Remove(fmt.Sprintf("%s.%d", path, maxBackups))
	for i := maxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(src); err == nil {
			if err := os.Rename(src, fmt.Sprintf("%s.%d", path, i+1)); err != nil {
				return err
			}
		}
	}
	return os.Rename(path, path+".1")
}

// openDatabase recovers, opens and migrates the save database.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		slog.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	if _, err := os.Stat(dbPath); err == nil {
		report, err := database.AttemptRecovery(dbPath, backupDir, slog.Default())
		if err != nil {
			slog.Error("database recovery failed",
				"path", dbPath,
				"steps", len(report.Steps),
			)
			return nil, fmt.Errorf("database recovery failed: %w", err)
		}

		switch report.Result {
		case database.RecoveryFromBackup:
			slog.Warn("database restored from backup",
				"backup", report.BackupUsed,
				"quarantined", report.QuarantinedPath,
			)
		case database.RecoverySuccess:
			slog.Debug("database integrity verified", "wal_recovered", report.WALRecovered)
		}
	}

	db, err := database.Open(dbPath, &cfg.Database, backupDir, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	migrator, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if len(result.Applied) > 0 {
		slog.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}

	return db, nil
}

// printMigrationStatus lists every schema migration and when it was applied.
func printMigrationStatus(ctx context.Context, db *database.DB) error {
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	status, err := migrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	for _, m := range status {
		applied := "pending"
		if m.Applied {
			applied = m.AppliedAt.Format(time.DateTime)
		}
		fmt.Printf("%03d  %-30s %s\n", m.Version, m.Description, applied)
	}
	slog.Info("migrations complete, exiting")
	return nil
}

// loadCatalog reads the configured catalog override, or the embedded catalog.
func loadCatalog(cfg *config.Config, cfgPath string) (*catalog.Catalog, error) {
	path := config.CatalogPath(cfg, cfgPath)
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("loading built-in catalog: %w", err)
		}
		return cat, nil
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	slog.Info("catalog override loaded", "path", path)
	return cat, nil
}

// loadOrCreateGame restores the save slot, or starts a new game from the
// configuration when the slot is empty or -new-game is set.
func loadOrCreateGame(ctx context.Context, eng *engine.Engine, saves *repository.SaveRepository, cfg *config.Config, opts options) error {
	if !opts.newGame {
		snap, err := saves.Load(ctx, opts.slot)
		switch {
		case err == nil:
			if err := eng.Restore(snap); err != nil {
				return fmt.Errorf("restoring slot %q: %w", opts.slot, err)
			}
			slog.Info("game loaded", "slot", opts.slot, "name", snap.Name, "tick", snap.Tick)
			return nil
		case !errors.Is(err, repository.ErrSaveNotFound):
			return fmt.Errorf("loading slot %q: %w", opts.slot, err)
		}
	}

	g := cfg.Game
	err := eng.NewGame(engine.GameSetup{
		Name:              g.Name,
		Seed:              g.Seed,
		Width:             g.WorldWidth,
		Height:            g.WorldHeight,
		NodeCount:         g.NodeCount,
		NodeCapacity:      cfg.Simulation.NodeCapacity,
		Start:             models.Position{X: g.StartX, Y: g.StartY},
		StartingInventory: models.ItemAmounts(g.StartingInventory),
	})
	if err != nil {
		return fmt.Errorf("starting new game: %w", err)
	}
	return nil
}

// runFixedTicks advances game time one second per tick with the clock held,
// so the run is independent of wall time.
func runFixedTicks(eng *engine.Engine, ticks int) {
	clock := eng.Clock()
	clock.Pause()

	total := engine.TickSummary{Produced: models.ItemAmounts{}}
	for range ticks {
		if err := clock.Advance(time.Second); err != nil {
			slog.Error("advancing clock", "error", err)
			return
		}
		s := eng.Sync()
		total.Applied += s.Applied
		total.UnitsCrafted += s.UnitsCrafted
		total.Stalled += s.Stalled
		for item, amount := range s.Produced {
			total.Produced[item] += amount
		}
	}

	slog.Info("headless run complete",
		"ticks", total.Applied,
		"last_tick", eng.LastTick(),
		"produced", total.Produced.Total(),
		"units_crafted", total.UnitsCrafted,
		"stalled", total.Stalled,
	)
}

// runHeadless drives the simulation from the wall clock until ctx ends,
// autosaving on the configured interval.
func runHeadless(ctx context.Context, eng *engine.Engine, saves *repository.SaveRepository, cfg *config.Config, slot string) error {
	interval := cfg.Database.AutosaveInterval()
	lastSave := time.Now()

	runner := production.NewRunner(func() error {
		s := eng.Sync()
		if s.Applied > 0 {
			slog.Debug("tick", "from", s.From, "to", s.To, "produced", s.Produced.Total(), "stalled", s.Stalled)
		}
		if interval > 0 && time.Since(lastSave) >= interval {
			lastSave = time.Now()
			return saveGame(eng, saves, slot)
		}
		return nil
	}, cfg.Simulation.TickInterval(), slog.Default())

	return runner.Run(ctx)
}

// saveGame writes the current state to slot.
func saveGame(eng *engine.Engine, saves *repository.SaveRepository, slot string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap := eng.Snapshot()
	if err := saves.Save(ctx, nil, slot, snap); err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	slog.Info("game saved", "slot", slot, "tick", snap.Tick)
	return nil
}
