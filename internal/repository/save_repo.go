// Package repository stores game snapshots in the save database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oreline/oreline/internal/models"
)

// ErrSaveNotFound is returned when a save slot does not exist.
var ErrSaveNotFound = errors.New("save not found")

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveRepository handles save slot data access. Each slot holds exactly one
// snapshot; saving to an occupied slot replaces it.
type SaveRepository struct {
	db *sql.DB
}

// NewSaveRepository creates a new save repository.
func NewSaveRepository(db *sql.DB) *SaveRepository {
	return &SaveRepository{db: db}
}

// Save writes snap into slot. With a nil tx the write runs in its own
// transaction so a slot is never left half written.
func (r *SaveRepository) Save(ctx context.Context, tx *sql.Tx, slot string, snap *models.GameSnapshot) error {
	if slot == "" {
		return errors.New("save slot is required")
	}
	if snap == nil {
		return errors.New("snapshot is nil")
	}

	if tx != nil {
		return r.save(ctx, tx, slot, snap)
	}

	own, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer own.Rollback()

	if err := r.save(ctx, own, slot, snap); err != nil {
		return err
	}
	if err := own.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

func (r *SaveRepository) save(ctx context.Context, tx *sql.Tx, slot string, snap *models.GameSnapshot) error {
	// Child rows go with the parent through ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `DELETE FROM saves WHERE id = ?`, slot); err != nil {
		return fmt.Errorf("clearing save slot: %w", err)
	}

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO saves (
			id, name, version, seed, tick, epoch, game_time, saved_at, player_x, player_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot,
		snap.Name,
		snap.Version,
		int64(snap.Seed),
		snap.Tick,
		formatTime(snap.Epoch),
		formatTime(snap.GameTime),
		formatTime(savedAt),
		snap.Player.X,
		snap.Player.Y,
	)
	if err != nil {
		return fmt.Errorf("inserting save: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, execer, string, *models.GameSnapshot) error
	}{
		{"inventory", insertInventory},
		{"owned machines", insertOwnedMachines},
		{"resource nodes", insertNodes},
		{"discovered nodes", insertDiscovered},
		{"placed machines", insertPlacedMachines},
		{"crafting processes", insertCrafting},
		{"milestones", insertMilestones},
	}
	for _, s := range steps {
		if err := s.fn(ctx, tx, slot, snap); err != nil {
			return fmt.Errorf("saving %s: %w", s.name, err)
		}
	}

	return nil
}

func insertInventory(ctx context.Context, ex execer, slot string, snap *models.GameSnapshot) error {
	for _, e := range snap.Inventory {
		_, err := ex.ExecContext(ctx,
			`INSERT INTO inventory (save_id, item_id, name, amount) VALUES (?, ?, ?, ?)`,
			slot, e.ItemID, e.Name, e.Amount,
		)
		if err != nil {
			return fmt.Errorf("item %s: %w", e.ItemID, err)
		}
	}
	return nil
}

func insertOwnedMachines(ctx context.Context, ex execer, slot string, snap *models.GameSnapshot) error {
	for i, m := range snap.OwnedMachines {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO owned_machines (save_id, id, position, machine_type, current_recipe_id, placed)
			VALUES (?, ?, ?, ?, ?, ?)`,
			slot, m.ID, i, m.Type, nullableString(m.CurrentRecipeID), boolToInt(m.Placed),
		)
		if err != nil {
			return fmt.Errorf("machine %s: %w", m.ID, err)
		}
	}
	return nil
}

func insertNodes(ctx context.Context, ex execer, slot string, snap *models.GameSnapshot) error {
	for i, n := range snap.Nodes {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO resource_nodes (save_id, id, position, node_type, x, y, capacity, remaining, extracted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			slot, n.ID, i, n.Type, n.Position.X, n.Position.Y, n.Capacity, n.Remaining, n.Extracted,
		)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	return nil
}

func insertDiscovered(ctx context.Context, ex execer, slot string, snap *models.GameSnapshot) error {
	for i, id := range snap.Discovered {
		_, err := ex.ExecContext(ctx,
			`INSERT INTO discovered_nodes (save_id, node_id, position) VALUES (?, ?, ?)`,
			slot, id, i,
		)
		if err != nil {
			return fmt.Errorf("node %s: %w", id, err)
		}
	}
	return nil
}

func insertPlacedMachines(ctx context.Context, ex execer, slot string, snap *models.GameSnapshot) error {
	for i, m := range snap.PlacedMachines {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO placed_machines (
				save_id, id, position, machine_type, kind, assigned_node_id, recipe_id,
				efficiency, is_idle, placed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			slot, m.ID, i, m.Type, string(m.Kind),
			nullableString(m.AssignedNodeID),
			nullableString(m.RecipeID),
			m.Efficiency,
			boolToInt(m.IsIdle),
			formatTime(m.PlacedAt),
		)
		if err != nil {
			return fmt.Errorf("machine %s: %w", m.ID, err)
		}
	}
	return nil
}

func insertCrafting(ctx context.Context, ex execer, slot string, snap *models.GameSnapshot) error {
	for i, p := range snap.Crafting {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO crafting_processes (
				save_id, id, position, machine_id, recipe_id, item_name, quantity,
				units_completed, unit_time_ns, accrued_ns, resumed_at, started_at,
				ended_at, status, halted, halt_reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			slot, p.ID, i, p.MachineID, p.RecipeID, p.ItemName, p.Quantity,
			p.UnitsCompleted,
			int64(p.UnitTime),
			int64(p.Accrued),
			formatTime(p.ResumedAt),
			formatTime(p.StartedAt),
			nullableTimePtr(p.EndedAt),
			string(p.Status),
			boolToInt(p.Halted),
			nullableString(p.HaltReason),
		)
		if err != nil {
			return fmt.Errorf("process %s: %w", p.ID, err)
		}
	}
	return nil
}

func insertMilestones(ctx context.Context, ex execer, slot string, snap *models.GameSnapshot) error {
	for i, m := range snap.Milestones {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO milestones (save_id, id, position, name, unlocked, completed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			slot, m.ID, i, m.Name, boolToInt(m.Unlocked), nullableTimePtr(m.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("milestone %s: %w", m.ID, err)
		}
	}
	return nil
}

// Load reads the snapshot stored in slot. Milestones come back with their
// unlock state only; requirements are catalog data.
func (r *SaveRepository) Load(ctx context.Context, slot string) (*models.GameSnapshot, error) {
	var snap models.GameSnapshot
	var seed int64
	var epochStr, gameTimeStr, savedAtStr string

	err := r.db.QueryRowContext(ctx, `
		SELECT name, version, seed, tick, epoch, game_time, saved_at, player_x, player_y
		FROM saves
		WHERE id = ?`, slot,
	).Scan(
		&snap.Name,
		&snap.Version,
		&seed,
		&snap.Tick,
		&epochStr,
		&gameTimeStr,
		&savedAtStr,
		&snap.Player.X,
		&snap.Player.Y,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSaveNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning save: %w", err)
	}

	snap.Seed = uint64(seed)
	if snap.Epoch, err = parseTime(epochStr); err != nil {
		return nil, fmt.Errorf("parsing epoch: %w", err)
	}
	if snap.GameTime, err = parseTime(gameTimeStr); err != nil {
		return nil, fmt.Errorf("parsing game time: %w", err)
	}
	if snap.SavedAt, err = parseTime(savedAtStr); err != nil {
		return nil, fmt.Errorf("parsing saved_at: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, querier, string, *models.GameSnapshot) error
	}{
		{"inventory", loadInventory},
		{"owned machines", loadOwnedMachines},
		{"resource nodes", loadNodes},
		{"discovered nodes", loadDiscovered},
		{"placed machines", loadPlacedMachines},
		{"crafting processes", loadCrafting},
		{"milestones", loadMilestones},
	}
	for _, s := range steps {
		if err := s.fn(ctx, r.db, slot, &snap); err != nil {
			return nil, fmt.Errorf("loading %s: %w", s.name, err)
		}
	}

	return &snap, nil
}

func loadInventory(ctx context.Context, q querier, slot string, snap *models.GameSnapshot) error {
	rows, err := q.QueryContext(ctx,
		`SELECT item_id, name, amount FROM inventory WHERE save_id = ? ORDER BY item_id`, slot)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e models.InventoryEntry
		if err := rows.Scan(&e.ItemID, &e.Name, &e.Amount); err != nil {
			return fmt.Errorf("scanning inventory row: %w", err)
		}
		snap.Inventory = append(snap.Inventory, e)
	}
	return rows.Err()
}

func loadOwnedMachines(ctx context.Context, q querier, slot string, snap *models.GameSnapshot) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, machine_type, current_recipe_id, placed
		FROM owned_machines WHERE save_id = ? ORDER BY position`, slot)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.OwnedMachine
		var recipe sql.NullString
		var placed int
		if err := rows.Scan(&m.ID, &m.Type, &recipe, &placed); err != nil {
			return fmt.Errorf("scanning owned machine row: %w", err)
		}
		m.CurrentRecipeID = recipe.String
		m.Placed = placed == 1
		snap.OwnedMachines = append(snap.OwnedMachines, m)
	}
	return rows.Err()
}

func loadNodes(ctx context.Context, q querier, slot string, snap *models.GameSnapshot) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, node_type, x, y, capacity, remaining, extracted
		FROM resource_nodes WHERE save_id = ? ORDER BY position`, slot)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var n models.ResourceNode
		if err := rows.Scan(&n.ID, &n.Type, &n.Position.X, &n.Position.Y, &n.Capacity, &n.Remaining, &n.Extracted); err != nil {
			return fmt.Errorf("scanning node row: %w", err)
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	return rows.Err()
}

func loadDiscovered(ctx context.Context, q querier, slot string, snap *models.GameSnapshot) error {
	rows, err := q.QueryContext(ctx,
		`SELECT node_id FROM discovered_nodes WHERE save_id = ? ORDER BY position`, slot)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning discovered row: %w", err)
		}
		snap.Discovered = append(snap.Discovered, id)
	}
	return rows.Err()
}

func loadPlacedMachines(ctx context.Context, q querier, slot string, snap *models.GameSnapshot) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, machine_type, kind, assigned_node_id, recipe_id, efficiency, is_idle, placed_at
		FROM placed_machines WHERE save_id = ? ORDER BY position`, slot)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.PlacedMachine
		var node, recipe sql.NullString
		var idle int
		var placedAt string
		if err := rows.Scan(&m.ID, &m.Type, &m.Kind, &node, &recipe, &m.Efficiency, &idle, &placedAt); err != nil {
			return fmt.Errorf("scanning placed machine row: %w", err)
		}
		m.AssignedNodeID = node.String
		m.RecipeID = recipe.String
		m.IsIdle = idle == 1
		if m.PlacedAt, err = parseTime(placedAt); err != nil {
			return fmt.Errorf("machine %s placed_at: %w", m.ID, err)
		}
		snap.PlacedMachines = append(snap.PlacedMachines, m)
	}
	return rows.Err()
}

func loadCrafting(ctx context.Context, q querier, slot string, snap *models.GameSnapshot) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, machine_id, recipe_id, item_name, quantity, units_completed,
			unit_time_ns, accrued_ns, resumed_at, started_at, ended_at, status, halted, halt_reason
		FROM crafting_processes WHERE save_id = ? ORDER BY position`, slot)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.CraftingProcess
		var unitNS, accruedNS int64
		var resumedStr, startedStr string
		var endedStr, haltReason sql.NullString
		var halted int
		err := rows.Scan(
			&p.ID, &p.MachineID, &p.RecipeID, &p.ItemName, &p.Quantity, &p.UnitsCompleted,
			&unitNS, &accruedNS, &resumedStr, &startedStr, &endedStr, &p.Status, &halted, &haltReason,
		)
		if err != nil {
			return fmt.Errorf("scanning crafting row: %w", err)
		}

		p.UnitTime = time.Duration(unitNS)
		p.Accrued = time.Duration(accruedNS)
		p.Halted = halted == 1
		p.HaltReason = haltReason.String
		if p.ResumedAt, err = parseTime(resumedStr); err != nil {
			return fmt.Errorf("process %s resumed_at: %w", p.ID, err)
		}
		if p.StartedAt, err = parseTime(startedStr); err != nil {
			return fmt.Errorf("process %s started_at: %w", p.ID, err)
		}
		if p.EndedAt, err = parseTimePtr(endedStr); err != nil {
			return fmt.Errorf("process %s ended_at: %w", p.ID, err)
		}
		snap.Crafting = append(snap.Crafting, p)
	}
	return rows.Err()
}

func loadMilestones(ctx context.Context, q querier, slot string, snap *models.GameSnapshot) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, unlocked, completed_at
		FROM milestones WHERE save_id = ? ORDER BY position`, slot)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Milestone
		var unlocked int
		var completed sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &unlocked, &completed); err != nil {
			return fmt.Errorf("scanning milestone row: %w", err)
		}
		m.Unlocked = unlocked == 1
		if m.CompletedAt, err = parseTimePtr(completed); err != nil {
			return fmt.Errorf("milestone %s completed_at: %w", m.ID, err)
		}
		snap.Milestones = append(snap.Milestones, m)
	}
	return rows.Err()
}

// List returns a summary of every save slot, most recently saved first.
func (r *SaveRepository) List(ctx context.Context) ([]models.SaveSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, version, tick, game_time, saved_at
		FROM saves
		ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying saves: %w", err)
	}
	defer rows.Close()

	var saves []models.SaveSummary
	for rows.Next() {
		var s models.SaveSummary
		var gameTimeStr, savedAtStr string
		if err := rows.Scan(&s.Slot, &s.Name, &s.Version, &s.Tick, &gameTimeStr, &savedAtStr); err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		s.GameTime, _ = parseTime(gameTimeStr)
		s.SavedAt, _ = parseTime(savedAtStr)
		saves = append(saves, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saves: %w", err)
	}

	return saves, nil
}

// Exists reports whether slot holds a save.
func (r *SaveRepository) Exists(ctx context.Context, slot string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saves WHERE id = ?`, slot).Scan(&n); err != nil {
		return false, fmt.Errorf("checking save slot: %w", err)
	}
	return n > 0, nil
}

// Delete removes a save slot and everything in it.
func (r *SaveRepository) Delete(ctx context.Context, tx *sql.Tx, slot string) error {
	var ex execer = r.db
	if tx != nil {
		ex = tx
	}

	result, err := ex.ExecContext(ctx, `DELETE FROM saves WHERE id = ?`, slot)
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSaveNotFound, slot)
	}

	return nil
}

// Helper functions for nullable values

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
