// Package persistence provides SQLite-based storage for simulation state:
// entity transforms, per-brain settings, the event log and run metadata.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-brain/internal/brain"
	"github.com/talgya/mini-brain/internal/engine"
	"github.com/talgya/mini-brain/internal/world"
)

// DB wraps a SQLite connection for simulation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent TEXT,
		category TEXT NOT NULL,
		speed REAL NOT NULL,
		pos_x REAL NOT NULL,
		pos_y REAL NOT NULL,
		pos_z REAL NOT NULL,
		rot_x REAL NOT NULL,
		rot_y REAL NOT NULL,
		rot_z REAL NOT NULL,
		rot_w REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS brains (
		name TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		debug_info INTEGER NOT NULL,
		interval_ms INTEGER NOT NULL,
		committed_score REAL NOT NULL,
		behavior TEXT NOT NULL,
		decisions INTEGER NOT NULL,
		blackboard_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		frame INTEGER NOT NULL,
		agent TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_frame ON events(frame);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// EntityRecord is one row of the entities table.
type EntityRecord struct {
	ID       string         `db:"id"`
	Name     string         `db:"name"`
	Parent   sql.NullString `db:"parent"`
	Category string         `db:"category"`
	Speed    float64        `db:"speed"`
	PosX     float64        `db:"pos_x"`
	PosY     float64        `db:"pos_y"`
	PosZ     float64        `db:"pos_z"`
	RotX     float64        `db:"rot_x"`
	RotY     float64        `db:"rot_y"`
	RotZ     float64        `db:"rot_z"`
	RotW     float64        `db:"rot_w"`
}

// SaveEntities writes every entity of w (full replace).
func (db *DB) SaveEntities(w *world.World) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entities"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO entities
		(id, name, parent, category, speed, pos_x, pos_y, pos_z, rot_x, rot_y, rot_z, rot_w)
		VALUES (:id, :name, :parent, :category, :speed, :pos_x, :pos_y, :pos_z, :rot_x, :rot_y, :rot_z, :rot_w)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range w.Entities() {
		pos, rot := e.Position(), e.Rotation()
		rec := EntityRecord{
			ID:       e.ID().String(),
			Name:     e.Name(),
			Category: e.Category,
			Speed:    e.Speed,
			PosX:     pos.X,
			PosY:     pos.Y,
			PosZ:     pos.Z,
			RotX:     rot.V.X,
			RotY:     rot.V.Y,
			RotZ:     rot.V.Z,
			RotW:     rot.W,
		}
		if p, ok := e.Parent(); ok {
			rec.Parent = sql.NullString{String: p.String(), Valid: true}
		}
		if _, err := stmt.Exec(rec); err != nil {
			return fmt.Errorf("insert entity %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// Entities returns the saved entities in name order.
func (db *DB) Entities() ([]EntityRecord, error) {
	var recs []EntityRecord
	err := db.conn.Select(&recs, "SELECT * FROM entities ORDER BY name, id")
	return recs, err
}

// BrainRecord is one row of the brains table. Brains are keyed by agent name,
// which is stable across runs with the same seed.
type BrainRecord struct {
	Name           string  `db:"name"`
	AgentID        string  `db:"agent_id"`
	DebugInfo      bool    `db:"debug_info"`
	IntervalMS     int64   `db:"interval_ms"`
	CommittedScore float64 `db:"committed_score"`
	Behavior       string  `db:"behavior"`
	Decisions      int     `db:"decisions"`
	BlackboardJSON string  `db:"blackboard_json"`
}

// SaveBrains writes the settings and state of every brain (full replace).
func (db *DB) SaveBrains(w *world.World, brains []*brain.Brain) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM brains"); err != nil {
		return err
	}

	for _, b := range brains {
		agent := b.Agent()
		values := map[string]any{}
		if bb, ok := w.Blackboards().Find(agent.ID()); ok {
			for _, k := range bb.Keys() {
				values[k] = bb.Get(k, nil)
			}
		}
		bbJSON, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("encode blackboard of %s: %w", agent.Name(), err)
		}

		_, err = tx.NamedExec(`INSERT INTO brains
			(name, agent_id, debug_info, interval_ms, committed_score, behavior, decisions, blackboard_json)
			VALUES (:name, :agent_id, :debug_info, :interval_ms, :committed_score, :behavior, :decisions, :blackboard_json)`,
			BrainRecord{
				Name:           agent.Name(),
				AgentID:        agent.ID().String(),
				DebugInfo:      b.DebugInfo(),
				IntervalMS:     b.Interval().Milliseconds(),
				CommittedScore: b.CommittedScore(),
				Behavior:       b.CurrentBehavior(),
				Decisions:      b.Decisions(),
				BlackboardJSON: string(bbJSON),
			})
		if err != nil {
			return fmt.Errorf("insert brain %s: %w", agent.Name(), err)
		}
	}

	return tx.Commit()
}

// Brain returns the saved record of the named agent's brain.
func (db *DB) Brain(name string) (BrainRecord, bool, error) {
	var rec BrainRecord
	err := db.conn.Get(&rec, "SELECT * FROM brains WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return BrainRecord{}, false, nil
	}
	if err != nil {
		return BrainRecord{}, false, err
	}
	return rec, true, nil
}

// ApplyBrainSettings restores the persisted per-brain settings onto brains
// whose agent name has a saved record. It returns how many were restored.
func (db *DB) ApplyBrainSettings(brains []*brain.Brain) (int, error) {
	n := 0
	for _, b := range brains {
		rec, ok, err := db.Brain(b.Agent().Name())
		if err != nil {
			return n, fmt.Errorf("load brain %s: %w", b.Agent().Name(), err)
		}
		if !ok {
			continue
		}
		b.SetDebugInfo(rec.DebugInfo)
		n++
	}
	return n, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (frame, agent, description, category) VALUES (?, ?, ?, ?)",
			e.Frame, e.Agent, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveSimulation performs a full save of the simulation and appends the
// events recorded since the last save.
func (db *DB) SaveSimulation(sim *engine.Simulation) error {
	slog.Info("saving simulation state", "entities", sim.World.EntityCount(), "brains", len(sim.Brains))

	if err := db.SaveEntities(sim.World); err != nil {
		return fmt.Errorf("save entities: %w", err)
	}
	if err := db.SaveBrains(sim.World, sim.Brains); err != nil {
		return fmt.Errorf("save brains: %w", err)
	}
	if err := db.SaveEvents(sim.UnsavedEvents()); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	sim.MarkEventsSaved()
	if err := db.SaveMeta("last_frame", strconv.FormatUint(sim.Frame, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("simulation state saved")
	return nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT frame, agent, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}
