// Package persistence stores fabric runs in SQLite: one row per run, the
// per-frame stats, notable events and run metadata.
package persistence

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elastic-interval/pretenst-sub000/internal/engine"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Run describes one simulation run.
type Run struct {
	ID      string `db:"id" json:"id"`
	Started int64  `db:"started" json:"started"` // unix seconds
	Seed    int64  `db:"seed" json:"seed"`
	Config  string `db:"config" json:"config"` // YAML the run was configured with
}

// NewRun stamps a fresh run with a random id.
func NewRun(seed int64, config string) Run {
	return Run{
		ID:      uuid.NewString(),
		Started: time.Now().Unix(),
		Seed:    seed,
		Config:  config,
	}
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
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS frames (
		run_id TEXT NOT NULL,
		frame INTEGER NOT NULL,
		age INTEGER NOT NULL,
		joints INTEGER NOT NULL,
		intervals INTEGER NOT NULL,
		faces INTEGER NOT NULL,
		gestating INTEGER NOT NULL,
		wrapped INTEGER NOT NULL,
		direction TEXT NOT NULL,
		signal TEXT NOT NULL,
		min_push REAL NOT NULL,
		max_push REAL NOT NULL,
		min_pull REAL NOT NULL,
		max_pull REAL NOT NULL,
		mid_x REAL NOT NULL,
		mid_y REAL NOT NULL,
		mid_z REAL NOT NULL,
		PRIMARY KEY (run_id, frame)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		frame INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, frame);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun records a run. Saving the same id twice replaces it.
func (db *DB) SaveRun(r Run) error {
	_, err := db.conn.NamedExec(
		"INSERT OR REPLACE INTO runs (id, started, seed, config) VALUES (:id, :started, :seed, :config)",
		r,
	)
	return err
}

// GetRun loads one run by id.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT id, started, seed, config FROM runs WHERE id = ?", id)
	return r, err
}

// Runs lists every run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, started, seed, config FROM runs ORDER BY started DESC, id")
	return runs, err
}

// SaveFrames appends frame stats for a run. A frame saved twice is replaced.
func (db *DB) SaveFrames(runID string, frames []engine.FrameStats) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO frames
		(run_id, frame, age, joints, intervals, faces, gestating, wrapped, direction, signal,
		 min_push, max_push, min_pull, max_pull, mid_x, mid_y, mid_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		_, err := stmt.Exec(
			runID, f.Frame, f.Age, f.Joints, f.Intervals, f.Faces, f.Gestating, f.Wrapped,
			f.Direction, f.Signal, f.MinPush, f.MaxPush, f.MinPull, f.MaxPull,
			f.MidX, f.MidY, f.MidZ,
		)
		if err != nil {
			return fmt.Errorf("insert frame %d: %w", f.Frame, err)
		}
	}

	return tx.Commit()
}

// Frames loads a run's frame stats from frame `from` on, in order.
func (db *DB) Frames(runID string, from uint64, limit int) ([]engine.FrameStats, error) {
	var frames []engine.FrameStats
	err := db.conn.Select(&frames, `SELECT frame, age, joints, intervals, faces, gestating, wrapped,
		direction, signal, min_push, max_push, min_pull, max_pull, mid_x, mid_y, mid_z
		FROM frames WHERE run_id = ? AND frame >= ? ORDER BY frame LIMIT ?`,
		runID, from, limit,
	)
	return frames, err
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
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
			"INSERT INTO events (run_id, frame, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Frame, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT frame, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair against a run.
func (db *DB) SaveMeta(runID, key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(runID, key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE run_id = ? AND key = ?", runID, key)
	return value, err
}

// SaveCheckpoint writes everything the simulation has gathered since the
// last checkpoint.
func (db *DB) SaveCheckpoint(runID string, sim *engine.Simulation, frame uint64) error {
	frames := sim.TakeFrames()
	events := sim.TakeEvents()
	slog.Debug("saving checkpoint", "run", runID, "frames", len(frames), "events", len(events))

	if err := db.SaveFrames(runID, frames); err != nil {
		return fmt.Errorf("save frames: %w", err)
	}
	if err := db.SaveEvents(runID, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta(runID, "last_frame", strconv.FormatUint(frame, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta(runID, "phase", sim.Phase.String()); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}
