// Package persistence provides SQLite-based world state storage.
//
// The world is stored as a single JSON snapshot in the state table. The
// event log is mirrored row by row into the events table so it can be
// queried without decoding the snapshot.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/resources"
)

// worldBucket is the state row holding the engine snapshot.
const worldBucket = "world"

// Metadata keys.
const (
	MetaSeed  = "seed"
	MetaYear  = "year"
	MetaRunID = "run_id"
)

// ErrNoWorld is returned by LoadWorld when nothing has been saved yet.
var ErrNoWorld = errors.New("no saved world")

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection serialises the simulation's saves and API reads.
	conn.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		summary TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_year ON events(year);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveWorld writes the world snapshot, its metadata and any events not yet
// mirrored, all in one transaction. Saving a different run replaces the
// previous run's event rows.
func (db *DB) SaveWorld(ctx context.Context, w *engine.World, runID uuid.UUID) error {
	data, err := w.Snapshot()
	if err != nil {
		return fmt.Errorf("save world: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	defer tx.Rollback()

	var prevRun string
	err = tx.GetContext(ctx, &prevRun, "SELECT value FROM world_meta WHERE key = ?", MetaRunID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read run id: %w", err)
	}
	if prevRun != runID.String() {
		if _, err := tx.ExecContext(ctx, "DELETE FROM events"); err != nil {
			return fmt.Errorf("reset events: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO state(bucket, payload) VALUES(?, ?)
		ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
		worldBucket, data,
	); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}

	meta := map[string]string{
		MetaSeed:  strconv.FormatUint(w.Params.Seed, 10),
		MetaYear:  strconv.Itoa(w.Date.Year),
		MetaRunID: runID.String(),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v,
		); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	n, err := db.appendEvents(ctx, tx, w)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("world state saved",
		"year", w.Date.Year,
		"bytes", len(data),
		"new_events", n,
	)
	return nil
}

// appendEvents mirrors the log entries past the highest stored id.
func (db *DB) appendEvents(ctx context.Context, tx *sqlx.Tx, w *engine.World) (int, error) {
	var next int
	if err := tx.GetContext(ctx, &next, "SELECT COALESCE(MAX(id) + 1, 0) FROM events"); err != nil {
		return 0, fmt.Errorf("events cursor: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		"INSERT INTO events (id, year, month, day, kind, summary) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for i := next; i < w.Events.Len(); i++ {
		id, _ := w.Events.Validate(i)
		ev := w.Events.View(id)
		if _, err := stmt.ExecContext(ctx,
			i, ev.Date.Year, ev.Date.Month, ev.Date.Day, string(ev.Kind), w.Describe(&ev),
		); err != nil {
			return n, fmt.Errorf("insert event %d: %w", i, err)
		}
		n++
	}
	return n, nil
}

// HasWorld reports whether a snapshot has been saved.
func (db *DB) HasWorld(ctx context.Context) (bool, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM state WHERE bucket = ?", worldBucket); err != nil {
		return false, fmt.Errorf("has world: %w", err)
	}
	return n > 0, nil
}

// LoadWorld restores the saved world. It returns ErrNoWorld if there is
// none.
func (db *DB) LoadWorld(ctx context.Context, res *resources.Resources, opts ...engine.Option) (*engine.World, error) {
	var data []byte
	err := db.conn.GetContext(ctx, &data, "SELECT payload FROM state WHERE bucket = ?", worldBucket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoWorld
	}
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}

	w, err := engine.Restore(data, res, opts...)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	slog.Info("world state loaded", "year", w.Date.Year, "creatures", w.Creatures.Len())
	return w, nil
}

// RunID returns the id of the run that last saved, or uuid.Nil.
func (db *DB) RunID(ctx context.Context) (uuid.UUID, error) {
	v, err := db.Meta(ctx, MetaRunID)
	if err != nil || v == "" {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// Meta retrieves a metadata value; a missing key yields "".
func (db *DB) Meta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// EventRow is one mirrored log entry.
type EventRow struct {
	ID      int    `db:"id" json:"id"`
	Year    int    `db:"year" json:"year"`
	Month   int    `db:"month" json:"month"`
	Day     int    `db:"day" json:"day"`
	Kind    string `db:"kind" json:"kind"`
	Summary string `db:"summary" json:"summary"`
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]EventRow, error) {
	var events []EventRow
	err := db.conn.SelectContext(ctx, &events,
		"SELECT id, year, month, day, kind, summary FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// EventsOfKind returns every mirrored event of one kind in log order.
func (db *DB) EventsOfKind(ctx context.Context, kind string) ([]EventRow, error) {
	var events []EventRow
	err := db.conn.SelectContext(ctx, &events,
		"SELECT id, year, month, day, kind, summary FROM events WHERE kind = ? ORDER BY id",
		kind,
	)
	return events, err
}
