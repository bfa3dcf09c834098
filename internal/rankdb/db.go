// Package rankdb persists finished light rankings in SQLite so runs can be
// compared over time.
package rankdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/scenetrace/internal/ranking"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrRunNotFound is returned when a run id is not stored.
var ErrRunNotFound = errors.New("ranking run not found")

// DB is the ranking history database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema. Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// migrationsFS returns the embedded migrations rooted at the migrations
// directory.
func migrationsFS() (fs.FS, error) {
	return fs.Sub(migrationFiles, "migrations")
}

// RunSummary is a stored run without its rows.
type RunSummary struct {
	ID         uuid.UUID
	Scene      string
	StartedAt  time.Time
	FinishedAt time.Time
	Lights     int
	Ranked     int
}

// InsertRun stores run and its rows in one transaction.
func (db *DB) InsertRun(run *ranking.Run) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO ranking_runs (run_id, scene, started_at, finished_at, light_count)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), run.Scene, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), run.Lights,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ranking run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO ranking_rows (run_id, rank, entity_path, average, stddev, frames, light_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Rows {
		if _, err := stmt.Exec(run.ID.String(), r.Rank, r.Path, r.Average, r.StdDev, r.Frames, r.Index); err != nil {
			return fmt.Errorf("failed to insert ranking row %d: %w", r.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ranking run: %w", err)
	}
	return nil
}

// Publish implements ranking.Sink.
func (db *DB) Publish(run *ranking.Run) error {
	return db.InsertRun(run)
}

// GetRun loads a run and its rows ordered by rank.
func (db *DB) GetRun(id uuid.UUID) (*ranking.Run, error) {
	var (
		run                 ranking.Run
		idStr               string
		startedNs, finishNs int64
	)
	err := db.QueryRow(
		`SELECT run_id, scene, started_at, finished_at, light_count FROM ranking_runs WHERE run_id = ?`,
		id.String(),
	).Scan(&idStr, &run.Scene, &startedNs, &finishNs, &run.Lights)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking run: %w", err)
	}
	run.ID = id
	run.StartedAt = time.Unix(0, startedNs).UTC()
	run.FinishedAt = time.Unix(0, finishNs).UTC()

	rows, err := db.Query(
		`SELECT rank, entity_path, average, stddev, frames, light_index
		 FROM ranking_rows WHERE run_id = ? ORDER BY rank`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r ranking.Row
		if err := rows.Scan(&r.Rank, &r.Path, &r.Average, &r.StdDev, &r.Frames, &r.Index); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		run.Rows = append(run.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first, optionally filtered by
// scene. limit <= 0 means no limit.
func (db *DB) ListRuns(scene string, limit int) ([]RunSummary, error) {
	query := `SELECT r.run_id, r.scene, r.started_at, r.finished_at, r.light_count,
		(SELECT COUNT(*) FROM ranking_rows w WHERE w.run_id = r.run_id)
		FROM ranking_runs r`
	var args []interface{}
	if scene != "" {
		query += ` WHERE r.scene = ?`
		args = append(args, scene)
	}
	query += ` ORDER BY r.started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranking runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s                   RunSummary
			idStr               string
			startedNs, finishNs int64
		)
		if err := rows.Scan(&idStr, &s.Scene, &startedNs, &finishNs, &s.Lights, &s.Ranked); err != nil {
			return nil, fmt.Errorf("failed to scan ranking run: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("stored run id %q: %w", idStr, err)
		}
		s.ID = id
		s.StartedAt = time.Unix(0, startedNs).UTC()
		s.FinishedAt = time.Unix(0, finishNs).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
