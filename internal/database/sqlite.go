package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tsm-go/internal/database/migrations"
	"tsm-go/internal/model"
	"tsm-go/internal/tsm"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Run statuses stored in the ledger.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// SQLiteDatabase implements the run ledger using SQLite.
type SQLiteDatabase struct {
	db    *sql.DB
	path  string
	clock tsm.Clock
}

// NewSQLiteDatabase opens the ledger at path and migrates it to the latest
// schema. path can be a file path or ":memory:" for an in-memory database.
// A nil clock uses the real time.
func NewSQLiteDatabase(path string, clock tsm.Clock) (*SQLiteDatabase, error) {
	if clock == nil {
		clock = tsm.RealClock{}
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path, clock: clock}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps an in-memory database alive for the life of
	// the handle and serializes writers on file databases.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Run operations

func (s *SQLiteDatabase) CreateRun(uuid, operation string, runDate tsm.Date, dryRun bool) (*model.Run, error) {
	run := &model.Run{
		UUID:      uuid,
		Operation: operation,
		RunDate:   runDate.String(),
		DryRun:    dryRun,
		StartedAt: s.clock.Now().UTC(),
		Status:    RunStatusRunning,
	}

	res, err := s.db.Exec(
		`INSERT INTO runs (uuid, operation, run_date, dry_run, started_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
		run.UUID, run.Operation, run.RunDate, run.DryRun, run.StartedAt, run.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}
	return run, nil
}

func (s *SQLiteDatabase) FinishRun(id int64, status string) error {
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
		s.clock.Now().UTC(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing run: run %d not found", id)
	}
	return nil
}

// FindRun returns the run with the given ID, or nil if there is none.
func (s *SQLiteDatabase) FindRun(id int64) (*model.Run, error) {
	row := s.db.QueryRow(
		`SELECT id, uuid, operation, run_date, dry_run, started_at, finished_at, status FROM runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding run: %w", err)
	}
	return run, nil
}

func (s *SQLiteDatabase) ListRuns(limit int) ([]*model.Run, error) {
	rows, err := s.db.Query(
		`SELECT id, uuid, operation, run_date, dry_run, started_at, finished_at, status FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Action operations

func (s *SQLiteDatabase) RecordAction(action *model.Action) error {
	if action.CreatedAt.IsZero() {
		action.CreatedAt = s.clock.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO actions (run_id, tier, kind, archive, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		action.RunID, action.Tier, action.Kind, action.Archive, action.Status, action.Error, action.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording action: %w", err)
	}
	if action.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading action id: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListActions(runID int64) ([]*model.Action, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, tier, kind, archive, status, error, created_at FROM actions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	defer rows.Close()

	var actions []*model.Action
	for rows.Next() {
		a := &model.Action{}
		if err := rows.Scan(&a.ID, &a.RunID, &a.Tier, &a.Kind, &a.Archive, &a.Status, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("listing actions: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	return actions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	run := &model.Run{}
	err := row.Scan(&run.ID, &run.UUID, &run.Operation, &run.RunDate, &run.DryRun, &run.StartedAt, &run.FinishedAt, &run.Status)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements tsm.Database interface
var _ tsm.Database = (*SQLiteDatabase)(nil)
