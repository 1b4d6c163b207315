package model

import (
	"database/sql"
	"time"
)

// Run is one invocation of the rotation (a backup run), as recorded in the
// run ledger.
type Run struct {
	ID         int64  // auto-increment, assigned by the database
	UUID       string // run identifier shown in the log file
	Operation  string // CLI operation, e.g. "Backup" or "Daemon"
	RunDate    string // the "today" the rotation was evaluated for, YYYY-MM-DD
	DryRun     bool
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string // "running", "success" or "error"
}

// Action is a single create or expire performed (or skipped) during a run.
type Action struct {
	ID        int64
	RunID     int64  // foreign key to Run
	Tier      string // "daily", "weekly" or "monthly"
	Kind      string // "create" or "expire"
	Archive   string // archive identifier
	Status    string // "ok", "failed" or "skipped"
	Error     string // collaborator error message, empty on success
	CreatedAt time.Time
}
