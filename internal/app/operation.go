package app

import (
	"fmt"

	"tsm-go/internal/database"
	"tsm-go/internal/tsm"
)

// RunOperation tracks one rotation run. It is created in memory with ID=0
// and gets its ID once the run is persisted to the ledger.
type RunOperation struct {
	ID        int64
	UUID      string
	Operation string
	Date      tsm.Date
	DryRun    bool
	Status    string // database.RunStatusSuccess or database.RunStatusError
}

// NewRunOperation creates a new in-memory run operation.
func NewRunOperation(uuid, operation string, date tsm.Date, dryRun bool) *RunOperation {
	return &RunOperation{
		UUID:      uuid,
		Operation: operation,
		Date:      date,
		DryRun:    dryRun,
		Status:    database.RunStatusSuccess,
	}
}

// Persisted returns true if this run has been saved to the ledger.
func (op *RunOperation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the run as failed.
func (op *RunOperation) Fail() {
	op.Status = database.RunStatusError
}

// persist saves op to db, assigning its ID. Persisting twice is a no-op.
func (op *RunOperation) persist(db tsm.Database) error {
	if op.Persisted() {
		return nil
	}
	run, err := db.CreateRun(op.UUID, op.Operation, op.Date, op.DryRun)
	if err != nil {
		return fmt.Errorf("persisting run: %w", err)
	}
	op.ID = run.ID
	return nil
}

// finish stamps the final status of a persisted run.
func (op *RunOperation) finish(db tsm.Database) error {
	if !op.Persisted() {
		return nil
	}
	if err := db.FinishRun(op.ID, op.Status); err != nil {
		return fmt.Errorf("finishing run %d: %w", op.ID, err)
	}
	return nil
}
