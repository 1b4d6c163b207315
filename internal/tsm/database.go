package tsm

import "tsm-go/internal/model"

// Database is the run ledger: a record of every rotation run and the
// archive actions it performed.
type Database interface {
	// CreateRun records the start of a run and returns it with its ID set.
	CreateRun(uuid, operation string, runDate Date, dryRun bool) (*model.Run, error)

	// FinishRun stamps the finish time and final status of a run.
	FinishRun(id int64, status string) error

	// RecordAction appends an action to a run.
	RecordAction(action *model.Action) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*model.Run, error)

	// ListActions returns the actions of a run in the order they happened.
	ListActions(runID int64) ([]*model.Action, error)

	// Close closes the database connection.
	Close() error
}
