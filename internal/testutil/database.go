package testutil

import (
	"testing"

	"tsm-go/internal/database"
	"tsm-go/internal/tsm"
)

// NewTestDatabase creates a new in-memory ledger with the schema applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T, clock tsm.Clock) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
