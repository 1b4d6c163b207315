package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	err := MigrateUp(db)
	if err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Verify tables were created
	tables := []string{"runs", "actions", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Fresh database should need migration
	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Error("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}

	if !errors.Is(err, ErrNoSchema) {
		t.Errorf("CheckDBMigrationStatus() error = %v, want ErrNoSchema", err)
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Status should be OK now
	err := CheckDBMigrationStatus(db)
	if err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Run migration twice
	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	// Status should still be OK
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if v != 1 {
		t.Errorf("LatestVersion() = %d, want 1", v)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Try to insert an action for a non-existent run (should fail due to FK constraint)
	_, err := db.Exec(`
		INSERT INTO actions (run_id, tier, kind, archive, status, created_at)
		VALUES (42, 'daily', 'create', 'foo_daily_2012-03-24', 'ok', datetime('now'))
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_RunUUIDUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insert := "INSERT INTO runs (uuid, operation, run_date, started_at) VALUES ('run-1', 'Backup', '2012-03-24', datetime('now'))"
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("Failed to insert first run: %v", err)
	}

	var status string
	if err := db.QueryRow("SELECT status FROM runs WHERE uuid = 'run-1'").Scan(&status); err != nil {
		t.Fatalf("Failed to read run: %v", err)
	}
	if status != "running" {
		t.Errorf("default status = %q, want running", status)
	}

	if _, err := db.Exec(insert); err == nil {
		t.Error("Expected unique constraint violation for duplicate uuid, but insert succeeded")
	}
}

func TestSchema_ActionCascade(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	res, err := db.Exec("INSERT INTO runs (uuid, operation, run_date, started_at) VALUES ('run-1', 'Backup', '2012-03-24', datetime('now'))")
	if err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("LastInsertId() failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO actions (run_id, tier, kind, archive, status, created_at) VALUES (?, 'weekly', 'expire', 'foo_weekly_2012-03-02', 'ok', datetime('now'))", runID); err != nil {
		t.Fatalf("Failed to insert action: %v", err)
	}

	if _, err := db.Exec("DELETE FROM runs WHERE id = ?", runID); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM actions").Scan(&count); err != nil {
		t.Fatalf("Failed to count actions: %v", err)
	}
	if count != 0 {
		t.Errorf("actions left after deleting run = %d, want 0", count)
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
