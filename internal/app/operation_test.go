package app

import (
	"testing"
	"time"

	"tsm-go/internal/database"
	"tsm-go/internal/testutil"
	"tsm-go/internal/tsm"
)

func TestNewRunOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		dryRun    bool
	}{
		{name: "backup", operation: "Backup"},
		{name: "dry run", operation: "Backup", dryRun: true},
		{name: "daemon", operation: "Daemon"},
	}

	day := tsm.NewDate(2012, time.February, 3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewRunOperation("uuid-1", tt.operation, day, tt.dryRun)

			if op.Operation != tt.operation {
				t.Errorf("Operation = %q, want %q", op.Operation, tt.operation)
			}
			if op.DryRun != tt.dryRun {
				t.Errorf("DryRun = %v, want %v", op.DryRun, tt.dryRun)
			}
			if op.Status != database.RunStatusSuccess {
				t.Errorf("Status = %q, want %q", op.Status, database.RunStatusSuccess)
			}
			if op.ID != 0 {
				t.Errorf("ID = %d, want 0", op.ID)
			}
		})
	}
}

func TestRunOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
		{name: "persisted when ID is large", id: 99999, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &RunOperation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunOperation_PersistAndFinish(t *testing.T) {
	day := tsm.NewDate(2012, time.February, 3)
	db := testutil.NewTestDatabase(t, testutil.ClockOn(day))

	op := NewRunOperation("uuid-1", "Backup", day, false)
	if err := op.finish(db); err != nil {
		t.Fatalf("finish() before persist error = %v", err)
	}

	if err := op.persist(db); err != nil {
		t.Fatalf("persist() error = %v", err)
	}
	id := op.ID
	if id == 0 {
		t.Fatal("ID not set after persist")
	}
	if err := op.persist(db); err != nil || op.ID != id {
		t.Fatalf("second persist() = %v, ID %d; want no-op with ID %d", err, op.ID, id)
	}

	op.Fail()
	if err := op.finish(db); err != nil {
		t.Fatalf("finish() error = %v", err)
	}

	run, err := db.FindRun(id)
	if err != nil {
		t.Fatalf("FindRun() error = %v", err)
	}
	if run.Status != database.RunStatusError {
		t.Errorf("Status = %q, want %q", run.Status, database.RunStatusError)
	}
	if !run.FinishedAt.Valid {
		t.Error("FinishedAt not set")
	}
}
