package database

import (
	"fmt"
	"path/filepath"

	"tsm-go/internal/config"
	"tsm-go/internal/tsm"
)

// NewDatabaseFromConfig creates the run ledger based on the database config
// type. File databases are named after the archive so several policies can
// share a data directory.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, archiveName string, clock tsm.Clock) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if archiveName == "" {
			return nil, fmt.Errorf("archive name required for sqlite database")
		}
		dbPath := filepath.Join(cfg.DataDir, archiveName+".db")
		return NewSQLiteDatabase(dbPath, clock)
	case "memory":
		return NewSQLiteDatabase(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
