package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "modernc.org/sqlite"
)

// Supported ledger drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chapters (
		series     VARCHAR NOT NULL,
		chapter    VARCHAR NOT NULL,
		archive    VARCHAR NOT NULL DEFAULT '',
		source     VARCHAR NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (series, chapter)
	)`,
	`CREATE TABLE IF NOT EXISTS series_links (
		series     VARCHAR PRIMARY KEY,
		tracker_id INTEGER NOT NULL
	)`,
}

// Open opens (creating if needed) the ledger database at path and applies the
// schema.
func Open(driver, path string) (*sql.DB, error) {
	switch driver {
	case DriverDuckDB, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// a single writer keeps check-then-insert ordering predictable
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return db, nil
}

func InitDuckDB(path string) (*sql.DB, error) {
	return Open(DriverDuckDB, path)
}

func InitSQLite(path string) (*sql.DB, error) {
	return Open(DriverSQLite, path)
}
