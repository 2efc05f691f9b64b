// Package data persists application metadata (database configs, migration
// logs) in a local SQLite file. Domain data lives behind the active storage
// adapter, never here.
package data

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// InitDB opens the bootstrap SQLite database at path and ensures its schema.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS database_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		provider TEXT NOT NULL,
		credentials_enc TEXT NOT NULL,
		is_active INTEGER DEFAULT 0,
		is_connected INTEGER DEFAULT 0,
		last_connection_test DATETIME,
		last_test_succeeded INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS migration_logs (
		id TEXT PRIMARY KEY,
		from_provider TEXT,
		to_provider TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		records_migrated INTEGER DEFAULT 0,
		error_message TEXT
	);
	`
	_, err := db.Exec(schema)
	return err
}
