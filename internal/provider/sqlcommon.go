package provider

import (
	"context"
	"database/sql"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// probeSQL runs the shared probe path for database/sql backed providers:
// connect, ping, read the server version, list missing tables, close. The
// connection is transient and nothing on the target is mutated.
func probeSQL(ctx context.Context, driver, dsn string, family storage.Family, versionQuery, host, database string) core.ConnectionTestResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return failedProbe(err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return failedProbe(err)
	}

	var version string
	if err := db.QueryRowContext(ctx, versionQuery).Scan(&version); err != nil {
		return failedProbe(err)
	}

	// Missing tables are advisory: the probe still succeeds so the wizard can
	// offer to create them.
	missing, err := storage.MissingTables(ctx, db, family)
	if err != nil {
		missing = nil
	}
	if missing == nil {
		missing = []string{}
	}

	return core.ConnectionTestResult{
		Success:   true,
		LatencyMs: time.Since(start).Milliseconds(),
		Details: &core.ConnectionDetails{
			Host:          host,
			Database:      database,
			Version:       version,
			MissingTables: missing,
		},
	}
}

// openSQL builds the long-lived pool behind a store and provisions the
// schema. CREATE TABLE IF NOT EXISTS keeps this idempotent.
func openSQL(ctx context.Context, driver, dsn string, p core.Provider, family storage.Family) (core.Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	if err := storage.EnsureSchema(ctx, db, family); err != nil {
		db.Close()
		return nil, err
	}
	return storage.NewSQLStore(db, p, family), nil
}
