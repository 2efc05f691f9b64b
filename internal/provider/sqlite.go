package provider

import (
	"context"
	"path/filepath"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	_ "modernc.org/sqlite"
)

func init() {
	register(&sqliteStrategy{})
}

// sqliteStrategy is the zero-config local backend. The file is created on
// first open, so validation and probing can only fail on a bad path.
type sqliteStrategy struct{}

func (s *sqliteStrategy) Provider() core.Provider { return core.ProviderSQLite }

func (s *sqliteStrategy) Validate(creds core.Credentials) (errs, warnings []string) {
	if strings.ContainsRune(creds.FilePath, 0) {
		return []string{"file path contains invalid characters"}, nil
	}
	return nil, nil
}

func (s *sqliteStrategy) path(creds core.Credentials) string {
	if creds.FilePath == "" {
		return "fintrack.db"
	}
	return filepath.Clean(creds.FilePath)
}

func (s *sqliteStrategy) dsn(creds core.Credentials) string {
	return s.path(creds) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func (s *sqliteStrategy) Probe(ctx context.Context, creds core.Credentials) core.ConnectionTestResult {
	return probeSQL(ctx, "sqlite", s.dsn(creds), storage.FamilySQLite,
		"SELECT sqlite_version()", "local", s.path(creds))
}

func (s *sqliteStrategy) Open(ctx context.Context, creds core.Credentials) (core.Store, error) {
	return openSQL(ctx, "sqlite", s.dsn(creds), core.ProviderSQLite, storage.FamilySQLite)
}
