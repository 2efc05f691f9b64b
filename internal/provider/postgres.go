package provider

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	_ "github.com/lib/pq"
)

func init() {
	register(&postgresStrategy{provider: core.ProviderPostgres, defaultSSL: "disable"})
	register(&postgresStrategy{provider: core.ProviderNeon, defaultSSL: "require"})
}

// postgresStrategy serves both plain PostgreSQL and Neon. Neon is wire
// compatible; it only differs in defaults (TLS is mandatory) and in the
// connection-string host shape.
type postgresStrategy struct {
	provider   core.Provider
	defaultSSL string
}

func (s *postgresStrategy) Provider() core.Provider { return s.provider }

func (s *postgresStrategy) Validate(creds core.Credentials) (errs, warnings []string) {
	if creds.ConnectionString != "" {
		if !strings.HasPrefix(creds.ConnectionString, "postgres://") &&
			!strings.HasPrefix(creds.ConnectionString, "postgresql://") {
			errs = append(errs, "connection string must start with postgres:// or postgresql://")
		}
		if s.provider == core.ProviderNeon {
			if !strings.Contains(creds.ConnectionString, "neon.tech") {
				errs = append(errs, "connection string does not look like a Neon endpoint (expected a *.neon.tech host)")
			}
			if strings.Contains(creds.ConnectionString, "sslmode=disable") {
				errs = append(errs, "Neon requires TLS; sslMode cannot be disable")
			}
		}
		return errs, nil
	}
	// Neon hands out a single connection string; the host tuple form is not a
	// supported shape for it.
	if s.provider == core.ProviderNeon {
		return []string{"connection string is required"}, nil
	}
	if creds.Host == "" {
		errs = append(errs, "host is required")
	}
	if creds.Database == "" {
		errs = append(errs, "database name is required")
	}
	if creds.Username == "" {
		errs = append(errs, "username is required")
	}
	if creds.Port != 0 && (creds.Port < 1 || creds.Port > 65535) {
		errs = append(errs, "port must be between 1 and 65535 (omit it to use the default)")
	}
	if creds.Password == "" {
		warnings = append(warnings, "no password set; the server must accept passwordless connections")
	}
	return errs, warnings
}

func (s *postgresStrategy) dsn(creds core.Credentials) string {
	if creds.ConnectionString != "" {
		return creds.ConnectionString
	}
	port := creds.Port
	if port == 0 {
		port = 5432
	}
	ssl := creds.SSLMode
	if ssl == "" {
		ssl = s.defaultSSL
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		creds.Host, port, creds.Database, creds.Username, creds.Password, ssl)
}

func (s *postgresStrategy) Probe(ctx context.Context, creds core.Credentials) core.ConnectionTestResult {
	return probeSQL(ctx, "postgres", s.dsn(creds), storage.FamilyPostgres,
		"SELECT version()", creds.Host, creds.Database)
}

func (s *postgresStrategy) Open(ctx context.Context, creds core.Credentials) (core.Store, error) {
	return openSQL(ctx, "postgres", s.dsn(creds), s.provider, storage.FamilyPostgres)
}
