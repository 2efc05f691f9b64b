package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	_ "github.com/go-sql-driver/mysql"
)

func init() {
	register(&mysqlStrategy{provider: core.ProviderMySQL})
	register(&mysqlStrategy{provider: core.ProviderPlanetScale, forceTLS: true})
}

// mysqlStrategy serves MySQL and PlanetScale. PlanetScale speaks the MySQL
// protocol but only accepts TLS connections.
type mysqlStrategy struct {
	provider core.Provider
	forceTLS bool
}

func (s *mysqlStrategy) Provider() core.Provider { return s.provider }

func (s *mysqlStrategy) Validate(creds core.Credentials) (errs, warnings []string) {
	if creds.ConnectionString != "" {
		if !strings.HasPrefix(creds.ConnectionString, "mysql://") &&
			!strings.Contains(creds.ConnectionString, "@") {
			errs = append(errs, "connection string must be a mysql:// URL or a driver DSN")
		}
		return errs, nil
	}
	// PlanetScale hands out a single connection string per branch; the host
	// tuple form is not a supported shape for it.
	if s.provider == core.ProviderPlanetScale {
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

// dsn builds a go-sql-driver DSN. parseTime makes DATETIME columns scan into
// time.Time, which the store relies on.
func (s *mysqlStrategy) dsn(creds core.Credentials) string {
	if creds.ConnectionString != "" {
		return s.dsnFromString(creds.ConnectionString)
	}
	port := creds.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		creds.Username, creds.Password, creds.Host, port, creds.Database)
	if s.forceTLS {
		dsn += "&tls=true"
	}
	return dsn
}

// dsnFromString normalizes a mysql:// URL (the form PlanetScale hands out) to
// the go-sql-driver DSN shape. A string that is already a driver DSN passes
// through with parseTime forced on.
func (s *mysqlStrategy) dsnFromString(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Scheme == "mysql" && u.Host != "" {
		port := u.Port()
		if port == "" {
			port = "3306"
		}
		password, _ := u.User.Password()
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
			u.User.Username(), password, u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		if s.forceTLS {
			dsn += "&tls=true"
		}
		return dsn
	}
	dsn := raw
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}
	return dsn
}

func (s *mysqlStrategy) Probe(ctx context.Context, creds core.Credentials) core.ConnectionTestResult {
	return probeSQL(ctx, "mysql", s.dsn(creds), storage.FamilyMySQL,
		"SELECT VERSION()", creds.Host, creds.Database)
}

func (s *mysqlStrategy) Open(ctx context.Context, creds core.Credentials) (core.Store, error) {
	return openSQL(ctx, "mysql", s.dsn(creds), s.provider, storage.FamilyMySQL)
}
