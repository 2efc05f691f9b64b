package provider

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestSupportedProviders(t *testing.T) {
	supported := Supported()
	assert.Len(t, supported, 6)
	for _, p := range core.Providers() {
		assert.Contains(t, supported, p)
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	tests := []struct {
		name     string
		cfg      core.DatabaseConfig
		wantErrs int
	}{
		{
			name:     "sqlite with no credentials is valid",
			cfg:      core.DatabaseConfig{Provider: core.ProviderSQLite},
			wantErrs: 0,
		},
		{
			name:     "supabase missing url and key reports both",
			cfg:      core.DatabaseConfig{Name: "supa", Provider: core.ProviderSupabase},
			wantErrs: 2,
		},
		{
			name: "supabase with http url rejected",
			cfg: core.DatabaseConfig{Name: "supa", Provider: core.ProviderSupabase,
				Credentials: core.Credentials{SupabaseURL: "http://abc.supabase.co", SupabaseAnonKey: "key"}},
			wantErrs: 1,
		},
		{
			name: "supabase auto-create without service key rejected",
			cfg: core.DatabaseConfig{Name: "supa", Provider: core.ProviderSupabase,
				Credentials: core.Credentials{SupabaseURL: "https://abc.supabase.co", SupabaseAnonKey: "key", AutoCreateTables: true}},
			wantErrs: 1,
		},
		{
			name:     "postgres missing host db and user reports all three",
			cfg:      core.DatabaseConfig{Name: "pg", Provider: core.ProviderPostgres},
			wantErrs: 3,
		},
		{
			name: "postgres connection string accepted",
			cfg: core.DatabaseConfig{Name: "pg", Provider: core.ProviderPostgres,
				Credentials: core.Credentials{ConnectionString: "postgres://u:p@localhost:5432/app"}},
			wantErrs: 0,
		},
		{
			name: "postgres connection string with wrong scheme rejected",
			cfg: core.DatabaseConfig{Name: "pg", Provider: core.ProviderPostgres,
				Credentials: core.Credentials{ConnectionString: "mysql://u:p@localhost/app"}},
			wantErrs: 1,
		},
		{
			name: "neon connection string without neon host flagged",
			cfg: core.DatabaseConfig{Name: "neon", Provider: core.ProviderNeon,
				Credentials: core.Credentials{ConnectionString: "postgres://u:p@localhost:5432/app"}},
			wantErrs: 1,
		},
		{
			name: "neon refuses disabled tls",
			cfg: core.DatabaseConfig{Name: "neon", Provider: core.ProviderNeon,
				Credentials: core.Credentials{ConnectionString: "postgres://u:p@x.neon.tech/app?sslmode=disable"}},
			wantErrs: 1,
		},
		{
			name: "neon without a connection string rejected",
			cfg: core.DatabaseConfig{Name: "neon", Provider: core.ProviderNeon,
				Credentials: core.Credentials{Host: "x.neon.tech", Database: "app", Username: "u"}},
			wantErrs: 1,
		},
		{
			name: "planetscale connection string accepted",
			cfg: core.DatabaseConfig{Name: "ps", Provider: core.ProviderPlanetScale,
				Credentials: core.Credentials{ConnectionString: "mysql://u:p@aws.connect.psdb.cloud/app"}},
			wantErrs: 0,
		},
		{
			name: "planetscale without a connection string rejected",
			cfg: core.DatabaseConfig{Name: "ps", Provider: core.ProviderPlanetScale,
				Credentials: core.Credentials{Host: "aws.connect.psdb.cloud", Database: "app", Username: "u", Password: "p"}},
			wantErrs: 1,
		},
		{
			name: "mysql connection string accepted",
			cfg: core.DatabaseConfig{Name: "my", Provider: core.ProviderMySQL,
				Credentials: core.Credentials{ConnectionString: "mysql://u:p@db.local/app"}},
			wantErrs: 0,
		},
		{
			name: "mysql complete credentials valid",
			cfg: core.DatabaseConfig{Name: "my", Provider: core.ProviderMySQL,
				Credentials: core.Credentials{Host: "localhost", Database: "app", Username: "root"}},
			wantErrs: 0,
		},
		{
			name: "negative port rejected",
			cfg: core.DatabaseConfig{Name: "pg", Provider: core.ProviderPostgres,
				Credentials: core.Credentials{Host: "db.local", Port: -1, Database: "app", Username: "u", Password: "p"}},
			wantErrs: 1,
		},
		{
			name:     "unknown provider rejected",
			cfg:      core.DatabaseConfig{Name: "x", Provider: core.Provider("oracle")},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.cfg)
			assert.Len(t, result.Errors, tt.wantErrs)
			assert.Equal(t, tt.wantErrs == 0, result.IsValid)
			assert.NotNil(t, result.Errors)
		})
	}
}

func TestValidateFlagsMissingPassword(t *testing.T) {
	result := Validate(core.DatabaseConfig{Name: "pg", Provider: core.ProviderPostgres,
		Credentials: core.Credentials{Host: "db.local", Database: "app", Username: "u"}})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "password")

	result = Validate(core.DatabaseConfig{Name: "my", Provider: core.ProviderMySQL,
		Credentials: core.Credentials{Host: "db.local", Database: "app", Username: "root"}})
	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 1)

	result = Validate(core.DatabaseConfig{Name: "pg", Provider: core.ProviderPostgres,
		Credentials: core.Credentials{Host: "db.local", Database: "app", Username: "u", Password: "p"}})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Warnings)
}

func TestMySQLDSN(t *testing.T) {
	s := &mysqlStrategy{provider: core.ProviderMySQL}
	dsn := s.dsn(core.Credentials{Host: "db.local", Database: "app", Username: "u", Password: "p"})
	assert.Equal(t, "u:p@tcp(db.local:3306)/app?parseTime=true&charset=utf8mb4", dsn)

	ps := &mysqlStrategy{provider: core.ProviderPlanetScale, forceTLS: true}
	assert.Contains(t, ps.dsn(core.Credentials{Host: "h", Database: "d", Username: "u"}), "&tls=true")

	// PlanetScale-style URL normalizes to the driver DSN
	assert.Equal(t,
		"u:p@tcp(aws.connect.psdb.cloud:3306)/app?parseTime=true&charset=utf8mb4&tls=true",
		ps.dsn(core.Credentials{ConnectionString: "mysql://u:p@aws.connect.psdb.cloud/app"}))

	// raw driver DSN passes through with parseTime forced on
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true",
		s.dsn(core.Credentials{ConnectionString: "u:p@tcp(h:3306)/d"}))
}

func TestPostgresDSN(t *testing.T) {
	s := &postgresStrategy{provider: core.ProviderPostgres, defaultSSL: "disable"}
	dsn := s.dsn(core.Credentials{Host: "db.local", Database: "app", Username: "u", Password: "p"})
	assert.Equal(t, "host=db.local port=5432 dbname=app user=u password=p sslmode=disable", dsn)

	neon := &postgresStrategy{provider: core.ProviderNeon, defaultSSL: "require"}
	assert.Contains(t, neon.dsn(core.Credentials{Host: "x.neon.tech", Database: "app", Username: "u"}), "sslmode=require")

	// explicit connection string wins
	assert.Equal(t, "postgres://u@h/db", s.dsn(core.Credentials{ConnectionString: "postgres://u@h/db", Host: "ignored"}))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, "connection timed out"},
		{"net timeout", timeoutErr{}, "connection timed out"},
		{"pg auth", errors.New(`pq: password authentication failed for user "app"`), "authentication failed"},
		{"mysql auth", errors.New("Error 1045: Access denied for user"), "authentication failed"},
		{"refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, "could not reach"},
		{"dns", errors.New("dial tcp: lookup nope.example: no such host"), "could not reach"},
		{"missing db", errors.New(`pq: database "nope" does not exist`), "does not exist"},
		{"unknown", errors.New("weird driver state"), "connection failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.err)
			assert.Contains(t, got, tt.want)
			// raw driver text must not leak
			assert.NotContains(t, got, "pq:")
			assert.NotContains(t, got, "Error 1045")
		})
	}
}

func TestSQLiteProbeAndOpen(t *testing.T) {
	dir := t.TempDir()
	creds := core.Credentials{FilePath: dir + "/probe.db"}

	strategy, err := For(core.ProviderSQLite)
	require.NoError(t, err)

	result := strategy.Probe(context.Background(), creds)
	require.True(t, result.Success, "probe error: %s", result.Error)
	require.NotNil(t, result.Details)
	assert.NotEmpty(t, result.Details.Version)
	assert.GreaterOrEqual(t, result.LatencyMs, int64(0))
	// probe must not provision
	assert.Len(t, result.Details.MissingTables, len(core.RequiredTables))

	store, err := strategy.Open(context.Background(), creds)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, core.ProviderSQLite, store.Provider())

	// Open provisioned everything; a second probe sees a full schema.
	result = strategy.Probe(context.Background(), creds)
	require.True(t, result.Success)
	assert.Empty(t, result.Details.MissingTables)
}

func TestProbeUnreachableHostFails(t *testing.T) {
	strategy, err := For(core.ProviderPostgres)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := strategy.Probe(ctx, core.Credentials{
		Host: "127.0.0.1", Port: 1, Database: "app", Username: "u", Password: "p",
	})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}
