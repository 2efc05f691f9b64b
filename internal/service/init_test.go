package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestInitializer(t *testing.T) (*Initializer, *Registry) {
	t.Helper()
	registry, configs := newTestRegistry(t)
	return NewInitializer(registry, configs), registry
}

func validSetup(t *testing.T) (AdminSetup, DatabaseSetup) {
	admin := AdminSetup{
		Username:        "admin",
		Email:           "admin@example.com",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
		FirstName:       "Ada",
	}
	db := DatabaseSetup{
		Name:        "local",
		Provider:    core.ProviderSQLite,
		Credentials: sqliteCreds(t, "init.db"),
	}
	return admin, db
}

func TestStatusBeforeAndAfterSetup(t *testing.T) {
	init, _ := newTestInitializer(t)
	ctx := context.Background()

	status, err := init.Status()
	require.NoError(t, err)
	assert.False(t, status.Initialized)
	assert.Len(t, status.Providers, 6)

	admin, db := validSetup(t)
	_, err = init.Initialize(ctx, admin, db)
	require.NoError(t, err)

	status, err = init.Status()
	require.NoError(t, err)
	assert.True(t, status.Initialized)
}

func TestInitializeCreatesLoginableAdmin(t *testing.T) {
	init, registry := newTestInitializer(t)
	ctx := context.Background()

	admin, db := validSetup(t)
	user, err := init.Initialize(ctx, admin, db)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.NotEqual(t, admin.Password, user.PasswordHash)

	// admin lives in the activated store, not the memory fallback
	assert.Equal(t, core.ProviderSQLite, registry.Current().Provider())

	auth := NewAuthService(registry)
	got, err := auth.Authenticate(ctx, "admin", admin.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = auth.Authenticate(ctx, "admin", "wrong")
	assert.EqualError(t, err, "invalid credentials")
	_, err = auth.Authenticate(ctx, "nobody", admin.Password)
	assert.EqualError(t, err, "invalid credentials")
}

func TestInitializeIsOneShot(t *testing.T) {
	init, _ := newTestInitializer(t)
	ctx := context.Background()

	admin, db := validSetup(t)
	_, err := init.Initialize(ctx, admin, db)
	require.NoError(t, err)

	_, err = init.Initialize(ctx, admin, db)
	assert.ErrorIs(t, err, core.ErrSetupComplete)
}

func TestInitializeRejectsMismatchedPasswords(t *testing.T) {
	init, _ := newTestInitializer(t)

	admin, db := validSetup(t)
	admin.ConfirmPassword = "different"
	_, err := init.Initialize(context.Background(), admin, db)
	assert.ErrorContains(t, err, "passwords do not match")

	// nothing was committed
	status, err := init.Status()
	require.NoError(t, err)
	assert.False(t, status.Initialized)
}

func TestInitializeRejectsInvalidDatabase(t *testing.T) {
	init, _ := newTestInitializer(t)

	admin, _ := validSetup(t)
	db := DatabaseSetup{Name: "pg", Provider: core.ProviderPostgres}
	_, err := init.Initialize(context.Background(), admin, db)
	assert.ErrorContains(t, err, "invalid database configuration")
}

func TestTestDatabaseReportsValidationFirst(t *testing.T) {
	init, _ := newTestInitializer(t)
	ctx := context.Background()

	validation, result := init.TestDatabase(ctx, DatabaseSetup{Name: "supa", Provider: core.ProviderSupabase})
	assert.False(t, validation.IsValid)
	assert.Len(t, validation.Errors, 2)
	assert.False(t, result.Success)

	validation, result = init.TestDatabase(ctx, DatabaseSetup{
		Name: "local", Provider: core.ProviderSQLite, Credentials: sqliteCreds(t, "probe.db"),
	})
	assert.True(t, validation.IsValid)
	assert.True(t, result.Success)
	require.NotNil(t, result.Details)
	assert.NotEmpty(t, result.Details.Version)
}

func TestDeploymentContextSuggestsProvider(t *testing.T) {
	init, _ := newTestInitializer(t)

	t.Setenv("DATABASE_URL", "")
	dc := init.Context()
	assert.Equal(t, string(core.ProviderSQLite), dc.Recommendations.SuggestedProvider)

	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")
	dc = init.Context()
	assert.True(t, dc.Recommendations.DatabaseURL)
	assert.Equal(t, string(core.ProviderPostgres), dc.Recommendations.SuggestedProvider)
}
