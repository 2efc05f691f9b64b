package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/data"
)

func newTestRegistry(t *testing.T) (*Registry, core.ConfigRepository) {
	t.Helper()

	db, err := data.InitDB(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	crypto, err := NewEncryptionService(testKey)
	require.NoError(t, err)

	configRepo := data.NewConfigRepo(db, crypto)
	registry := NewRegistry(configRepo, data.NewMigrationRepo(db))
	t.Cleanup(func() { registry.Close() })
	return registry, configRepo
}

func sqliteCreds(t *testing.T, name string) core.Credentials {
	t.Helper()
	return core.Credentials{FilePath: filepath.Join(t.TempDir(), name)}
}

func TestRegistryStartsOnMemory(t *testing.T) {
	registry, _ := newTestRegistry(t)
	assert.Equal(t, core.ProviderMemory, registry.Current().Provider())
}

func TestSaveConfigValidates(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.SaveConfig("bad", core.ProviderPostgres, core.Credentials{})
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = registry.SaveConfig("  ", core.ProviderSQLite, sqliteCreds(t, "a.db"))
	assert.ErrorContains(t, err, "name is required")

	cfg, err := registry.SaveConfig("local", core.ProviderSQLite, sqliteCreds(t, "b.db"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.ID)
	assert.False(t, cfg.IsActive)
}

func TestSnapshotSurvivesActivation(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := registry.SaveConfig("first", core.ProviderSQLite, sqliteCreds(t, "a.db"))
	require.NoError(t, err)
	_, err = registry.Activate(ctx, first.ID, false)
	require.NoError(t, err)

	user, err := NewUser("dave", "dave@example.com", "password123", "Dave", "")
	require.NoError(t, err)
	require.NoError(t, registry.Current().CreateUser(ctx, user))

	// a request holds this snapshot across the swap below
	snapshot := registry.Current()

	second, err := registry.SaveConfig("second", core.ProviderSQLite, sqliteCreds(t, "b.db"))
	require.NoError(t, err)
	_, err = registry.Activate(ctx, second.ID, false)
	require.NoError(t, err)
	require.Equal(t, core.ProviderSQLite, registry.Current().Provider())

	got, err := snapshot.GetUser(ctx, user.ID)
	require.NoError(t, err, "in-flight calls finish against the adapter they started on")
	assert.Equal(t, "dave", got.Username)
}

func TestActivateUntestedRemoteRejected(t *testing.T) {
	registry, _ := newTestRegistry(t)

	cfg, err := registry.SaveConfig("pg", core.ProviderPostgres, core.Credentials{
		Host: "127.0.0.1", Port: 5432, Database: "app", Username: "u", Password: "p",
	})
	require.NoError(t, err)

	_, err = registry.Activate(context.Background(), cfg.ID, false)
	assert.ErrorIs(t, err, core.ErrTestRequired)
	assert.Equal(t, core.ProviderMemory, registry.Current().Provider(), "failed activation leaves the previous adapter")
}

func TestActivateSQLiteWithoutTest(t *testing.T) {
	registry, configs := newTestRegistry(t)

	cfg, err := registry.SaveConfig("local", core.ProviderSQLite, sqliteCreds(t, "a.db"))
	require.NoError(t, err)

	activated, err := registry.Activate(context.Background(), cfg.ID, false)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
	assert.Equal(t, core.ProviderSQLite, registry.Current().Provider())

	active, err := configs.GetActive()
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, active.ID)
}

func TestSequentialActivationKeepsOneActive(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := registry.SaveConfig("first", core.ProviderSQLite, sqliteCreds(t, "a.db"))
	require.NoError(t, err)
	second, err := registry.SaveConfig("second", core.ProviderSQLite, sqliteCreds(t, "b.db"))
	require.NoError(t, err)

	_, err = registry.Activate(ctx, first.ID, false)
	require.NoError(t, err)
	_, err = registry.Activate(ctx, second.ID, false)
	require.NoError(t, err)

	configs, err := registry.Configs()
	require.NoError(t, err)
	activeCount := 0
	for _, c := range configs {
		if c.IsActive {
			activeCount++
			assert.Equal(t, second.ID, c.ID)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestDeleteActiveConfigRejected(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	cfg, err := registry.SaveConfig("local", core.ProviderSQLite, sqliteCreds(t, "a.db"))
	require.NoError(t, err)
	_, err = registry.Activate(ctx, cfg.ID, false)
	require.NoError(t, err)

	err = registry.DeleteConfig(cfg.ID)
	assert.ErrorIs(t, err, core.ErrActiveConfig)

	other, err := registry.SaveConfig("spare", core.ProviderSQLite, sqliteCreds(t, "b.db"))
	require.NoError(t, err)
	assert.NoError(t, registry.DeleteConfig(other.ID))
}

func TestTestRecordsOutcome(t *testing.T) {
	registry, configs := newTestRegistry(t)

	cfg, err := registry.SaveConfig("local", core.ProviderSQLite, sqliteCreds(t, "a.db"))
	require.NoError(t, err)
	require.False(t, cfg.Tested())

	result, err := registry.Test(context.Background(), cfg.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)

	stored, err := configs.GetByID(cfg.ID)
	require.NoError(t, err)
	assert.True(t, stored.Tested())
	assert.NotNil(t, stored.LastConnectionTest)
	assert.True(t, stored.IsConnected)
}

func TestActivateWithMigrationCopiesData(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	// seed the memory store before any database exists
	user, err := NewUser("carol", "carol@example.com", "password123", "Carol", "")
	require.NoError(t, err)
	require.NoError(t, registry.Current().CreateUser(ctx, user))

	cfg, err := registry.SaveConfig("local", core.ProviderSQLite, sqliteCreds(t, "a.db"))
	require.NoError(t, err)
	_, err = registry.Activate(ctx, cfg.ID, true)
	require.NoError(t, err)

	moved, err := registry.Current().GetUserByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, user.ID, moved.ID)
	assert.Equal(t, user.PasswordHash, moved.PasswordHash)

	logs, err := registry.MigrationLogs()
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, core.MigrationCompleted, logs[0].Status)
	assert.Equal(t, core.ProviderMemory, logs[0].FromProvider)
	assert.Equal(t, core.ProviderSQLite, logs[0].ToProvider)
	assert.Equal(t, 1, logs[0].RecordsMigrated)
	assert.NotNil(t, logs[0].CompletedAt)
}

func TestRestoreWithoutActiveConfigIsNoop(t *testing.T) {
	registry, _ := newTestRegistry(t)
	require.NoError(t, registry.Restore(context.Background()))
	assert.Equal(t, core.ProviderMemory, registry.Current().Provider())
}
