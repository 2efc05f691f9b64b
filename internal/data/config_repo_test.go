package data

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/service"
)

func newTestRepo(t *testing.T) (*ConfigRepo, *MigrationRepo) {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	crypto, err := service.NewEncryptionService("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	return NewConfigRepo(db, crypto), NewMigrationRepo(db)
}

func testConfig(name string) *core.DatabaseConfig {
	return &core.DatabaseConfig{
		ID:       uuid.NewString(),
		Name:     name,
		Provider: core.ProviderPostgres,
		Credentials: core.Credentials{
			Host: "db.local", Port: 5432, Database: "app",
			Username: "app", Password: "hunter2-secret",
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestConfigRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	cfg := testConfig("prod")
	require.NoError(t, repo.Create(cfg))

	got, err := repo.GetByID(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "prod", got.Name)
	assert.Equal(t, core.ProviderPostgres, got.Provider)
	assert.Equal(t, "hunter2-secret", got.Credentials.Password)
	assert.Nil(t, got.LastConnectionTest)
	assert.Nil(t, got.LastTestSucceeded)

	_, err = repo.GetByID(uuid.NewString())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCredentialsEncryptedAtRest(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	defer db.Close()

	crypto, err := service.NewEncryptionService("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	repo := NewConfigRepo(db, crypto)

	cfg := testConfig("prod")
	require.NoError(t, repo.Create(cfg))

	var enc string
	require.NoError(t, db.QueryRow(`SELECT credentials_enc FROM database_configs WHERE id = ?`, cfg.ID).Scan(&enc))
	assert.NotContains(t, enc, "hunter2-secret")
	assert.NotContains(t, enc, "db.local")
}

func TestSetActiveFlipsAtomically(t *testing.T) {
	repo, _ := newTestRepo(t)

	a, b := testConfig("a"), testConfig("b")
	require.NoError(t, repo.Create(a))
	require.NoError(t, repo.Create(b))

	require.NoError(t, repo.SetActive(a.ID))
	require.NoError(t, repo.SetActive(b.ID))

	active, err := repo.GetActive()
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	all, err := repo.GetAll()
	require.NoError(t, err)
	count := 0
	for _, c := range all {
		if c.IsActive {
			count++
		}
	}
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, repo.SetActive(uuid.NewString()), core.ErrNotFound)
}

func TestRecordTest(t *testing.T) {
	repo, _ := newTestRepo(t)

	cfg := testConfig("probe")
	require.NoError(t, repo.Create(cfg))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.RecordTest(cfg.ID, at, true))

	got, err := repo.GetByID(cfg.ID)
	require.NoError(t, err)
	assert.True(t, got.Tested())
	assert.True(t, got.IsConnected)
	require.NotNil(t, got.LastConnectionTest)

	require.NoError(t, repo.RecordTest(cfg.ID, at.Add(time.Minute), false))
	got, err = repo.GetByID(cfg.ID)
	require.NoError(t, err)
	assert.False(t, got.Tested())
	assert.False(t, got.IsConnected)
}

func TestDeleteConfig(t *testing.T) {
	repo, _ := newTestRepo(t)

	cfg := testConfig("gone")
	require.NoError(t, repo.Create(cfg))
	require.NoError(t, repo.Delete(cfg.ID))
	assert.ErrorIs(t, repo.Delete(cfg.ID), core.ErrNotFound)
}

func TestMigrationLogLifecycle(t *testing.T) {
	_, repo := newTestRepo(t)

	entry := &core.MigrationLog{
		ID:           uuid.NewString(),
		FromProvider: core.ProviderMemory,
		ToProvider:   core.ProviderSQLite,
		Status:       core.MigrationPending,
		StartedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Create(entry))

	done := time.Now().UTC().Truncate(time.Second)
	entry.Status = core.MigrationCompleted
	entry.CompletedAt = &done
	entry.RecordsMigrated = 42
	require.NoError(t, repo.Update(entry))

	logs, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, core.MigrationCompleted, logs[0].Status)
	assert.Equal(t, 42, logs[0].RecordsMigrated)
	require.NotNil(t, logs[0].CompletedAt)
	assert.Equal(t, core.ProviderSQLite, logs[0].ToProvider)
}
