package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/logger"
	"fintrack/internal/provider"
	"fintrack/internal/storage"
)

// Registry owns the active storage adapter and the lifecycle of saved
// database configs. Reads take a cheap snapshot of the current adapter;
// activation swaps the reference under a write lock so requests never see a
// half-switched state. Until a config is activated the registry serves an
// in-memory store.
type Registry struct {
	mu    sync.RWMutex
	store core.Store

	configs    core.ConfigRepository
	migrations core.MigrationRepository
	migrator   *Migrator
}

func NewRegistry(configs core.ConfigRepository, migrations core.MigrationRepository) *Registry {
	return &Registry{
		store:      storage.NewMemoryStore(),
		configs:    configs,
		migrations: migrations,
		migrator:   NewMigrator(migrations),
	}
}

// Current returns the adapter serving domain data right now. Callers hold the
// returned store for the duration of one request, not longer.
func (r *Registry) Current() core.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store
}

// adapterLinger is how long a replaced adapter stays open after a swap.
// Requests snapshot the adapter via Current for at most one request's
// lifetime, so anything in flight at swap time finishes against the old
// adapter before it closes.
const adapterLinger = 30 * time.Second

func (r *Registry) swap(next core.Store) {
	r.mu.Lock()
	prev := r.store
	r.store = next
	r.mu.Unlock()

	if prev == nil || prev == next {
		return
	}
	time.AfterFunc(adapterLinger, func() {
		if err := prev.Close(); err != nil {
			logger.Error.Printf("closing previous storage adapter: %v", err)
		}
	})
}

// Restore reconnects the active config after a restart. A failure leaves the
// memory store in place and is reported, not fatal: the admin can re-activate
// from the UI.
func (r *Registry) Restore(ctx context.Context) error {
	cfg, err := r.configs.GetActive()
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return err
	}

	strategy, err := provider.For(cfg.Provider)
	if err != nil {
		return err
	}
	store, err := strategy.Open(ctx, cfg.Credentials)
	if err != nil {
		return fmt.Errorf("reconnect %s (%s): %w", cfg.Name, cfg.Provider, err)
	}
	r.swap(store)
	logger.Info.Printf("restored active database %q (%s)", cfg.Name, cfg.Provider)
	return nil
}

// SaveConfig validates and persists a new candidate config. It does not touch
// the active adapter.
func (r *Registry) SaveConfig(name string, p core.Provider, creds core.Credentials) (*core.DatabaseConfig, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name is required")
	}
	cfg := &core.DatabaseConfig{
		ID:          uuid.NewString(),
		Name:        name,
		Provider:    p,
		Credentials: creds,
		CreatedAt:   time.Now().UTC(),
	}
	if result := provider.Validate(*cfg); !result.IsValid {
		return nil, fmt.Errorf("invalid configuration: %v", result.Errors)
	}
	if err := r.configs.Create(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Configs lists every saved config.
func (r *Registry) Configs() ([]core.DatabaseConfig, error) {
	return r.configs.GetAll()
}

// MigrationLogs lists the migration history, newest first.
func (r *Registry) MigrationLogs() ([]core.MigrationLog, error) {
	return r.migrations.GetAll()
}

// Test probes a saved config and records the outcome on it. The probe result
// itself is transient.
func (r *Registry) Test(ctx context.Context, id string) (core.ConnectionTestResult, error) {
	cfg, err := r.configs.GetByID(id)
	if err != nil {
		return core.ConnectionTestResult{}, err
	}
	strategy, err := provider.For(cfg.Provider)
	if err != nil {
		return core.ConnectionTestResult{}, err
	}

	result := strategy.Probe(ctx, cfg.Credentials)
	if err := r.configs.RecordTest(id, time.Now().UTC(), result.Success); err != nil {
		logger.Error.Printf("recording test outcome for %s: %v", id, err)
	}
	return result, nil
}

// Activate opens the config's adapter, optionally migrates data from the
// current one, marks the config active, and swaps the serving reference. Any
// failure before the swap leaves the previous adapter untouched.
//
// SQLite is trusted without a prior test because opening it is creating it;
// every remote provider must have a recorded successful test first.
func (r *Registry) Activate(ctx context.Context, id string, migrateData bool) (*core.DatabaseConfig, error) {
	cfg, err := r.configs.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cfg.Provider != core.ProviderSQLite && !cfg.Tested() {
		return nil, core.ErrTestRequired
	}

	strategy, err := provider.For(cfg.Provider)
	if err != nil {
		return nil, err
	}
	next, err := strategy.Open(ctx, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %q: %w", cfg.Name, err)
	}

	if migrateData {
		prev := r.Current()
		if err := r.migrator.Run(ctx, prev, next); err != nil {
			next.Close()
			return nil, fmt.Errorf("data migration failed, previous database still active: %w", err)
		}
	}

	if err := r.configs.SetActive(id); err != nil {
		next.Close()
		return nil, err
	}
	r.swap(next)
	logger.Info.Printf("activated database %q (%s)", cfg.Name, cfg.Provider)

	return r.configs.GetByID(id)
}

// DeleteConfig removes a saved config. The active config cannot be deleted;
// activate another one first.
func (r *Registry) DeleteConfig(id string) error {
	cfg, err := r.configs.GetByID(id)
	if err != nil {
		return err
	}
	if cfg.IsActive {
		return core.ErrActiveConfig
	}
	return r.configs.Delete(id)
}

// Close releases the current adapter. Called on shutdown.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}
