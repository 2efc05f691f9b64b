package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/logger"
	"fintrack/internal/provider"
)

// Initializer drives the first-run setup wizard: test a candidate database,
// then create the admin account and activate the database in one step.
type Initializer struct {
	registry *Registry
	configs  core.ConfigRepository
}

func NewInitializer(registry *Registry, configs core.ConfigRepository) *Initializer {
	return &Initializer{registry: registry, configs: configs}
}

// AdminSetup is the admin account half of the setup request.
type AdminSetup struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

// DatabaseSetup is the database half of the setup request.
type DatabaseSetup struct {
	Name        string           `json:"name" validate:"required"`
	Provider    core.Provider    `json:"provider" validate:"required"`
	Credentials core.Credentials `json:"credentials"`
}

// InitStatus tells the frontend whether to show the wizard or the login page.
type InitStatus struct {
	Initialized bool            `json:"initialized"`
	Providers   []core.Provider `json:"providers"`
}

// DeploymentContext describes the runtime environment so the wizard can
// suggest sensible defaults.
type DeploymentContext struct {
	IsDocker        bool            `json:"isDocker"`
	HasEnvFile      bool            `json:"hasEnvFile"`
	Recommendations Recommendations `json:"recommendations"`
}

// Recommendations carries the wizard's pre-filled defaults.
type Recommendations struct {
	DatabaseURL       bool   `json:"databaseUrl"`
	SuggestedProvider string `json:"suggestedProvider"`
}

// Status reports whether setup has completed. Setup is complete once a config
// has been activated; the admin account is created in the same step.
func (i *Initializer) Status() (InitStatus, error) {
	status := InitStatus{Providers: core.Providers()}
	_, err := i.configs.GetActive()
	switch {
	case err == nil:
		status.Initialized = true
	case errors.Is(err, core.ErrNotFound):
		status.Initialized = false
	default:
		return status, err
	}
	return status, nil
}

// TestDatabase validates and probes a candidate config without saving it.
func (i *Initializer) TestDatabase(ctx context.Context, db DatabaseSetup) (core.ValidationResult, core.ConnectionTestResult) {
	validation := provider.Validate(core.DatabaseConfig{Name: db.Name, Provider: db.Provider, Credentials: db.Credentials})
	if !validation.IsValid {
		return validation, core.ConnectionTestResult{Success: false, Error: "configuration is invalid"}
	}
	strategy, err := provider.For(db.Provider)
	if err != nil {
		return validation, core.ConnectionTestResult{Success: false, Error: err.Error()}
	}
	return validation, strategy.Probe(ctx, db.Credentials)
}

// Initialize performs first-run setup. Order matters: the database must be
// reachable and provisioned, and the admin account written into it, before
// the config is persisted and activated. A failure partway leaves the system
// uninitialized so the wizard can be retried.
func (i *Initializer) Initialize(ctx context.Context, admin AdminSetup, db DatabaseSetup) (*core.User, error) {
	if status, err := i.Status(); err != nil {
		return nil, err
	} else if status.Initialized {
		return nil, core.ErrSetupComplete
	}
	if admin.Password != admin.ConfirmPassword {
		return nil, errors.New("passwords do not match")
	}
	if strings.TrimSpace(db.Name) == "" {
		return nil, errors.New("database name is required")
	}

	validation := provider.Validate(core.DatabaseConfig{Name: db.Name, Provider: db.Provider, Credentials: db.Credentials})
	if !validation.IsValid {
		return nil, fmt.Errorf("invalid database configuration: %v", validation.Errors)
	}

	strategy, err := provider.For(db.Provider)
	if err != nil {
		return nil, err
	}
	store, err := strategy.Open(ctx, db.Credentials)
	if err != nil {
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	user, err := NewUser(admin.Username, admin.Email, admin.Password, admin.FirstName, admin.LastName)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := store.CreateUser(ctx, user); err != nil {
		store.Close()
		return nil, fmt.Errorf("could not create the admin account: %w", err)
	}

	cfg, err := i.registry.SaveConfig(db.Name, db.Provider, db.Credentials)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("admin account was created but saving the configuration failed: %w", err)
	}
	if err := i.configs.SetActive(cfg.ID); err != nil {
		store.Close()
		return nil, fmt.Errorf("admin account was created but activating the configuration failed: %w", err)
	}
	i.registry.swap(store)

	logger.Info.Printf("setup complete: admin %q, database %q (%s)", user.Username, cfg.Name, cfg.Provider)
	return user, nil
}

// Context inspects the environment the server runs in. Pure detection; it
// never changes behavior on its own.
func (i *Initializer) Context() DeploymentContext {
	var dc DeploymentContext
	if _, err := os.Stat("/.dockerenv"); err == nil {
		dc.IsDocker = true
	}
	if _, err := os.Stat(".env"); err == nil {
		dc.HasEnvFile = true
	}
	if os.Getenv("DATABASE_URL") != "" {
		dc.Recommendations.DatabaseURL = true
	}
	switch {
	case dc.Recommendations.DatabaseURL:
		dc.Recommendations.SuggestedProvider = string(core.ProviderPostgres)
	default:
		dc.Recommendations.SuggestedProvider = string(core.ProviderSQLite)
	}
	return dc
}
