package core

import "errors"

var (
	// ErrNotFound is returned by stores when a row does not exist or belongs
	// to a different user. Cross-user access is indistinguishable from absence.
	ErrNotFound = errors.New("record not found")

	// ErrSetupComplete guards re-running the initialization wizard.
	ErrSetupComplete = errors.New("setup already completed")

	// ErrActiveConfig rejects deleting the currently active database config.
	ErrActiveConfig = errors.New("cannot delete active database")

	// ErrTestRequired rejects activating a non-SQLite config whose most recent
	// connection test is missing or failed.
	ErrTestRequired = errors.New("Connection Test Required: run a successful connection test before activating this database")

	// ErrSetupRequired is returned verbatim by the Supabase adapter when the
	// schema is missing and no service key was supplied to create it.
	ErrSetupRequired = errors.New("SETUP REQUIRED")
)
