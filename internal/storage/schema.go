package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// Family is the SQL dialect group a provider belongs to. Neon speaks the
// postgres wire protocol, PlanetScale the mysql one, so six providers fold
// into three dialects.
type Family string

const (
	FamilyPostgres Family = "postgres"
	FamilyMySQL    Family = "mysql"
	FamilySQLite   Family = "sqlite"
)

// FamilyOf maps a provider to its SQL dialect family. Supabase is handled by
// the REST adapter and has no family here.
func FamilyOf(p core.Provider) (Family, bool) {
	switch p {
	case core.ProviderPostgres, core.ProviderNeon:
		return FamilyPostgres, true
	case core.ProviderMySQL, core.ProviderPlanetScale:
		return FamilyMySQL, true
	case core.ProviderSQLite:
		return FamilySQLite, true
	}
	return "", false
}

// column type names per dialect
func (f Family) idType() string {
	if f == FamilyMySQL {
		return "VARCHAR(36)"
	}
	return "TEXT"
}

func (f Family) textType() string {
	if f == FamilyMySQL {
		return "VARCHAR(255)"
	}
	return "TEXT"
}

func (f Family) moneyType() string {
	switch f {
	case FamilyPostgres:
		return "NUMERIC"
	case FamilyMySQL:
		return "DECIMAL(20,8)"
	default:
		// SQLite TEXT keeps decimal strings exact.
		return "TEXT"
	}
}

func (f Family) timeType() string {
	switch f {
	case FamilyPostgres:
		return "TIMESTAMPTZ"
	case FamilyMySQL:
		return "DATETIME"
	default:
		return "DATETIME"
	}
}

func (f Family) boolType() string {
	switch f {
	case FamilyPostgres:
		return "BOOLEAN"
	case FamilyMySQL:
		return "TINYINT(1)"
	default:
		return "INTEGER"
	}
}

// SchemaStatements returns the CREATE TABLE IF NOT EXISTS statements for the
// domain tables in the given dialect.
func SchemaStatements(f Family) []string {
	id, txt, money, ts, boolean := f.idType(), f.textType(), f.moneyType(), f.timeType(), f.boolType()

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s PRIMARY KEY,
			username %s NOT NULL UNIQUE,
			email %s NOT NULL,
			password_hash %s NOT NULL,
			first_name %s NOT NULL,
			last_name %s NOT NULL,
			created_at %s NOT NULL
		)`, id, txt, txt, txt, txt, txt, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS accounts (
			id %s PRIMARY KEY,
			user_id %s NOT NULL,
			name %s NOT NULL,
			type %s NOT NULL,
			balance %s NOT NULL,
			currency %s NOT NULL,
			created_at %s NOT NULL
		)`, id, id, txt, txt, money, txt, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS categories (
			id %s PRIMARY KEY,
			user_id %s NOT NULL,
			name %s NOT NULL,
			type %s NOT NULL,
			color %s NOT NULL,
			icon %s NOT NULL
		)`, id, id, txt, txt, txt, txt),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
			id %s PRIMARY KEY,
			user_id %s NOT NULL,
			account_id %s NOT NULL,
			category_id %s,
			amount %s NOT NULL,
			type %s NOT NULL,
			description %s NOT NULL,
			txn_date %s NOT NULL,
			created_at %s NOT NULL
		)`, id, id, id, id, money, txt, txt, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS budgets (
			id %s PRIMARY KEY,
			user_id %s NOT NULL,
			category_id %s NOT NULL,
			amount %s NOT NULL,
			period %s NOT NULL,
			start_date %s NOT NULL
		)`, id, id, id, money, txt, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS goals (
			id %s PRIMARY KEY,
			user_id %s NOT NULL,
			name %s NOT NULL,
			target_amount %s NOT NULL,
			current_amount %s NOT NULL,
			target_date %s,
			created_at %s NOT NULL
		)`, id, id, txt, money, money, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS bills (
			id %s PRIMARY KEY,
			user_id %s NOT NULL,
			name %s NOT NULL,
			amount %s NOT NULL,
			due_day INTEGER NOT NULL,
			frequency %s NOT NULL,
			auto_pay %s NOT NULL,
			last_paid %s
		)`, id, id, txt, money, txt, boolean, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
			id %s PRIMARY KEY,
			user_id %s NOT NULL,
			name %s NOT NULL,
			barcode %s NOT NULL,
			price %s NOT NULL,
			store %s NOT NULL,
			last_purchased %s
		)`, id, id, txt, txt, money, txt, ts),
	}
}

// EnsureSchema creates any missing domain tables.
func EnsureSchema(ctx context.Context, db *sql.DB, f Family) error {
	for _, stmt := range SchemaStatements(f) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema provisioning failed: %w", err)
		}
	}
	return nil
}

// MissingTables reports which required tables are absent. Used by the
// connection probe; never creates anything.
func MissingTables(ctx context.Context, db *sql.DB, f Family) ([]string, error) {
	existing := make(map[string]bool)

	var query string
	switch f {
	case FamilyPostgres:
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`
	case FamilyMySQL:
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()`
	default:
		query = `SELECT name FROM sqlite_master WHERE type = 'table'`
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		existing[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	missing := []string{}
	for _, t := range core.RequiredTables {
		if !existing[t] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}
