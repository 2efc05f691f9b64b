package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// SQLStore implements core.Store on top of database/sql for the postgres,
// mysql, and sqlite dialect families. Queries are written with ? placeholders
// and rebound for postgres.
type SQLStore struct {
	db       *sql.DB
	provider core.Provider
	family   Family
}

// NewSQLStore wraps an open connection. The caller has already provisioned
// or checked the schema.
func NewSQLStore(db *sql.DB, provider core.Provider, family Family) *SQLStore {
	return &SQLStore{db: db, provider: provider, family: family}
}

func (s *SQLStore) Provider() core.Provider { return s.provider }

func (s *SQLStore) Close() error { return s.db.Close() }

// rebind converts ? placeholders to $1..$n for the postgres family.
func (s *SQLStore) rebind(query string) string {
	if s.family != FamilyPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func mapScanErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// money columns round-trip as strings so every dialect keeps exact values
func scanDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullTimeOf(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// --- Users ---

func (s *SQLStore) CreateUser(ctx context.Context, u *core.User) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, first_name, last_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userCols = `id, username, email, password_hash, first_name, last_name, created_at`

func (s *SQLStore) scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		return nil, mapScanErr(err)
	}
	return &u, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	return s.scanUser(s.queryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id))
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.scanUser(s.queryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = ?`, username))
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) UpdateUser(ctx context.Context, id string, p core.UserPatch) (*core.User, error) {
	sets := []string{}
	args := []any{}

	if p.Username != nil {
		sets, args = append(sets, "username = ?"), append(args, *p.Username)
	}
	if p.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, *p.Email)
	}
	// An absent or empty password leaves the stored hash alone.
	if p.Password != nil && *p.Password != "" {
		sets, args = append(sets, "password_hash = ?"), append(args, *p.Password)
	}
	if p.FirstName != nil {
		sets, args = append(sets, "first_name = ?"), append(args, *p.FirstName)
	}
	if p.LastName != nil {
		sets, args = append(sets, "last_name = ?"), append(args, *p.LastName)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, core.ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}
