package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Encryptor protects credentials at rest. Satisfied by service.EncryptionService.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type ConfigRepo struct {
	db     *sql.DB
	crypto Encryptor
}

func NewConfigRepo(db *sql.DB, crypto Encryptor) *ConfigRepo {
	return &ConfigRepo{db: db, crypto: crypto}
}

func (r *ConfigRepo) encryptCreds(creds core.Credentials) (string, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}
	return r.crypto.Encrypt(string(raw))
}

func (r *ConfigRepo) decryptCreds(enc string) (core.Credentials, error) {
	var creds core.Credentials
	raw, err := r.crypto.Decrypt(enc)
	if err != nil {
		return creds, err
	}
	err = json.Unmarshal([]byte(raw), &creds)
	return creds, err
}

func (r *ConfigRepo) Create(cfg *core.DatabaseConfig) error {
	enc, err := r.encryptCreds(cfg.Credentials)
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}
	query := `INSERT INTO database_configs
		(id, name, provider, credentials_enc, is_active, is_connected, last_connection_test, last_test_succeeded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query, cfg.ID, cfg.Name, string(cfg.Provider), enc,
		boolInt(cfg.IsActive), boolInt(cfg.IsConnected),
		nullTime(cfg.LastConnectionTest), nullBool(cfg.LastTestSucceeded), cfg.CreatedAt)
	return err
}

const configCols = `id, name, provider, credentials_enc, is_active, is_connected,
	last_connection_test, last_test_succeeded, created_at`

func (r *ConfigRepo) scan(row interface{ Scan(...any) error }) (*core.DatabaseConfig, error) {
	var (
		cfg       core.DatabaseConfig
		provider  string
		enc       string
		active    int
		connected int
		lastTest  sql.NullTime
		succeeded sql.NullInt64
	)
	if err := row.Scan(&cfg.ID, &cfg.Name, &provider, &enc, &active, &connected,
		&lastTest, &succeeded, &cfg.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	cfg.Provider = core.Provider(provider)
	cfg.IsActive = active == 1
	cfg.IsConnected = connected == 1
	if lastTest.Valid {
		t := lastTest.Time
		cfg.LastConnectionTest = &t
	}
	if succeeded.Valid {
		ok := succeeded.Int64 == 1
		cfg.LastTestSucceeded = &ok
	}
	creds, err := r.decryptCreds(enc)
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials for config %s: %w", cfg.ID, err)
	}
	cfg.Credentials = creds
	return &cfg, nil
}

func (r *ConfigRepo) GetAll() ([]core.DatabaseConfig, error) {
	rows, err := r.db.Query(`SELECT ` + configCols + ` FROM database_configs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []core.DatabaseConfig
	for rows.Next() {
		cfg, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

func (r *ConfigRepo) GetByID(id string) (*core.DatabaseConfig, error) {
	return r.scan(r.db.QueryRow(`SELECT `+configCols+` FROM database_configs WHERE id = ?`, id))
}

func (r *ConfigRepo) GetActive() (*core.DatabaseConfig, error) {
	return r.scan(r.db.QueryRow(`SELECT ` + configCols + ` FROM database_configs WHERE is_active = 1`))
}

func (r *ConfigRepo) Update(cfg *core.DatabaseConfig) error {
	enc, err := r.encryptCreds(cfg.Credentials)
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}
	_, err = r.db.Exec(`UPDATE database_configs SET name=?, provider=?, credentials_enc=?,
		is_active=?, is_connected=?, last_connection_test=?, last_test_succeeded=? WHERE id=?`,
		cfg.Name, string(cfg.Provider), enc, boolInt(cfg.IsActive), boolInt(cfg.IsConnected),
		nullTime(cfg.LastConnectionTest), nullBool(cfg.LastTestSucceeded), cfg.ID)
	return err
}

// SetActive flips id to active and everything else to inactive atomically, so
// the single-active invariant holds even if the process dies mid-switch.
func (r *ConfigRepo) SetActive(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE database_configs SET is_active = 0 WHERE id != ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE database_configs SET is_active = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return tx.Commit()
}

func (r *ConfigRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM database_configs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *ConfigRepo) RecordTest(id string, at time.Time, ok bool) error {
	res, err := r.db.Exec(`UPDATE database_configs
		SET last_connection_test = ?, last_test_succeeded = ?, is_connected = ? WHERE id = ?`,
		at, boolInt(ok), boolInt(ok), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullBool(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(boolInt(*b)), Valid: true}
}
