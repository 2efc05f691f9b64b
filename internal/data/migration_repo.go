package data

import (
	"database/sql"

	"fintrack/internal/core"
)

type MigrationRepo struct {
	db *sql.DB
}

func NewMigrationRepo(db *sql.DB) *MigrationRepo {
	return &MigrationRepo{db: db}
}

func (r *MigrationRepo) Create(log *core.MigrationLog) error {
	query := `INSERT INTO migration_logs
		(id, from_provider, to_provider, status, started_at, completed_at, records_migrated, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, log.ID, string(log.FromProvider), string(log.ToProvider),
		log.Status, log.StartedAt, nullTime(log.CompletedAt), log.RecordsMigrated, log.ErrorMessage)
	return err
}

func (r *MigrationRepo) Update(log *core.MigrationLog) error {
	_, err := r.db.Exec(`UPDATE migration_logs
		SET status=?, completed_at=?, records_migrated=?, error_message=? WHERE id=?`,
		log.Status, nullTime(log.CompletedAt), log.RecordsMigrated, log.ErrorMessage, log.ID)
	return err
}

func (r *MigrationRepo) GetAll() ([]core.MigrationLog, error) {
	rows, err := r.db.Query(`SELECT id, from_provider, to_provider, status, started_at,
		completed_at, records_migrated, error_message FROM migration_logs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []core.MigrationLog
	for rows.Next() {
		var (
			l         core.MigrationLog
			from, to  string
			completed sql.NullTime
		)
		if err := rows.Scan(&l.ID, &from, &to, &l.Status, &l.StartedAt,
			&completed, &l.RecordsMigrated, &l.ErrorMessage); err != nil {
			return nil, err
		}
		l.FromProvider = core.Provider(from)
		l.ToProvider = core.Provider(to)
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
