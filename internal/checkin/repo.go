package checkin

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepository persists attendance records in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the record for a pair, nil when absent.
func (r *PostgresRepository) Get(ctx context.Context, eventID, registrantKey string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT registrant_key, display_name, primary_id, first_checked_in_at, last_checked_in_at, recorded_by, method
		FROM attendance_records
		WHERE event_id = $1 AND registrant_key = $2
	`, eventID, registrantKey)
	var rec Record
	if err := row.Scan(&rec.RegistrantKey, &rec.DisplayName, &rec.PrimaryID, &rec.FirstCheckedInAt, &rec.LastCheckedInAt, &rec.RecordedBy, &rec.Method); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Put upserts the record for a pair. The conflict clause deliberately
// leaves first_checked_in_at out of the update set, so a concurrent
// first check-in for the same pair cannot lose its arrival time even
// when two writers race.
func (r *PostgresRepository) Put(ctx context.Context, eventID string, rec Record) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records
			(event_id, registrant_key, display_name, primary_id, first_checked_in_at, last_checked_in_at, recorded_by, method)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (event_id, registrant_key) DO UPDATE SET
			display_name       = EXCLUDED.display_name,
			primary_id         = EXCLUDED.primary_id,
			last_checked_in_at = EXCLUDED.last_checked_in_at,
			recorded_by        = EXCLUDED.recorded_by,
			method             = EXCLUDED.method
		RETURNING first_checked_in_at, last_checked_in_at
	`, eventID, rec.RegistrantKey, rec.DisplayName, rec.PrimaryID, rec.FirstCheckedInAt, rec.LastCheckedInAt, rec.RecordedBy, rec.Method)
	if err := row.Scan(&rec.FirstCheckedInAt, &rec.LastCheckedInAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns all records for an event in arrival order.
func (r *PostgresRepository) List(ctx context.Context, eventID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT registrant_key, display_name, primary_id, first_checked_in_at, last_checked_in_at, recorded_by, method
		FROM attendance_records
		WHERE event_id = $1
		ORDER BY first_checked_in_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RegistrantKey, &rec.DisplayName, &rec.PrimaryID, &rec.FirstCheckedInAt, &rec.LastCheckedInAt, &rec.RecordedBy, &rec.Method); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
