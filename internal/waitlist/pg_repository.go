package waitlist

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgRepository struct {
	pool Querier
}

func NewPgRepository(pool Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry

	err := row.Scan(
		&e.ID,
		&e.PatientID,
		&e.AppointmentTypeID,
		&e.ProviderID,
		&e.PreferredDays,
		&e.Status,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *PgRepository) Create(ctx context.Context, e Entry) (*Entry, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO waitlist_entries (id, patient_id, appointment_type_id, provider_id, preferred_days, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, patient_id, appointment_type_id, provider_id, preferred_days, status, created_at
	`, id, e.PatientID, e.AppointmentTypeID, e.ProviderID, e.PreferredDays, e.Status)

	return scanEntry(row)
}

func (r *PgRepository) List(ctx context.Context, patientID uuid.UUID, status EntryStatus) ([]Entry, error) {
	sql := `
		SELECT id, patient_id, appointment_type_id, provider_id, preferred_days, status, created_at
		FROM waitlist_entries
		WHERE 1=1`
	var args []any

	if patientID != uuid.Nil {
		args = append(args, patientID)
		sql += ` AND patient_id = $1`
	}
	if status != "" {
		args = append(args, status)
		if len(args) == 1 {
			sql += ` AND status = $1`
		} else {
			sql += ` AND status = $2`
		}
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	return result, rows.Err()
}
