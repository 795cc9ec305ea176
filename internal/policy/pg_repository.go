package policy

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool Querier
}

func NewPgRepository(pool Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPolicy(row pgx.Row) (*ClinicPolicy, error) {
	var p ClinicPolicy

	err := row.Scan(
		&p.ID,
		&p.CancellationCutoffHours,
		&p.RescheduleCutoffHours,
		&p.OfficeHoursStart,
		&p.OfficeHoursEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) Get(ctx context.Context) (*ClinicPolicy, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, cancellation_cutoff_hours, reschedule_cutoff_hours, office_hours_start, office_hours_end
		FROM clinic_policies
		WHERE id = $1
	`, DefaultID)
	return scanPolicy(row)
}

func (r *PgRepository) Upsert(ctx context.Context, p ClinicPolicy) (*ClinicPolicy, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clinic_policies (id, cancellation_cutoff_hours, reschedule_cutoff_hours, office_hours_start, office_hours_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET cancellation_cutoff_hours = EXCLUDED.cancellation_cutoff_hours,
		    reschedule_cutoff_hours = EXCLUDED.reschedule_cutoff_hours,
		    office_hours_start = EXCLUDED.office_hours_start,
		    office_hours_end = EXCLUDED.office_hours_end
		RETURNING id, cancellation_cutoff_hours, reschedule_cutoff_hours, office_hours_start, office_hours_end
	`, DefaultID, p.CancellationCutoffHours, p.RescheduleCutoffHours, p.OfficeHoursStart, p.OfficeHoursEnd)

	return scanPolicy(row)
}
