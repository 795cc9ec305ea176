package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const apptColumns = `id, patient_id, provider_id, appointment_type_id, title, description,
	start_time, end_time, status, clinical_notes, notes, created_at, updated_at`

const conflictExistsSQL = `
	SELECT EXISTS (
		SELECT 1 FROM appointments
		WHERE provider_id = $1
		  AND status <> 'CANCELLED'
		  AND start_time < $3
		  AND end_time > $2
		  AND ($4::uuid IS NULL OR id <> $4)
	)`

// DB is the subset of pgxpool.Pool used by the repository. Tests
// substitute a pgxmock pool.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type PgRepository struct {
	pool DB
}

func NewPgRepository(pool DB) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ProviderID,
		&a.AppointmentTypeID,
		&a.Title,
		&a.Description,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.ClinicalNotes,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	sql := `SELECT ` + apptColumns + ` FROM appointments WHERE 1=1`
	var args []any

	add := func(clause string, v any) {
		args = append(args, v)
		sql += fmt.Sprintf(clause, len(args))
	}

	if f.PatientID != uuid.Nil {
		add(" AND patient_id = $%d", f.PatientID)
	}
	if f.ProviderID != uuid.Nil {
		add(" AND provider_id = $%d", f.ProviderID)
	}
	if f.Status != "" {
		add(" AND status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		add(" AND start_time >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add(" AND start_time <= $%d", f.To)
	}

	sql += " ORDER BY start_time"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	add(" LIMIT $%d", limit)
	if f.Offset > 0 {
		add(" OFFSET $%d", f.Offset)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListActiveForProviderBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE provider_id = $1
		  AND status <> 'CANCELLED'
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) HasConflict(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, conflictExistsSQL, providerID, start, end, excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) CreateScheduled(ctx context.Context, a Appointment) (*Appointment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, conflictExistsSQL, a.ProviderID, a.StartTime, a.EndTime, nil).Scan(&exists); err != nil {
		return nil, fmt.Errorf("conflict re-check: %w", err)
	}
	if exists {
		return nil, ErrSlotUnavailable
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, provider_id, appointment_type_id, title, description,
			start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'SCHEDULED', now(), now())
		RETURNING `+apptColumns+`
	`, id, a.PatientID, a.ProviderID, a.AppointmentTypeID, a.Title, a.Description, a.StartTime, a.EndTime)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapSerializationFailure(err)
	}

	return created, nil
}

func (r *PgRepository) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("begin reschedule tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var providerID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT provider_id FROM appointments WHERE id = $1`, id).Scan(&providerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, conflictExistsSQL, providerID, start, end, &id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("conflict re-check: %w", err)
	}
	if exists {
		return nil, ErrSlotUnavailable
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    end_time = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+apptColumns+`
	`, id, start, end)

	updated, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapSerializationFailure(err)
	}

	return updated, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+apptColumns+`
	`, id, to, from)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Row exists in another status, or not at all; disambiguate.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *PgRepository) UpdateNotes(ctx context.Context, id uuid.UUID, clinicalNotes, notes *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET clinical_notes = COALESCE($2, clinical_notes),
		    notes = COALESCE($3, notes),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+apptColumns+`
	`, id, clinicalNotes, notes)
	return scanAppointment(row)
}

func (r *PgRepository) ProviderExists(ctx context.Context, providerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = 'PROVIDER')
	`, providerID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var st Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}

	return counts, rows.Err()
}

// mapSerializationFailure turns a serializable-isolation abort into the
// SlotUnavailable the caller expects from a lost booking race.
func mapSerializationFailure(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return ErrSlotUnavailable
	}
	return err
}
