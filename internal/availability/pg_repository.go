package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the repository. Tests
// substitute a pgxmock pool.
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

func scanRule(row pgx.Row) (*Rule, error) {
	var r Rule

	err := row.Scan(
		&r.ID,
		&r.ProviderID,
		&r.DayOfWeek,
		&r.StartTime,
		&r.EndTime,
		&r.IsAvailable,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	return &r, nil
}

func scanException(row pgx.Row) (*Exception, error) {
	var ex Exception

	err := row.Scan(
		&ex.ID,
		&ex.ProviderID,
		&ex.Date,
		&ex.StartTime,
		&ex.EndTime,
		&ex.Reason,
		&ex.IsBlocked,
		&ex.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &ex, nil
}

func (r *PgRepository) GetRule(ctx context.Context, providerID uuid.UUID, dayOfWeek int) (*Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, provider_id, day_of_week, start_time, end_time, is_available, created_at, updated_at
		FROM availability_rules
		WHERE provider_id = $1 AND day_of_week = $2
	`, providerID, dayOfWeek)
	return scanRule(row)
}

func (r *PgRepository) ListRules(ctx context.Context, providerID uuid.UUID) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, day_of_week, start_time, end_time, is_available, created_at, updated_at
		FROM availability_rules
		WHERE provider_id = $1
		ORDER BY day_of_week
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpsertRule(ctx context.Context, in Rule) (*Rule, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_rules (id, provider_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (provider_id, day_of_week) DO UPDATE
		SET start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    is_available = EXCLUDED.is_available,
		    updated_at = now()
		RETURNING id, provider_id, day_of_week, start_time, end_time, is_available, created_at, updated_at
	`, id, in.ProviderID, in.DayOfWeek, in.StartTime, in.EndTime, in.IsAvailable)

	return scanRule(row)
}

func (r *PgRepository) ListExceptions(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Exception, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, date, start_time, end_time, reason, is_blocked, created_at
		FROM availability_exceptions
		WHERE provider_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Exception
	for rows.Next() {
		ex, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ex)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateException(ctx context.Context, in Exception) (*Exception, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_exceptions (id, provider_id, date, start_time, end_time, reason, is_blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, provider_id, date, start_time, end_time, reason, is_blocked, created_at
	`, id, in.ProviderID, in.Date, in.StartTime, in.EndTime, in.Reason, in.IsBlocked)

	return scanException(row)
}
