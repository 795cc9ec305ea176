package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/db"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	email text UNIQUE,
	role text NOT NULL CHECK (role IN ('PATIENT', 'PROVIDER', 'ADMIN')),
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS availability_rules (
	id uuid PRIMARY KEY,
	provider_id uuid NOT NULL REFERENCES users(id),
	day_of_week int NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
	start_time text NOT NULL,
	end_time text NOT NULL,
	is_available boolean NOT NULL DEFAULT true,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	UNIQUE (provider_id, day_of_week)
);

CREATE TABLE IF NOT EXISTS availability_exceptions (
	id uuid PRIMARY KEY,
	provider_id uuid NOT NULL REFERENCES users(id),
	date date NOT NULL,
	start_time text,
	end_time text,
	reason text,
	is_blocked boolean NOT NULL DEFAULT true,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id uuid PRIMARY KEY,
	patient_id uuid NOT NULL REFERENCES users(id),
	provider_id uuid NOT NULL REFERENCES users(id),
	appointment_type_id uuid,
	title text NOT NULL,
	description text,
	start_time timestamptz NOT NULL,
	end_time timestamptz NOT NULL,
	status text NOT NULL DEFAULT 'SCHEDULED'
		CHECK (status IN ('SCHEDULED', 'COMPLETED', 'CANCELLED', 'NO_SHOW')),
	clinical_notes text,
	notes text,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_appointments_provider_time
	ON appointments (provider_id, start_time)
	WHERE status <> 'CANCELLED';

CREATE TABLE IF NOT EXISTS clinic_policies (
	id text PRIMARY KEY,
	cancellation_cutoff_hours int NOT NULL,
	reschedule_cutoff_hours int NOT NULL,
	office_hours_start text NOT NULL,
	office_hours_end text NOT NULL
);

CREATE TABLE IF NOT EXISTS waitlist_entries (
	id uuid PRIMARY KEY,
	patient_id uuid NOT NULL REFERENCES users(id),
	appointment_type_id uuid NOT NULL,
	provider_id uuid REFERENCES users(id),
	preferred_days int[],
	status text NOT NULL DEFAULT 'active'
		CHECK (status IN ('active', 'notified', 'booked')),
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id bigserial PRIMARY KEY,
	actor_id uuid NOT NULL,
	action text NOT NULL,
	entity_type text NOT NULL,
	entity_id uuid,
	metadata jsonb,
	created_at timestamptz NOT NULL DEFAULT now()
);
`

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if _, err := pool.Exec(context.Background(), schema); err != nil {
		logger.Fatal().Err(err).Msg("apply schema")
	}
	logger.Info().Msg("schema applied")

	gofakeit.Seed(time.Now().UnixNano())

	providers, err := seedUsers(context.Background(), pool, "PROVIDER", 20)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed providers")
	}
	if _, err := seedUsers(context.Background(), pool, "PATIENT", 500); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if _, err := seedUsers(context.Background(), pool, "ADMIN", 2); err != nil {
		logger.Fatal().Err(err).Msg("seed admins")
	}

	if err := seedWeeklyRules(context.Background(), pool, providers); err != nil {
		logger.Fatal().Err(err).Msg("seed availability rules")
	}

	if err := seedPolicy(context.Background(), pool); err != nil {
		logger.Fatal().Err(err).Msg("seed clinic policy")
	}

	logger.Info().Msg("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, role string, count int) ([]uuid.UUID, error) {
	logger.Info().Str("role", role).Int("count", count).Msg("seeding users")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, gofakeit.Name(), gofakeit.Email(), role)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return ids, nil
}

// seedWeeklyRules opens Monday through Friday 09:00-17:00 for every
// provider, the canonical clinic week.
func seedWeeklyRules(ctx context.Context, pool *pgxpool.Pool, providers []uuid.UUID) error {
	logger.Info().Int("providers", len(providers)).Msg("seeding weekly availability")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, providerID := range providers {
		for day := 1; day <= 5; day++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO availability_rules (id, provider_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
				VALUES ($1, $2, $3, '09:00', '17:00', true, now(), now())
				ON CONFLICT (provider_id, day_of_week) DO NOTHING
			`, uuid.New(), providerID, day)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func seedPolicy(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO clinic_policies (id, cancellation_cutoff_hours, reschedule_cutoff_hours, office_hours_start, office_hours_end)
		VALUES ('default', 24, 12, '09:00', '17:00')
		ON CONFLICT (id) DO NOTHING
	`)
	return err
}
