package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Execer is the subset of pgxpool.Pool used by the sink.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgSink struct {
	pool Execer
	log  zerolog.Logger
}

func NewPgSink(pool Execer, log zerolog.Logger) *PgSink {
	return &PgSink{pool: pool, log: log}
}

func (s *PgSink) Record(ctx context.Context, ev Event) {
	var payload []byte
	if ev.Metadata != nil {
		data, err := json.Marshal(ev.Metadata)
		if err != nil {
			s.log.Warn().Err(err).Str("action", ev.Action).Msg("marshal audit metadata")
		} else {
			payload = data
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, ev.ActorID, ev.Action, ev.EntityType, ev.EntityID, payload)
	if err != nil {
		s.log.Warn().Err(err).Str("action", ev.Action).Msg("insert audit log")
	}
}

// List returns recent audit rows, newest first.
func (s *PgSink) List(ctx context.Context, limit, offset int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, metadata, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.Action, &ev.EntityType, &ev.EntityID, &ev.Metadata, &ev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}

	return result, rows.Err()
}
