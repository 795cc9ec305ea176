package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/audit"
)

const cacheKey = "clinic:policy:default"

// Store serves the clinic policy with a Redis read-through cache in front
// of Postgres. Current always yields a usable policy: a missing row, a
// cache miss, or a failing dependency all degrade to defaults rather than
// an error.
type Store struct {
	repo     Repository
	rdb      *redis.Client
	cacheTTL time.Duration
	sink     audit.Sink
	log      zerolog.Logger
}

func NewStore(repo Repository, rdb *redis.Client, cacheTTL time.Duration, sink audit.Sink, log zerolog.Logger) *Store {
	return &Store{repo: repo, rdb: rdb, cacheTTL: cacheTTL, sink: sink, log: log}
}

func (s *Store) Current(ctx context.Context) ClinicPolicy {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var p ClinicPolicy
			if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
				return p
			}
			s.log.Warn().Msg("corrupt cached clinic policy, reloading")
		}
	}

	p, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrPolicyNotFound) {
			s.log.Warn().Err(err).Msg("load clinic policy, using defaults")
		}
		return Default()
	}

	s.cache(ctx, *p)
	return *p
}

// Update writes the policy and drops the cached copy. Admin-only; the
// role check happens at the API layer.
func (s *Store) Update(ctx context.Context, actorID uuid.UUID, in ClinicPolicy) (*ClinicPolicy, error) {
	if in.CancellationCutoffHours < 0 || in.RescheduleCutoffHours < 0 {
		return nil, fmt.Errorf("cutoff hours must be non-negative")
	}
	if _, err := time.Parse("15:04", in.OfficeHoursStart); err != nil {
		return nil, fmt.Errorf("bad office_hours_start %q", in.OfficeHoursStart)
	}
	if _, err := time.Parse("15:04", in.OfficeHoursEnd); err != nil {
		return nil, fmt.Errorf("bad office_hours_end %q", in.OfficeHoursEnd)
	}

	p, err := s.repo.Upsert(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("upsert clinic policy: %w", err)
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
			s.log.Warn().Err(err).Msg("invalidate clinic policy cache")
		}
	}

	s.sink.Record(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionClinicPolicyUpdated,
		EntityType: "ClinicPolicy",
		Metadata: map[string]any{
			"cancellation_cutoff_hours": p.CancellationCutoffHours,
			"reschedule_cutoff_hours":   p.RescheduleCutoffHours,
		},
	})

	return p, nil
}

func (s *Store) cache(ctx context.Context, p ClinicPolicy) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Msg("cache clinic policy")
	}
}
