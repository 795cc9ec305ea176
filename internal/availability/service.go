package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/audit"
)

type Service struct {
	repo Repository
	sink audit.Sink
	log  zerolog.Logger
}

func NewService(repo Repository, sink audit.Sink, log zerolog.Logger) *Service {
	return &Service{repo: repo, sink: sink, log: log}
}

func (s *Service) ListRules(ctx context.Context, providerID uuid.UUID) ([]Rule, error) {
	rules, err := s.repo.ListRules(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

// SetRule upserts the weekly rule for one weekday.
func (s *Service) SetRule(ctx context.Context, actorID uuid.UUID, in Rule) (*Rule, error) {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidRule, in.DayOfWeek)
	}

	startH, startM, err := ParseClock(in.StartTime)
	if err != nil {
		return nil, err
	}
	endH, endM, err := ParseClock(in.EndTime)
	if err != nil {
		return nil, err
	}
	if in.IsAvailable && (startH*60+startM) >= (endH*60+endM) {
		return nil, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidRule, in.StartTime, in.EndTime)
	}

	rule, err := s.repo.UpsertRule(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("upsert availability rule: %w", err)
	}

	s.sink.Record(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionAvailabilityUpdated,
		EntityType: "Availability",
		EntityID:   &rule.ID,
		Metadata: map[string]any{
			"day_of_week": rule.DayOfWeek,
			"start_time":  rule.StartTime,
			"end_time":    rule.EndTime,
			"available":   rule.IsAvailable,
		},
	})

	return rule, nil
}

func (s *Service) ListExceptions(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Exception, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalidRule)
	}
	exceptions, err := s.repo.ListExceptions(ctx, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability exceptions: %w", err)
	}
	return exceptions, nil
}

// AddException records a one-off override for a date. A time range must be
// complete when present: a lone start or end is rejected.
func (s *Service) AddException(ctx context.Context, actorID uuid.UUID, in Exception) (*Exception, error) {
	if (in.StartTime == nil) != (in.EndTime == nil) {
		return nil, fmt.Errorf("%w: partial time range on exception", ErrInvalidRule)
	}
	if in.StartTime != nil {
		if _, _, err := ParseClock(*in.StartTime); err != nil {
			return nil, err
		}
		if _, _, err := ParseClock(*in.EndTime); err != nil {
			return nil, err
		}
	}
	if !in.IsBlocked && in.StartTime == nil {
		return nil, fmt.Errorf("%w: open exception requires a time range", ErrInvalidRule)
	}

	ex, err := s.repo.CreateException(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create availability exception: %w", err)
	}

	meta := map[string]any{
		"date":    ex.Date.Format("2006-01-02"),
		"blocked": ex.IsBlocked,
	}
	if ex.Reason != nil {
		meta["reason"] = *ex.Reason
	}
	s.sink.Record(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionExceptionCreated,
		EntityType: "Availability",
		EntityID:   &ex.ID,
		Metadata:   meta,
	})

	return ex, nil
}

// DayWindow resolves the bookable window for a provider-date. Missing rule
// rows mean a closed day, not an error.
func (s *Service) DayWindow(ctx context.Context, providerID uuid.UUID, date time.Time) (DayWindow, error) {
	rule, err := s.repo.GetRule(ctx, providerID, int(date.Weekday()))
	if err != nil && !errors.Is(err, ErrRuleNotFound) {
		return DayWindow{}, fmt.Errorf("load weekly rule: %w", err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	exceptions, err := s.repo.ListExceptions(ctx, providerID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return DayWindow{}, fmt.Errorf("load exceptions: %w", err)
	}

	return ResolveDayWindow(rule, exceptions, date)
}
