// Package waitlist records patients waiting for a slot that was not
// available at booking time. Matching and notification are out of scope;
// entries exist as the booking fallback.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/audit"
)

type EntryStatus string

const (
	StatusActive   EntryStatus = "active"
	StatusNotified EntryStatus = "notified"
	StatusBooked   EntryStatus = "booked"
)

var ErrInvalidEntry = errors.New("invalid waitlist entry")

type Entry struct {
	ID                uuid.UUID
	PatientID         uuid.UUID
	AppointmentTypeID uuid.UUID
	ProviderID        *uuid.UUID
	PreferredDays     []int // weekday numbers, 0 = Sunday
	Status            EntryStatus
	CreatedAt         time.Time
}

type Repository interface {
	Create(ctx context.Context, e Entry) (*Entry, error)
	List(ctx context.Context, patientID uuid.UUID, status EntryStatus) ([]Entry, error)
}

type Service struct {
	repo Repository
	sink audit.Sink
	log  zerolog.Logger
}

func NewService(repo Repository, sink audit.Sink, log zerolog.Logger) *Service {
	return &Service{repo: repo, sink: sink, log: log}
}

func (s *Service) Join(ctx context.Context, actorID uuid.UUID, e Entry) (*Entry, error) {
	if e.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient id is required", ErrInvalidEntry)
	}
	if e.AppointmentTypeID == uuid.Nil {
		return nil, fmt.Errorf("%w: appointment type id is required", ErrInvalidEntry)
	}
	for _, d := range e.PreferredDays {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("%w: preferred day %d out of range", ErrInvalidEntry, d)
		}
	}
	e.Status = StatusActive

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create waitlist entry: %w", err)
	}

	s.sink.Record(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionWaitlistEntryCreated,
		EntityType: "WaitlistEntry",
		EntityID:   &created.ID,
	})

	return created, nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID, status EntryStatus) ([]Entry, error) {
	entries, err := s.repo.List(ctx, patientID, status)
	if err != nil {
		return nil, fmt.Errorf("list waitlist entries: %w", err)
	}
	return entries, nil
}
