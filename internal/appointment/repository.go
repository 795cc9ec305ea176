package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	PatientID  uuid.UUID
	ProviderID uuid.UUID
	Status     Status
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// Repository contains all DB interactions needed by the scheduling service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f ListFilter) ([]Appointment, error)

	// ListActiveForProviderBetween returns non-cancelled appointments whose
	// start falls in [from, to), ordered by start. The slot generator loads
	// a provider-day once and filters candidates in memory.
	ListActiveForProviderBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// HasConflict reports whether [start, end) overlaps any non-cancelled
	// appointment for the provider, excluding excludeID when non-nil.
	HasConflict(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)

	// CreateScheduled inserts a SCHEDULED appointment after re-checking for
	// conflicts inside a serializable transaction. The transactional
	// re-check is what guarantees at most one of two racing bookings wins;
	// the loser gets ErrSlotUnavailable.
	CreateScheduled(ctx context.Context, a Appointment) (*Appointment, error)

	// UpdateTimes moves an appointment, re-checking conflicts (excluding
	// the appointment itself) inside a serializable transaction.
	UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error)

	// UpdateStatus transitions from -> to, failing with
	// ErrInvalidStatusTransition when the row is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	UpdateNotes(ctx context.Context, id uuid.UUID, clinicalNotes, notes *string) (*Appointment, error)

	ProviderExists(ctx context.Context, providerID uuid.UUID) (bool, error)

	// CountByStatus powers the admin stats endpoint.
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
