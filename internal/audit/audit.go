// Package audit persists who-did-what events for the admin audit viewer.
// Recording is best-effort: failures are logged and swallowed so they can
// never fail the mutation that produced them.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActionAppointmentCreated     = "APPOINTMENT_CREATED"
	ActionAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	ActionAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	ActionAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	ActionAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
	ActionAvailabilityUpdated    = "AVAILABILITY_UPDATED"
	ActionExceptionCreated       = "AVAILABILITY_EXCEPTION_CREATED"
	ActionClinicPolicyUpdated    = "CLINIC_POLICY_UPDATED"
	ActionWaitlistEntryCreated   = "WAITLIST_ENTRY_CREATED"
)

type Event struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string // Appointment, Availability, ClinicPolicy, WaitlistEntry
	EntityID   *uuid.UUID
	Metadata   map[string]any
}

// StoredEvent is a persisted audit row as returned to the admin viewer.
type StoredEvent struct {
	ID         int64
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Metadata   json.RawMessage
	CreatedAt  time.Time
}

// Sink accepts audit events. Record never returns an error to the caller.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Discard is a Sink for tests and commands that do not audit.
type Discard struct{}

func (Discard) Record(context.Context, Event) {}
