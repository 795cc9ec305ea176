package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

type Role string

const (
	RolePatient  Role = "PATIENT"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// Actor identifies who is performing a scheduling mutation. Patients are
// subject to the policy cutoffs; providers and admins bypass them.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Appointment is the unit of mutation. Two appointments for the same
// provider with status other than CANCELLED must never overlap on the
// half-open [StartTime, EndTime) interval.
type Appointment struct {
	ID                uuid.UUID
	PatientID         uuid.UUID
	ProviderID        uuid.UUID
	AppointmentTypeID *uuid.UUID
	Title             string
	Description       *string
	StartTime         time.Time
	EndTime           time.Time
	Status            Status
	ClinicalNotes     *string // provider-authored
	Notes             *string // patient-authored
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Active reports whether the appointment participates in conflict checks.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled
}
