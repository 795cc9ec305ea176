package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrSlotUnavailable         = errors.New("slot is already booked")
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrProviderNotFound        = errors.New("provider not found")
	ErrUnauthorized            = errors.New("actor may not perform this action")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// PolicyCutoffError is returned when a patient-initiated cancel or
// reschedule lands past the clinic cutoff. It carries the cutoff hours so
// the caller can explain the denial.
type PolicyCutoffError struct {
	Action      string // "cancel" or "reschedule"
	CutoffHours int
}

func (e *PolicyCutoffError) Error() string {
	return fmt.Sprintf("must %s at least %d hours before the appointment", e.Action, e.CutoffHours)
}
