// Package policy holds the clinic-wide cutoff configuration and decides
// whether a patient-initiated cancel or reschedule is still permitted.
package policy

import (
	"time"
)

// DefaultID is the singleton row key.
const DefaultID = "default"

type ClinicPolicy struct {
	ID                      string `json:"id"`
	CancellationCutoffHours int    `json:"cancellation_cutoff_hours"`
	RescheduleCutoffHours   int    `json:"reschedule_cutoff_hours"`
	OfficeHoursStart        string `json:"office_hours_start"` // "HH:MM"
	OfficeHoursEnd          string `json:"office_hours_end"`   // "HH:MM"
}

// Default is the policy used when no row has been written yet. The engine
// never errors on missing configuration; it substitutes these values.
func Default() ClinicPolicy {
	return ClinicPolicy{
		ID:                      DefaultID,
		CancellationCutoffHours: 24,
		RescheduleCutoffHours:   12,
		OfficeHoursStart:        "09:00",
		OfficeHoursEnd:          "17:00",
	}
}

// CanCancel reports whether a patient may still cancel an appointment
// starting at start. Allowed up to and including the cutoff instant;
// denied once now is strictly past it.
func CanCancel(now, start time.Time, cutoffHours int) bool {
	return withinCutoff(now, start, cutoffHours)
}

// CanReschedule reports whether a patient may still reschedule an
// appointment currently starting at start.
func CanReschedule(now, start time.Time, cutoffHours int) bool {
	return withinCutoff(now, start, cutoffHours)
}

func withinCutoff(now, start time.Time, cutoffHours int) bool {
	cutoff := start.Add(-time.Duration(cutoffHours) * time.Hour)
	return !now.After(cutoff)
}
