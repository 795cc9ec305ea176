package api

import (
	"errors"
	"net/http"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
	"github.com/clinichub/clinic-scheduler/internal/availability"
	"github.com/clinichub/clinic-scheduler/internal/waitlist"
)

// handleSchedulingError maps domain errors onto HTTP statuses. Policy
// denials carry the cutoff hours so the client can explain the refusal.
func handleSchedulingError(w http.ResponseWriter, err error) {
	var cutoffErr *appointment.PolicyCutoffError
	switch {
	case errors.As(err, &cutoffErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:       "policy_cutoff_violation",
			Details:     cutoffErr.Error(),
			CutoffHours: cutoffErr.CutoffHours,
		})
	case errors.Is(err, appointment.ErrInvalidInput),
		errors.Is(err, availability.ErrInvalidRule),
		errors.Is(err, waitlist.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, appointment.ErrProviderNotFound):
		writeError(w, http.StatusBadRequest, "invalid_provider", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, availability.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
