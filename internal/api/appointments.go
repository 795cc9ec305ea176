package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
)

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be RFC 3339")
			return
		}

		book := appointment.BookRequest{
			Title:       req.Title,
			Description: req.Description,
			StartTime:   start,
			EndTime:     end,
		}

		if req.PatientID != "" {
			id, err := uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			book.PatientID = id
		}
		if req.ProviderID != "" {
			id, err := uuid.Parse(req.ProviderID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
				return
			}
			book.ProviderID = id
		}
		if req.AppointmentTypeID != "" {
			id, err := uuid.Parse(req.AppointmentTypeID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_appointment_type_id", "appointment_type_id must be a valid UUID")
				return
			}
			book.AppointmentTypeID = &id
		}

		appt, err := svc.Book(r.Context(), actor, book)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		var f appointment.ListFilter
		q := r.URL.Query()

		if v := q.Get("status"); v != "" {
			f.Status = appointment.Status(v)
		}
		if v := q.Get("providerId"); v != "" && actor.Role == appointment.RoleAdmin {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "providerId must be a valid UUID")
				return
			}
			f.ProviderID = id
		}
		if v := q.Get("startDate"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_date", "startDate must be RFC 3339")
				return
			}
			f.From = t
		}
		if v := q.Get("endDate"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_date", "endDate must be RFC 3339")
				return
			}
			f.To = t
		}

		appts, err := svc.List(r.Context(), actor, f)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// patchAppointmentHandler dispatches one mutation per request, in
// precedence order: reschedule, then status transition, then notes.
func patchAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req PatchAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		switch {
		case req.StartTime != nil || req.EndTime != nil:
			if req.StartTime == nil || req.EndTime == nil {
				writeError(w, http.StatusBadRequest, "invalid_input", "reschedule requires both start_time and end_time")
				return
			}
			start, err := time.Parse(time.RFC3339, *req.StartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
				return
			}
			end, err := time.Parse(time.RFC3339, *req.EndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be RFC 3339")
				return
			}

			appt, err := svc.Reschedule(r.Context(), actor, id, start, end)
			if err != nil {
				handleSchedulingError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toAppointmentResponse(appt))

		case req.Status != nil:
			var appt *appointment.Appointment
			switch appointment.Status(*req.Status) {
			case appointment.StatusCompleted:
				appt, err = svc.Complete(r.Context(), actor, id)
			case appointment.StatusNoShow:
				appt, err = svc.MarkNoShow(r.Context(), actor, id)
			case appointment.StatusCancelled:
				appt, err = svc.Cancel(r.Context(), actor, id)
			default:
				writeError(w, http.StatusBadRequest, "invalid_status", "status must be COMPLETED, NO_SHOW or CANCELLED")
				return
			}
			if err != nil {
				handleSchedulingError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toAppointmentResponse(appt))

		case req.ClinicalNotes != nil || req.Notes != nil:
			appt, err := svc.UpdateNotes(r.Context(), actor, id, req.ClinicalNotes, req.Notes)
			if err != nil {
				handleSchedulingError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toAppointmentResponse(appt))

		default:
			writeError(w, http.StatusBadRequest, "invalid_input", "nothing to update")
		}
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if _, err := svc.Cancel(r.Context(), actor, id); err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "appointment cancelled"})
	}
}
