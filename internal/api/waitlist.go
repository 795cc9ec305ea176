package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
	"github.com/clinichub/clinic-scheduler/internal/waitlist"
)

func joinWaitlistHandler(svc *waitlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		var req WaitlistEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		typeID, err := uuid.Parse(req.AppointmentTypeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_type_id", "appointment_type_id must be a valid UUID")
			return
		}

		entry := waitlist.Entry{
			PatientID:         actor.ID,
			AppointmentTypeID: typeID,
			PreferredDays:     req.PreferredDays,
		}
		if req.ProviderID != "" {
			id, err := uuid.Parse(req.ProviderID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
				return
			}
			entry.ProviderID = &id
		}

		created, err := svc.Join(r.Context(), actor.ID, entry)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toWaitlistResponse(*created))
	}
}

func listWaitlistHandler(svc *waitlist.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		// Patients see their own entries; admins may filter by patient.
		patientID := actor.ID
		if actor.Role == appointment.RoleAdmin {
			patientID = uuid.Nil
			if v := r.URL.Query().Get("patientId"); v != "" {
				id, err := uuid.Parse(v)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientId must be a valid UUID")
					return
				}
				patientID = id
			}
		} else if actor.Role != appointment.RolePatient {
			writeError(w, http.StatusForbidden, "forbidden", "providers have no waitlist view")
			return
		}

		entries, err := svc.List(r.Context(), patientID, waitlist.EntryStatus(r.URL.Query().Get("status")))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]WaitlistEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, toWaitlistResponse(e))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
