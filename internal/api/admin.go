package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
	"github.com/clinichub/clinic-scheduler/internal/audit"
	"github.com/clinichub/clinic-scheduler/internal/policy"
)

func getPolicyHandler(store *policy.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Current(r.Context()))
	}
}

func updatePolicyHandler(store *policy.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		var req policy.ClinicPolicy
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := store.Update(r.Context(), actor.ID, req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_policy", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

func listAuditHandler(sink *audit.PgSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		events, err := sink.List(r.Context(), limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

func statsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make(map[string]int, len(counts))
		for st, n := range counts {
			resp[string(st)] = n
		}
		writeJSON(w, http.StatusOK, map[string]any{"appointments_by_status": resp})
	}
}
