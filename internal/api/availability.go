package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
	"github.com/clinichub/clinic-scheduler/internal/availability"
	"github.com/clinichub/clinic-scheduler/internal/metrics"
)

func listSlotsHandler(gen *appointment.SlotGenerator, m *metrics.SchedulingMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		providerID, err := uuid.Parse(q.Get("providerId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "providerId must be a valid UUID")
			return
		}

		date, err := time.Parse("2006-01-02", q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		duration := appointment.DefaultGranularityMinutes
		if v := q.Get("duration"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be whole minutes")
				return
			}
			duration = n
		}

		m.ObserveSlotQuery()

		slots, err := gen.GenerateSlots(r.Context(), providerID, date, duration, appointment.DefaultGranularityMinutes)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := SlotsResponse{Slots: make([]string, 0, len(slots))}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, s.Format(time.RFC3339))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Weekly rules are owned by the provider: reads may name any provider,
// writes apply to the authenticated provider (admins may write for anyone
// via providerId).
func listRulesHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())

		providerID := actor.ID
		if v := r.URL.Query().Get("providerId"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "providerId must be a valid UUID")
				return
			}
			providerID = id
		}

		rules, err := svc.ListRules(r.Context(), providerID)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]AvailabilityRuleResponse, 0, len(rules))
		for _, rule := range rules {
			resp = append(resp, toRuleResponse(rule))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func upsertRuleHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())
		if actor.Role == appointment.RolePatient {
			writeError(w, http.StatusForbidden, "forbidden", "patients cannot edit availability")
			return
		}

		var req AvailabilityRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		isAvailable := true
		if req.IsAvailable != nil {
			isAvailable = *req.IsAvailable
		}

		providerID := actor.ID
		if actor.Role == appointment.RoleAdmin {
			if v := r.URL.Query().Get("providerId"); v != "" {
				id, err := uuid.Parse(v)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_provider_id", "providerId must be a valid UUID")
					return
				}
				providerID = id
			}
		}

		rule, err := svc.SetRule(r.Context(), actor.ID, availability.Rule{
			ProviderID:  providerID,
			DayOfWeek:   req.DayOfWeek,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			IsAvailable: isAvailable,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRuleResponse(*rule))
	}
}

func listExceptionsHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())
		q := r.URL.Query()

		providerID := actor.ID
		if v := q.Get("providerId"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_provider_id", "providerId must be a valid UUID")
				return
			}
			providerID = id
		}

		from := time.Now().AddDate(0, -1, 0)
		to := time.Now().AddDate(1, 0, 0)
		if v := q.Get("startDate"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_date", "startDate must be YYYY-MM-DD")
				return
			}
			from = t
		}
		if v := q.Get("endDate"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_date", "endDate must be YYYY-MM-DD")
				return
			}
			to = t
		}

		exceptions, err := svc.ListExceptions(r.Context(), providerID, from, to)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]AvailabilityExceptionResponse, 0, len(exceptions))
		for _, ex := range exceptions {
			resp = append(resp, toExceptionResponse(ex))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createExceptionHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := CurrentActor(r.Context())
		if actor.Role == appointment.RolePatient {
			writeError(w, http.StatusForbidden, "forbidden", "patients cannot edit availability")
			return
		}

		var req AvailabilityExceptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		isBlocked := true
		if req.IsBlocked != nil {
			isBlocked = *req.IsBlocked
		}

		ex, err := svc.AddException(r.Context(), actor.ID, availability.Exception{
			ProviderID: actor.ID,
			Date:       date,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			Reason:     req.Reason,
			IsBlocked:  isBlocked,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toExceptionResponse(*ex))
	}
}
