package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
	"github.com/clinichub/clinic-scheduler/internal/availability"
	"github.com/clinichub/clinic-scheduler/internal/waitlist"
)

type BookAppointmentRequest struct {
	PatientID         string  `json:"patient_id,omitempty"`
	ProviderID        string  `json:"provider_id,omitempty"`
	AppointmentTypeID string  `json:"appointment_type_id,omitempty"`
	Title             string  `json:"title"`
	Description       *string `json:"description,omitempty"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
}

// PatchAppointmentRequest covers reschedule, status transitions and the
// role-gated note fields in one endpoint, as the callers expect.
type PatchAppointmentRequest struct {
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	Status        *string `json:"status,omitempty"`
	ClinicalNotes *string `json:"clinical_notes,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	ProviderID        uuid.UUID  `json:"provider_id"`
	AppointmentTypeID *uuid.UUID `json:"appointment_type_id,omitempty"`
	Title             string     `json:"title"`
	Description       *string    `json:"description,omitempty"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
	Status            string     `json:"status"`
	ClinicalNotes     *string    `json:"clinical_notes,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                a.ID,
		PatientID:         a.PatientID,
		ProviderID:        a.ProviderID,
		AppointmentTypeID: a.AppointmentTypeID,
		Title:             a.Title,
		Description:       a.Description,
		StartTime:         a.StartTime,
		EndTime:           a.EndTime,
		Status:            string(a.Status),
		ClinicalNotes:     a.ClinicalNotes,
		Notes:             a.Notes,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

type SlotsResponse struct {
	Slots []string `json:"slots"`
}

type AvailabilityRuleRequest struct {
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

type AvailabilityRuleResponse struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
}

func toRuleResponse(r availability.Rule) AvailabilityRuleResponse {
	return AvailabilityRuleResponse{
		ID:          r.ID,
		ProviderID:  r.ProviderID,
		DayOfWeek:   r.DayOfWeek,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsAvailable: r.IsAvailable,
	}
}

type AvailabilityExceptionRequest struct {
	Date      string  `json:"date"` // "2006-01-02"
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	IsBlocked *bool   `json:"is_blocked,omitempty"`
}

type AvailabilityExceptionResponse struct {
	ID         uuid.UUID `json:"id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Date       string    `json:"date"`
	StartTime  *string   `json:"start_time,omitempty"`
	EndTime    *string   `json:"end_time,omitempty"`
	Reason     *string   `json:"reason,omitempty"`
	IsBlocked  bool      `json:"is_blocked"`
}

func toExceptionResponse(ex availability.Exception) AvailabilityExceptionResponse {
	return AvailabilityExceptionResponse{
		ID:         ex.ID,
		ProviderID: ex.ProviderID,
		Date:       ex.Date.Format("2006-01-02"),
		StartTime:  ex.StartTime,
		EndTime:    ex.EndTime,
		Reason:     ex.Reason,
		IsBlocked:  ex.IsBlocked,
	}
}

type WaitlistEntryRequest struct {
	AppointmentTypeID string `json:"appointment_type_id"`
	ProviderID        string `json:"provider_id,omitempty"`
	PreferredDays     []int  `json:"preferred_days,omitempty"`
}

type WaitlistEntryResponse struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	AppointmentTypeID uuid.UUID  `json:"appointment_type_id"`
	ProviderID        *uuid.UUID `json:"provider_id,omitempty"`
	PreferredDays     []int      `json:"preferred_days,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toWaitlistResponse(e waitlist.Entry) WaitlistEntryResponse {
	return WaitlistEntryResponse{
		ID:                e.ID,
		PatientID:         e.PatientID,
		AppointmentTypeID: e.AppointmentTypeID,
		ProviderID:        e.ProviderID,
		PreferredDays:     e.PreferredDays,
		Status:            string(e.Status),
		CreatedAt:         e.CreatedAt,
	}
}

type ErrorResponse struct {
	Error       string `json:"error"`
	Details     string `json:"details,omitempty"`
	CutoffHours int    `json:"cutoff_hours,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
