package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/audit"
	"github.com/clinichub/clinic-scheduler/internal/metrics"
	"github.com/clinichub/clinic-scheduler/internal/policy"
	redisclient "github.com/clinichub/clinic-scheduler/internal/redis"
)

// PolicySource yields the current clinic policy. It never fails; missing
// configuration degrades to defaults.
type PolicySource interface {
	Current(ctx context.Context) policy.ClinicPolicy
}

// BookRequest carries a booking. Patient/provider resolution depends on
// the actor role: patients book for themselves with a chosen provider,
// providers book for a named patient, admins name both.
type BookRequest struct {
	PatientID         uuid.UUID
	ProviderID        uuid.UUID
	AppointmentTypeID *uuid.UUID
	Title             string
	Description       *string
	StartTime         time.Time
	EndTime           time.Time
}

// Service composes availability, conflict and policy checks into atomic
// scheduling mutations. Every successful mutation emits a best-effort
// audit event.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	policies PolicySource
	sink     audit.Sink
	metrics  *metrics.SchedulingMetrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, policies PolicySource, sink audit.Sink, m *metrics.SchedulingMetrics, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		policies: policies,
		sink:     sink,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Book validates and commits a new SCHEDULED appointment. The provider
// lock serializes commits per provider; when the lock is contended the
// serializable re-check inside CreateScheduled still guarantees at most
// one of two racing bookings wins, so we fall through rather than bounce
// the caller.
func (s *Service) Book(ctx context.Context, actor Actor, req BookRequest) (*Appointment, error) {
	patientID, providerID, err := resolveParties(actor, req.PatientID, req.ProviderID)
	if err != nil {
		return nil, err
	}

	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}

	ok, err := s.repo.ProviderExists(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("check provider: %w", err)
	}
	if !ok {
		return nil, ErrProviderNotFound
	}

	var created *Appointment
	err = s.withProviderLock(ctx, providerID, func(lockCtx context.Context) error {
		conflict, err := s.repo.HasConflict(lockCtx, providerID, req.StartTime, req.EndTime, nil)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if conflict {
			return ErrSlotUnavailable
		}

		appt, err := s.repo.CreateScheduled(lockCtx, Appointment{
			PatientID:         patientID,
			ProviderID:        providerID,
			AppointmentTypeID: req.AppointmentTypeID,
			Title:             req.Title,
			Description:       req.Description,
			StartTime:         req.StartTime,
			EndTime:           req.EndTime,
		})
		if err != nil {
			return err
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			s.metrics.ObserveBooking("conflict")
		}
		return nil, err
	}

	s.metrics.ObserveBooking("booked")
	s.sink.Record(ctx, audit.Event{
		ActorID:    actor.ID,
		Action:     audit.ActionAppointmentCreated,
		EntityType: "Appointment",
		EntityID:   &created.ID,
		Metadata: map[string]any{
			"patient_id":  patientID.String(),
			"provider_id": providerID.String(),
			"start_time":  created.StartTime.Format(time.RFC3339),
			"end_time":    created.EndTime.Format(time.RFC3339),
		},
	})

	return created, nil
}

// Reschedule moves a SCHEDULED appointment to a new interval. Patients are
// gated by the reschedule cutoff measured against the current (pre-change)
// start time.
func (s *Service) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, newStart, newEnd time.Time) (*Appointment, error) {
	appt, err := s.visibleAppointment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	if actor.Role == RolePatient {
		p := s.policies.Current(ctx)
		if !policy.CanReschedule(s.now(), appt.StartTime, p.RescheduleCutoffHours) {
			s.metrics.ObservePolicyDenial("reschedule")
			return nil, &PolicyCutoffError{Action: "reschedule", CutoffHours: p.RescheduleCutoffHours}
		}
	}

	if !newStart.Before(newEnd) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}

	oldStart, oldEnd := appt.StartTime, appt.EndTime

	var updated *Appointment
	err = s.withProviderLock(ctx, appt.ProviderID, func(lockCtx context.Context) error {
		u, err := s.repo.UpdateTimes(lockCtx, id, newStart, newEnd)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, audit.Event{
		ActorID:    actor.ID,
		Action:     audit.ActionAppointmentRescheduled,
		EntityType: "Appointment",
		EntityID:   &updated.ID,
		Metadata: map[string]any{
			"old_start": oldStart.Format(time.RFC3339),
			"old_end":   oldEnd.Format(time.RFC3339),
			"new_start": updated.StartTime.Format(time.RFC3339),
			"new_end":   updated.EndTime.Format(time.RFC3339),
		},
	})

	return updated, nil
}

// Cancel sets a SCHEDULED appointment to CANCELLED. Patients are gated by
// the cancellation cutoff; once cancelled the appointment no longer
// participates in conflict checks.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.visibleAppointment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	if actor.Role == RolePatient {
		p := s.policies.Current(ctx)
		if !policy.CanCancel(s.now(), appt.StartTime, p.CancellationCutoffHours) {
			s.metrics.ObservePolicyDenial("cancel")
			return nil, &PolicyCutoffError{Action: "cancel", CutoffHours: p.CancellationCutoffHours}
		}
	}

	cancelled, err := s.repo.UpdateStatus(ctx, id, StatusScheduled, StatusCancelled)
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, audit.Event{
		ActorID:    actor.ID,
		Action:     audit.ActionAppointmentCancelled,
		EntityType: "Appointment",
		EntityID:   &cancelled.ID,
		Metadata: map[string]any{
			"start_time": cancelled.StartTime.Format(time.RFC3339),
		},
	})

	return cancelled, nil
}

// Complete marks a kept appointment. Provider-owned transition; no policy
// check applies.
func (s *Service) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.closeOut(ctx, actor, id, StatusCompleted, audit.ActionAppointmentCompleted)
}

// MarkNoShow records that the patient did not attend.
func (s *Service) MarkNoShow(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.closeOut(ctx, actor, id, StatusNoShow, audit.ActionAppointmentNoShow)
}

func (s *Service) closeOut(ctx context.Context, actor Actor, id uuid.UUID, to Status, action string) (*Appointment, error) {
	appt, err := s.visibleAppointment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	isOwningProvider := actor.Role == RoleProvider && appt.ProviderID == actor.ID
	if !isOwningProvider && actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusScheduled, to)
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, audit.Event{
		ActorID:    actor.ID,
		Action:     action,
		EntityType: "Appointment",
		EntityID:   &updated.ID,
	})

	return updated, nil
}

// UpdateNotes writes the role-gated free-text fields: clinical notes
// belong to the provider, visit notes to the patient.
func (s *Service) UpdateNotes(ctx context.Context, actor Actor, id uuid.UUID, clinicalNotes, notes *string) (*Appointment, error) {
	appt, err := s.visibleAppointment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if clinicalNotes != nil {
		owns := actor.Role == RoleProvider && appt.ProviderID == actor.ID
		if !owns && actor.Role != RoleAdmin {
			return nil, ErrUnauthorized
		}
	}
	if notes != nil {
		owns := actor.Role == RolePatient && appt.PatientID == actor.ID
		if !owns && actor.Role != RoleAdmin {
			return nil, ErrUnauthorized
		}
	}

	return s.repo.UpdateNotes(ctx, id, clinicalNotes, notes)
}

func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.visibleAppointment(ctx, actor, id)
}

// List returns appointments scoped to the actor: patients and providers
// see their own, admins see everything the filter allows.
func (s *Service) List(ctx context.Context, actor Actor, f ListFilter) ([]Appointment, error) {
	switch actor.Role {
	case RolePatient:
		f.PatientID = actor.ID
	case RoleProvider:
		f.ProviderID = actor.ID
	case RoleAdmin:
		// admin filter passes through
	default:
		return nil, ErrUnauthorized
	}

	appts, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// Stats powers the admin dashboard: appointment counts per status.
func (s *Service) Stats(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// visibleAppointment loads an appointment the actor is allowed to see.
// Non-participants get NotFound rather than a hint that the row exists.
func (s *Service) visibleAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case RoleAdmin:
		return appt, nil
	case RolePatient:
		if appt.PatientID == actor.ID {
			return appt, nil
		}
	case RoleProvider:
		if appt.ProviderID == actor.ID {
			return appt, nil
		}
	}

	return nil, ErrAppointmentNotFound
}

func (s *Service) withProviderLock(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context) error) error {
	err := s.locker.WithProviderLock(ctx, providerID, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		s.log.Debug().Str("provider_id", providerID.String()).Msg("provider lock contended, relying on transactional re-check")
		return fn(ctx)
	}
	return err
}

func resolveParties(actor Actor, patientID, providerID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	switch actor.Role {
	case RolePatient:
		if providerID == uuid.Nil {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: provider id is required", ErrInvalidInput)
		}
		return actor.ID, providerID, nil
	case RoleProvider:
		if patientID == uuid.Nil {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: patient id is required", ErrInvalidInput)
		}
		return patientID, actor.ID, nil
	case RoleAdmin:
		if patientID == uuid.Nil || providerID == uuid.Nil {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: both patient and provider ids are required", ErrInvalidInput)
		}
		return patientID, providerID, nil
	default:
		return uuid.Nil, uuid.Nil, ErrUnauthorized
	}
}
