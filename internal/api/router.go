package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
	"github.com/clinichub/clinic-scheduler/internal/audit"
	"github.com/clinichub/clinic-scheduler/internal/availability"
	"github.com/clinichub/clinic-scheduler/internal/metrics"
	"github.com/clinichub/clinic-scheduler/internal/policy"
	"github.com/clinichub/clinic-scheduler/internal/waitlist"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Slots        *appointment.SlotGenerator
	Availability *availability.Service
	Policies     *policy.Store
	Waitlist     *waitlist.Service
	AuditLog     *audit.PgSink
	Metrics      *metrics.SchedulingMetrics
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	JWTSecret    []byte
	Env          string
	Version      string
	Logger       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Unauthenticated operational endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Everything else requires a session
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Get("/availability/slots", listSlotsHandler(cfg.Slots, cfg.Metrics))
		r.Get("/availability", listRulesHandler(cfg.Availability))
		r.Post("/availability", upsertRuleHandler(cfg.Availability))
		r.Get("/availability/exceptions", listExceptionsHandler(cfg.Availability))
		r.Post("/availability/exceptions", createExceptionHandler(cfg.Availability))

		r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
		r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
		r.Patch("/appointments/{id}", patchAppointmentHandler(cfg.Appointments))
		r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Appointments))

		r.Get("/waitlist", listWaitlistHandler(cfg.Waitlist))
		r.Post("/waitlist", joinWaitlistHandler(cfg.Waitlist))

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(appointment.RoleAdmin))
			r.Get("/policy", getPolicyHandler(cfg.Policies))
			r.Post("/policy", updatePolicyHandler(cfg.Policies))
			r.Get("/audit", listAuditHandler(cfg.AuditLog))
			r.Get("/stats", statsHandler(cfg.Appointments))
		})
	})

	return r
}
