package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/api"
	"github.com/clinichub/clinic-scheduler/internal/appointment"
	"github.com/clinichub/clinic-scheduler/internal/audit"
	"github.com/clinichub/clinic-scheduler/internal/availability"
	"github.com/clinichub/clinic-scheduler/internal/config"
	"github.com/clinichub/clinic-scheduler/internal/db"
	"github.com/clinichub/clinic-scheduler/internal/metrics"
	"github.com/clinichub/clinic-scheduler/internal/policy"
	redisclient "github.com/clinichub/clinic-scheduler/internal/redis"
	"github.com/clinichub/clinic-scheduler/internal/waitlist"
)

const version = "0.3.0"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	sink := audit.NewPgSink(pgPool, logger)
	m := metrics.NewSchedulingMetrics(prometheus.DefaultRegisterer)

	availSvc := availability.NewService(availability.NewPgRepository(pgPool), sink, logger)
	policyStore := policy.NewStore(policy.NewPgRepository(pgPool), rdb, cfg.PolicyCacheTTL, sink, logger)

	apptRepo := appointment.NewPgRepository(pgPool)
	locker := redisclient.NewRedisProviderLocker(rdb, cfg.LockTTL)
	apptSvc := appointment.NewService(apptRepo, locker, policyStore, sink, m, logger)
	slotGen := appointment.NewSlotGenerator(availSvc, apptRepo)

	wlSvc := waitlist.NewService(waitlist.NewPgRepository(pgPool), sink, logger)

	handler := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		Slots:        slotGen,
		Availability: availSvc,
		Policies:     policyStore,
		Waitlist:     wlSvc,
		AuditLog:     sink,
		Metrics:      m,
		PgPool:       pgPool,
		Redis:        rdb,
		JWTSecret:    []byte(cfg.JWTSecret),
		Env:          cfg.Env,
		Version:      version,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
