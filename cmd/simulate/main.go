// simulate drives concurrent booking traffic against a running api-server
// to demonstrate the at-most-one-winner property: many workers racing for
// the same provider+interval must produce exactly one 201 and conflicts
// for everyone else.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduler/internal/db"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

type SimConfig struct {
	APIBaseURL  string
	Workers     int
	Rounds      int
	PostgresDSN string
	JWTSecret   string
}

type Counters struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64
}

func (c *Counters) Record(status int) {
	atomic.AddInt64(&c.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&c.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&c.Conflict, 1)
	default:
		atomic.AddInt64(&c.Error, 1)
	}
}

func main() {
	cfg := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	patients, err := loadUserIDs(context.Background(), pool, "PATIENT", 200)
	if err != nil {
		logger.Fatal().Err(err).Msg("load patients")
	}
	providers, err := loadUserIDs(context.Background(), pool, "PROVIDER", 20)
	if err != nil {
		logger.Fatal().Err(err).Msg("load providers")
	}
	if len(patients) == 0 || len(providers) == 0 {
		logger.Fatal().Msg("run cmd/seed first")
	}

	logger.Info().
		Int("patients", len(patients)).
		Int("providers", len(providers)).
		Int("workers", cfg.Workers).
		Int("rounds", cfg.Rounds).
		Msg("simulation starting")

	client := &http.Client{Timeout: 10 * time.Second}

	for round := 0; round < cfg.Rounds; round++ {
		provider := providers[rand.Intn(len(providers))]
		start := nextWeekdaySlot(time.Now(), round)
		end := start.Add(30 * time.Minute)

		var counters Counters
		var wg sync.WaitGroup

		for i := 0; i < cfg.Workers; i++ {
			patient := patients[rand.Intn(len(patients))]
			wg.Add(1)
			go func(patientID uuid.UUID) {
				defer wg.Done()
				status := bookOnce(client, cfg, patientID, provider, start, end)
				counters.Record(status)
			}(patient)
		}
		wg.Wait()

		ok := counters.Success == 1
		logger.Info().
			Int("round", round).
			Str("provider", provider.String()).
			Time("slot", start).
			Int64("success", counters.Success).
			Int64("conflict", counters.Conflict).
			Int64("error", counters.Error).
			Bool("exactly_one_winner", ok).
			Msg("round complete")

		if !ok {
			logger.Error().Msg("INVARIANT VIOLATION: more or fewer than one booking won the race")
		}
	}
}

func bookOnce(client *http.Client, cfg SimConfig, patientID, providerID uuid.UUID, start, end time.Time) int {
	body, _ := json.Marshal(map[string]any{
		"provider_id": providerID.String(),
		"title":       "Simulated visit",
		"start_time":  start.Format(time.RFC3339),
		"end_time":    end.Format(time.RFC3339),
	})

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+patientToken(cfg.JWTSecret, patientID))

	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}

func patientToken(secret string, patientID uuid.UUID) string {
	claims := jwt.MapClaims{
		"user_id": patientID.String(),
		"role":    "PATIENT",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		logger.Fatal().Err(err).Msg("sign token")
	}
	return signed
}

// nextWeekdaySlot picks a distinct future 30-minute slot inside clinic
// hours for each round so rounds never collide with each other.
func nextWeekdaySlot(now time.Time, round int) time.Time {
	day := now.AddDate(0, 0, 1+round/16)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	slot := round % 16
	return time.Date(day.Year(), day.Month(), day.Day(), 9+slot/2, (slot%2)*30, 0, 0, day.Location())
}

func loadUserIDs(ctx context.Context, pool *pgxpool.Pool, role string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM users WHERE role = $1 LIMIT $2`, role, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		Workers:     getInt("SIM_WORKERS", 20),
		Rounds:      getInt("SIM_ROUNDS", 10),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
	if cfg.PostgresDSN == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}
	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid int for %s=%q, using default %d\n", key, v, def)
	}
	return def
}
