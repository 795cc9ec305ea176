package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/clinic-scheduler/internal/appointment"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, userID uuid.UUID, role string, expiry time.Duration) string {
	t.Helper()
	claims := SessionClaims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func authProbe() (http.Handler, *appointment.Actor) {
	var captured appointment.Actor
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := CurrentActor(r.Context()); ok {
			captured = actor
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return h, &captured
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	probe, captured := authProbe()
	handler := AuthMiddleware(testSecret)(probe)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, userID, "PATIENT", time.Hour))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID, captured.ID)
	assert.Equal(t, appointment.RolePatient, captured.Role)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	probe, _ := authProbe()
	handler := AuthMiddleware(testSecret)(probe)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, []byte("other-secret"), uuid.New(), "PATIENT", time.Hour)},
		{"expired token", "Bearer " + signToken(t, testSecret, uuid.New(), "PATIENT", -time.Hour)},
		{"unknown role", "Bearer " + signToken(t, testSecret, uuid.New(), "JANITOR", time.Hour)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthMiddleware_RejectsUnsignedAlg(t *testing.T) {
	probe, _ := authProbe()
	handler := AuthMiddleware(testSecret)(probe)

	claims := SessionClaims{UserID: uuid.New().String(), Role: "ADMIN"}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/policy", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	probe, _ := authProbe()
	handler := AuthMiddleware(testSecret)(RequireRole(appointment.RoleAdmin)(probe))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, uuid.New(), "PATIENT", time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, uuid.New(), "ADMIN", time.Hour))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	// A caller-supplied ID is propagated, not replaced.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "trace-42", seen)
	assert.Equal(t, "trace-42", rec.Header().Get("X-Request-ID"))
}
