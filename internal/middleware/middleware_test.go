package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lalitkumar100/mediCude-backend/internal/model"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

func nopLogger() *logger.Logger {
	return logger.NewNop()
}

func TestRateLimitPerLogin(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(loginID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ai/chatMenu", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserKey, model.UserContext{LoginID: loginID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("1").Code)
	limited := do("1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, do("2").Code, "limits are per login")
}

func TestLoggingGeneratesCorrelationID(t *testing.T) {
	h := Logging(nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, rec.Header().Get("X-Correlation-ID"), 36)
}

func TestValidation(t *testing.T) {
	assert.NoError(t, ValidatePrompt("stock of paracetamol"))
	assert.Error(t, ValidatePrompt(string([]byte{0xff, 0xfe})))
	assert.Error(t, ValidatePrompt(string(make([]byte, MaxPromptBytes+1))))

	assert.NoError(t, ValidateChatID("0192f3a1-7c1e-7000-8000-000000000001"))
	assert.Error(t, ValidateChatID("42; DROP TABLE chats"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
