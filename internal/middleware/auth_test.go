package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalitkumar100/mediCude-backend/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func serveWithAuth(t *testing.T, header string) (*httptest.ResponseRecorder, *model.UserContext) {
	t.Helper()
	var seen *model.UserContext
	h := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		require.True(t, ok)
		seen = &user
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ai/chatMenu", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthAcceptsNumericIDs(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"login_id":    42,
		"employee_id": 1007,
		"role":        "admin",
		"full_name":   "Ravi Kumar",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	rec, user := serveWithAuth(t, "Bearer "+token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, model.UserContext{LoginID: "42", EmployeeID: "1007", Role: "admin", Name: "Ravi Kumar"}, *user)
}

func TestAuthAcceptsStringIDs(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"login_id":    "L-9",
		"employee_id": "E-9",
		"role":        "pharmacist",
		"name":        "Asha",
	})

	rec, user := serveWithAuth(t, "bearer "+token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "L-9", user.LoginID)
	assert.Equal(t, "Asha", user.Name)
}

func TestAuthRejects(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"login_id": 1,
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"login_id": 1})
	noLogin := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "admin"})
	unsigned := signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"login_id": 1})

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage":        "Bearer not-a-token",
		"expired":        "Bearer " + expired,
		"wrong key":      "Bearer " + wrongKey,
		"no login id":    "Bearer " + noLogin,
		"alg none":       "Bearer " + unsigned,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, user := serveWithAuth(t, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, user)
			assert.JSONEq(t, `{"success":false,"message":"`+messageFor(name)+`","statusCode":401}`, rec.Body.String())
		})
	}
}

func messageFor(name string) string {
	switch name {
	case "missing header":
		return "Missing authorization header"
	case "not bearer":
		return "Invalid authorization header format"
	case "no login id":
		return "Token carries no login id"
	}
	return "Invalid or expired token"
}

func TestLoggingSeesLoginIDFromAuth(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"login_id": 5})

	var scope *requestScope
	inner := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope = scopeFrom(r.Context())
		assert.NotEmpty(t, GetCorrelationID(r.Context()))
	}))
	h := Logging(nopLogger())(inner)

	req := httptest.NewRequest(http.MethodGet, "/ai/chatMenu", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Correlation-ID", "corr-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-1", rec.Header().Get("X-Correlation-ID"))
	require.NotNil(t, scope)
	assert.Equal(t, "5", scope.loginID)
}
