// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lalitkumar100/mediCude-backend/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserKey is the context key for the authenticated caller.
	UserKey ContextKey = "user"
)

// flexID accepts a claim encoded either as a JSON string or a JSON number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id claim must be a string or a number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// Claims represents the back-office JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	LoginID    flexID `json:"login_id"`
	EmployeeID flexID `json:"employee_id"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	FullName   string `json:"full_name"`
}

// User converts the claims to the caller context used by the services.
func (c *Claims) User() model.UserContext {
	loginID := string(c.LoginID)
	if loginID == "" {
		loginID = c.Subject
	}
	name := c.Name
	if name == "" {
		name = c.FullName
	}
	return model.UserContext{
		LoginID:    loginID,
		EmployeeID: string(c.EmployeeID),
		Role:       c.Role,
		Name:       name,
	}
}

// Auth creates JWT authentication middleware.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user := claims.User()
			if user.LoginID == "" {
				writeError(w, http.StatusUnauthorized, "Token carries no login id")
				return
			}

			if scope := scopeFrom(r.Context()); scope != nil {
				scope.loginID = user.LoginID
			}
			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser gets the authenticated caller from context.
func GetUser(ctx context.Context) (model.UserContext, bool) {
	user, ok := ctx.Value(UserKey).(model.UserContext)
	return user, ok
}

// GetLoginID gets the caller's login id from context.
func GetLoginID(ctx context.Context) string {
	user, _ := GetUser(ctx)
	return user.LoginID
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"message":    message,
		"statusCode": status,
	})
}
