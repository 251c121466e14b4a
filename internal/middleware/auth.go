package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"award-review/internal/auth"
	"award-review/internal/models"
)

type contextKey string

const (
	CallerKey    contextKey = "caller"
	RequestIDKey contextKey = "request_id"
)

// AuthMiddleware validates caller tokens
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer token and stores the caller in the context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, auth.ErrInvalidRole) {
				msg = "Token carries an unknown role"
			}
			respondWithError(w, http.StatusUnauthorized, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.Caller())))
	})
}

// WithCaller returns a copy of ctx carrying caller
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// CallerFrom retrieves the authenticated caller from the request context
func CallerFrom(r *http.Request) (models.Caller, bool) {
	caller, ok := r.Context().Value(CallerKey).(models.Caller)
	return caller, ok
}

// RequestIDFrom retrieves the request id assigned by LoggingMiddleware
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
