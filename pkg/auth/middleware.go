package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates identity resolution to the Guard.
type Middleware struct {
	guard  Guard
	logger *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given Guard.
func NewMiddleware(guard Guard, logger *zap.Logger) *Middleware {
	return &Middleware{
		guard:  guard,
		logger: logger,
	}
}

// RequireAuth resolves the caller to a local user record and injects it into
// the request context. Requests without a resolvable identity are rejected.
// Role checks happen downstream in the services, closest to the mutation.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := m.guard.ResolveRequest(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		next(w, r.WithContext(WithIdentity(r.Context(), user)))
	}
}

// OptionalAuth resolves the caller when a token is present but lets anonymous
// requests through. Used on the public read surface, where the absence of an
// identity simply scopes the caller to published content.
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := m.guard.ResolveRequest(r)
		if err == nil {
			r = r.WithContext(WithIdentity(r.Context(), user))
		}
		next(w, r)
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
