package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
)

// Guard resolves a caller identity to a local user and enforces role-gated
// access. Every privileged mutation re-resolves the role server-side through
// the guard; client-supplied role information is never trusted.
type Guard interface {
	// ResolveRequest validates the request's token and resolves it to the
	// local user record. Fails closed: a valid token without a matching
	// active user record is treated as unauthenticated.
	ResolveRequest(r *http.Request) (*models.User, error)

	// RequireAdmin returns the caller if they hold the admin role.
	RequireAdmin(ctx context.Context) (*models.User, error)

	// RequireVendor returns the caller if they hold the vendor role.
	RequireVendor(ctx context.Context) (*models.User, error)

	// RequireAuthenticated returns the caller if they are signed in with any role.
	RequireAuthenticated(ctx context.Context) (*models.User, error)
}

type guard struct {
	jwksClient JWKSClientInterface
	users      repositories.UserRepository
	logger     *zap.Logger
}

// NewGuard creates a new authorization guard.
func NewGuard(jwksClient JWKSClientInterface, users repositories.UserRepository, logger *zap.Logger) Guard {
	return &guard{
		jwksClient: jwksClient,
		users:      users,
		logger:     logger.Named("auth-guard"),
	}
}

var _ Guard = (*guard)(nil)

// ResolveRequest extracts the bearer token, validates it, and resolves the
// subject to a local user record.
func (g *guard) ResolveRequest(r *http.Request) (*models.User, error) {
	tokenString := extractToken(r)
	if tokenString == "" {
		return nil, apperrors.ErrAuthRequired
	}

	claims, err := g.jwksClient.ValidateToken(tokenString)
	if err != nil {
		g.logger.Debug("Token validation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil, apperrors.ErrAuthRequired
	}

	user, err := g.lookupUser(r.Context(), claims)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Valid token, no provisioned user: fail closed.
			g.logger.Warn("Token subject has no user record",
				zap.String("subject", claims.Subject))
			return nil, apperrors.ErrAuthRequired
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAuthRequired
	}

	return user, nil
}

// lookupUser resolves claims to a user record, preferring the provider
// subject and falling back to email for pre-provisioned accounts.
func (g *guard) lookupUser(ctx context.Context, claims *Claims) (*models.User, error) {
	if claims.Subject != "" {
		user, err := g.users.GetByExternalID(ctx, claims.Subject)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	if claims.Email != "" {
		return g.users.GetByEmail(ctx, claims.Email)
	}

	return nil, apperrors.ErrNotFound
}

func (g *guard) RequireAuthenticated(ctx context.Context) (*models.User, error) {
	user, ok := GetIdentity(ctx)
	if !ok {
		return nil, apperrors.ErrAuthRequired
	}
	return user, nil
}

func (g *guard) RequireAdmin(ctx context.Context) (*models.User, error) {
	user, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}

func (g *guard) RequireVendor(ctx context.Context) (*models.User, error) {
	user, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleVendor {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}

// WithIdentity stores the resolved caller in the context.
func WithIdentity(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, IdentityKey, user)
}

// GetIdentity retrieves the resolved caller from the context.
// Returns nil and false for anonymous callers.
func GetIdentity(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(IdentityKey).(*models.User)
	return user, ok
}

// extractToken pulls the JWT from the "ivv_jwt" cookie (browser clients) or
// the Authorization header with Bearer scheme (API clients).
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("ivv_jwt"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}
