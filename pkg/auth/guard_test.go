package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

// mockJWKSClient validates any token present in its map.
type mockJWKSClient struct {
	tokens map[string]*Claims
}

func (m *mockJWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	claims, ok := m.tokens[tokenString]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// mockUserRepo implements the subset of user lookups the guard needs.
type mockUserRepo struct {
	byExternalID map[string]*models.User
	byEmail      map[string]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byExternalID: make(map[string]*models.User),
		byEmail:      make(map[string]*models.User),
	}
}

func (m *mockUserRepo) add(user *models.User) {
	if user.ExternalID != "" {
		m.byExternalID[user.ExternalID] = user
	}
	m.byEmail[user.Email] = user
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepo) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, apperrors.ErrNotFound
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}
func (m *mockUserRepo) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if u, ok := m.byExternalID[externalID]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}
func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepo) List(ctx context.Context) ([]*models.User, error)    { return nil, nil }

func claimsFor(subject, email string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Email:            email,
	}
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestResolveRequestBySubject(t *testing.T) {
	users := newMockUserRepo()
	user := &models.User{ID: uuid.New(), ExternalID: "auth0|1", Email: "a@b.c",
		Role: models.RoleVendor, IsActive: true}
	users.add(user)

	jwks := &mockJWKSClient{tokens: map[string]*Claims{"tok": claimsFor("auth0|1", "a@b.c")}}
	guard := NewGuard(jwks, users, zap.NewNop())

	resolved, err := guard.ResolveRequest(requestWithToken("tok"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestResolveRequestEmailFallback(t *testing.T) {
	users := newMockUserRepo()
	// Pre-provisioned user with no external subject bound yet.
	user := &models.User{ID: uuid.New(), Email: "pre@b.c", Role: models.RoleVendor, IsActive: true}
	users.add(user)

	jwks := &mockJWKSClient{tokens: map[string]*Claims{"tok": claimsFor("auth0|new", "pre@b.c")}}
	guard := NewGuard(jwks, users, zap.NewNop())

	resolved, err := guard.ResolveRequest(requestWithToken("tok"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestResolveRequestFailsClosed(t *testing.T) {
	users := newMockUserRepo()
	jwks := &mockJWKSClient{tokens: map[string]*Claims{
		"valid-no-user": claimsFor("auth0|ghost", "ghost@b.c"),
	}}
	guard := NewGuard(jwks, users, zap.NewNop())

	// Valid token, no user record.
	_, err := guard.ResolveRequest(requestWithToken("valid-no-user"))
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	// Invalid token.
	_, err = guard.ResolveRequest(requestWithToken("forged"))
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	// No token at all.
	_, err = guard.ResolveRequest(requestWithToken(""))
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestResolveRequestRejectsInactiveUser(t *testing.T) {
	users := newMockUserRepo()
	users.add(&models.User{ID: uuid.New(), ExternalID: "auth0|off", Email: "off@b.c",
		Role: models.RoleAdmin, IsActive: false})

	jwks := &mockJWKSClient{tokens: map[string]*Claims{"tok": claimsFor("auth0|off", "off@b.c")}}
	guard := NewGuard(jwks, users, zap.NewNop())

	_, err := guard.ResolveRequest(requestWithToken("tok"))
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestResolveRequestCookieToken(t *testing.T) {
	users := newMockUserRepo()
	user := &models.User{ID: uuid.New(), ExternalID: "auth0|1", Email: "a@b.c",
		Role: models.RoleUser, IsActive: true}
	users.add(user)

	jwks := &mockJWKSClient{tokens: map[string]*Claims{"cookie-tok": claimsFor("auth0|1", "a@b.c")}}
	guard := NewGuard(jwks, users, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "ivv_jwt", Value: "cookie-tok"})

	resolved, err := guard.ResolveRequest(req)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestRoleRequirements(t *testing.T) {
	guard := NewGuard(&mockJWKSClient{}, newMockUserRepo(), zap.NewNop())

	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin, IsActive: true}
	vendor := &models.User{ID: uuid.New(), Role: models.RoleVendor, IsActive: true}

	adminCtx := WithIdentity(context.Background(), admin)
	vendorCtx := WithIdentity(context.Background(), vendor)

	_, err := guard.RequireAdmin(adminCtx)
	assert.NoError(t, err)
	_, err = guard.RequireAdmin(vendorCtx)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = guard.RequireAdmin(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	_, err = guard.RequireVendor(vendorCtx)
	assert.NoError(t, err)
	_, err = guard.RequireVendor(adminCtx)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = guard.RequireAuthenticated(vendorCtx)
	assert.NoError(t, err)
}
