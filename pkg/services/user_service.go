package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
)

// IdentityEvent is a provisioning event pushed by the identity provider,
// already normalized from the provider's payload by the webhook handler.
type IdentityEvent struct {
	Kind        string // "user.created", "user.updated", "user.deleted"
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Identity event kinds.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// UserService manages user accounts: admin role management and the
// identity-provider webhook that provisions accounts.
type UserService interface {
	// List returns all users. Admin only.
	List(ctx context.Context, actor *models.User) ([]*models.User, error)

	// SetRole changes a user's role. Admin only.
	SetRole(ctx context.Context, actor *models.User, userID uuid.UUID, role string) (*models.User, error)

	// SetActive activates or deactivates a user. Admin only.
	SetActive(ctx context.Context, actor *models.User, userID uuid.UUID, active bool) (*models.User, error)

	// HandleIdentityEvent applies a provisioning event from the identity
	// provider. Authenticated by webhook signature, not by a user token.
	HandleIdentityEvent(ctx context.Context, event *IdentityEvent) error

	// ListActivity returns the newest audit entries. Admin only.
	ListActivity(ctx context.Context, actor *models.User, limit int) ([]*models.ActivityEntry, error)
}

type userService struct {
	users    repositories.UserRepository
	activity repositories.ActivityRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repositories.UserRepository, activity repositories.ActivityRepository, logger *zap.Logger) UserService {
	return &userService{
		users:    users,
		activity: activity,
		logger:   logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) List(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *userService) SetRole(ctx context.Context, actor *models.User, userID uuid.UUID, role string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: invalid role %q", apperrors.ErrValidation, role)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionUpdate, models.EntityTypeUser,
		user.ID, actor.ID, fmt.Sprintf("Role changed to %s for %s", role, user.Email))

	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role))

	return user, nil
}

func (s *userService) SetActive(ctx context.Context, actor *models.User, userID uuid.UUID, active bool) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	recordActivity(ctx, s.activity, s.logger, models.ActionUpdate, models.EntityTypeUser,
		user.ID, actor.ID, fmt.Sprintf("User %s: %s", state, user.Email))

	return user, nil
}

// HandleIdentityEvent applies a provisioning event.
//
// Creation first matches on email so that admins can pre-provision accounts
// with roles and memberships before the person's first sign-in; the event
// then just binds the provider subject to the existing row. Updates and
// deletions match on the provider subject. Deletion is a soft delete: the
// row is kept for audit history, deactivated, and stripped of privileges.
func (s *userService) HandleIdentityEvent(ctx context.Context, event *IdentityEvent) error {
	if event == nil || event.ExternalID == "" {
		return fmt.Errorf("%w: event requires an external_id", apperrors.ErrValidation)
	}

	switch event.Kind {
	case EventUserCreated:
		return s.provisionUser(ctx, event)
	case EventUserUpdated:
		return s.updateUser(ctx, event)
	case EventUserDeleted:
		return s.deleteUser(ctx, event)
	default:
		return fmt.Errorf("%w: unknown event kind %q", apperrors.ErrValidation, event.Kind)
	}
}

func (s *userService) provisionUser(ctx context.Context, event *IdentityEvent) error {
	if event.Email == "" {
		return fmt.Errorf("%w: user.created requires an email", apperrors.ErrValidation)
	}

	existing, err := s.users.GetByEmail(ctx, event.Email)
	if err == nil {
		// Pre-provisioned account: bind the subject, keep role and status.
		existing.ExternalID = event.ExternalID
		if event.DisplayName != "" {
			existing.DisplayName = event.DisplayName
		}
		if event.AvatarURL != "" {
			existing.AvatarURL = event.AvatarURL
		}
		if err := s.users.Update(ctx, existing); err != nil {
			return err
		}
		s.logger.Info("Bound identity to pre-provisioned user",
			zap.String("user_id", existing.ID.String()))
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	user := &models.User{
		ExternalID:  event.ExternalID,
		Email:       event.Email,
		DisplayName: event.DisplayName,
		AvatarURL:   event.AvatarURL,
		Role:        models.RoleUser,
		IsActive:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent duplicate event already provisioned this user.
		if errors.Is(err, apperrors.ErrConflict) {
			return nil
		}
		return err
	}

	s.logger.Info("User provisioned",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))
	return nil
}

func (s *userService) updateUser(ctx context.Context, event *IdentityEvent) error {
	user, err := s.users.GetByExternalID(ctx, event.ExternalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Out-of-order delivery: treat as creation.
			return s.provisionUser(ctx, event)
		}
		return err
	}

	if event.Email != "" {
		user.Email = event.Email
	}
	if event.DisplayName != "" {
		user.DisplayName = event.DisplayName
	}
	if event.AvatarURL != "" {
		user.AvatarURL = event.AvatarURL
	}

	return s.users.Update(ctx, user)
}

func (s *userService) deleteUser(ctx context.Context, event *IdentityEvent) error {
	user, err := s.users.GetByExternalID(ctx, event.ExternalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	user.IsActive = false
	user.Role = models.RoleUser
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("User deactivated by identity provider",
		zap.String("user_id", user.ID.String()))
	return nil
}

func (s *userService) ListActivity(ctx context.Context, actor *models.User, limit int) ([]*models.ActivityEntry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.activity.List(ctx, limit)
}
