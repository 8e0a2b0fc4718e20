package services

import (
	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

// requireAdmin distinguishes a missing identity from an insufficient role:
// no actor means the caller never authenticated, a non-admin actor is a
// denied authorization.
func requireAdmin(actor *models.User) error {
	if actor == nil {
		return apperrors.ErrAuthRequired
	}
	if actor.Role != models.RoleAdmin {
		return apperrors.ErrForbidden
	}
	return nil
}
