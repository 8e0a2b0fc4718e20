package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a dashboard user provisioned through the identity provider.
type User struct {
	ID          uuid.UUID `json:"id"`
	ExternalID  string    `json:"external_id"` // identity provider subject
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        string    `json:"role"` // 'admin', 'vendor', 'user'
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role constants.
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
	RoleUser   = "user"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleVendor, RoleUser}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
