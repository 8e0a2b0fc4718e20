// Package models contains domain types for ivv-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project represents a government technology project under IV&V oversight.
type Project struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Agency           string     `json:"agency"`
	VendorName       string     `json:"vendor_name"`
	ContractOriginal float64    `json:"contract_original"`
	ContractPaid     float64    `json:"contract_paid"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	PlannedEndDate   *time.Time `json:"planned_end_date,omitempty"`
	ProjectedEndDate *time.Time `json:"projected_end_date,omitempty"`
	Status           string     `json:"status"` // 'On Track', 'At Risk', 'Critical'
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Project status constants.
const (
	ProjectStatusOnTrack  = "On Track"
	ProjectStatusAtRisk   = "At Risk"
	ProjectStatusCritical = "Critical"
)

// ValidProjectStatuses contains all valid project status values.
var ValidProjectStatuses = []string{ProjectStatusOnTrack, ProjectStatusAtRisk, ProjectStatusCritical}

// IsValidProjectStatus checks if the given status is valid.
func IsValidProjectStatus(status string) bool {
	for _, s := range ValidProjectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ProjectMember links a user to a project they work on.
type ProjectMember struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
