package models

import (
	"time"

	"github.com/google/uuid"
)

// Finding is a discrete risk or issue attached to a report. Findings belong
// to a report and carry the project reference for cross-report queries.
type Finding struct {
	ID        uuid.UUID `json:"id"`
	ReportID  uuid.UUID `json:"report_id"`
	ProjectID uuid.UUID `json:"project_id"`

	// Number orders findings within their report for display.
	Number int `json:"number"`

	Type           string `json:"type"`   // 'Risk' or 'Issue'
	Impact         string `json:"impact"` // 'Low', 'Medium', 'High'
	Likelihood     string `json:"likelihood"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Status         string `json:"status"` // 'Open', 'In Progress', 'Closed'

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Finding type values.
const (
	FindingTypeRisk  = "Risk"
	FindingTypeIssue = "Issue"
)

// Finding severity values, shared by impact and likelihood.
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// Finding workflow status values.
const (
	FindingStatusOpen       = "Open"
	FindingStatusInProgress = "In Progress"
	FindingStatusClosed     = "Closed"
)

// IsValidFindingType checks if the given finding type is valid.
func IsValidFindingType(t string) bool {
	return t == FindingTypeRisk || t == FindingTypeIssue
}

// IsValidSeverity checks if the given impact or likelihood value is valid.
func IsValidSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// IsValidFindingStatus checks if the given status is valid.
func IsValidFindingStatus(s string) bool {
	return s == FindingStatusOpen || s == FindingStatusInProgress || s == FindingStatusClosed
}
