package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report is one vendor's monthly assessment of a project. A report belongs to
// exactly one project and covers exactly one month; at most one report may
// exist per project per month.
type Report struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	AuthorID  uuid.UUID `json:"author_id"`

	ReportMonth int `json:"report_month"` // 1-12
	ReportYear  int `json:"report_year"`

	Summary         string `json:"summary"`
	Accomplishments string `json:"accomplishments"`
	Challenges      string `json:"challenges"`
	Milestones      string `json:"milestones"`
	BudgetNotes     string `json:"budget_notes"`
	ScheduleNotes   string `json:"schedule_notes"`
	RiskNotes       string `json:"risk_notes"`

	CurrentStatus      string `json:"current_status"`
	TeamPerformance    string `json:"team_performance"`
	ProjectManagement  string `json:"project_management"`
	TechnicalReadiness string `json:"technical_readiness"`

	// AttachmentID references the source document in blob storage.
	AttachmentID string `json:"attachment_id"`
	// FinalAttachmentID optionally references a polished final document.
	FinalAttachmentID *string `json:"final_attachment_id,omitempty"`

	// Approved and Published are always equal; approval is what publishes a
	// report, and revoking approval unpublishes it.
	Approved  bool `json:"approved"`
	Published bool `json:"published"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating values for the per-dimension report assessments.
const (
	RatingOnTrack     = "On Track"
	RatingMinorIssues = "Minor Issues"
	RatingCritical    = "Critical"
)

// ValidRatings contains all valid rating values.
var ValidRatings = []string{RatingOnTrack, RatingMinorIssues, RatingCritical}

// IsValidRating checks if the given rating is valid.
func IsValidRating(rating string) bool {
	for _, r := range ValidRatings {
		if r == rating {
			return true
		}
	}
	return false
}

// Period returns the report's month formatted as "YYYY-MM".
func (r *Report) Period() string {
	return fmt.Sprintf("%04d-%02d", r.ReportYear, r.ReportMonth)
}

// AttachmentRefs returns the blob references held by this report.
func (r *Report) AttachmentRefs() []string {
	refs := make([]string, 0, 2)
	if r.AttachmentID != "" {
		refs = append(refs, r.AttachmentID)
	}
	if r.FinalAttachmentID != nil && *r.FinalAttachmentID != "" {
		refs = append(refs, *r.FinalAttachmentID)
	}
	return refs
}
