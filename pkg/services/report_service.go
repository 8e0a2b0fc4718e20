package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
)

// ReportIndexer keeps the semantic index in step with the report lifecycle.
// Implemented by the search service; reports enter the index when published
// and leave it the moment they are unpublished or deleted.
type ReportIndexer interface {
	IndexReport(ctx context.Context, report *models.Report, project *models.Project) error
	RemoveReport(reportID uuid.UUID)
}

// SubmitReportInput carries a vendor's monthly report submission.
type SubmitReportInput struct {
	ProjectID   uuid.UUID `json:"project_id"`
	ReportMonth int       `json:"report_month"`
	ReportYear  int       `json:"report_year"`

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

	AttachmentID string `json:"attachment_id"`

	Findings []SubmitFindingInput `json:"findings"`
}

// SubmitFindingInput is a finding submitted together with its report.
type SubmitFindingInput struct {
	Type           string `json:"type"`
	Impact         string `json:"impact"`
	Likelihood     string `json:"likelihood"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// ReportService handles the report lifecycle: submission, approval,
// unapproval, deletion and the read surfaces that hang off them.
type ReportService interface {
	// Submit creates a pending report for a project the vendor belongs to.
	Submit(ctx context.Context, actor *models.User, input *SubmitReportInput) (*models.Report, error)

	// Get returns a report the actor is allowed to see. Published reports are
	// visible to everyone; pending reports only to admins and project members.
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error)

	// Approve publishes a pending report. Admin only. Idempotent.
	Approve(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error)

	// Unapprove retracts a published report back to pending. Admin only.
	Unapprove(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error)

	// Delete permanently removes a report and its findings and comments.
	// Admin only. Attachment blobs are left for the reaper.
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error

	// AttachFinal records a polished final document on a report.
	AttachFinal(ctx context.Context, actor *models.User, id uuid.UUID, attachmentID string) error

	// ListForProject returns all of a project's reports for members and admins.
	ListForProject(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]*models.Report, error)

	// ListPublished returns the filtered public report listing.
	ListPublished(ctx context.Context, filter *repositories.ReportFilter) ([]*models.ReportWithProject, error)

	// PublicFilters returns the filter dimensions of the public surface.
	PublicFilters(ctx context.Context) (*repositories.PublicFilters, error)

	// ListFindings returns a report's findings, subject to report visibility.
	ListFindings(ctx context.Context, actor *models.User, reportID uuid.UUID) ([]*models.Finding, error)

	// UpdateFindingStatus moves a finding through its workflow.
	UpdateFindingStatus(ctx context.Context, actor *models.User, reportID, findingID uuid.UUID, status string) error
}

type reportService struct {
	reports  repositories.ReportRepository
	projects repositories.ProjectRepository
	findings repositories.FindingRepository
	activity repositories.ActivityRepository
	indexer  ReportIndexer
	logger   *zap.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	reports repositories.ReportRepository,
	projects repositories.ProjectRepository,
	findings repositories.FindingRepository,
	activity repositories.ActivityRepository,
	indexer ReportIndexer,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		reports:  reports,
		projects: projects,
		findings: findings,
		activity: activity,
		indexer:  indexer,
		logger:   logger.Named("report-service"),
	}
}

var _ ReportService = (*reportService)(nil)

// Submit validates and stores a new pending report with its findings.
func (s *reportService) Submit(ctx context.Context, actor *models.User, input *SubmitReportInput) (*models.Report, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthRequired
	}
	if actor.Role != models.RoleVendor && actor.Role != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	// Vendors may only report on projects they are assigned to.
	if actor.Role == models.RoleVendor {
		member, err := s.projects.IsMember(ctx, project.ID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.ErrForbidden
		}
	}

	report := &models.Report{
		ProjectID:          project.ID,
		AuthorID:           actor.ID,
		ReportMonth:        input.ReportMonth,
		ReportYear:         input.ReportYear,
		Summary:            input.Summary,
		Accomplishments:    input.Accomplishments,
		Challenges:         input.Challenges,
		Milestones:         input.Milestones,
		BudgetNotes:        input.BudgetNotes,
		ScheduleNotes:      input.ScheduleNotes,
		RiskNotes:          input.RiskNotes,
		CurrentStatus:      input.CurrentStatus,
		TeamPerformance:    input.TeamPerformance,
		ProjectManagement:  input.ProjectManagement,
		TechnicalReadiness: input.TechnicalReadiness,
		AttachmentID:       input.AttachmentID,
	}

	if err := s.reports.Create(ctx, report); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: a report for %s already exists", apperrors.ErrConflict, report.Period())
		}
		return nil, err
	}

	for i, fi := range input.Findings {
		finding := &models.Finding{
			ReportID:       report.ID,
			ProjectID:      project.ID,
			Number:         i + 1,
			Type:           fi.Type,
			Impact:         fi.Impact,
			Likelihood:     fi.Likelihood,
			Description:    fi.Description,
			Recommendation: fi.Recommendation,
		}
		if err := s.findings.Create(ctx, finding); err != nil {
			return nil, fmt.Errorf("failed to store finding %d: %w", i+1, err)
		}
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionCreation, models.EntityTypeReport,
		report.ID, actor.ID,
		fmt.Sprintf("Report submitted for %s (%s)", project.Name, report.Period()))

	s.logger.Info("Report submitted",
		zap.String("report_id", report.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.String("period", report.Period()))

	return report, nil
}

// validateSubmission checks a submission's required fields and enum values.
func validateSubmission(input *SubmitReportInput) error {
	if input.ProjectID == uuid.Nil {
		return fmt.Errorf("%w: project_id is required", apperrors.ErrValidation)
	}
	if input.ReportMonth < 1 || input.ReportMonth > 12 {
		return fmt.Errorf("%w: report_month must be 1-12", apperrors.ErrValidation)
	}
	if input.ReportYear < 2000 || input.ReportYear > time.Now().Year()+1 {
		return fmt.Errorf("%w: report_year out of range", apperrors.ErrValidation)
	}
	if input.Summary == "" {
		return fmt.Errorf("%w: summary is required", apperrors.ErrValidation)
	}
	if input.AttachmentID == "" {
		return fmt.Errorf("%w: attachment_id is required", apperrors.ErrValidation)
	}

	for field, value := range map[string]string{
		"current_status":      input.CurrentStatus,
		"team_performance":    input.TeamPerformance,
		"project_management":  input.ProjectManagement,
		"technical_readiness": input.TechnicalReadiness,
	} {
		if !models.IsValidRating(value) {
			return fmt.Errorf("%w: invalid %s rating %q", apperrors.ErrValidation, field, value)
		}
	}

	for i, f := range input.Findings {
		if !models.IsValidFindingType(f.Type) {
			return fmt.Errorf("%w: finding %d has invalid type %q", apperrors.ErrValidation, i+1, f.Type)
		}
		if !models.IsValidSeverity(f.Impact) {
			return fmt.Errorf("%w: finding %d has invalid impact %q", apperrors.ErrValidation, i+1, f.Impact)
		}
		if !models.IsValidSeverity(f.Likelihood) {
			return fmt.Errorf("%w: finding %d has invalid likelihood %q", apperrors.ErrValidation, i+1, f.Likelihood)
		}
		if f.Description == "" {
			return fmt.Errorf("%w: finding %d is missing a description", apperrors.ErrValidation, i+1)
		}
	}

	return nil
}

// Get enforces visibility: published reports are public, pending reports are
// restricted to admins and members of the owning project.
func (s *reportService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error) {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.Published {
		return report, nil
	}

	if err := s.requireReportAccess(ctx, actor, report); err != nil {
		return nil, err
	}
	return report, nil
}

// requireReportAccess checks that the actor may see an unpublished report.
// Unauthenticated callers get ErrNotFound rather than ErrForbidden so the
// public surface does not leak which pending reports exist.
func (s *reportService) requireReportAccess(ctx context.Context, actor *models.User, report *models.Report) error {
	if actor == nil {
		return apperrors.ErrNotFound
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}

	member, err := s.projects.IsMember(ctx, report.ProjectID, actor.ID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrNotFound
	}
	return nil
}

// Approve publishes a report. Approving an already published report is a no-op.
func (s *reportService) Approve(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	report, err := s.reports.SetApproval(ctx, id, true)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, report.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := s.indexer.IndexReport(ctx, report, project); err != nil {
		// The report is published regardless; the index catches up on the
		// next rebuild.
		s.logger.Error("Failed to index published report",
			zap.String("report_id", report.ID.String()),
			zap.Error(err))
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionUpdate, models.EntityTypeReport,
		report.ID, actor.ID,
		fmt.Sprintf("Report approved and published for %s (%s)", project.Name, report.Period()))

	s.logger.Info("Report approved",
		zap.String("report_id", report.ID.String()),
		zap.String("period", report.Period()))

	return report, nil
}

// Unapprove retracts a report from the public surface.
func (s *reportService) Unapprove(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	report, err := s.reports.SetApproval(ctx, id, false)
	if err != nil {
		return nil, err
	}

	// Remove from the index before anything else observes the report as
	// unpublished; retrieval must never surface a retracted report.
	s.indexer.RemoveReport(report.ID)

	recordActivity(ctx, s.activity, s.logger, models.ActionUpdate, models.EntityTypeReport,
		report.ID, actor.ID,
		fmt.Sprintf("Report unapproved and unpublished (%s)", report.Period()))

	s.logger.Info("Report unapproved",
		zap.String("report_id", report.ID.String()),
		zap.String("period", report.Period()))

	return report, nil
}

// Delete removes a report; findings and comments go with it via the store.
func (s *reportService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}

	s.indexer.RemoveReport(id)

	recordActivity(ctx, s.activity, s.logger, models.ActionDeletion, models.EntityTypeReport,
		id, actor.ID,
		fmt.Sprintf("Report deleted (%s)", report.Period()))

	s.logger.Info("Report deleted",
		zap.String("report_id", id.String()),
		zap.String("period", report.Period()))

	return nil
}

// AttachFinal records the final document reference on a report.
func (s *reportService) AttachFinal(ctx context.Context, actor *models.User, id uuid.UUID, attachmentID string) error {
	if actor == nil {
		return apperrors.ErrAuthRequired
	}
	if attachmentID == "" {
		return fmt.Errorf("%w: attachment_id is required", apperrors.ErrValidation)
	}

	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != models.RoleAdmin {
		if err := s.requireReportAccess(ctx, actor, report); err != nil {
			return err
		}
	}

	return s.reports.SetFinalAttachment(ctx, id, attachmentID)
}

// ListForProject returns a project's reports for its members and admins.
func (s *reportService) ListForProject(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]*models.Report, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthRequired
	}

	if actor.Role != models.RoleAdmin {
		member, err := s.projects.IsMember(ctx, projectID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.ErrForbidden
		}
	}

	return s.reports.ListByProject(ctx, projectID)
}

// ListPublished returns the public listing; no authentication required.
func (s *reportService) ListPublished(ctx context.Context, filter *repositories.ReportFilter) ([]*models.ReportWithProject, error) {
	return s.reports.ListPublished(ctx, filter)
}

// PublicFilters returns the public surface's filter metadata.
func (s *reportService) PublicFilters(ctx context.Context) (*repositories.PublicFilters, error) {
	return s.reports.GetPublicFilters(ctx)
}

// ListFindings returns a report's findings under the same visibility rules
// as the report itself.
func (s *reportService) ListFindings(ctx context.Context, actor *models.User, reportID uuid.UUID) ([]*models.Finding, error) {
	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if !report.Published {
		if err := s.requireReportAccess(ctx, actor, report); err != nil {
			return nil, err
		}
	}

	return s.findings.ListByReport(ctx, reportID)
}

// UpdateFindingStatus moves a finding to a new workflow status. Admins and
// members of the owning project may update findings.
func (s *reportService) UpdateFindingStatus(ctx context.Context, actor *models.User, reportID, findingID uuid.UUID, status string) error {
	if actor == nil {
		return apperrors.ErrAuthRequired
	}
	if !models.IsValidFindingStatus(status) {
		return fmt.Errorf("%w: invalid finding status %q", apperrors.ErrValidation, status)
	}

	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return err
	}

	if actor.Role != models.RoleAdmin {
		member, err := s.projects.IsMember(ctx, report.ProjectID, actor.ID)
		if err != nil {
			return err
		}
		if !member {
			return apperrors.ErrForbidden
		}
	}

	return s.findings.UpdateStatus(ctx, findingID, status)
}
