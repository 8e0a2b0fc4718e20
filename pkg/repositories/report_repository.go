package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/database"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

// ReportFilter narrows public report listings. Zero values mean "no filter".
type ReportFilter struct {
	Agency string
	Vendor string
	Year   int
	Month  int
	Status string // current_status rating
	Query  string // free-text match against summary and narrative fields
}

// PublicFilters holds the aggregate filter metadata for the public surface.
type PublicFilters struct {
	Agencies []string `json:"agencies"`
	Vendors  []string `json:"vendors"`
	Periods  []string `json:"periods"` // "YYYY-MM", newest first
}

// ReportRepository defines the interface for report data access.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
	// SetApproval flips approved and published together in a single statement
	// and returns the updated report. The two flags never diverge.
	SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Report, error)
	SetFinalAttachment(ctx context.Context, id uuid.UUID, attachmentID string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error)
	ListPublished(ctx context.Context, filter *ReportFilter) ([]*models.ReportWithProject, error)
	// ListAttachmentRefs returns every blob reference reachable from a report.
	ListAttachmentRefs(ctx context.Context) ([]string, error)
	GetPublicFilters(ctx context.Context) (*PublicFilters, error)
}

// reportRepository implements ReportRepository using PostgreSQL.
type reportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *database.DB) ReportRepository {
	return &reportRepository{db: db}
}

const reportColumns = `id, project_id, author_id, report_month, report_year,
	summary, accomplishments, challenges, milestones, budget_notes, schedule_notes, risk_notes,
	current_status, team_performance, project_management, technical_readiness,
	attachment_id, final_attachment_id, approved, published, created_at, updated_at`

func scanReport(row pgx.Row) (*models.Report, error) {
	var rep models.Report
	err := row.Scan(&rep.ID, &rep.ProjectID, &rep.AuthorID, &rep.ReportMonth, &rep.ReportYear,
		&rep.Summary, &rep.Accomplishments, &rep.Challenges, &rep.Milestones,
		&rep.BudgetNotes, &rep.ScheduleNotes, &rep.RiskNotes,
		&rep.CurrentStatus, &rep.TeamPerformance, &rep.ProjectManagement, &rep.TechnicalReadiness,
		&rep.AttachmentID, &rep.FinalAttachmentID, &rep.Approved, &rep.Published,
		&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// Create inserts a new report in the pending state.
// The unique (project, year, month) index enforces period uniqueness at write
// time, so a concurrent duplicate submission surfaces as ErrConflict here.
func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now
	report.Approved = false
	report.Published = false

	query := `
		INSERT INTO reports (id, project_id, author_id, report_month, report_year,
			summary, accomplishments, challenges, milestones, budget_notes, schedule_notes, risk_notes,
			current_status, team_performance, project_management, technical_readiness,
			attachment_id, final_attachment_id, approved, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := r.db.Exec(ctx, query,
		report.ID, report.ProjectID, report.AuthorID, report.ReportMonth, report.ReportYear,
		report.Summary, report.Accomplishments, report.Challenges, report.Milestones,
		report.BudgetNotes, report.ScheduleNotes, report.RiskNotes,
		report.CurrentStatus, report.TeamPerformance, report.ProjectManagement, report.TechnicalReadiness,
		report.AttachmentID, report.FinalAttachmentID, report.Approved, report.Published,
		report.CreatedAt, report.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// Get retrieves a report by ID.
func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	rep, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

// SetApproval updates approved and published in one atomic statement.
func (r *reportRepository) SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Report, error) {
	query := `
		UPDATE reports
		SET approved = $2, published = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + reportColumns

	rep, err := scanReport(r.db.QueryRow(ctx, query, id, approved, time.Now()))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set report approval: %w", err)
	}
	return rep, nil
}

// SetFinalAttachment sets the optional final attachment reference.
func (r *reportRepository) SetFinalAttachment(ctx context.Context, id uuid.UUID, attachmentID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE reports SET final_attachment_id = $2, updated_at = $3 WHERE id = $1`,
		id, attachmentID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set final attachment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a report by ID.
// Related findings and comments are deleted via CASCADE.
func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ListByProject returns all reports for a project, newest period first.
func (r *reportRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE project_id = $1
		ORDER BY report_year DESC, report_month DESC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

// ListPublished returns published reports joined with their project's public
// fields, optionally narrowed by filter. Only published rows are ever read.
func (r *reportRepository) ListPublished(ctx context.Context, filter *ReportFilter) ([]*models.ReportWithProject, error) {
	query := `
		SELECT r.id, r.project_id, r.author_id, r.report_month, r.report_year,
		       r.summary, r.accomplishments, r.challenges, r.milestones,
		       r.budget_notes, r.schedule_notes, r.risk_notes,
		       r.current_status, r.team_performance, r.project_management, r.technical_readiness,
		       r.attachment_id, r.final_attachment_id, r.approved, r.published,
		       r.created_at, r.updated_at,
		       p.name, p.agency, p.vendor_name, p.status
		FROM reports r
		JOIN projects p ON p.id = r.project_id
		WHERE r.published`

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Agency != "" {
			query += ` AND p.agency = ` + arg(filter.Agency)
		}
		if filter.Vendor != "" {
			query += ` AND p.vendor_name = ` + arg(filter.Vendor)
		}
		if filter.Year != 0 {
			query += ` AND r.report_year = ` + arg(filter.Year)
		}
		if filter.Month != 0 {
			query += ` AND r.report_month = ` + arg(filter.Month)
		}
		if filter.Status != "" {
			query += ` AND r.current_status = ` + arg(filter.Status)
		}
		if filter.Query != "" {
			p := arg("%" + filter.Query + "%")
			query += ` AND (r.summary ILIKE ` + p + ` OR r.accomplishments ILIKE ` + p +
				` OR r.challenges ILIKE ` + p + ` OR p.name ILIKE ` + p + `)`
		}
	}

	query += ` ORDER BY r.report_year DESC, r.report_month DESC, p.name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list published reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.ReportWithProject
	for rows.Next() {
		var rp models.ReportWithProject
		err := rows.Scan(&rp.ID, &rp.ProjectID, &rp.AuthorID, &rp.ReportMonth, &rp.ReportYear,
			&rp.Summary, &rp.Accomplishments, &rp.Challenges, &rp.Milestones,
			&rp.BudgetNotes, &rp.ScheduleNotes, &rp.RiskNotes,
			&rp.CurrentStatus, &rp.TeamPerformance, &rp.ProjectManagement, &rp.TechnicalReadiness,
			&rp.AttachmentID, &rp.FinalAttachmentID, &rp.Approved, &rp.Published,
			&rp.CreatedAt, &rp.UpdatedAt,
			&rp.ProjectName, &rp.Agency, &rp.VendorName, &rp.ProjectStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to scan published report: %w", err)
		}
		reports = append(reports, &rp)
	}

	return reports, rows.Err()
}

// ListAttachmentRefs returns all blob references held by live reports.
func (r *reportRepository) ListAttachmentRefs(ctx context.Context) ([]string, error) {
	query := `
		SELECT attachment_id FROM reports
		UNION
		SELECT final_attachment_id FROM reports WHERE final_attachment_id IS NOT NULL`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachment refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan attachment ref: %w", err)
		}
		if ref != "" {
			refs = append(refs, ref)
		}
	}

	return refs, rows.Err()
}

// GetPublicFilters returns the distinct filter dimensions of published reports.
func (r *reportRepository) GetPublicFilters(ctx context.Context) (*PublicFilters, error) {
	filters := &PublicFilters{}

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT p.agency, p.vendor_name
		FROM reports r JOIN projects p ON p.id = r.project_id
		WHERE r.published
		ORDER BY p.agency, p.vendor_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter metadata: %w", err)
	}
	defer rows.Close()

	agencies := map[string]bool{}
	vendors := map[string]bool{}
	for rows.Next() {
		var agency, vendor string
		if err := rows.Scan(&agency, &vendor); err != nil {
			return nil, fmt.Errorf("failed to scan filter metadata: %w", err)
		}
		if agency != "" && !agencies[agency] {
			agencies[agency] = true
			filters.Agencies = append(filters.Agencies, agency)
		}
		if vendor != "" && !vendors[vendor] {
			vendors[vendor] = true
			filters.Vendors = append(filters.Vendors, vendor)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	periodRows, err := r.db.Query(ctx, `
		SELECT DISTINCT report_year, report_month FROM reports
		WHERE published
		ORDER BY report_year DESC, report_month DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query report periods: %w", err)
	}
	defer periodRows.Close()

	for periodRows.Next() {
		var year, month int
		if err := periodRows.Scan(&year, &month); err != nil {
			return nil, fmt.Errorf("failed to scan report period: %w", err)
		}
		filters.Periods = append(filters.Periods, fmt.Sprintf("%04d-%02d", year, month))
	}

	return filters, periodRows.Err()
}

// Ensure reportRepository implements ReportRepository at compile time.
var _ ReportRepository = (*reportRepository)(nil)
