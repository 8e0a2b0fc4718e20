package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/database"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

// FindingRepository defines the interface for finding data access.
type FindingRepository interface {
	Create(ctx context.Context, finding *models.Finding) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Finding, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Finding, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// findingRepository implements FindingRepository using PostgreSQL.
type findingRepository struct {
	db *database.DB
}

// NewFindingRepository creates a new finding repository.
func NewFindingRepository(db *database.DB) FindingRepository {
	return &findingRepository{db: db}
}

const findingColumns = `id, report_id, project_id, number, type, impact, likelihood,
	description, recommendation, status, created_at, updated_at`

func scanFinding(row pgx.Row) (*models.Finding, error) {
	var f models.Finding
	err := row.Scan(&f.ID, &f.ReportID, &f.ProjectID, &f.Number, &f.Type,
		&f.Impact, &f.Likelihood, &f.Description, &f.Recommendation, &f.Status,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new finding.
func (r *findingRepository) Create(ctx context.Context, finding *models.Finding) error {
	if finding.ID == uuid.Nil {
		finding.ID = uuid.New()
	}
	if finding.Status == "" {
		finding.Status = models.FindingStatusOpen
	}

	now := time.Now()
	finding.CreatedAt = now
	finding.UpdatedAt = now

	query := `
		INSERT INTO findings (id, report_id, project_id, number, type, impact, likelihood,
			description, recommendation, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		finding.ID, finding.ReportID, finding.ProjectID, finding.Number, finding.Type,
		finding.Impact, finding.Likelihood, finding.Description, finding.Recommendation,
		finding.Status, finding.CreatedAt, finding.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create finding: %w", err)
	}

	return nil
}

// ListByReport returns all findings for a report ordered by finding number.
func (r *findingRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Finding, error) {
	query := `SELECT ` + findingColumns + ` FROM findings WHERE report_id = $1 ORDER BY number`

	rows, err := r.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	var findings []*models.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}

	return findings, rows.Err()
}

// ListByProject returns all findings for a project across its reports.
// Uses the denormalized project_id column so no join is needed.
func (r *findingRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Finding, error) {
	query := `SELECT ` + findingColumns + ` FROM findings WHERE project_id = $1 ORDER BY created_at, number`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings by project: %w", err)
	}
	defer rows.Close()

	var findings []*models.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}

	return findings, rows.Err()
}

// UpdateStatus updates a finding's workflow status.
func (r *findingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE findings SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update finding status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Ensure findingRepository implements FindingRepository at compile time.
var _ FindingRepository = (*findingRepository)(nil)
