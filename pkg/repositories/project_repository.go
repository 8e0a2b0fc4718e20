package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/database"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Project, error)

	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct {
	db *database.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, name, description, agency, vendor_name, contract_original, contract_paid,
	start_date, planned_end_date, projected_end_date, status, is_active, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Agency, &p.VendorName,
		&p.ContractOriginal, &p.ContractPaid,
		&p.StartDate, &p.PlannedEndDate, &p.ProjectedEndDate,
		&p.Status, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusOnTrack
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	query := `
		INSERT INTO projects (id, name, description, agency, vendor_name,
			contract_original, contract_paid, start_date, planned_end_date, projected_end_date,
			status, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		project.ID, project.Name, project.Description, project.Agency, project.VendorName,
		project.ContractOriginal, project.ContractPaid,
		project.StartDate, project.PlannedEndDate, project.ProjectedEndDate,
		project.Status, project.IsActive, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID.
func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// Update updates an existing project.
func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()

	query := `
		UPDATE projects
		SET name = $2, description = $3, agency = $4, vendor_name = $5,
		    contract_original = $6, contract_paid = $7,
		    start_date = $8, planned_end_date = $9, projected_end_date = $10,
		    status = $11, is_active = $12, updated_at = $13
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		project.ID, project.Name, project.Description, project.Agency, project.VendorName,
		project.ContractOriginal, project.ContractPaid,
		project.StartDate, project.PlannedEndDate, project.ProjectedEndDate,
		project.Status, project.IsActive, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Delete removes a project by ID.
// Related reports, findings, comments and memberships are deleted via CASCADE.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// List returns all projects ordered by name.
func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// AddMember adds a user to a project. Adding an existing member is a no-op.
func (r *projectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `
		INSERT INTO project_members (project_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, projectID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add project member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a project.
func (r *projectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove project member: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// IsMember reports whether the user belongs to the project.
func (r *projectRepository) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`,
		projectID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check project membership: %w", err)
	}
	return exists, nil
}

// ListMembers returns all memberships for a project.
func (r *projectRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT project_id, user_id, created_at FROM project_members WHERE project_id = $1 ORDER BY created_at`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	var members []*models.ProjectMember
	for rows.Next() {
		var m models.ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		members = append(members, &m)
	}

	return members, rows.Err()
}

// ListForUser returns all projects the user is a member of.
func (r *projectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.agency, p.vendor_name,
		       p.contract_original, p.contract_paid,
		       p.start_date, p.planned_end_date, p.projected_end_date,
		       p.status, p.is_active, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members pm ON pm.project_id = p.id
		WHERE pm.user_id = $1
		ORDER BY p.name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for user: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// Ensure projectRepository implements ProjectRepository at compile time.
var _ ProjectRepository = (*projectRepository)(nil)
