package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
)

// ProjectInput carries project create/update fields.
type ProjectInput struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Agency           string  `json:"agency"`
	VendorName       string  `json:"vendor_name"`
	ContractOriginal float64 `json:"contract_original"`
	ContractPaid     float64 `json:"contract_paid"`
	StartDate        *string `json:"start_date,omitempty"`
	PlannedEndDate   *string `json:"planned_end_date,omitempty"`
	ProjectedEndDate *string `json:"projected_end_date,omitempty"`
	Status           string  `json:"status"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// ProjectService manages projects and their vendor memberships. All
// mutations are admin-only; reads are scoped by role.
type ProjectService interface {
	Create(ctx context.Context, actor *models.User, input *ProjectInput) (*models.Project, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, input *ProjectInput) (*models.Project, error)
	// Delete removes a project and, via the store, all of its reports,
	// findings, comments and memberships.
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Project, error)
	// List returns all projects for admins and the actor's own projects
	// for vendors.
	List(ctx context.Context, actor *models.User) ([]*models.Project, error)

	AddMember(ctx context.Context, actor *models.User, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, actor *models.User, projectID, userID uuid.UUID) error
	ListMembers(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]*models.ProjectMember, error)
}

type projectService struct {
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	activity repositories.ActivityRepository
	logger   *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(
	projects repositories.ProjectRepository,
	users repositories.UserRepository,
	activity repositories.ActivityRepository,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		projects: projects,
		users:    users,
		activity: activity,
		logger:   logger.Named("project-service"),
	}
}

var _ ProjectService = (*projectService)(nil)

// parseDate parses an optional "YYYY-MM-DD" date string.
func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", apperrors.ErrValidation, *value)
	}
	return &t, nil
}

func validateProjectInput(input *ProjectInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if input.Agency == "" {
		return fmt.Errorf("%w: agency is required", apperrors.ErrValidation)
	}
	if input.VendorName == "" {
		return fmt.Errorf("%w: vendor_name is required", apperrors.ErrValidation)
	}
	if input.Status != "" && !models.IsValidProjectStatus(input.Status) {
		return fmt.Errorf("%w: invalid project status %q", apperrors.ErrValidation, input.Status)
	}
	return nil
}

// Create registers a new project under oversight.
func (s *projectService) Create(ctx context.Context, actor *models.User, input *ProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:             input.Name,
		Description:      input.Description,
		Agency:           input.Agency,
		VendorName:       input.VendorName,
		ContractOriginal: input.ContractOriginal,
		ContractPaid:     input.ContractPaid,
		Status:           input.Status,
		IsActive:         true,
	}
	if input.IsActive != nil {
		project.IsActive = *input.IsActive
	}

	var err error
	if project.StartDate, err = parseDate(input.StartDate); err != nil {
		return nil, err
	}
	if project.PlannedEndDate, err = parseDate(input.PlannedEndDate); err != nil {
		return nil, err
	}
	if project.ProjectedEndDate, err = parseDate(input.ProjectedEndDate); err != nil {
		return nil, err
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionCreation, models.EntityTypeProject,
		project.ID, actor.ID, fmt.Sprintf("Project created: %s (%s)", project.Name, project.Agency))

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("name", project.Name))

	return project, nil
}

// Update applies new field values to an existing project.
func (s *projectService) Update(ctx context.Context, actor *models.User, id uuid.UUID, input *ProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	project.Name = input.Name
	project.Description = input.Description
	project.Agency = input.Agency
	project.VendorName = input.VendorName
	project.ContractOriginal = input.ContractOriginal
	project.ContractPaid = input.ContractPaid
	if input.Status != "" {
		project.Status = input.Status
	}
	if input.IsActive != nil {
		project.IsActive = *input.IsActive
	}

	if project.StartDate, err = parseDate(input.StartDate); err != nil {
		return nil, err
	}
	if project.PlannedEndDate, err = parseDate(input.PlannedEndDate); err != nil {
		return nil, err
	}
	if project.ProjectedEndDate, err = parseDate(input.ProjectedEndDate); err != nil {
		return nil, err
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionUpdate, models.EntityTypeProject,
		project.ID, actor.ID, fmt.Sprintf("Project updated: %s", project.Name))

	return project, nil
}

// Delete removes a project and everything under it.
func (s *projectService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionDeletion, models.EntityTypeProject,
		id, actor.ID, fmt.Sprintf("Project deleted: %s", project.Name))

	s.logger.Info("Project deleted",
		zap.String("project_id", id.String()),
		zap.String("name", project.Name))

	return nil
}

// Get returns a project visible to the actor.
func (s *projectService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Project, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthRequired
	}

	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin {
		member, err := s.projects.IsMember(ctx, id, actor.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.ErrNotFound
		}
	}

	return project, nil
}

// List scopes the project listing by role.
func (s *projectService) List(ctx context.Context, actor *models.User) ([]*models.Project, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthRequired
	}
	if actor.Role == models.RoleAdmin {
		return s.projects.List(ctx)
	}
	return s.projects.ListForUser(ctx, actor.ID)
}

// AddMember assigns a user to a project.
func (s *projectService) AddMember(ctx context.Context, actor *models.User, projectID, userID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.projects.AddMember(ctx, projectID, userID); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionUpdate, models.EntityTypeProject,
		projectID, actor.ID, fmt.Sprintf("Member added: %s", user.Email))

	return nil
}

// RemoveMember removes a user from a project.
func (s *projectService) RemoveMember(ctx context.Context, actor *models.User, projectID, userID uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.projects.RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionUpdate, models.EntityTypeProject,
		projectID, actor.ID, "Member removed")

	return nil
}

// ListMembers returns a project's memberships.
func (s *projectService) ListMembers(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.projects.ListMembers(ctx, projectID)
}
