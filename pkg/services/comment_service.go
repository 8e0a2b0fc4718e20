package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
)

// maxCommentLength bounds a single comment's size.
const maxCommentLength = 10000

// CommentService manages the append-only discussion on reports.
type CommentService interface {
	// Add appends a comment to a report. Admins may comment anywhere;
	// vendors only on reports of projects they belong to.
	Add(ctx context.Context, actor *models.User, reportID uuid.UUID, content string) (*models.Comment, error)

	// ListByReport returns a report's comments under report visibility rules.
	ListByReport(ctx context.Context, actor *models.User, reportID uuid.UUID) ([]*models.Comment, error)

	// ListRecent returns the newest comments for the admin dashboard feed.
	ListRecent(ctx context.Context, actor *models.User, limit int) ([]*models.Comment, error)
}

type commentService struct {
	comments repositories.CommentRepository
	reports  repositories.ReportRepository
	projects repositories.ProjectRepository
	activity repositories.ActivityRepository
	logger   *zap.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(
	comments repositories.CommentRepository,
	reports repositories.ReportRepository,
	projects repositories.ProjectRepository,
	activity repositories.ActivityRepository,
	logger *zap.Logger,
) CommentService {
	return &commentService{
		comments: comments,
		reports:  reports,
		projects: projects,
		activity: activity,
		logger:   logger.Named("comment-service"),
	}
}

var _ CommentService = (*commentService)(nil)

func (s *commentService) Add(ctx context.Context, actor *models.User, reportID uuid.UUID, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthRequired
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrValidation)
	}
	if len(content) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", apperrors.ErrValidation, maxCommentLength)
	}

	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin {
		member, err := s.projects.IsMember(ctx, report.ProjectID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.ErrForbidden
		}
	}

	comment := &models.Comment{
		ReportID:  report.ID,
		ProjectID: report.ProjectID,
		AuthorID:  actor.ID,
		Content:   content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActionCreation, models.EntityTypeComment,
		comment.ID, actor.ID, fmt.Sprintf("Comment added on report %s", report.Period()))

	return comment, nil
}

func (s *commentService) ListByReport(ctx context.Context, actor *models.User, reportID uuid.UUID) ([]*models.Comment, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthRequired
	}

	report, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin {
		member, err := s.projects.IsMember(ctx, report.ProjectID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperrors.ErrNotFound
		}
	}

	return s.comments.ListByReport(ctx, reportID)
}

func (s *commentService) ListRecent(ctx context.Context, actor *models.User, limit int) ([]*models.Comment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.comments.ListRecent(ctx, limit)
}
