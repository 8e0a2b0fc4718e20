package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivv-works/ivv-engine/pkg/database"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

// CommentRepository defines the interface for comment data access.
// Comments are append-only: there is no update or delete.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Comment, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Comment, error)
}

// commentRepository implements CommentRepository using PostgreSQL.
type commentRepository struct {
	db *database.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *database.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `id, report_id, project_id, author_id, content, created_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.ReportID, &c.ProjectID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new comment.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	comment.CreatedAt = time.Now()

	query := `
		INSERT INTO comments (id, report_id, project_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		comment.ID, comment.ReportID, comment.ProjectID, comment.AuthorID,
		comment.Content, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// ListByReport returns a report's comments oldest first, for display.
func (r *commentRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE report_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// ListRecent returns the newest comments across all reports, for feed use.
func (r *commentRepository) ListRecent(ctx context.Context, limit int) ([]*models.Comment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + commentColumns + ` FROM comments ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// Ensure commentRepository implements CommentRepository at compile time.
var _ CommentRepository = (*commentRepository)(nil)
