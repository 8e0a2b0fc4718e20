package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ivv-works/ivv-engine/pkg/database"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

// ActivityRepository defines the interface for the append-only activity log.
type ActivityRepository interface {
	Create(ctx context.Context, entry *models.ActivityEntry) error
	List(ctx context.Context, limit int) ([]*models.ActivityEntry, error)
}

// activityRepository implements ActivityRepository using PostgreSQL.
type activityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *database.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Create inserts a new activity log entry.
func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO activity_log (id, action, description, entity_type, entity_id, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.Action, entry.Description, entry.EntityType, entry.EntityID,
		entry.ActorID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

// List returns the newest activity entries.
func (r *activityRepository) List(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, action, description, entity_type, entity_id, actor_id, created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Description, &e.EntityType, &e.EntityID,
			&e.ActorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Ensure activityRepository implements ActivityRepository at compile time.
var _ ActivityRepository = (*activityRepository)(nil)
