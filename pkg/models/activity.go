package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityEntry records an administrative or lifecycle action for audit.
type ActivityEntry struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	EntityType  string    `json:"entity_type"`
	EntityID    uuid.UUID `json:"entity_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Activity action values.
const (
	ActionCreation = "creation"
	ActionUpdate   = "update"
	ActionDeletion = "deletion"
)

// Activity entity type values.
const (
	EntityTypeProject = "project"
	EntityTypeReport  = "report"
	EntityTypeUser    = "user"
	EntityTypeComment = "comment"
)
