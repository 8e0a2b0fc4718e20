// Package services contains the business logic for ivv-engine.
package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
)

// recordActivity appends an audit entry. Failures are logged, not propagated:
// the primary mutation already committed and must not be rolled back by a
// bookkeeping error.
func recordActivity(ctx context.Context, repo repositories.ActivityRepository, logger *zap.Logger,
	action, entityType string, entityID, actorID uuid.UUID, description string) {

	entry := &models.ActivityEntry{
		Action:      action,
		Description: description,
		EntityType:  entityType,
		EntityID:    entityID,
		ActorID:     actorID,
	}

	if err := repo.Create(ctx, entry); err != nil {
		logger.Error("Failed to record activity",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}
