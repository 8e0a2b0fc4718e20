package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/repositories"
	"github.com/ivv-works/ivv-engine/pkg/storage"
)

// Reaper periodically deletes blobs no report references anymore: abandoned
// uploads and attachments of deleted reports. Blobs younger than the grace
// window are never touched, so an in-flight upload cannot be reaped between
// URL issuance and report submission.
type Reaper struct {
	reports  repositories.ReportRepository
	blobs    storage.BlobStore
	interval time.Duration
	grace    time.Duration
	logger   *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewReaper creates an orphan attachment reaper.
func NewReaper(reports repositories.ReportRepository, blobs storage.BlobStore,
	interval, grace time.Duration, logger *zap.Logger) *Reaper {

	if interval <= 0 {
		interval = time.Hour
	}
	if grace <= 0 {
		grace = interval
	}
	return &Reaper{
		reports:  reports,
		blobs:    blobs,
		interval: interval,
		grace:    grace,
		logger:   logger.Named("reaper"),
		now:      time.Now,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
// Meant to be started in its own goroutine.
func (r *Reaper) Run(ctx context.Context) {
	r.logger.Info("Reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("grace", r.grace))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep deletes every blob that is both unreferenced and older than the
// grace window, and returns how many were removed. A sweep that fails
// midway leaves only orphans behind, which the next sweep picks up.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	refs, err := r.reports.ListAttachmentRefs(ctx)
	if err != nil {
		return 0, err
	}

	reachable := make(map[string]bool, len(refs))
	for _, ref := range refs {
		reachable[ref] = true
	}

	blobs, err := r.blobs.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := r.now().Add(-r.grace)

	deleted := 0
	for _, blob := range blobs {
		if reachable[blob.Name] {
			continue
		}
		if blob.CreatedAt.After(cutoff) {
			continue
		}

		if err := r.blobs.Delete(ctx, blob.Name); err != nil {
			r.logger.Error("Failed to delete orphan blob",
				zap.String("name", blob.Name),
				zap.Error(err))
			continue
		}
		deleted++
	}

	r.logger.Info("Sweep complete",
		zap.Int("blobs", len(blobs)),
		zap.Int("referenced", len(reachable)),
		zap.Int("deleted", deleted))

	return deleted, nil
}
