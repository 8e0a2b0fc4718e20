package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/storage"
)

func TestSweepDeletesOldOrphansOnly(t *testing.T) {
	ctx := context.Background()

	projects := newFakeProjectRepo()
	reports := newFakeReportRepo(projects)
	blobs := storage.NewMemoryStore()

	now := time.Now()

	// A referenced blob, an old orphan, and a fresh orphan within grace.
	finalRef := "attachments/final.pdf"
	report := &models.Report{
		ProjectID: testUser(models.RoleVendor).ID, AuthorID: testUser(models.RoleVendor).ID,
		ReportMonth: 1, ReportYear: 2026,
		AttachmentID: "attachments/linked.pdf", FinalAttachmentID: &finalRef,
	}
	require.NoError(t, reports.Create(ctx, report))

	blobs.Put("attachments/linked.pdf", 100, now.Add(-48*time.Hour))
	blobs.Put("attachments/final.pdf", 100, now.Add(-48*time.Hour))
	blobs.Put("attachments/orphan.pdf", 100, now.Add(-48*time.Hour))
	blobs.Put("attachments/fresh.pdf", 100, now.Add(-5*time.Minute))

	reaper := NewReaper(reports, blobs, time.Hour, time.Hour, zap.NewNop())

	deleted, err := reaper.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, deleted)
	assert.True(t, blobs.Has("attachments/linked.pdf"))
	assert.True(t, blobs.Has("attachments/final.pdf"))
	assert.True(t, blobs.Has("attachments/fresh.pdf"))
	assert.False(t, blobs.Has("attachments/orphan.pdf"))

	// A second sweep finds nothing new to do.
	deleted, err = reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestSweepReapsFreshOrphanAfterGrace(t *testing.T) {
	ctx := context.Background()

	projects := newFakeProjectRepo()
	reports := newFakeReportRepo(projects)
	blobs := storage.NewMemoryStore()

	blobs.Put("attachments/abandoned.pdf", 100, time.Now())

	reaper := NewReaper(reports, blobs, time.Hour, time.Hour, zap.NewNop())

	deleted, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	// Simulate the next sweep after the grace window has passed.
	reaper.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	deleted, err = reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.False(t, blobs.Has("attachments/abandoned.pdf"))
}

func TestReaperGraceDefaultsToInterval(t *testing.T) {
	projects := newFakeProjectRepo()
	reports := newFakeReportRepo(projects)

	reaper := NewReaper(reports, storage.NewMemoryStore(), 30*time.Minute, 0, zap.NewNop())
	assert.Equal(t, 30*time.Minute, reaper.grace)

	reaper = NewReaper(reports, storage.NewMemoryStore(), 0, 0, zap.NewNop())
	assert.Equal(t, time.Hour, reaper.interval)
	assert.Equal(t, time.Hour, reaper.grace)
}
