package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/storage"
)

func TestCreateUpload(t *testing.T) {
	blobs := storage.NewMemoryStore()
	svc := NewAttachmentService(blobs, zap.NewNop())
	ctx := context.Background()

	ref, url, err := svc.CreateUpload(ctx, testUser(models.RoleVendor), "application/pdf")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "attachments/"))
	assert.True(t, strings.HasSuffix(ref, ".pdf"))
	assert.NotEmpty(t, url)

	// Each upload gets a distinct reference.
	ref2, _, err := svc.CreateUpload(ctx, testUser(models.RoleAdmin), "application/pdf")
	require.NoError(t, err)
	assert.NotEqual(t, ref, ref2)
}

func TestCreateUploadRejections(t *testing.T) {
	svc := NewAttachmentService(storage.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	_, _, err := svc.CreateUpload(ctx, nil, "application/pdf")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	_, _, err = svc.CreateUpload(ctx, testUser(models.RoleUser), "application/pdf")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, _, err = svc.CreateUpload(ctx, testUser(models.RoleVendor), "image/png")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDownloadURL(t *testing.T) {
	blobs := storage.NewMemoryStore()
	blobs.Put("attachments/x.pdf", 10, time.Time{})
	svc := NewAttachmentService(blobs, zap.NewNop())
	ctx := context.Background()

	url, err := svc.DownloadURL(ctx, testUser(models.RoleUser), "attachments/x.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	_, err = svc.DownloadURL(ctx, nil, "attachments/x.pdf")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	_, err = svc.DownloadURL(ctx, testUser(models.RoleUser), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
