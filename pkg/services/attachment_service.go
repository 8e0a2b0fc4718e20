package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/storage"
)

// allowedAttachmentTypes are the content types accepted for uploads.
var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
}

// AttachmentService brokers signed URLs for report document blobs. Clients
// upload directly to the bucket; only the reference travels through the API.
type AttachmentService interface {
	// CreateUpload mints a fresh blob reference and a signed upload URL for
	// it. Vendors and admins only.
	CreateUpload(ctx context.Context, actor *models.User, contentType string) (ref, uploadURL string, err error)

	// DownloadURL returns a signed download URL for a blob reference.
	DownloadURL(ctx context.Context, actor *models.User, ref string) (string, error)
}

type attachmentService struct {
	blobs  storage.BlobStore
	logger *zap.Logger
}

// NewAttachmentService creates a new attachment service.
func NewAttachmentService(blobs storage.BlobStore, logger *zap.Logger) AttachmentService {
	return &attachmentService{
		blobs:  blobs,
		logger: logger.Named("attachment-service"),
	}
}

var _ AttachmentService = (*attachmentService)(nil)

func (s *attachmentService) CreateUpload(ctx context.Context, actor *models.User, contentType string) (string, string, error) {
	if actor == nil {
		return "", "", apperrors.ErrAuthRequired
	}
	if actor.Role != models.RoleVendor && actor.Role != models.RoleAdmin {
		return "", "", apperrors.ErrForbidden
	}
	if !allowedAttachmentTypes[contentType] {
		return "", "", fmt.Errorf("%w: unsupported content type %q", apperrors.ErrValidation, contentType)
	}

	// Blob references are opaque and unguessable; the reference is the only
	// link between a report row and its document.
	ref := "attachments/" + uuid.NewString() + ".pdf"

	url, err := s.blobs.GenerateUploadURL(ctx, ref, contentType)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", apperrors.ErrExternalDependency, err)
	}

	s.logger.Info("Upload URL issued",
		zap.String("ref", ref),
		zap.String("actor_id", actor.ID.String()))

	return ref, url, nil
}

func (s *attachmentService) DownloadURL(ctx context.Context, actor *models.User, ref string) (string, error) {
	if actor == nil {
		return "", apperrors.ErrAuthRequired
	}
	if ref == "" {
		return "", fmt.Errorf("%w: ref is required", apperrors.ErrValidation)
	}

	url, err := s.blobs.GetURL(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrExternalDependency, err)
	}
	return url, nil
}
