package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/auth"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// UploadHandler brokers signed URLs for attachment blobs.
type UploadHandler struct {
	attachments services.AttachmentService
	logger      *zap.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(attachments services.AttachmentService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{attachments: attachments, logger: logger.Named("upload-handler")}
}

// CreateUpload mints a blob reference and signed upload URL.
func (h *UploadHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	var req struct {
		ContentType string `json:"content_type"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	ref, url, err := h.attachments.CreateUpload(r.Context(), actor, req.ContentType)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"attachment_id": ref,
		"upload_url":    url,
	})
}

// Download returns a signed download URL for a blob reference.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	ref := r.URL.Query().Get("ref")

	url, err := h.attachments.DownloadURL(r.Context(), actor, ref)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"download_url": url})
}
