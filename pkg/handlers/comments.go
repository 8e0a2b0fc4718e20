package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/auth"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// CommentHandler serves the report discussion endpoints.
type CommentHandler struct {
	comments services.CommentService
	logger   *zap.Logger
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(comments services.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger.Named("comment-handler")}
}

// Add appends a comment to a report.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	reportID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	comment, err := h.comments.Add(r.Context(), actor, reportID, req.Content)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, comment)
}

// ListByReport returns a report's comments, oldest first.
func (h *CommentHandler) ListByReport(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	reportID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	comments, err := h.comments.ListByReport(r.Context(), actor, reportID)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// Recent returns the newest comments across all reports.
func (h *CommentHandler) Recent(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	comments, err := h.comments.ListRecent(r.Context(), actor, limit)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"comments": comments})
}
