package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/auth"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// ReportHandler serves the authenticated report lifecycle endpoints.
type ReportHandler struct {
	reports services.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger.Named("report-handler")}
}

// pathID parses a UUID path parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperrors.ErrValidation
	}
	return id, nil
}

// Submit creates a pending report.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	var input services.SubmitReportInput
	if err := DecodeJSON(r, &input); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	report, err := h.reports.Submit(r.Context(), actor, &input)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, report)
}

// Get returns a single report subject to visibility rules.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	report, err := h.reports.Get(r.Context(), actor, id)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// Approve publishes a report.
func (h *ReportHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	report, err := h.reports.Approve(r.Context(), actor, id)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// Unapprove retracts a published report.
func (h *ReportHandler) Unapprove(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	report, err := h.reports.Unapprove(r.Context(), actor, id)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// Delete permanently removes a report.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	if err := h.reports.Delete(r.Context(), actor, id); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListForProject returns a project's reports for members and admins.
func (h *ReportHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	projectID, err := pathID(r, "projectID")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	reports, err := h.reports.ListForProject(r.Context(), actor, projectID)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// ListFindings returns a report's findings.
func (h *ReportHandler) ListFindings(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	findings, err := h.reports.ListFindings(r.Context(), actor, id)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"findings": findings})
}

// UpdateFindingStatus moves a finding through its workflow.
func (h *ReportHandler) UpdateFindingStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	reportID, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}
	findingID, err := pathID(r, "findingID")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	if err := h.reports.UpdateFindingStatus(r.Context(), actor, reportID, findingID, req.Status); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AttachFinal records a final document reference on a report.
func (h *ReportHandler) AttachFinal(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	var req struct {
		AttachmentID string `json:"attachment_id"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	if err := h.reports.AttachFinal(r.Context(), actor, id, req.AttachmentID); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
