package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/auth"
	"github.com/ivv-works/ivv-engine/pkg/pdfext"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// AutofillHandler drafts report form content from an uploaded PDF.
type AutofillHandler struct {
	autofill services.AutofillService
	logger   *zap.Logger
}

// NewAutofillHandler creates a new autofill handler.
func NewAutofillHandler(autofill services.AutofillService, logger *zap.Logger) *AutofillHandler {
	return &AutofillHandler{autofill: autofill, logger: logger.Named("autofill-handler")}
}

// Autofill accepts a raw PDF body and returns a draft report form. The
// document is processed in memory; nothing is written to the store.
func (h *AutofillHandler) Autofill(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetIdentity(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, pdfext.MaxDocumentBytes+1))
	if err != nil {
		ErrorResponse(w, h.logger, apperrors.ErrValidation)
		return
	}

	suggestion, err := h.autofill.Autofill(r.Context(), actor, body)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, suggestion)
}
