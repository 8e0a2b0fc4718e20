package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/repositories"
	"github.com/ivv-works/ivv-engine/pkg/services"
)

// PublicHandler serves the unauthenticated read surface: published report
// listings, filter metadata, semantic search, and grounded answers.
type PublicHandler struct {
	reports services.ReportService
	search  services.SearchService
	logger  *zap.Logger
}

// NewPublicHandler creates a new public handler.
func NewPublicHandler(reports services.ReportService, search services.SearchService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		reports: reports,
		search:  search,
		logger:  logger.Named("public-handler"),
	}
}

// ListReports returns published reports, optionally filtered via query params.
func (h *PublicHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &repositories.ReportFilter{
		Agency: q.Get("agency"),
		Vendor: q.Get("vendor"),
		Status: q.Get("status"),
		Query:  q.Get("q"),
	}
	if year := q.Get("year"); year != "" {
		filter.Year, _ = strconv.Atoi(year)
	}
	if month := q.Get("month"); month != "" {
		filter.Month, _ = strconv.Atoi(month)
	}

	reports, err := h.reports.ListPublished(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// Filters returns the filter dimensions of the public surface.
func (h *PublicHandler) Filters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.reports.PublicFilters(r.Context())
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, filters)
}

// Search returns published reports ranked by semantic similarity.
func (h *PublicHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	hits, err := h.search.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

// Answer returns a grounded response to a natural-language question.
func (h *PublicHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	answer, err := h.search.Answer(r.Context(), req.Question)
	if err != nil {
		ErrorResponse(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, answer)
}
