package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/llm"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
	"github.com/ivv-works/ivv-engine/pkg/retry"
	"github.com/ivv-works/ivv-engine/pkg/search"
)

// SearchHit is a ranked public search result.
type SearchHit struct {
	ReportID    uuid.UUID `json:"report_id"`
	ProjectName string    `json:"project_name"`
	Agency      string    `json:"agency"`
	VendorName  string    `json:"vendor_name"`
	Period      string    `json:"period"`
	Summary     string    `json:"summary"`
	Score       float64   `json:"score"`
}

// Answer is a grounded response to a natural-language question.
type Answer struct {
	Text      string      `json:"text"`
	Citations []SearchHit `json:"citations"`
}

// SearchService provides semantic search and grounded answers over the
// published report corpus. Only published reports are ever indexed, and
// every hit is re-verified against the store before it leaves the service.
type SearchService interface {
	ReportIndexer

	// Search returns published reports ranked by semantic similarity.
	Search(ctx context.Context, query string, topK int) ([]SearchHit, error)

	// Answer synthesizes a response grounded in published reports,
	// with citations to the reports it drew from.
	Answer(ctx context.Context, question string) (*Answer, error)

	// Rebuild repopulates the index from the store. Called at startup.
	Rebuild(ctx context.Context) error
}

type searchService struct {
	llmClient   llm.Client
	index       *search.Index
	reports     repositories.ReportRepository
	projects    repositories.ProjectRepository
	topK        int
	contextSize int
	logger      *zap.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	llmClient llm.Client,
	index *search.Index,
	reports repositories.ReportRepository,
	projects repositories.ProjectRepository,
	topK, contextSize int,
	logger *zap.Logger,
) SearchService {
	if topK <= 0 {
		topK = 5
	}
	if contextSize <= 0 {
		contextSize = 10
	}
	return &searchService{
		llmClient:   llmClient,
		index:       index,
		reports:     reports,
		projects:    projects,
		topK:        topK,
		contextSize: contextSize,
		logger:      logger.Named("search-service"),
	}
}

var _ SearchService = (*searchService)(nil)

// flattenReport renders a report into the text its embedding is computed
// from. The same text later grounds answer synthesis.
func flattenReport(report *models.Report, projectName, agency, vendorName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project: %s\nAgency: %s\nVendor: %s\nPeriod: %s\n",
		projectName, agency, vendorName, report.Period())
	fmt.Fprintf(&sb, "Status: %s | Team: %s | Management: %s | Technical: %s\n",
		report.CurrentStatus, report.TeamPerformance, report.ProjectManagement, report.TechnicalReadiness)

	for _, section := range []struct{ label, text string }{
		{"Summary", report.Summary},
		{"Accomplishments", report.Accomplishments},
		{"Challenges", report.Challenges},
		{"Milestones", report.Milestones},
		{"Budget", report.BudgetNotes},
		{"Schedule", report.ScheduleNotes},
		{"Risks", report.RiskNotes},
	} {
		if section.text != "" {
			fmt.Fprintf(&sb, "%s: %s\n", section.label, section.text)
		}
	}

	return sb.String()
}

// IndexReport embeds a published report and upserts it into the index.
func (s *searchService) IndexReport(ctx context.Context, report *models.Report, project *models.Project) error {
	text := flattenReport(report, project.Name, project.Agency, project.VendorName)

	vector, err := s.embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed report %s: %w", report.ID, err)
	}

	s.index.Upsert(search.Entry{ReportID: report.ID, Text: text, Vector: vector})

	s.logger.Debug("Report indexed",
		zap.String("report_id", report.ID.String()),
		zap.Int("index_size", s.index.Len()))
	return nil
}

// RemoveReport drops a report from the index.
func (s *searchService) RemoveReport(reportID uuid.UUID) {
	s.index.Delete(reportID)
}

// Rebuild replaces the index contents with every currently published report.
func (s *searchService) Rebuild(ctx context.Context) error {
	published, err := s.reports.ListPublished(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load published reports: %w", err)
	}

	if len(published) == 0 {
		s.index.Replace(nil)
		s.logger.Info("Index rebuilt empty, no published reports")
		return nil
	}

	texts := make([]string, len(published))
	for i, rp := range published {
		texts[i] = flattenReport(&rp.Report, rp.ProjectName, rp.Agency, rp.VendorName)
	}

	vectors, err := s.llmClient.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed report corpus: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding count mismatch: got %d for %d reports", len(vectors), len(texts))
	}

	entries := make([]search.Entry, len(published))
	for i, rp := range published {
		entries[i] = search.Entry{ReportID: rp.ID, Text: texts[i], Vector: vectors[i]}
	}
	s.index.Replace(entries)

	s.logger.Info("Index rebuilt", zap.Int("reports", len(entries)))
	return nil
}

// embed computes a single embedding with one retry. Embedding calls are
// idempotent, so a transient provider error is worth a second attempt.
func (s *searchService) embed(ctx context.Context, text string) ([]float32, error) {
	return retry.DoWithResult(ctx, retry.Once(), func() ([]float32, error) {
		return s.llmClient.CreateEmbedding(ctx, text)
	})
}

// Search embeds the query, ranks the index, and re-verifies each hit against
// the store so that a just-unpublished report can never leak out.
func (s *searchService) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", apperrors.ErrValidation)
	}
	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalDependency, err)
	}

	hits := s.index.Query(vector, topK)

	results := make([]SearchHit, 0, len(hits))
	for _, hit := range hits {
		verified, err := s.verifyHit(ctx, hit)
		if err != nil {
			return nil, err
		}
		if verified != nil {
			results = append(results, *verified)
		}
	}

	return results, nil
}

// verifyHit confirms a hit still refers to a published report and fills in
// the public metadata. Stale entries are evicted from the index as found.
func (s *searchService) verifyHit(ctx context.Context, hit search.Hit) (*SearchHit, error) {
	report, err := s.reports.Get(ctx, hit.ReportID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.index.Delete(hit.ReportID)
			return nil, nil
		}
		return nil, err
	}
	if !report.Published {
		s.index.Delete(hit.ReportID)
		return nil, nil
	}

	project, err := s.projects.Get(ctx, report.ProjectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &SearchHit{
		ReportID:    report.ID,
		ProjectName: project.Name,
		Agency:      project.Agency,
		VendorName:  project.VendorName,
		Period:      report.Period(),
		Summary:     report.Summary,
		Score:       hit.Score,
	}, nil
}

const answerSystemPrompt = `You are an analyst answering questions about government technology project oversight reports.
Answer strictly from the numbered report excerpts provided. Cite excerpts inline as [1], [2], etc.
If the excerpts do not contain the answer, say so plainly. Never invent facts.`

// Answer grounds a synthesized response in the top-ranked published reports.
// Any model failure is surfaced to the caller; there is no degraded mode.
func (s *searchService) Answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrValidation)
	}

	vector, err := s.embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalDependency, err)
	}

	hits := s.index.Query(vector, s.contextSize)

	var citations []SearchHit
	var sb strings.Builder
	for _, hit := range hits {
		verified, err := s.verifyHit(ctx, hit)
		if err != nil {
			return nil, err
		}
		if verified == nil {
			continue
		}
		citations = append(citations, *verified)
		fmt.Fprintf(&sb, "[%d] %s\n\n", len(citations), hit.Text)
	}

	if len(citations) == 0 {
		return &Answer{Text: "No published reports are available to answer this question."}, nil
	}

	prompt := fmt.Sprintf("Report excerpts:\n\n%s\nQuestion: %s", sb.String(), question)

	text, err := s.llmClient.GenerateResponse(ctx, prompt, answerSystemPrompt, 0.2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalDependency, err)
	}

	return &Answer{Text: text, Citations: citations}, nil
}
