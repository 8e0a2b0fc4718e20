package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/llm"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/pdfext"
)

// AutofillSuggestion is the draft form content extracted from an uploaded
// document. Fields the model could not populate, or populated with invalid
// values, are simply left empty; the vendor reviews everything before
// submission and nothing here is ever written to the store.
type AutofillSuggestion struct {
	Summary         string `json:"summary,omitempty"`
	Accomplishments string `json:"accomplishments,omitempty"`
	Challenges      string `json:"challenges,omitempty"`
	Milestones      string `json:"milestones,omitempty"`
	BudgetNotes     string `json:"budget_notes,omitempty"`
	ScheduleNotes   string `json:"schedule_notes,omitempty"`
	RiskNotes       string `json:"risk_notes,omitempty"`

	CurrentStatus      string `json:"current_status,omitempty"`
	TeamPerformance    string `json:"team_performance,omitempty"`
	ProjectManagement  string `json:"project_management,omitempty"`
	TechnicalReadiness string `json:"technical_readiness,omitempty"`

	Findings []SubmitFindingInput `json:"findings,omitempty"`
}

// AutofillService drafts report form content from an uploaded PDF.
type AutofillService interface {
	// Autofill extracts text from the document and asks the model to draft
	// the report form. Vendors and admins only.
	Autofill(ctx context.Context, actor *models.User, document []byte) (*AutofillSuggestion, error)
}

type autofillService struct {
	llmClient llm.Client
	logger    *zap.Logger
}

// NewAutofillService creates a new autofill service.
func NewAutofillService(llmClient llm.Client, logger *zap.Logger) AutofillService {
	return &autofillService{
		llmClient: llmClient,
		logger:    logger.Named("autofill-service"),
	}
}

var _ AutofillService = (*autofillService)(nil)

const autofillSystemPrompt = `You extract structured monthly project assessment data from IV&V report documents.
Respond with a single JSON object and nothing else.
Required keys: summary (string); current_status (exactly one of "On Track", "Minor Issues", "Critical");
findings (array, may be empty, of objects with type ("Risk" or "Issue"), impact, likelihood ("Low", "Medium", "High"), description, recommendation).
Optional keys: accomplishments, challenges, milestones, budget_notes, schedule_notes, risk_notes (strings);
team_performance, project_management, technical_readiness (same rating values as current_status).
Omit any optional key the document does not support. Never guess rating values.`

// maxAutofillChars bounds how much extracted text is sent to the model.
const maxAutofillChars = 60000

func (s *autofillService) Autofill(ctx context.Context, actor *models.User, document []byte) (*AutofillSuggestion, error) {
	if actor == nil {
		return nil, apperrors.ErrAuthRequired
	}
	if actor.Role != models.RoleVendor && actor.Role != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	text, err := pdfext.ExtractText(document)
	if err != nil {
		return nil, err
	}

	return s.suggest(ctx, truncateText(text, maxAutofillChars))
}

// suggest runs the model draft with a single corrective retry for schema
// violations.
func (s *autofillService) suggest(ctx context.Context, text string) (*AutofillSuggestion, error) {
	suggestion, err := s.draft(ctx, text, "")
	if err != nil {
		return nil, err
	}

	// One corrective round-trip when the model skipped a required key or
	// used values outside the allowed sets. After that, whatever is still
	// invalid is dropped.
	if problems := invalidFields(suggestion); len(problems) > 0 {
		s.logger.Warn("Autofill draft had missing or invalid values, retrying",
			zap.Strings("fields", problems))

		correction := fmt.Sprintf(
			"Your previous draft was missing or used invalid values for: %v. Produce the JSON again with all required keys (summary, current_status, findings), using only the allowed values and omitting optional fields you cannot determine.",
			problems)
		retried, err := s.draft(ctx, text, correction)
		if err == nil {
			suggestion = retried
		}
	}

	sanitize(suggestion)

	s.logger.Info("Autofill draft produced",
		zap.Int("document_chars", len(text)),
		zap.Int("findings", len(suggestion.Findings)))

	return suggestion, nil
}

// draft runs one model round-trip and parses the JSON payload.
func (s *autofillService) draft(ctx context.Context, text, correction string) (*AutofillSuggestion, error) {
	prompt := "Document text:\n\n" + text
	if correction != "" {
		prompt += "\n\n" + correction
	}

	response, err := s.llmClient.GenerateResponse(ctx, prompt, autofillSystemPrompt, 0.1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalDependency, err)
	}

	suggestion, err := llm.ParseJSONResponse[*AutofillSuggestion](response)
	if err != nil {
		return nil, fmt.Errorf("%w: model returned unparseable draft: %v", apperrors.ErrExternalDependency, err)
	}
	if suggestion == nil {
		suggestion = &AutofillSuggestion{}
	}

	return suggestion, nil
}

// truncateText shortens s to at most max bytes without splitting a UTF-8
// rune mid-sequence.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// invalidFields names every required key the draft is missing and every
// value that falls outside the allowed sets.
func invalidFields(s *AutofillSuggestion) []string {
	var problems []string

	// summary, current_status and findings are required; a nil findings
	// slice means the key was absent (an empty array is acceptable).
	if s.Summary == "" {
		problems = append(problems, "summary")
	}
	if !models.IsValidRating(s.CurrentStatus) {
		problems = append(problems, "current_status")
	}
	if s.Findings == nil {
		problems = append(problems, "findings")
	}

	for field, value := range map[string]string{
		"team_performance":    s.TeamPerformance,
		"project_management":  s.ProjectManagement,
		"technical_readiness": s.TechnicalReadiness,
	} {
		if value != "" && !models.IsValidRating(value) {
			problems = append(problems, field)
		}
	}

	for i, f := range s.Findings {
		if !models.IsValidFindingType(f.Type) || !models.IsValidSeverity(f.Impact) ||
			!models.IsValidSeverity(f.Likelihood) || f.Description == "" {
			problems = append(problems, fmt.Sprintf("findings[%d]", i))
		}
	}

	return problems
}

// sanitize drops whatever is still invalid after the corrective retry.
func sanitize(s *AutofillSuggestion) {
	if !models.IsValidRating(s.CurrentStatus) {
		s.CurrentStatus = ""
	}
	if !models.IsValidRating(s.TeamPerformance) {
		s.TeamPerformance = ""
	}
	if !models.IsValidRating(s.ProjectManagement) {
		s.ProjectManagement = ""
	}
	if !models.IsValidRating(s.TechnicalReadiness) {
		s.TechnicalReadiness = ""
	}

	valid := s.Findings[:0]
	for _, f := range s.Findings {
		if models.IsValidFindingType(f.Type) && models.IsValidSeverity(f.Impact) &&
			models.IsValidSeverity(f.Likelihood) && f.Description != "" {
			valid = append(valid, f)
		}
	}
	s.Findings = valid
}
