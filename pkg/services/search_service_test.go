package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/llm"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/search"
)

// keywordEmbedding gives deterministic vectors: each dimension is a keyword
// count, so texts sharing keywords score high on cosine similarity.
func keywordEmbedding(keywords ...string) func(ctx context.Context, input string) ([]float32, error) {
	return func(ctx context.Context, input string) ([]float32, error) {
		vec := make([]float32, len(keywords))
		lower := strings.ToLower(input)
		for i, kw := range keywords {
			vec[i] = float32(strings.Count(lower, kw))
		}
		return vec, nil
	}
}

type searchFixture struct {
	svc      SearchService
	index    *search.Index
	mock     *llm.MockClient
	reports  *fakeReportRepo
	projects *fakeProjectRepo
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()

	projects := newFakeProjectRepo()
	reports := newFakeReportRepo(projects)
	index := search.NewIndex()
	mock := llm.NewMockClient()
	mock.CreateEmbeddingFunc = keywordEmbedding("budget", "schedule", "security")

	return &searchFixture{
		svc:      NewSearchService(mock, index, reports, projects, 5, 10, zap.NewNop()),
		index:    index,
		mock:     mock,
		reports:  reports,
		projects: projects,
	}
}

// publishReport seeds a published report directly into the fakes and the index.
func (f *searchFixture) publishReport(t *testing.T, summary string) *models.Report {
	t.Helper()
	ctx := context.Background()

	project := &models.Project{Name: "Project " + summary[:5], Agency: "DHS", VendorName: "Acme"}
	require.NoError(t, f.projects.Create(ctx, project))

	report := &models.Report{
		ProjectID: project.ID, AuthorID: testUser(models.RoleVendor).ID,
		ReportMonth: 1, ReportYear: 2026,
		Summary:       summary,
		CurrentStatus: models.RatingOnTrack, TeamPerformance: models.RatingOnTrack,
		ProjectManagement: models.RatingOnTrack, TechnicalReadiness: models.RatingOnTrack,
		AttachmentID: "attachments/x.pdf",
	}
	require.NoError(t, f.reports.Create(ctx, report))
	_, err := f.reports.SetApproval(ctx, report.ID, true)
	require.NoError(t, err)

	require.NoError(t, f.svc.IndexReport(ctx, report, project))
	return report
}

func TestSearchRanksBySimilarity(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	budget := f.publishReport(t, "budget overrun budget pressure budget risk")
	schedule := f.publishReport(t, "schedule slip on milestones")

	hits, err := f.svc.Search(ctx, "budget problems", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, budget.ID, hits[0].ReportID)
	assert.Equal(t, schedule.ID, hits[1].ReportID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchNeverReturnsUnpublished(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	report := f.publishReport(t, "budget findings everywhere")

	// Retract behind the index's back; verification must catch it.
	_, err := f.reports.SetApproval(ctx, report.ID, false)
	require.NoError(t, err)

	hits, err := f.svc.Search(ctx, "budget", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// The stale entry was evicted during verification.
	assert.Equal(t, 0, f.index.Len())
}

func TestSearchRetriesEmbeddingOnce(t *testing.T) {
	f := newSearchFixture(t)
	f.publishReport(t, "budget report")

	calls := 0
	inner := keywordEmbedding("budget", "schedule", "security")
	f.mock.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return inner(ctx, input)
	}

	hits, err := f.svc.Search(context.Background(), "budget", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, 2, calls)
}

func TestSearchEmbeddingFailureIsUpstreamError(t *testing.T) {
	f := newSearchFixture(t)
	f.mock.CreateEmbeddingFunc = func(ctx context.Context, input string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	_, err := f.svc.Search(context.Background(), "budget", 5)
	assert.ErrorIs(t, err, apperrors.ErrExternalDependency)
}

func TestAnswerGroundedWithCitations(t *testing.T) {
	f := newSearchFixture(t)
	f.publishReport(t, "budget overrun on data migration")

	f.mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		assert.Contains(t, prompt, "budget overrun on data migration")
		assert.Contains(t, prompt, "[1]")
		return "The migration effort is over budget [1].", nil
	}

	answer, err := f.svc.Answer(context.Background(), "which projects have budget issues?")
	require.NoError(t, err)

	assert.Equal(t, "The migration effort is over budget [1].", answer.Text)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "DHS", answer.Citations[0].Agency)
}

func TestAnswerEmptyCorpus(t *testing.T) {
	f := newSearchFixture(t)

	answer, err := f.svc.Answer(context.Background(), "anything?")
	require.NoError(t, err)

	assert.Empty(t, answer.Citations)
	assert.Contains(t, answer.Text, "No published reports")
	assert.Equal(t, 0, f.mock.GenerateResponseCalls)
}

func TestAnswerModelFailureFailsFast(t *testing.T) {
	f := newSearchFixture(t)
	f.publishReport(t, "budget report")

	f.mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return "", errors.New("model unavailable")
	}

	_, err := f.svc.Answer(context.Background(), "budget?")
	assert.ErrorIs(t, err, apperrors.ErrExternalDependency)
}

func TestRebuildReplacesIndex(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	f.publishReport(t, "budget one")
	f.publishReport(t, "schedule two")

	// Poison the index with a stale entry; rebuild must clear it.
	f.index.Upsert(search.Entry{ReportID: testUser(models.RoleUser).ID, Text: "stale", Vector: []float32{1, 1, 1}})
	require.Equal(t, 3, f.index.Len())

	f.mock.CreateEmbeddingsFunc = func(ctx context.Context, inputs []string) ([][]float32, error) {
		inner := keywordEmbedding("budget", "schedule", "security")
		out := make([][]float32, len(inputs))
		for i, in := range inputs {
			out[i], _ = inner(ctx, in)
		}
		return out, nil
	}

	require.NoError(t, f.svc.Rebuild(ctx))
	assert.Equal(t, 2, f.index.Len())
}

func TestSearchValidatesQuery(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.svc.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Answer(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
