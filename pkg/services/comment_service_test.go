package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

type commentFixture struct {
	svc      CommentService
	comments *fakeCommentRepo
	admin    *models.User
	vendor   *models.User
	report   *models.Report
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	ctx := context.Background()

	projects := newFakeProjectRepo()
	reports := newFakeReportRepo(projects)
	comments := newFakeCommentRepo()
	activity := newFakeActivityRepo()

	admin := testUser(models.RoleAdmin)
	vendor := testUser(models.RoleVendor)

	project := &models.Project{Name: "Tax System", Agency: "DOR", VendorName: "Acme"}
	require.NoError(t, projects.Create(ctx, project))
	require.NoError(t, projects.AddMember(ctx, project.ID, vendor.ID))

	report := &models.Report{
		ProjectID: project.ID, AuthorID: vendor.ID,
		ReportMonth: 5, ReportYear: 2026,
		Summary: "s", AttachmentID: "attachments/a.pdf",
		CurrentStatus: models.RatingOnTrack, TeamPerformance: models.RatingOnTrack,
		ProjectManagement: models.RatingOnTrack, TechnicalReadiness: models.RatingOnTrack,
	}
	require.NoError(t, reports.Create(ctx, report))

	return &commentFixture{
		svc:      NewCommentService(comments, reports, projects, activity, zap.NewNop()),
		comments: comments,
		admin:    admin,
		vendor:   vendor,
		report:   report,
	}
}

func TestAddComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.svc.Add(ctx, f.vendor, f.report.ID, "  Responding to the review feedback.  ")
	require.NoError(t, err)

	assert.Equal(t, "Responding to the review feedback.", comment.Content)
	assert.Equal(t, f.report.ProjectID, comment.ProjectID)

	// Admins comment anywhere.
	_, err = f.svc.Add(ctx, f.admin, f.report.ID, "Please expand the risk section.")
	assert.NoError(t, err)

	listed, err := f.svc.ListByReport(ctx, f.vendor, f.report.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestAddCommentRejections(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, nil, f.report.ID, "hi")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	outsider := testUser(models.RoleVendor)
	_, err = f.svc.Add(ctx, outsider, f.report.ID, "hi")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Add(ctx, f.vendor, f.report.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Add(ctx, f.vendor, f.report.ID, strings.Repeat("x", maxCommentLength+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestListRecentAdminOnly(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListRecent(ctx, f.vendor, 10)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.ListRecent(ctx, f.admin, 10)
	assert.NoError(t, err)
}
