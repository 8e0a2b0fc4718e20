package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, u := range f.users {
		if u.Email == user.Email || (user.ExternalID != "" && u.ExternalID == user.ExternalID) {
			return apperrors.ErrConflict
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	for _, u := range f.users {
		if u.ExternalID == externalID {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

type fakeProjectRepo struct {
	projects map[uuid.UUID]*models.Project
	members  map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		projects: make(map[uuid.UUID]*models.Project),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusOnTrack
	}
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjectRepo) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, project *models.Project) error {
	if _, ok := f.projects[project.ID]; !ok {
		return apperrors.ErrNotFound
	}
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.projects, id)
	delete(f.members, id)
	return nil
}

func (f *fakeProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeProjectRepo) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	if f.members[projectID] == nil {
		f.members[projectID] = make(map[uuid.UUID]bool)
	}
	f.members[projectID][userID] = true
	return nil
}

func (f *fakeProjectRepo) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	if !f.members[projectID][userID] {
		return apperrors.ErrNotFound
	}
	delete(f.members[projectID], userID)
	return nil
}

func (f *fakeProjectRepo) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	return f.members[projectID][userID], nil
}

func (f *fakeProjectRepo) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	var out []*models.ProjectMember
	for userID := range f.members[projectID] {
		out = append(out, &models.ProjectMember{ProjectID: projectID, UserID: userID})
	}
	return out, nil
}

func (f *fakeProjectRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	var out []*models.Project
	for projectID, users := range f.members {
		if users[userID] {
			if p, ok := f.projects[projectID]; ok {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

var _ repositories.ProjectRepository = (*fakeProjectRepo)(nil)

type fakeReportRepo struct {
	reports  map[uuid.UUID]*models.Report
	projects *fakeProjectRepo
}

func newFakeReportRepo(projects *fakeProjectRepo) *fakeReportRepo {
	return &fakeReportRepo{
		reports:  make(map[uuid.UUID]*models.Report),
		projects: projects,
	}
}

func (f *fakeReportRepo) Create(ctx context.Context, report *models.Report) error {
	for _, r := range f.reports {
		if r.ProjectID == report.ProjectID && r.ReportYear == report.ReportYear && r.ReportMonth == report.ReportMonth {
			return apperrors.ErrConflict
		}
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.Approved = false
	report.Published = false
	f.reports[report.ID] = report
	return nil
}

func (f *fakeReportRepo) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r, nil
}

func (f *fakeReportRepo) SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	r.Approved = approved
	r.Published = approved
	return r, nil
}

func (f *fakeReportRepo) SetFinalAttachment(ctx context.Context, id uuid.UUID, attachmentID string) error {
	r, ok := f.reports[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.FinalAttachmentID = &attachmentID
	return nil
}

func (f *fakeReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.reports[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeReportRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error) {
	var out []*models.Report
	for _, r := range f.reports {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReportRepo) ListPublished(ctx context.Context, filter *repositories.ReportFilter) ([]*models.ReportWithProject, error) {
	var out []*models.ReportWithProject
	for _, r := range f.reports {
		if !r.Published {
			continue
		}
		p, ok := f.projects.projects[r.ProjectID]
		if !ok {
			continue
		}
		if filter != nil {
			if filter.Agency != "" && p.Agency != filter.Agency {
				continue
			}
			if filter.Vendor != "" && p.VendorName != filter.Vendor {
				continue
			}
			if filter.Year != 0 && r.ReportYear != filter.Year {
				continue
			}
			if filter.Month != 0 && r.ReportMonth != filter.Month {
				continue
			}
		}
		out = append(out, &models.ReportWithProject{
			Report:        *r,
			ProjectName:   p.Name,
			Agency:        p.Agency,
			VendorName:    p.VendorName,
			ProjectStatus: p.Status,
		})
	}
	return out, nil
}

func (f *fakeReportRepo) ListAttachmentRefs(ctx context.Context) ([]string, error) {
	var refs []string
	for _, r := range f.reports {
		refs = append(refs, r.AttachmentRefs()...)
	}
	return refs, nil
}

func (f *fakeReportRepo) GetPublicFilters(ctx context.Context) (*repositories.PublicFilters, error) {
	filters := &repositories.PublicFilters{}
	seen := map[string]bool{}
	for _, r := range f.reports {
		if !r.Published {
			continue
		}
		p, ok := f.projects.projects[r.ProjectID]
		if !ok {
			continue
		}
		if !seen["a:"+p.Agency] {
			seen["a:"+p.Agency] = true
			filters.Agencies = append(filters.Agencies, p.Agency)
		}
		if !seen["v:"+p.VendorName] {
			seen["v:"+p.VendorName] = true
			filters.Vendors = append(filters.Vendors, p.VendorName)
		}
		period := r.Period()
		if !seen["p:"+period] {
			seen["p:"+period] = true
			filters.Periods = append(filters.Periods, period)
		}
	}
	return filters, nil
}

var _ repositories.ReportRepository = (*fakeReportRepo)(nil)

type fakeFindingRepo struct {
	findings map[uuid.UUID]*models.Finding
}

func newFakeFindingRepo() *fakeFindingRepo {
	return &fakeFindingRepo{findings: make(map[uuid.UUID]*models.Finding)}
}

func (f *fakeFindingRepo) Create(ctx context.Context, finding *models.Finding) error {
	if finding.ID == uuid.Nil {
		finding.ID = uuid.New()
	}
	if finding.Status == "" {
		finding.Status = models.FindingStatusOpen
	}
	f.findings[finding.ID] = finding
	return nil
}

func (f *fakeFindingRepo) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Finding, error) {
	var out []*models.Finding
	for _, fd := range f.findings {
		if fd.ReportID == reportID {
			out = append(out, fd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeFindingRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Finding, error) {
	var out []*models.Finding
	for _, fd := range f.findings {
		if fd.ProjectID == projectID {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (f *fakeFindingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	fd, ok := f.findings[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fd.Status = status
	return nil
}

var _ repositories.FindingRepository = (*fakeFindingRepo)(nil)

type fakeCommentRepo struct {
	comments []*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo { return &fakeCommentRepo{} }

func (f *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	f.comments = append(f.comments, comment)
	return nil
}

func (f *fakeCommentRepo) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*models.Comment, error) {
	var out []*models.Comment
	for _, c := range f.comments {
		if c.ReportID == reportID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) ListRecent(ctx context.Context, limit int) ([]*models.Comment, error) {
	out := append([]*models.Comment(nil), f.comments...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

var _ repositories.CommentRepository = (*fakeCommentRepo)(nil)

type fakeActivityRepo struct {
	entries []*models.ActivityEntry
}

func newFakeActivityRepo() *fakeActivityRepo { return &fakeActivityRepo{} }

func (f *fakeActivityRepo) Create(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeActivityRepo) List(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	out := append([]*models.ActivityEntry(nil), f.entries...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repositories.ActivityRepository = (*fakeActivityRepo)(nil)

// stubIndexer records index operations for lifecycle tests.
type stubIndexer struct {
	indexed []uuid.UUID
	removed []uuid.UUID
	err     error
}

func (s *stubIndexer) IndexReport(ctx context.Context, report *models.Report, project *models.Project) error {
	if s.err != nil {
		return s.err
	}
	s.indexed = append(s.indexed, report.ID)
	return nil
}

func (s *stubIndexer) RemoveReport(reportID uuid.UUID) {
	s.removed = append(s.removed, reportID)
}

var _ ReportIndexer = (*stubIndexer)(nil)

// testUser builds a user with the given role.
func testUser(role string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:     role,
		IsActive: true,
	}
}
