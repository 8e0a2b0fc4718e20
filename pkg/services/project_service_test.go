package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
	"github.com/ivv-works/ivv-engine/pkg/models"
)

func newProjectServiceFixture(t *testing.T) (ProjectService, *fakeProjectRepo, *fakeUserRepo) {
	t.Helper()
	projects := newFakeProjectRepo()
	users := newFakeUserRepo()
	activity := newFakeActivityRepo()
	return NewProjectService(projects, users, activity, zap.NewNop()), projects, users
}

func TestCreateProject(t *testing.T) {
	svc, _, _ := newProjectServiceFixture(t)
	ctx := context.Background()
	admin := testUser(models.RoleAdmin)

	start := "2025-07-01"
	project, err := svc.Create(ctx, admin, &ProjectInput{
		Name:       "Licensing Portal",
		Agency:     "DMV",
		VendorName: "Acme IV&V",
		StartDate:  &start,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ProjectStatusOnTrack, project.Status)
	assert.True(t, project.IsActive)
	require.NotNil(t, project.StartDate)
	assert.Equal(t, 2025, project.StartDate.Year())
}

func TestCreateProjectRejections(t *testing.T) {
	svc, _, _ := newProjectServiceFixture(t)
	ctx := context.Background()
	admin := testUser(models.RoleAdmin)

	_, err := svc.Create(ctx, testUser(models.RoleVendor), &ProjectInput{
		Name: "x", Agency: "y", VendorName: "z",
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Create(ctx, admin, &ProjectInput{Agency: "y", VendorName: "z"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Create(ctx, admin, &ProjectInput{
		Name: "x", Agency: "y", VendorName: "z", Status: "Fine",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	bad := "07/01/2025"
	_, err = svc.Create(ctx, admin, &ProjectInput{
		Name: "x", Agency: "y", VendorName: "z", StartDate: &bad,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestProjectListScopedByRole(t *testing.T) {
	svc, projects, _ := newProjectServiceFixture(t)
	ctx := context.Background()
	admin := testUser(models.RoleAdmin)
	vendor := testUser(models.RoleVendor)

	mine := &models.Project{Name: "Mine", Agency: "A", VendorName: "V"}
	other := &models.Project{Name: "Other", Agency: "A", VendorName: "W"}
	require.NoError(t, projects.Create(ctx, mine))
	require.NoError(t, projects.Create(ctx, other))
	require.NoError(t, projects.AddMember(ctx, mine.ID, vendor.ID))

	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.List(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, mine.ID, scoped[0].ID)

	// Non-members see other projects as absent, not forbidden.
	_, err = svc.Get(ctx, vendor, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMembership(t *testing.T) {
	svc, projects, users := newProjectServiceFixture(t)
	ctx := context.Background()
	admin := testUser(models.RoleAdmin)
	vendor := testUser(models.RoleVendor)
	require.NoError(t, users.Create(ctx, vendor))

	project := &models.Project{Name: "P", Agency: "A", VendorName: "V"}
	require.NoError(t, projects.Create(ctx, project))

	require.NoError(t, svc.AddMember(ctx, admin, project.ID, vendor.ID))

	member, err := projects.IsMember(ctx, project.ID, vendor.ID)
	require.NoError(t, err)
	assert.True(t, member)

	assert.ErrorIs(t, svc.AddMember(ctx, vendor, project.ID, vendor.ID), apperrors.ErrForbidden)

	require.NoError(t, svc.RemoveMember(ctx, admin, project.ID, vendor.ID))
	member, err = projects.IsMember(ctx, project.ID, vendor.ID)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestDeleteProject(t *testing.T) {
	svc, projects, _ := newProjectServiceFixture(t)
	ctx := context.Background()
	admin := testUser(models.RoleAdmin)

	project := &models.Project{Name: "Doomed", Agency: "A", VendorName: "V"}
	require.NoError(t, projects.Create(ctx, project))

	require.NoError(t, svc.Delete(ctx, admin, project.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, project.ID), apperrors.ErrNotFound)
}
