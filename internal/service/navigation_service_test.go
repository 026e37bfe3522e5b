package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	"github.com/noah-isme/uni-adp-api/internal/session"
)

func TestNavigationResolveWithoutSession(t *testing.T) {
	svc := NewNavigationService(session.NewMemoryStore(), nil)

	for _, page := range []string{
		authz.PageDashboard, authz.PageAccounts, authz.PageGradeInput,
		authz.PageSystemLogs, "nonexistent",
	} {
		resolution, err := svc.Resolve(context.Background(), page)
		require.NoError(t, err)
		assert.Equal(t, authz.PageLogin, resolution.Page, "page %s", page)
		assert.True(t, resolution.Redirected)
		assert.Nil(t, resolution.Identity)
	}
}

func TestNavigationResolveLoginWithoutSession(t *testing.T) {
	svc := NewNavigationService(session.NewMemoryStore(), nil)

	resolution, err := svc.Resolve(context.Background(), authz.PageLogin)
	require.NoError(t, err)
	assert.Equal(t, authz.PageLogin, resolution.Page)
	assert.False(t, resolution.Redirected)
}

func TestNavigationResolveAllowedPage(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), facultyActor()))
	svc := NewNavigationService(store, nil)

	resolution, err := svc.Resolve(context.Background(), authz.PageGradeInput)
	require.NoError(t, err)
	assert.Equal(t, authz.PageGradeInput, resolution.Page)
	assert.False(t, resolution.Redirected)
	require.NotNil(t, resolution.Identity)
	assert.Equal(t, models.RoleFaculty, resolution.Identity.Role)
	assert.Contains(t, resolution.Menu, authz.PageClasses)
	assert.NotContains(t, resolution.Menu, authz.PageAccounts)
}

func TestNavigationResolveDeniedPageRedirectsToLanding(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), facultyActor()))
	svc := NewNavigationService(store, nil)

	resolution, err := svc.Resolve(context.Background(), authz.PageAccounts)
	require.NoError(t, err)
	assert.Equal(t, authz.PageDashboard, resolution.Page)
	assert.True(t, resolution.Redirected)
}

func TestNavigationResolveLoginWhileAuthenticated(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), adminActor()))
	svc := NewNavigationService(store, nil)

	resolution, err := svc.Resolve(context.Background(), authz.PageLogin)
	require.NoError(t, err)
	assert.Equal(t, authz.PageDashboard, resolution.Page)
	assert.True(t, resolution.Redirected)
}

func TestNavigationMenu(t *testing.T) {
	store := session.NewMemoryStore()
	svc := NewNavigationService(store, nil)

	menu, err := svc.Menu(context.Background())
	require.NoError(t, err)
	assert.Nil(t, menu)

	require.NoError(t, store.Save(context.Background(), registrarActor()))
	menu, err = svc.Menu(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		authz.PageDashboard, authz.PageStudents, authz.PagePrograms,
		authz.PageSubjects, authz.PageEnrollmentQueue, authz.PageProfile, authz.PageSettings,
	}, menu)
}
