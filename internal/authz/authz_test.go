package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

var allPages = []string{
	PageDashboard, PageAccounts, PagePrograms, PageStudents, PageSubjects,
	PageClasses, PageGrades, PageGradeInput, PageEnrollmentQueue, PageShifting,
	PageCurriculumEditor, PageSystemLogs, PageProfile, PageSettings,
}

func TestCanAccessMatchesCapabilityTable(t *testing.T) {
	expected := map[models.UserRole][]string{
		models.RoleAdmin: {
			PageDashboard, PageAccounts, PagePrograms, PageEnrollmentQueue,
			PageShifting, PageCurriculumEditor, PageSystemLogs, PageProfile, PageSettings,
		},
		models.RoleFaculty: {
			PageDashboard, PageClasses, PageGrades, PageGradeInput, PageProfile, PageSettings,
		},
		models.RoleRegistrar: {
			PageDashboard, PageStudents, PagePrograms, PageSubjects,
			PageEnrollmentQueue, PageProfile, PageSettings,
		},
	}

	for role, pages := range expected {
		allowed := make(map[string]bool, len(pages))
		for _, p := range pages {
			allowed[p] = true
		}
		for _, page := range allPages {
			assert.Equalf(t, allowed[page], CanAccess(role, page), "role %s page %s", role, page)
		}
	}
}

func TestCanAccessDeniesByDefault(t *testing.T) {
	// Unknown pages are denied for every role, admin included.
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleFaculty, models.RoleRegistrar, models.RoleStudent} {
		assert.False(t, CanAccess(role, "billing"))
		assert.False(t, CanAccess(role, ""))
	}

	// Students hold no console pages.
	for _, page := range allPages {
		assert.False(t, CanAccess(models.RoleStudent, page))
	}

	// A role outside the table is denied everything.
	assert.False(t, CanAccess(models.UserRole("JANITOR"), PageDashboard))
}

func TestCanPerform(t *testing.T) {
	cases := []struct {
		role   models.UserRole
		action string
		want   bool
	}{
		{models.RoleAdmin, ActionCreateAccount, true},
		{models.RoleAdmin, ActionApproveEnrollment, true},
		{models.RoleAdmin, ActionApproveShifting, true},
		{models.RoleAdmin, ActionEditCurriculum, true},
		{models.RoleAdmin, ActionRecordGrade, false},
		{models.RoleAdmin, ActionCreateStudent, false},
		{models.RoleFaculty, ActionRecordGrade, true},
		{models.RoleFaculty, ActionManageClassRoster, true},
		{models.RoleFaculty, ActionApproveEnrollment, false},
		{models.RoleFaculty, ActionCreateAccount, false},
		{models.RoleRegistrar, ActionApproveEnrollment, true},
		{models.RoleRegistrar, ActionRejectEnrollment, true},
		{models.RoleRegistrar, ActionCreateStudent, true},
		{models.RoleRegistrar, ActionCreateSubject, true},
		{models.RoleRegistrar, ActionApproveShifting, false},
		{models.RoleRegistrar, ActionDeleteAccount, false},
		{models.RoleAdmin, ActionExportTranscript, true},
		{models.RoleRegistrar, ActionExportTranscript, true},
		{models.RoleFaculty, ActionExportTranscript, false},
		{models.RoleRegistrar, ActionRecordPayment, true},
		{models.RoleRegistrar, ActionVerifyDocument, true},
		{models.RoleAdmin, ActionRecordPayment, false},
		{models.RoleAdmin, ActionVerifyDocument, false},
		{models.RoleStudent, ActionRecordGrade, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, CanPerform(tc.role, tc.action), "role %s action %s", tc.role, tc.action)
	}
}

func TestEnrollmentApprovalIsSetMembership(t *testing.T) {
	// Both admin and registrar may approve enrollment; nobody else.
	roles := AllowedRoles(PageEnrollmentQueue)
	require.ElementsMatch(t, []models.UserRole{models.RoleAdmin, models.RoleRegistrar}, roles)
}

func TestDefaultPage(t *testing.T) {
	assert.Equal(t, PageDashboard, DefaultPage(models.RoleAdmin))
	assert.Equal(t, PageDashboard, DefaultPage(models.RoleFaculty))
	assert.Equal(t, PageDashboard, DefaultPage(models.RoleRegistrar))
	assert.Equal(t, PageLogin, DefaultPage(models.RoleStudent))
	assert.Equal(t, PageLogin, DefaultPage(models.UserRole("")))
}

func TestPagesFollowMenuOrder(t *testing.T) {
	pages := Pages(models.RoleRegistrar)
	require.Equal(t, []string{
		PageDashboard, PageStudents, PagePrograms, PageSubjects,
		PageEnrollmentQueue, PageProfile, PageSettings,
	}, pages)
}

func TestPageOrderCoversCapabilityTable(t *testing.T) {
	ordered := make(map[string]struct{}, len(pageOrder))
	for _, page := range pageOrder {
		_, dup := ordered[page]
		require.Falsef(t, dup, "page %s listed twice in menu order", page)
		ordered[page] = struct{}{}
	}
	for role, entry := range table {
		for page := range entry.pages {
			assert.Containsf(t, ordered, page, "page %s of role %s missing from menu order", page, role)
		}
	}
}

func TestConsoleAccessByRole(t *testing.T) {
	assert.True(t, HasConsoleAccess(models.RoleAdmin))
	assert.True(t, HasConsoleAccess(models.RoleFaculty))
	assert.True(t, HasConsoleAccess(models.RoleRegistrar))
	assert.False(t, HasConsoleAccess(models.RoleStudent))
	assert.False(t, HasConsoleAccess(models.UserRole("")))
}
