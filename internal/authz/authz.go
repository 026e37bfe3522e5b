// Package authz holds the static capability table mapping each console role
// to the pages it may open and the privileged actions it may invoke. Every
// routing and workflow decision consults this table; nothing else in the
// codebase branches on role strings.
package authz

import "github.com/noah-isme/uni-adp-api/internal/models"

// Page keys renderable by the console.
const (
	PageLogin            = "login"
	PageDashboard        = "dashboard"
	PageAccounts         = "accounts"
	PagePrograms         = "programs"
	PageStudents         = "students"
	PageSubjects         = "subjects"
	PageClasses          = "classes"
	PageGrades           = "grades"
	PageGradeInput       = "grade-input"
	PageEnrollmentQueue  = "enrollment-approval"
	PageShifting         = "shifting"
	PageCurriculumEditor = "curriculum-editor"
	PageSystemLogs       = "system-logs"
	PageProfile          = "profile"
	PageSettings         = "settings"
)

// Privileged actions gated by CanPerform.
const (
	ActionCreateAccount     = "create-account"
	ActionDeleteAccount     = "delete-account"
	ActionCreateProgram     = "create-program"
	ActionDeleteProgram     = "delete-program"
	ActionApproveEnrollment = "approve-enrollment"
	ActionRejectEnrollment  = "reject-enrollment"
	ActionApproveShifting   = "approve-shifting"
	ActionRejectShifting    = "reject-shifting"
	ActionEditCurriculum    = "edit-curriculum"
	ActionManageClassRoster = "manage-class-roster"
	ActionRecordGrade       = "record-grade"
	ActionCreateStudent     = "create-student"
	ActionDeleteStudent     = "delete-student"
	ActionCreateSubject     = "create-subject"
	ActionDeleteSubject     = "delete-subject"
	ActionExportTranscript  = "export-transcript"
	ActionRecordPayment     = "record-payment"
	ActionVerifyDocument    = "verify-document"
)

type capability struct {
	pages   map[string]struct{}
	actions map[string]struct{}
	landing string
}

var table = map[models.UserRole]capability{
	models.RoleAdmin: {
		pages: set(
			PageDashboard, PageAccounts, PagePrograms, PageEnrollmentQueue,
			PageShifting, PageCurriculumEditor, PageSystemLogs, PageProfile, PageSettings,
		),
		actions: set(
			ActionCreateAccount, ActionDeleteAccount,
			ActionCreateProgram, ActionDeleteProgram,
			ActionApproveEnrollment, ActionRejectEnrollment,
			ActionApproveShifting, ActionRejectShifting,
			ActionEditCurriculum, ActionExportTranscript,
		),
		landing: PageDashboard,
	},
	models.RoleFaculty: {
		pages: set(
			PageDashboard, PageClasses, PageGrades, PageGradeInput, PageProfile, PageSettings,
		),
		actions: set(
			ActionManageClassRoster, ActionRecordGrade,
		),
		landing: PageDashboard,
	},
	models.RoleRegistrar: {
		pages: set(
			PageDashboard, PageStudents, PagePrograms, PageSubjects,
			PageEnrollmentQueue, PageProfile, PageSettings,
		),
		actions: set(
			ActionCreateStudent, ActionDeleteStudent,
			ActionCreateSubject, ActionDeleteSubject,
			ActionApproveEnrollment, ActionRejectEnrollment,
			ActionExportTranscript, ActionRecordPayment, ActionVerifyDocument,
		),
		landing: PageDashboard,
	},
}

// CanAccess reports whether the role may open the given page. Unknown roles
// and unknown pages are denied.
func CanAccess(role models.UserRole, page string) bool {
	entry, ok := table[role]
	if !ok {
		return false
	}
	_, ok = entry.pages[page]
	return ok
}

// CanPerform reports whether the role may invoke the given privileged action.
func CanPerform(role models.UserRole, action string) bool {
	entry, ok := table[role]
	if !ok {
		return false
	}
	_, ok = entry.actions[action]
	return ok
}

// HasConsoleAccess reports whether the role may sign in to the console at all.
func HasConsoleAccess(role models.UserRole) bool {
	_, ok := table[role]
	return ok
}

// DefaultPage returns the role's landing page after login, or the login page
// for roles with no console access.
func DefaultPage(role models.UserRole) string {
	entry, ok := table[role]
	if !ok {
		return PageLogin
	}
	return entry.landing
}

// Pages returns the page keys visible to the role, for navigation menus.
func Pages(role models.UserRole) []string {
	entry, ok := table[role]
	if !ok {
		return nil
	}
	pages := make([]string, 0, len(entry.pages))
	for _, p := range pageOrder {
		if _, ok := entry.pages[p]; ok {
			pages = append(pages, p)
		}
	}
	return pages
}

// AllowedRoles returns every role permitted to open the page, for wiring
// route guards from the same table the services consult.
func AllowedRoles(page string) []models.UserRole {
	var roles []models.UserRole
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleFaculty, models.RoleRegistrar} {
		if CanAccess(role, page) {
			roles = append(roles, role)
		}
	}
	return roles
}

// pageOrder fixes menu ordering; it must list every page in the table.
var pageOrder = []string{
	PageDashboard, PageAccounts, PageStudents, PagePrograms, PageSubjects,
	PageClasses, PageGrades, PageGradeInput, PageEnrollmentQueue, PageShifting,
	PageCurriculumEditor, PageSystemLogs, PageProfile, PageSettings,
}

func set(keys ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}
