package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/middleware"
	"github.com/noah-isme/uni-adp-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Navigation *NavigationHandler
	Enrollment *EnrollmentHandler
	Shifting   *ShiftingHandler
	Grade      *GradeHandler
	Class      *ClassHandler
	Account    *AccountHandler
	Program    *ProgramHandler
	Subject    *SubjectHandler
	Student    *StudentHandler
	Payment    *PaymentHandler
	Document   *DocumentHandler
	Dashboard  *DashboardHandler
	Audit      *AuditHandler
	Report     *ReportHandler
}

// RegisterRoutes mounts all API routes under prefix. Authentication
// endpoints are public; everything else sits behind the JWT middleware
// with per-group page guards mirroring the role capability table.
func RegisterRoutes(r *gin.Engine, prefix string, authSvc *service.AuthService, h *Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.PUT("/auth/password", h.Auth.ChangePassword)
	protected.GET("/auth/me", h.Auth.Me)

	protected.GET("/pages/:page", h.Navigation.Resolve)
	protected.GET("/menu", h.Navigation.Menu)

	enrollments := protected.Group("/enrollments", middleware.RequirePage(authz.PageEnrollmentQueue))
	{
		enrollments.GET("", h.Enrollment.List)
		enrollments.POST("/:id/approve", h.Enrollment.Approve)
		enrollments.POST("/:id/reject", h.Enrollment.Reject)
	}

	shiftings := protected.Group("/shiftings", middleware.RequirePage(authz.PageShifting))
	{
		shiftings.GET("", h.Shifting.List)
		shiftings.POST("/:id/approve", h.Shifting.Approve)
		shiftings.POST("/:id/reject", h.Shifting.Reject)
	}

	protected.POST("/grades", middleware.RequireAction(authz.ActionRecordGrade), h.Grade.Record)
	protected.GET("/grades/:student/:code", middleware.RequirePage(authz.PageGrades), h.Grade.Get)

	sections := protected.Group("/sections")
	{
		sections.GET("", middleware.RequirePage(authz.PageClasses), h.Grade.Sections)
		sections.GET("/:code/roster", middleware.RequirePage(authz.PageGradeInput), h.Grade.Roster)
		sections.GET("/:code/grade-sheet", middleware.RequirePage(authz.PageGradeInput), h.Report.GradeSheet)
		sections.POST("/:code/roster", middleware.RequireAction(authz.ActionManageClassRoster), h.Class.AddStudent)
		sections.DELETE("/:code/roster/:student", middleware.RequireAction(authz.ActionManageClassRoster), h.Class.RemoveStudent)
	}

	accounts := protected.Group("/accounts", middleware.RequirePage(authz.PageAccounts))
	{
		accounts.GET("", h.Account.List)
		accounts.GET("/:id", h.Account.Get)
		accounts.POST("", h.Account.Create)
		accounts.PATCH("/:id/status", h.Account.SetActive)
		accounts.DELETE("/:id", h.Account.Delete)
	}

	programs := protected.Group("/programs", middleware.RequirePage(authz.PagePrograms))
	{
		programs.GET("", h.Program.List)
		programs.POST("", h.Program.Create)
		programs.DELETE("/:id", h.Program.Delete)
	}

	// Subjects are reachable both by the registrar (subjects page) and
	// the admin (curriculum editor); the service arbitrates between the
	// two capability paths, so the group carries no page guard.
	subjects := protected.Group("/subjects")
	{
		subjects.GET("", h.Subject.List)
		subjects.POST("", h.Subject.Create)
		subjects.DELETE("/:id", h.Subject.Delete)
	}

	students := protected.Group("/students", middleware.RequirePage(authz.PageStudents))
	{
		students.GET("", h.Student.List)
		students.GET("/:id", h.Student.Get)
		students.POST("", h.Student.Create)
		students.DELETE("/:id", h.Student.Delete)
		students.POST("/:id/payments", middleware.RequireAction(authz.ActionRecordPayment), h.Payment.Record)
		students.GET("/:id/payments", h.Payment.List)
		students.GET("/:id/payments/stats", h.Payment.Stats)
		students.POST("/:id/documents", h.Document.Upload)
		students.GET("/:id/documents", h.Document.List)
	}

	protected.POST("/documents/:id/verify", middleware.RequireAction(authz.ActionVerifyDocument), h.Document.Verify)

	// Transcript export is reachable by the registrar (students page) and the
	// admin; the service gates it on the export capability, so the route sits
	// outside the students-page guard.
	protected.GET("/students/:id/transcript", middleware.RequireAction(authz.ActionExportTranscript), h.Report.Transcript)

	protected.GET("/exports/:token", h.Report.Download)

	protected.GET("/dashboard/stats", middleware.RequirePage(authz.PageDashboard), h.Dashboard.Stats)
	protected.GET("/audit", middleware.RequirePage(authz.PageSystemLogs), h.Audit.List)
}
