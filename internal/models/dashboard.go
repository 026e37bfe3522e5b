package models

import "time"

// DashboardStats are the headline counters shown on the landing page.
type DashboardStats struct {
	ActiveStudents     int       `json:"active_students"`
	ActivePrograms     int       `json:"active_programs"`
	PendingEnrollments int       `json:"pending_enrollments"`
	PendingShiftings   int       `json:"pending_shiftings"`
	GeneratedAt        time.Time `json:"generated_at"`
}
