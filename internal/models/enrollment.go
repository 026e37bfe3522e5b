package models

import "time"

// RequestStatus captures workflow states shared by the approval queues.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// SubjectRef identifies a subject a student asked to register for.
type SubjectRef struct {
	Code  string `db:"code" json:"code"`
	Title string `db:"title" json:"title"`
	Units int    `db:"units" json:"units"`
}

// EnrollmentRequest is a student's pending subject-registration request.
type EnrollmentRequest struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"student_id"`
	StudentName     string        `db:"student_name" json:"student_name"`
	Program         string        `db:"program" json:"program"`
	YearLevel       string        `db:"year_level" json:"year_level"`
	Semester        string        `db:"semester" json:"semester"`
	SubmittedAt     time.Time     `db:"submitted_at" json:"submitted_at"`
	Status          RequestStatus `db:"status" json:"status"`
	DecidedBy       *string       `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt       *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
	RejectionReason *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Subjects        []SubjectRef  `json:"requested_subjects"`
}

// SubjectRegistration is the durable record created when a request is approved.
type SubjectRegistration struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SubjectCode  string    `db:"subject_code" json:"subject_code"`
	Semester     string    `db:"semester" json:"semester"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

// RequestFilter constrains approval-queue listings.
type RequestFilter struct {
	Status   RequestStatus
	Semester string
	Limit    int
	Offset   int
}
