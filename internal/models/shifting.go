package models

import "time"

// ShiftingRequest is a student's pending program-transfer request.
type ShiftingRequest struct {
	ID               string        `db:"id" json:"id"`
	StudentID        string        `db:"student_id" json:"student_id"`
	StudentName      string        `db:"student_name" json:"student_name"`
	GPA              float64       `db:"gpa" json:"gpa"`
	CurrentProgram   string        `db:"current_program" json:"current_program"`
	RequestedProgram string        `db:"requested_program" json:"requested_program"`
	Reason           string        `db:"reason" json:"reason"`
	SubmittedAt      time.Time     `db:"submitted_at" json:"submitted_at"`
	Status           RequestStatus `db:"status" json:"status"`
	DecidedBy        *string       `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt        *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
	RejectionReason  *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
}
