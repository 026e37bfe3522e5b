package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	ProgramID     string    `db:"program_id" json:"program_id"`
	YearLevel     string    `db:"year_level" json:"year_level"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ProgramID string
	Active    *bool
	Page      int
	PageSize  int
}

// StudentDetail contains student information with program context.
type StudentDetail struct {
	Student
	ProgramName *string `db:"program_name" json:"program_name,omitempty"`
}
