package models

import "time"

// Program is a degree program students enroll into.
type Program struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is a unit of the curriculum offered under a program.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	Units     int       `db:"units" json:"units"`
	ProgramID string    `db:"program_id" json:"program_id"`
	YearLevel string    `db:"year_level" json:"year_level"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter scopes subject listings to a program / year level.
type SubjectFilter struct {
	ProgramID string
	YearLevel string
	Active    *bool
}
