package models

import "time"

// GradeRecord stores the midterm/finals marks for one student and subject.
// Average and NumericGrade are derived, never written directly by callers.
type GradeRecord struct {
	StudentID    string    `db:"student_id" json:"student_id"`
	SubjectCode  string    `db:"subject_code" json:"subject_code"`
	Midterm      *int      `db:"midterm" json:"midterm,omitempty"`
	Finals       *int      `db:"finals" json:"finals,omitempty"`
	Average      float64   `db:"average" json:"average"`
	NumericGrade string    `db:"numeric_grade" json:"numeric_grade,omitempty"`
	RecordedBy   string    `db:"recorded_by" json:"recorded_by"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSection ties a subject section to its instructor of record.
type ClassSection struct {
	ID          string `db:"id" json:"id"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	Section     string `db:"section" json:"section"`
	FacultyID   string `db:"faculty_id" json:"faculty_id"`
	Semester    string `db:"semester" json:"semester"`
}

// SectionRosterEntry pairs a registered student with their grade record, if any.
type SectionRosterEntry struct {
	StudentID    string   `db:"student_id" json:"student_id"`
	StudentName  string   `db:"student_name" json:"student_name"`
	Midterm      *int     `db:"midterm" json:"midterm,omitempty"`
	Finals       *int     `db:"finals" json:"finals,omitempty"`
	Average      *float64 `db:"average" json:"average,omitempty"`
	NumericGrade *string  `db:"numeric_grade" json:"numeric_grade,omitempty"`
}

// TranscriptRow is a single line of a student transcript.
type TranscriptRow struct {
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	SubjectTitle string  `db:"subject_title" json:"subject_title"`
	Units        int     `db:"units" json:"units"`
	Semester     string  `db:"semester" json:"semester"`
	Average      float64 `db:"average" json:"average"`
	NumericGrade string  `db:"numeric_grade" json:"numeric_grade"`
}
