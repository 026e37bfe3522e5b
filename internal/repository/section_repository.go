package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

// SectionRepository resolves who teaches what.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// IsInstructor reports whether the faculty member is the instructor of record
// for the subject in the given semester.
func (r *SectionRepository) IsInstructor(ctx context.Context, facultyID, subjectCode, semester string) (bool, error) {
	const query = `SELECT 1 FROM class_sections WHERE faculty_id = $1 AND subject_code = $2 AND semester = $3 LIMIT 1`
	var found int
	if err := r.db.GetContext(ctx, &found, query, facultyID, subjectCode, semester); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section instructor: %w", err)
	}
	return true, nil
}

// AddToRoster registers a student into the subject section. Re-adding an
// already registered student is a no-op.
func (r *SectionRepository) AddToRoster(ctx context.Context, registration *models.SubjectRegistration) error {
	const query = `INSERT INTO subject_registrations (id, student_id, subject_code, semester, registered_at)
        VALUES (:id, :student_id, :subject_code, :semester, :registered_at)
        ON CONFLICT (student_id, subject_code, semester) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("add to roster: %w", err)
	}
	return nil
}

// RemoveFromRoster drops a student's registration for the subject section.
// Returns sql.ErrNoRows when no such registration exists.
func (r *SectionRepository) RemoveFromRoster(ctx context.Context, studentID, subjectCode, semester string) error {
	const query = `DELETE FROM subject_registrations WHERE student_id = $1 AND subject_code = $2 AND semester = $3`
	result, err := r.db.ExecContext(ctx, query, studentID, subjectCode, semester)
	if err != nil {
		return fmt.Errorf("remove from roster: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check roster removal: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByFaculty returns the sections assigned to a faculty member.
func (r *SectionRepository) ListByFaculty(ctx context.Context, facultyID, semester string) ([]models.ClassSection, error) {
	const query = `SELECT id, subject_code, section, faculty_id, semester
        FROM class_sections WHERE faculty_id = $1 AND semester = $2 ORDER BY subject_code ASC`
	var sections []models.ClassSection
	if err := r.db.SelectContext(ctx, &sections, query, facultyID, semester); err != nil {
		return nil, fmt.Errorf("list faculty sections: %w", err)
	}
	return sections, nil
}
