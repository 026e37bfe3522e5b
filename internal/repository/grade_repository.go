package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

// GradeRepository persists grade records keyed by (student, subject).
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Find returns the grade record for a student and subject.
func (r *GradeRepository) Find(ctx context.Context, studentID, subjectCode string) (*models.GradeRecord, error) {
	const query = `SELECT student_id, subject_code, midterm, finals, average, numeric_grade, recorded_by, updated_at
        FROM grade_records WHERE student_id = $1 AND subject_code = $2`
	var record models.GradeRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, subjectCode); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes the record, replacing any previous one for the same student
// and subject. Last write wins; there is no versioning.
func (r *GradeRepository) Upsert(ctx context.Context, record *models.GradeRecord) error {
	const query = `INSERT INTO grade_records (student_id, subject_code, midterm, finals, average, numeric_grade, recorded_by, updated_at)
        VALUES (:student_id, :subject_code, :midterm, :finals, :average, :numeric_grade, :recorded_by, :updated_at)
        ON CONFLICT (student_id, subject_code) DO UPDATE SET
            midterm = EXCLUDED.midterm,
            finals = EXCLUDED.finals,
            average = EXCLUDED.average,
            numeric_grade = EXCLUDED.numeric_grade,
            recorded_by = EXCLUDED.recorded_by,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert grade record: %w", err)
	}
	return nil
}

// SectionRoster lists registered students for a subject section with their
// current marks, for the grade-input page.
func (r *GradeRepository) SectionRoster(ctx context.Context, subjectCode, semester string) ([]models.SectionRosterEntry, error) {
	const query = `SELECT sr.student_id, s.full_name AS student_name,
            g.midterm, g.finals, g.average, g.numeric_grade
        FROM subject_registrations sr
        JOIN students s ON s.id = sr.student_id
        LEFT JOIN grade_records g ON g.student_id = sr.student_id AND g.subject_code = sr.subject_code
        WHERE sr.subject_code = $1 AND sr.semester = $2
        ORDER BY s.full_name ASC`
	var roster []models.SectionRosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, subjectCode, semester); err != nil {
		return nil, fmt.Errorf("load section roster: %w", err)
	}
	return roster, nil
}

// Transcript returns the student's graded subjects across semesters.
func (r *GradeRepository) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `SELECT g.subject_code, sub.title AS subject_title, sub.units,
            sr.semester, g.average, g.numeric_grade
        FROM grade_records g
        JOIN subjects sub ON sub.code = g.subject_code
        JOIN subject_registrations sr ON sr.student_id = g.student_id AND sr.subject_code = g.subject_code
        WHERE g.student_id = $1 AND g.numeric_grade <> ''
        ORDER BY sr.semester ASC, g.subject_code ASC`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return rows, nil
}
