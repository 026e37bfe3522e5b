package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

func TestGradeRepositoryUpsertAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGradeRepository(db)
	midterm := 90

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grade_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.GradeRecord{
		StudentID:    "stud-1",
		SubjectCode:  "CS101",
		Midterm:      &midterm,
		Average:      90,
		NumericGrade: "1.0",
		RecordedBy:   "fac-1",
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(context.Background(), record))

	rows := sqlmock.NewRows([]string{"student_id", "subject_code", "midterm", "finals", "average", "numeric_grade", "recorded_by", "updated_at"}).
		AddRow("stud-1", "CS101", 90, nil, 90.0, "1.0", "fac-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, subject_code, midterm, finals")).
		WithArgs("stud-1", "CS101").
		WillReturnRows(rows)

	found, err := repo.Find(context.Background(), "stud-1", "CS101")
	require.NoError(t, err)
	require.NotNil(t, found.Midterm)
	require.Equal(t, 90, *found.Midterm)
	require.Nil(t, found.Finals)
	require.Equal(t, "1.0", found.NumericGrade)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositorySectionRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGradeRepository(db)
	rows := sqlmock.NewRows([]string{"student_id", "student_name", "midterm", "finals", "average", "numeric_grade"}).
		AddRow("stud-1", "Juan Dela Cruz", 85, nil, 85.0, "1.5").
		AddRow("stud-2", "Maria Garcia", nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sr.student_id, s.full_name AS student_name")).
		WithArgs("CS101", "1st Sem 2025-2026").
		WillReturnRows(rows)

	roster, err := repo.SectionRoster(context.Background(), "CS101", "1st Sem 2025-2026")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.NotNil(t, roster[0].Midterm)
	require.Nil(t, roster[1].Midterm)
	require.NoError(t, mock.ExpectationsWereMet())
}
