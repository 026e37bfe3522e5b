package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryDecideApprove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_requests")).
		WithArgs("req-1", models.RequestStatusApproved, "reg-1", now, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ers.code, er.student_id, er.semester")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"code", "student_id", "semester"}).
			AddRow("CS101", "stud-1", "1st Sem 2025-2026").
			AddRow("MATH201", "stud-1", "1st Sem 2025-2026"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_registrations")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_registrations")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Decide(context.Background(), DecideEnrollmentParams{
		ID:        "req-1",
		Status:    models.RequestStatusApproved,
		DecidedBy: "reg-1",
		DecidedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDecideRejectSkipsRegistrations(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	now := time.Now().UTC()
	reason := "incomplete requirements"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_requests")).
		WithArgs("req-1", models.RequestStatusRejected, "adm-1", now, reason).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Decide(context.Background(), DecideEnrollmentParams{
		ID:              "req-1",
		Status:          models.RequestStatusRejected,
		DecidedBy:       "adm-1",
		DecidedAt:       now,
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDecideLosesRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)

	// The conditional UPDATE matches no rows when the request left PENDING
	// between the read and the write. Nothing is committed.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Decide(context.Background(), DecideEnrollmentParams{
		ID:        "req-1",
		Status:    models.RequestStatusApproved,
		DecidedBy: "reg-1",
		DecidedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByStatusAttachesSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	submitted := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, student_name, program")).
		WithArgs(models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "student_id", "student_name", "program", "year_level", "semester",
			"submitted_at", "status", "decided_by", "decided_at", "rejection_reason",
		}).AddRow("req-1", "stud-1", "Juan Dela Cruz", "BS Computer Science", "1st Year",
			"1st Sem 2025-2026", submitted, "PENDING", nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT request_id, code, title, units FROM enrollment_request_subjects")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"request_id", "code", "title", "units"}).
			AddRow("req-1", "CS101", "Intro to Computing", 3))

	requests, err := repo.ListByStatus(context.Background(), models.RequestFilter{Status: models.RequestStatusPending})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, "req-1", requests[0].ID)
	require.Len(t, requests[0].Subjects, 1)
	require.Equal(t, "CS101", requests[0].Subjects[0].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
