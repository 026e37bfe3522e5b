package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

// EnrollmentRepository persists enrollment requests and the subject
// registrations produced when one is approved.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, student_name, program, year_level, semester, submitted_at, status, decided_by, decided_at, rejection_reason`

// ListByStatus returns enrollment requests in the given state, newest first.
func (r *EnrollmentRepository) ListByStatus(ctx context.Context, filter models.RequestFilter) ([]models.EnrollmentRequest, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM enrollment_requests", enrollmentColumns))

	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.EnrollmentRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list enrollment requests: %w", err)
	}

	if err := r.attachSubjects(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CountByStatus returns the number of requests in the given state.
func (r *EnrollmentRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollment_requests WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count enrollment requests: %w", err)
	}
	return count, nil
}

// FindByID returns one enrollment request with its requested subjects.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollment_requests WHERE id = $1", enrollmentColumns)
	var request models.EnrollmentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	requests := []models.EnrollmentRequest{request}
	if err := r.attachSubjects(ctx, requests); err != nil {
		return nil, err
	}
	return &requests[0], nil
}

// DecideEnrollmentParams groups the columns written by a decision.
type DecideEnrollmentParams struct {
	ID              string
	Status          models.RequestStatus
	DecidedBy       string
	DecidedAt       time.Time
	RejectionReason *string
}

// Decide transitions a pending request to its terminal state. The UPDATE is
// conditional on the row still being PENDING; when another decision won the
// race (or the request is already terminal) no rows match and sql.ErrNoRows
// is returned with nothing written. Approval additionally makes the requested
// subjects durable as registrations inside the same transaction.
func (r *EnrollmentRepository) Decide(ctx context.Context, params DecideEnrollmentParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decision tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`UPDATE enrollment_requests
        SET status = $2, decided_by = $3, decided_at = $4, rejection_reason = $5
        WHERE id = $1 AND status = '%s'`, models.RequestStatusPending)
	result, err := tx.ExecContext(ctx, query, params.ID, params.Status, params.DecidedBy, params.DecidedAt, params.RejectionReason)
	if err != nil {
		return fmt.Errorf("decide enrollment request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if params.Status == models.RequestStatusApproved {
		if err := r.registerSubjects(ctx, tx, params.ID, params.DecidedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decision: %w", err)
	}
	return nil
}

// registerSubjects copies the request's subject list into durable
// registrations for the student.
func (r *EnrollmentRepository) registerSubjects(ctx context.Context, tx *sqlx.Tx, requestID string, registeredAt time.Time) error {
	rows, err := tx.QueryxContext(ctx, `SELECT ers.code, er.student_id, er.semester
        FROM enrollment_requests er
        JOIN enrollment_request_subjects ers ON ers.request_id = er.id
        WHERE er.id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("load requested subjects: %w", err)
	}
	type pending struct {
		code      string
		studentID string
		semester  string
	}
	var batch []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.code, &p.studentID, &p.semester); err != nil {
			rows.Close()
			return fmt.Errorf("scan requested subject: %w", err)
		}
		batch = append(batch, p)
	}
	rows.Close()

	const insert = `INSERT INTO subject_registrations (id, student_id, subject_code, semester, registered_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, subject_code, semester) DO NOTHING`
	for _, p := range batch {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), p.studentID, p.code, p.semester, registeredAt); err != nil {
			return fmt.Errorf("register subject %s: %w", p.code, err)
		}
	}
	return nil
}

// attachSubjects loads the requested subject lists for the given requests.
func (r *EnrollmentRepository) attachSubjects(ctx context.Context, requests []models.EnrollmentRequest) error {
	if len(requests) == 0 {
		return nil
	}
	ids := make([]interface{}, len(requests))
	placeholders := make([]string, len(requests))
	index := make(map[string]int, len(requests))
	for i := range requests {
		ids[i] = requests[i].ID
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		index[requests[i].ID] = i
	}

	query := fmt.Sprintf(`SELECT request_id, code, title, units FROM enrollment_request_subjects
        WHERE request_id IN (%s) ORDER BY code`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, ids...)
	if err != nil {
		return fmt.Errorf("load request subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var requestID string
		var ref models.SubjectRef
		if err := rows.Scan(&requestID, &ref.Code, &ref.Title, &ref.Units); err != nil {
			return fmt.Errorf("scan request subject: %w", err)
		}
		if i, ok := index[requestID]; ok {
			requests[i].Subjects = append(requests[i].Subjects, ref)
		}
	}
	return rows.Err()
}
