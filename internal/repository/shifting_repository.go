package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

// ShiftingRepository persists program-transfer requests.
type ShiftingRepository struct {
	db *sqlx.DB
}

// NewShiftingRepository constructs the repository.
func NewShiftingRepository(db *sqlx.DB) *ShiftingRepository {
	return &ShiftingRepository{db: db}
}

const shiftingColumns = `id, student_id, student_name, gpa, current_program, requested_program, reason, submitted_at, status, decided_by, decided_at, rejection_reason`

// ListByStatus returns shifting requests in the given state, newest first.
func (r *ShiftingRepository) ListByStatus(ctx context.Context, filter models.RequestFilter) ([]models.ShiftingRequest, error) {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("SELECT %s FROM shifting_requests", shiftingColumns))

	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		builder.WriteString(" WHERE status = $1")
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

	var requests []models.ShiftingRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list shifting requests: %w", err)
	}
	return requests, nil
}

// CountByStatus returns the number of requests in the given state.
func (r *ShiftingRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM shifting_requests WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count shifting requests: %w", err)
	}
	return count, nil
}

// FindByID returns one shifting request.
func (r *ShiftingRepository) FindByID(ctx context.Context, id string) (*models.ShiftingRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM shifting_requests WHERE id = $1", shiftingColumns)
	var request models.ShiftingRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// DecideShiftingParams groups the columns written by a decision.
type DecideShiftingParams struct {
	ID              string
	Status          models.RequestStatus
	DecidedBy       string
	DecidedAt       time.Time
	RejectionReason *string
}

// Decide transitions a pending shifting request to its terminal state with a
// conditional UPDATE; a lost race or an already-decided request returns
// sql.ErrNoRows and writes nothing. Approval moves the student to the
// requested program in the same transaction.
func (r *ShiftingRepository) Decide(ctx context.Context, params DecideShiftingParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decision tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`UPDATE shifting_requests
        SET status = $2, decided_by = $3, decided_at = $4, rejection_reason = $5
        WHERE id = $1 AND status = '%s'`, models.RequestStatusPending)
	result, err := tx.ExecContext(ctx, query, params.ID, params.Status, params.DecidedBy, params.DecidedAt, params.RejectionReason)
	if err != nil {
		return fmt.Errorf("decide shifting request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if params.Status == models.RequestStatusApproved {
		const transfer = `UPDATE students SET program_id = p.id, updated_at = $2
            FROM shifting_requests sr
            JOIN programs p ON p.name = sr.requested_program
            WHERE sr.id = $1 AND students.id = sr.student_id`
		if _, err := tx.ExecContext(ctx, transfer, params.ID, params.DecidedAt); err != nil {
			return fmt.Errorf("apply program transfer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decision: %w", err)
	}
	return nil
}
