package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

// PaymentRepository persists fee payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Record inserts a completed payment.
func (r *PaymentRepository) Record(ctx context.Context, payment *models.Payment) error {
	const query = `INSERT INTO payments (id, student_id, amount, payment_method, reference_number, description, status, paid_at)
        VALUES (:id, :student_id, :amount, :payment_method, :reference_number, :description, :status, :paid_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}

// ListByStudent returns a student's payments, newest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	const query = `SELECT id, student_id, amount, payment_method, reference_number, description, status, paid_at
        FROM payments WHERE student_id = $1 ORDER BY paid_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	return payments, nil
}

// Stats aggregates the student's completed payments in one query.
func (r *PaymentRepository) Stats(ctx context.Context, studentID string) (*models.PaymentStats, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
        FROM payments WHERE student_id = $1 AND status = $2`
	var stats models.PaymentStats
	if err := r.db.GetContext(ctx, &stats, query, studentID, models.PaymentStatusCompleted); err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}
	return &stats, nil
}
