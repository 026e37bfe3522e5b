package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type paymentStore interface {
	Record(ctx context.Context, payment *models.Payment) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	Stats(ctx context.Context, studentID string) (*models.PaymentStats, error)
}

// RecordPaymentRequest is the registrar payload for posting a fee payment.
type RecordPaymentRequest struct {
	StudentID       string  `json:"student_id" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Method          string  `json:"payment_method" validate:"required"`
	ReferenceNumber string  `json:"reference_number"`
	Description     string  `json:"description"`
}

// PaymentService records and reports student fee payments. Payments are
// written once as completed; corrections happen outside this system.
type PaymentService struct {
	payments  paymentStore
	students  studentReader
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentService constructs the service.
func NewPaymentService(payments paymentStore, students studentReader, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:  payments,
		students:  students,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record posts a completed payment against a student.
func (s *PaymentService) Record(ctx context.Context, actor models.Identity, req RecordPaymentRequest) (*models.Payment, error) {
	if !authz.CanPerform(actor.Role, authz.ActionRecordPayment) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	payment := &models.Payment{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		Amount:    req.Amount,
		Method:    strings.TrimSpace(req.Method),
		Status:    models.PaymentStatusCompleted,
		PaidAt:    s.now(),
	}
	if ref := strings.TrimSpace(req.ReferenceNumber); ref != "" {
		payment.ReferenceNumber = &ref
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		payment.Description = &desc
	}
	if err := s.payments.Record(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.emitAudit(ctx, actor, payment)
	return payment, nil
}

// List returns a student's payments, newest first.
func (s *PaymentService) List(ctx context.Context, actor models.Identity, studentID string) ([]models.Payment, error) {
	if !authz.CanAccess(actor.Role, authz.PageStudents) {
		return nil, appErrors.ErrForbidden
	}
	payments, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// Stats returns the student's completed payment totals.
func (s *PaymentService) Stats(ctx context.Context, actor models.Identity, studentID string) (*models.PaymentStats, error) {
	if !authz.CanAccess(actor.Role, authz.PageStudents) {
		return nil, appErrors.ErrForbidden
	}
	stats, err := s.payments.Stats(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate payments")
	}
	return stats, nil
}

func (s *PaymentService) emitAudit(ctx context.Context, actor models.Identity, payment *models.Payment) {
	if s.audit == nil {
		return
	}
	details, _ := json.Marshal(map[string]interface{}{
		"student_id": payment.StudentID,
		"amount":     payment.Amount,
		"method":     payment.Method,
	})
	entry := &models.AuditLog{
		ActorID:    &actor.ID,
		Action:     models.AuditActionPaymentRecord,
		EntityType: "payment",
		EntityID:   &payment.ID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append payment audit entry", zap.Error(err))
	}
}
