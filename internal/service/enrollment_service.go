package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	"github.com/noah-isme/uni-adp-api/internal/repository"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type enrollmentRequestStore interface {
	ListByStatus(ctx context.Context, filter models.RequestFilter) ([]models.EnrollmentRequest, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentRequest, error)
	Decide(ctx context.Context, params repository.DecideEnrollmentParams) error
}

type auditAppender interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// EnrollmentService drives the enrollment-approval workflow: a pending
// request resolves exactly once, to approved or rejected.
type EnrollmentService struct {
	repo   enrollmentRequestStore
	audit  auditAppender
	logger *zap.Logger
	now    func() time.Time
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(repo enrollmentRequestStore, audit auditAppender, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns requests in the given state for the approval queue.
func (s *EnrollmentService) List(ctx context.Context, actor models.Identity, filter models.RequestFilter) ([]models.EnrollmentRequest, error) {
	if !authz.CanAccess(actor.Role, authz.PageEnrollmentQueue) {
		return nil, appErrors.ErrForbidden
	}
	if filter.Status == "" {
		filter.Status = models.RequestStatusPending
	}
	requests, err := s.repo.ListByStatus(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment requests")
	}
	return requests, nil
}

// Approve transitions a pending request to approved, making the student's
// subject registrations durable. Calling it again, or after a rejection,
// fails with an invalid-state error.
func (s *EnrollmentService) Approve(ctx context.Context, actor models.Identity, id string) (*models.EnrollmentRequest, error) {
	return s.decide(ctx, actor, id, models.RequestStatusApproved, "")
}

// Reject transitions a pending request to rejected with the given reason.
func (s *EnrollmentService) Reject(ctx context.Context, actor models.Identity, id, reason string) (*models.EnrollmentRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	return s.decide(ctx, actor, id, models.RequestStatusRejected, reason)
}

func (s *EnrollmentService) decide(ctx context.Context, actor models.Identity, id string, status models.RequestStatus, reason string) (*models.EnrollmentRequest, error) {
	// The capability check runs before any store access so an unauthorized
	// caller learns nothing about whether the request exists.
	if !authz.CanPerform(actor.Role, authz.ActionApproveEnrollment) {
		return nil, appErrors.ErrForbidden
	}

	params := repository.DecideEnrollmentParams{
		ID:        id,
		Status:    status,
		DecidedBy: actor.ID,
		DecidedAt: s.now(),
	}
	if reason != "" {
		params.RejectionReason = &reason
	}

	if err := s.repo.Decide(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.classifyDecisionMiss(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide enrollment request")
	}

	decided, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load decided request")
	}

	s.emitAudit(ctx, actor, status, decided)
	return decided, nil
}

// classifyDecisionMiss distinguishes a request that never existed from one
// that already left PENDING; the conditional update cannot tell them apart.
func (s *EnrollmentService) classifyDecisionMiss(ctx context.Context, id string) error {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment request")
	}
	if request.Status.Terminal() {
		return appErrors.Clone(appErrors.ErrInvalidState, "enrollment request already decided")
	}
	return appErrors.Clone(appErrors.ErrConflict, "enrollment request is being decided concurrently")
}

func (s *EnrollmentService) emitAudit(ctx context.Context, actor models.Identity, status models.RequestStatus, request *models.EnrollmentRequest) {
	if s.audit == nil {
		return
	}
	action := models.AuditActionApprove
	if status == models.RequestStatusRejected {
		action = models.AuditActionReject
	}
	details, _ := json.Marshal(map[string]interface{}{
		"student_id": request.StudentID,
		"semester":   request.Semester,
	})
	entry := &models.AuditLog{
		ActorID:    &actor.ID,
		Action:     action,
		EntityType: "enrollment",
		EntityID:   &request.ID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append enrollment audit entry", zap.Error(err))
	}
}
