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

type shiftingRequestStore interface {
	ListByStatus(ctx context.Context, filter models.RequestFilter) ([]models.ShiftingRequest, error)
	FindByID(ctx context.Context, id string) (*models.ShiftingRequest, error)
	Decide(ctx context.Context, params repository.DecideShiftingParams) error
}

// ShiftingService drives the program-transfer approval workflow. Same machine
// as enrollment approval, different entity and capability.
type ShiftingService struct {
	repo   shiftingRequestStore
	audit  auditAppender
	logger *zap.Logger
	now    func() time.Time
}

// NewShiftingService constructs the service.
func NewShiftingService(repo shiftingRequestStore, audit auditAppender, logger *zap.Logger) *ShiftingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftingService{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns shifting requests in the given state.
func (s *ShiftingService) List(ctx context.Context, actor models.Identity, filter models.RequestFilter) ([]models.ShiftingRequest, error) {
	if !authz.CanAccess(actor.Role, authz.PageShifting) {
		return nil, appErrors.ErrForbidden
	}
	if filter.Status == "" {
		filter.Status = models.RequestStatusPending
	}
	requests, err := s.repo.ListByStatus(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifting requests")
	}
	return requests, nil
}

// Approve moves a pending request to approved and applies the program
// transfer to the student record.
func (s *ShiftingService) Approve(ctx context.Context, actor models.Identity, id string) (*models.ShiftingRequest, error) {
	return s.decide(ctx, actor, id, models.RequestStatusApproved, "")
}

// Reject moves a pending request to rejected with the given reason.
func (s *ShiftingService) Reject(ctx context.Context, actor models.Identity, id, reason string) (*models.ShiftingRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	return s.decide(ctx, actor, id, models.RequestStatusRejected, reason)
}

func (s *ShiftingService) decide(ctx context.Context, actor models.Identity, id string, status models.RequestStatus, reason string) (*models.ShiftingRequest, error) {
	if !authz.CanPerform(actor.Role, authz.ActionApproveShifting) {
		return nil, appErrors.ErrForbidden
	}

	params := repository.DecideShiftingParams{
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
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide shifting request")
	}

	decided, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load decided request")
	}

	s.emitAudit(ctx, actor, status, decided)
	return decided, nil
}

func (s *ShiftingService) classifyDecisionMiss(ctx context.Context, id string) error {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shifting request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shifting request")
	}
	if request.Status.Terminal() {
		return appErrors.Clone(appErrors.ErrInvalidState, "shifting request already decided")
	}
	return appErrors.Clone(appErrors.ErrConflict, "shifting request is being decided concurrently")
}

func (s *ShiftingService) emitAudit(ctx context.Context, actor models.Identity, status models.RequestStatus, request *models.ShiftingRequest) {
	if s.audit == nil {
		return
	}
	action := models.AuditActionApprove
	if status == models.RequestStatusRejected {
		action = models.AuditActionReject
	}
	details, _ := json.Marshal(map[string]interface{}{
		"from_program": request.CurrentProgram,
		"to_program":   request.RequestedProgram,
		"gpa":          request.GPA,
	})
	entry := &models.AuditLog{
		ActorID:    &actor.ID,
		Action:     action,
		EntityType: "shifting",
		EntityID:   &request.ID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append shifting audit entry", zap.Error(err))
	}
}
