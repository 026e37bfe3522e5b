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

type programStore interface {
	List(ctx context.Context, activeOnly bool) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Delete(ctx context.Context, id string) error
}

// CreateProgramRequest is the payload for adding a degree program.
type CreateProgramRequest struct {
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required"`
}

// ProgramService manages degree programs.
type ProgramService struct {
	programs  programStore
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProgramService constructs the service.
func NewProgramService(programs programStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{
		programs:  programs,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns programs, optionally only active ones.
func (s *ProgramService) List(ctx context.Context, actor models.Identity, activeOnly bool) ([]models.Program, error) {
	if !authz.CanAccess(actor.Role, authz.PagePrograms) {
		return nil, appErrors.ErrForbidden
	}
	programs, err := s.programs.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Create adds a degree program.
func (s *ProgramService) Create(ctx context.Context, actor models.Identity, req CreateProgramRequest) (*models.Program, error) {
	if !authz.CanPerform(actor.Role, authz.ActionCreateProgram) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}

	now := s.now()
	program := &models.Program{
		ID:         uuid.NewString(),
		Code:       strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.programs.Create(ctx, program); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a program with this code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}

	s.emitAudit(ctx, actor, models.AuditActionCreate, program.ID, map[string]interface{}{"code": program.Code})
	return program, nil
}

// Delete removes a program.
func (s *ProgramService) Delete(ctx context.Context, actor models.Identity, id string) error {
	if !authz.CanPerform(actor.Role, authz.ActionDeleteProgram) {
		return appErrors.ErrForbidden
	}
	if _, err := s.programs.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if err := s.programs.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	s.emitAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

func (s *ProgramService) emitAudit(ctx context.Context, actor models.Identity, action, entityID string, detail map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var details []byte
	if detail != nil {
		details, _ = json.Marshal(detail)
	}
	entry := &models.AuditLog{
		ActorID:    &actor.ID,
		Action:     action,
		EntityType: "program",
		EntityID:   &entityID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append program audit entry", zap.Error(err))
	}
}
