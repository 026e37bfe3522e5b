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

type subjectStore interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// CreateSubjectRequest is the payload for adding a curriculum subject.
type CreateSubjectRequest struct {
	Code      string `json:"code" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Units     int    `json:"units" validate:"required,min=1,max=6"`
	ProgramID string `json:"program_id" validate:"required"`
	YearLevel string `json:"year_level" validate:"required"`
}

// SubjectService manages curriculum subjects.
type SubjectService struct {
	subjects  subjectStore
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubjectService constructs the service.
func NewSubjectService(subjects subjectStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		subjects:  subjects,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns subjects matching the filter.
func (s *SubjectService) List(ctx context.Context, actor models.Identity, filter models.SubjectFilter) ([]models.Subject, error) {
	if !authz.CanAccess(actor.Role, authz.PageSubjects) && !authz.CanAccess(actor.Role, authz.PageCurriculumEditor) {
		return nil, appErrors.ErrForbidden
	}
	subjects, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Create adds a subject to the curriculum. Registrars hold the subject
// capabilities; admins reach the same data through the curriculum editor.
func (s *SubjectService) Create(ctx context.Context, actor models.Identity, req CreateSubjectRequest) (*models.Subject, error) {
	if !authz.CanPerform(actor.Role, authz.ActionCreateSubject) && !authz.CanPerform(actor.Role, authz.ActionEditCurriculum) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	now := s.now()
	subject := &models.Subject{
		ID:        uuid.NewString(),
		Code:      strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:     strings.TrimSpace(req.Title),
		Units:     req.Units,
		ProgramID: req.ProgramID,
		YearLevel: req.YearLevel,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a subject with this code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.emitAudit(ctx, actor, models.AuditActionCreate, subject.ID, map[string]interface{}{"code": subject.Code})
	return subject, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, actor models.Identity, id string) error {
	if !authz.CanPerform(actor.Role, authz.ActionDeleteSubject) && !authz.CanPerform(actor.Role, authz.ActionEditCurriculum) {
		return appErrors.ErrForbidden
	}
	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.emitAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

func (s *SubjectService) emitAudit(ctx context.Context, actor models.Identity, action, entityID string, detail map[string]interface{}) {
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
		EntityType: "subject",
		EntityID:   &entityID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append subject audit entry", zap.Error(err))
	}
}
