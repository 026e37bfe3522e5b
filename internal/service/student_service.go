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

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest is the registrar payload for registering a student.
type CreateStudentRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	ProgramID     string `json:"program_id" validate:"required"`
	YearLevel     string `json:"year_level" validate:"required"`
}

// StudentService manages student records.
type StudentService struct {
	students  studentStore
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the service.
func NewStudentService(students studentStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:  students,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns students with program context plus pagination metadata.
func (s *StudentService) List(ctx context.Context, actor models.Identity, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	if !authz.CanAccess(actor.Role, authz.PageStudents) {
		return nil, nil, appErrors.ErrForbidden
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student with program context.
func (s *StudentService) Get(ctx context.Context, actor models.Identity, id string) (*models.StudentDetail, error) {
	if !authz.CanAccess(actor.Role, authz.PageStudents) {
		return nil, appErrors.ErrForbidden
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student record.
func (s *StudentService) Create(ctx context.Context, actor models.Identity, req CreateStudentRequest) (*models.Student, error) {
	if !authz.CanPerform(actor.Role, authz.ActionCreateStudent) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	now := s.now()
	student := &models.Student{
		ID:            uuid.NewString(),
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		FullName:      strings.TrimSpace(req.FullName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		ProgramID:     req.ProgramID,
		YearLevel:     req.YearLevel,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this number already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.emitAudit(ctx, actor, models.AuditActionCreate, student.ID, map[string]interface{}{
		"student_number": student.StudentNumber,
	})
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, actor models.Identity, id string) error {
	if !authz.CanPerform(actor.Role, authz.ActionDeleteStudent) {
		return appErrors.ErrForbidden
	}
	if _, err := s.students.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.emitAudit(ctx, actor, models.AuditActionDelete, id, nil)
	return nil
}

func (s *StudentService) emitAudit(ctx context.Context, actor models.Identity, action, entityID string, detail map[string]interface{}) {
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
		EntityType: "student",
		EntityID:   &entityID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append student audit entry", zap.Error(err))
	}
}
