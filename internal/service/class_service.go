package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type rosterStore interface {
	IsInstructor(ctx context.Context, facultyID, subjectCode, semester string) (bool, error)
	AddToRoster(ctx context.Context, registration *models.SubjectRegistration) error
	RemoveFromRoster(ctx context.Context, studentID, subjectCode, semester string) error
}

// RosterChangeRequest identifies the student and section for a roster change.
type RosterChangeRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	SubjectCode string `json:"subject_code" validate:"required"`
	Semester    string `json:"semester" validate:"required"`
}

// ClassService lets an instructor manage the membership of their own
// sections. The instructor-of-record check runs on every mutation.
type ClassService struct {
	sections rosterStore
	audit    auditAppender
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewClassService constructs the service.
func NewClassService(sections rosterStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		sections: sections,
		audit:    audit,
		validate: validate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddStudent registers a student into one of the caller's sections.
func (s *ClassService) AddStudent(ctx context.Context, actor models.Identity, req RosterChangeRequest) error {
	if err := s.authorize(ctx, actor, req); err != nil {
		return err
	}

	registration := &models.SubjectRegistration{
		ID:           uuid.NewString(),
		StudentID:    req.StudentID,
		SubjectCode:  req.SubjectCode,
		Semester:     req.Semester,
		RegisteredAt: s.now(),
	}
	if err := s.sections.AddToRoster(ctx, registration); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add student to roster")
	}

	s.emitAudit(ctx, actor, models.AuditActionRosterAdd, req)
	return nil
}

// RemoveStudent drops a student from one of the caller's sections.
func (s *ClassService) RemoveStudent(ctx context.Context, actor models.Identity, req RosterChangeRequest) error {
	if err := s.authorize(ctx, actor, req); err != nil {
		return err
	}

	if err := s.sections.RemoveFromRoster(ctx, req.StudentID, req.SubjectCode, req.Semester); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student is not registered in this section")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student from roster")
	}

	s.emitAudit(ctx, actor, models.AuditActionRosterRemove, req)
	return nil
}

func (s *ClassService) authorize(ctx context.Context, actor models.Identity, req RosterChangeRequest) error {
	if !authz.CanPerform(actor.Role, authz.ActionManageClassRoster) {
		return appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster change")
	}
	owns, err := s.sections.IsInstructor(ctx, actor.ID, req.SubjectCode, req.Semester)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify section ownership")
	}
	if !owns {
		return appErrors.Clone(appErrors.ErrForbidden, "not the instructor of record for this section")
	}
	return nil
}

func (s *ClassService) emitAudit(ctx context.Context, actor models.Identity, action string, req RosterChangeRequest) {
	if s.audit == nil {
		return
	}
	details, _ := json.Marshal(map[string]interface{}{
		"student_id": req.StudentID,
		"semester":   req.Semester,
	})
	entry := &models.AuditLog{
		ActorID:    &actor.ID,
		Action:     action,
		EntityType: "roster",
		EntityID:   &req.SubjectCode,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append roster audit entry", zap.Error(err))
	}
}
