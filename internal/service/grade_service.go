package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type gradeStore interface {
	Find(ctx context.Context, studentID, subjectCode string) (*models.GradeRecord, error)
	Upsert(ctx context.Context, record *models.GradeRecord) error
	SectionRoster(ctx context.Context, subjectCode, semester string) ([]models.SectionRosterEntry, error)
}

type sectionReader interface {
	IsInstructor(ctx context.Context, facultyID, subjectCode, semester string) (bool, error)
	ListByFaculty(ctx context.Context, facultyID, semester string) ([]models.ClassSection, error)
}

// RecordGradeRequest carries one grade entry for a student in a subject.
// Marks are integers on the 0-100 scale; either component may be omitted.
type RecordGradeRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	SubjectCode string `json:"subject_code" validate:"required"`
	Semester    string `json:"semester" validate:"required"`
	Midterm     *int   `json:"midterm,omitempty"`
	Finals      *int   `json:"finals,omitempty"`
}

// GradeService records marks for the instructor of record, derives the
// average and the numeric grade, and enforces the submission deadline.
type GradeService struct {
	grades    gradeStore
	sections  sectionReader
	audit     auditAppender
	deadline  time.Time
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGradeService constructs the service. The deadline gates every write;
// reads stay open after it passes.
func NewGradeService(grades gradeStore, sections sectionReader, audit auditAppender, deadline time.Time, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:    grades,
		sections:  sections,
		audit:     audit,
		deadline:  deadline,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and persists a grade entry. Preconditions run in order:
// capability, ownership, deadline, value range. Nothing is written
// unless all of them pass. Pre-deadline re-submissions overwrite the previous
// record (last write wins).
func (s *GradeService) Record(ctx context.Context, actor models.Identity, req RecordGradeRequest) (*models.GradeRecord, error) {
	if !authz.CanPerform(actor.Role, authz.ActionRecordGrade) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	owns, err := s.sections.IsInstructor(ctx, actor.ID, req.SubjectCode, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify section ownership")
	}
	if !owns {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the instructor of record for this section")
	}

	if s.now().After(s.deadline) {
		return nil, appErrors.Clone(appErrors.ErrDeadlineExpired, "grade submission deadline has passed")
	}

	if err := validateMark(req.Midterm); err != nil {
		return nil, err
	}
	if err := validateMark(req.Finals); err != nil {
		return nil, err
	}

	average := componentAverage(req.Midterm, req.Finals)
	record := &models.GradeRecord{
		StudentID:    req.StudentID,
		SubjectCode:  req.SubjectCode,
		Midterm:      req.Midterm,
		Finals:       req.Finals,
		Average:      average,
		NumericGrade: numericGrade(average),
		RecordedBy:   actor.ID,
		UpdatedAt:    s.now(),
	}
	if err := s.grades.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist grade record")
	}

	s.emitAudit(ctx, actor, record)
	return record, nil
}

// Get returns the grade record for a student and subject.
func (s *GradeService) Get(ctx context.Context, actor models.Identity, studentID, subjectCode string) (*models.GradeRecord, error) {
	if !authz.CanAccess(actor.Role, authz.PageGrades) {
		return nil, appErrors.ErrForbidden
	}
	record, err := s.grades.Find(ctx, studentID, subjectCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade record")
	}
	return record, nil
}

// Roster lists the section's registered students with current marks; only
// the instructor of record may view it.
func (s *GradeService) Roster(ctx context.Context, actor models.Identity, subjectCode, semester string) ([]models.SectionRosterEntry, error) {
	if !authz.CanAccess(actor.Role, authz.PageGradeInput) {
		return nil, appErrors.ErrForbidden
	}
	owns, err := s.sections.IsInstructor(ctx, actor.ID, subjectCode, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify section ownership")
	}
	if !owns {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the instructor of record for this section")
	}
	roster, err := s.grades.SectionRoster(ctx, subjectCode, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section roster")
	}
	return roster, nil
}

// Sections lists the faculty member's assigned sections.
func (s *GradeService) Sections(ctx context.Context, actor models.Identity, semester string) ([]models.ClassSection, error) {
	if !authz.CanAccess(actor.Role, authz.PageClasses) {
		return nil, appErrors.ErrForbidden
	}
	sections, err := s.sections.ListByFaculty(ctx, actor.ID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

func (s *GradeService) emitAudit(ctx context.Context, actor models.Identity, record *models.GradeRecord) {
	if s.audit == nil {
		return
	}
	details, _ := json.Marshal(map[string]interface{}{
		"student_id":    record.StudentID,
		"average":       record.Average,
		"numeric_grade": record.NumericGrade,
	})
	entry := &models.AuditLog{
		ActorID:    &actor.ID,
		Action:     models.AuditActionGradeRecord,
		EntityType: "grade",
		EntityID:   &record.SubjectCode,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append grade audit entry", zap.Error(err))
	}
}

func validateMark(mark *int) error {
	if mark == nil {
		return nil
	}
	if *mark < 0 || *mark > 100 {
		return appErrors.Clone(appErrors.ErrValidation, "grade values must be between 0 and 100")
	}
	return nil
}

// componentAverage is the mean of whichever components are present, 0 when
// neither is.
func componentAverage(midterm, finals *int) float64 {
	switch {
	case midterm != nil && finals != nil:
		return float64(*midterm+*finals) / 2
	case midterm != nil:
		return float64(*midterm)
	case finals != nil:
		return float64(*finals)
	default:
		return 0
	}
}

// numericGrade converts a 0-100 average to the institutional 1.0-5.0 scale.
// Band lower bounds are inclusive; an average of 0 means no grade yet.
func numericGrade(average float64) string {
	switch {
	case average == 0:
		return ""
	case average >= 90:
		return "1.0"
	case average >= 85:
		return "1.5"
	case average >= 80:
		return "2.0"
	case average >= 75:
		return "2.5"
	case average >= 70:
		return "3.0"
	case average >= 60:
		return "4.0"
	default:
		return "5.0"
	}
}
