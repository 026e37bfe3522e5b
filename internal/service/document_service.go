package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/storage"
)

type documentStore interface {
	Insert(ctx context.Context, doc *models.StudentDocument) error
	FindByID(ctx context.Context, id string) (*models.StudentDocument, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentDocument, error)
	Verify(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) error
}

// UploadDocumentRequest carries a student credential for safekeeping.
type UploadDocumentRequest struct {
	StudentID    string `validate:"required"`
	DocumentType string `validate:"required"`
	FileName     string `validate:"required"`
	Data         []byte `validate:"required"`
}

// DocumentService stores student credentials on disk and tracks their
// registrar verification state.
type DocumentService struct {
	documents documentStore
	students  studentReader
	archive   *storage.LocalArchive
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentService constructs the service.
func NewDocumentService(documents documentStore, students studentReader, archive *storage.LocalArchive, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documents: documents,
		students:  students,
		archive:   archive,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Upload saves the file bytes and records the document as unverified.
func (s *DocumentService) Upload(ctx context.Context, actor models.Identity, req UploadDocumentRequest) (*models.StudentDocument, error) {
	if !authz.CanAccess(actor.Role, authz.PageStudents) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	id := uuid.NewString()
	stored := fmt.Sprintf("%s-%s", id, filepath.Base(req.FileName))
	path, err := s.archive.Save(stored, req.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document file")
	}

	doc := &models.StudentDocument{
		ID:           id,
		StudentID:    req.StudentID,
		DocumentType: strings.TrimSpace(req.DocumentType),
		FileName:     filepath.Base(req.FileName),
		FilePath:     path,
		UploadedAt:   s.now(),
	}
	if err := s.documents.Insert(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}

	s.emitAudit(ctx, actor, models.AuditActionDocumentUpload, doc)
	return doc, nil
}

// List returns a student's documents with their verification state.
func (s *DocumentService) List(ctx context.Context, actor models.Identity, studentID string) ([]models.StudentDocument, error) {
	if !authz.CanAccess(actor.Role, authz.PageStudents) {
		return nil, appErrors.ErrForbidden
	}
	docs, err := s.documents.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Verify marks an uploaded document as checked by the registrar. Verifying
// twice is refused as an invalid state, not silently absorbed.
func (s *DocumentService) Verify(ctx context.Context, actor models.Identity, documentID string) (*models.StudentDocument, error) {
	if !authz.CanPerform(actor.Role, authz.ActionVerifyDocument) {
		return nil, appErrors.ErrForbidden
	}
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.Verified {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "document is already verified")
	}

	verifiedAt := s.now()
	if err := s.documents.Verify(ctx, documentID, actor.ID, verifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "document is already verified")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify document")
	}

	doc.Verified = true
	doc.VerifiedBy = &actor.ID
	doc.VerifiedAt = &verifiedAt
	s.emitAudit(ctx, actor, models.AuditActionDocumentVerify, doc)
	return doc, nil
}

func (s *DocumentService) emitAudit(ctx context.Context, actor models.Identity, action string, doc *models.StudentDocument) {
	if s.audit == nil {
		return
	}
	details, _ := json.Marshal(map[string]interface{}{
		"student_id":    doc.StudentID,
		"document_type": doc.DocumentType,
	})
	entry := &models.AuditLog{
		ActorID:    &actor.ID,
		Action:     action,
		EntityType: "document",
		EntityID:   &doc.ID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append document audit entry", zap.Error(err))
	}
}
