package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type auditReader interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditService exposes the audit trail for the system-logs page.
type AuditService struct {
	audits auditReader
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(audits auditReader, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{audits: audits, logger: logger}
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, actor models.Identity, filter models.AuditFilter) ([]models.AuditLog, error) {
	if !authz.CanAccess(actor.Role, authz.PageSystemLogs) {
		return nil, appErrors.ErrForbidden
	}
	entries, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, nil
}
