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
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type accountStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// CreateAccountRequest is the admin payload for provisioning a console account.
type CreateAccountRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=8"`
	FullName   string          `json:"full_name" validate:"required"`
	Role       models.UserRole `json:"role" validate:"required"`
	Department *string         `json:"department,omitempty"`
}

// AccountService manages console accounts. Only roles holding the account
// capabilities may mutate them; every mutation is audited.
type AccountService struct {
	accounts  accountStore
	audit     auditAppender
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccountService constructs the service.
func NewAccountService(accounts accountStore, audit auditAppender, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		accounts:  accounts,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns accounts matching the filter plus pagination metadata.
func (s *AccountService) List(ctx context.Context, actor models.Identity, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if !authz.CanAccess(actor.Role, authz.PageAccounts) {
		return nil, nil, appErrors.ErrForbidden
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	users, total, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return users, pagination, nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, actor models.Identity, id string) (*models.User, error) {
	if !authz.CanAccess(actor.Role, authz.PageAccounts) {
		return nil, appErrors.ErrForbidden
	}
	user, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return user, nil
}

// Create provisions a new console account with a bcrypt-hashed initial
// password. Student accounts cannot be created here; students have no
// console access.
func (s *AccountService) Create(ctx context.Context, actor models.Identity, req CreateAccountRequest) (*models.User, error) {
	if !authz.CanPerform(actor.Role, authz.ActionCreateAccount) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}
	if req.Role == models.RoleStudent || !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be one of ADMIN, FACULTY, REGISTRAR")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Department:   req.Department,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	s.emitAudit(ctx, actor, models.AuditActionAccountCreate, user.ID, map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})
	return user, nil
}

// SetActive enables or disables an account. Deactivating revokes its refresh
// tokens so it cannot keep an open session alive.
func (s *AccountService) SetActive(ctx context.Context, actor models.Identity, id string, active bool) error {
	if !authz.CanPerform(actor.Role, authz.ActionCreateAccount) {
		return appErrors.ErrForbidden
	}
	if id == actor.ID && !active {
		return appErrors.Clone(appErrors.ErrValidation, "cannot deactivate your own account")
	}
	if err := s.accounts.UpdateActive(ctx, id, active, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	if !active {
		if err := s.accounts.RevokeUserRefreshTokens(ctx, id); err != nil {
			s.logger.Warn("failed to revoke refresh tokens on deactivation", zap.Error(err))
		}
	}
	s.emitAudit(ctx, actor, models.AuditActionAccountUpdate, id, map[string]interface{}{"active": active})
	return nil
}

// Delete removes an account permanently. Deleting your own account is
// refused so the console cannot lock itself out.
func (s *AccountService) Delete(ctx context.Context, actor models.Identity, id string) error {
	if !authz.CanPerform(actor.Role, authz.ActionDeleteAccount) {
		return appErrors.ErrForbidden
	}
	if id == actor.ID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	s.emitAudit(ctx, actor, models.AuditActionAccountDelete, id, nil)
	return nil
}

func (s *AccountService) emitAudit(ctx context.Context, actor models.Identity, action, entityID string, detail map[string]interface{}) {
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
		EntityType: "account",
		EntityID:   &entityID,
		Details:    details,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append account audit entry", zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
