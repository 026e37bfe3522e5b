package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	"github.com/noah-isme/uni-adp-api/internal/session"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

// PageResolution is the outcome of a navigation attempt: either the page
// renders, or the caller is redirected somewhere they are allowed to be.
type PageResolution struct {
	Page       string           `json:"page"`
	Redirected bool             `json:"redirected"`
	Identity   *models.Identity `json:"identity,omitempty"`
	Menu       []string         `json:"menu,omitempty"`
}

// NavigationService resolves page requests against the persisted session and
// the capability table. Every console page goes through it; there is no
// direct route to a rendered page.
type NavigationService struct {
	sessions session.Store
	logger   *zap.Logger
}

// NewNavigationService constructs the service.
func NewNavigationService(sessions session.Store, logger *zap.Logger) *NavigationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavigationService{sessions: sessions, logger: logger}
}

// Resolve decides what the caller sees for the requested page. Without a
// session every page resolves to the login redirect. With one, a page outside
// the role's set redirects to the role's landing page.
func (s *NavigationService) Resolve(ctx context.Context, page string) (*PageResolution, error) {
	identity, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if identity == nil {
		return &PageResolution{Page: authz.PageLogin, Redirected: page != authz.PageLogin}, nil
	}
	if page == authz.PageLogin {
		// Already authenticated; send them to their landing page.
		return &PageResolution{
			Page:       authz.DefaultPage(identity.Role),
			Redirected: true,
			Identity:   identity,
			Menu:       authz.Pages(identity.Role),
		}, nil
	}
	if !authz.CanAccess(identity.Role, page) {
		s.logger.Warn("page access denied",
			zap.String("page", page),
			zap.String("role", string(identity.Role)),
		)
		return &PageResolution{
			Page:       authz.DefaultPage(identity.Role),
			Redirected: true,
			Identity:   identity,
			Menu:       authz.Pages(identity.Role),
		}, nil
	}
	return &PageResolution{
		Page:     page,
		Identity: identity,
		Menu:     authz.Pages(identity.Role),
	}, nil
}

// Menu returns the ordered page keys for the current session's role, or nil
// when logged out.
func (s *NavigationService) Menu(ctx context.Context) ([]string, error) {
	identity, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if identity == nil {
		return nil, nil
	}
	return authz.Pages(identity.Role), nil
}
