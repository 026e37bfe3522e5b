package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type activeCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type statusCounter interface {
	CountByStatus(ctx context.Context, status models.RequestStatus) (int, error)
}

const statsCacheKey = "dashboard:stats"

// DashboardService aggregates headline counters for the landing page. The
// counters are cached; a cache outage degrades to direct counting.
type DashboardService struct {
	students    activeCounter
	programs    activeCounter
	enrollments statusCounter
	shiftings   statusCounter
	cache       statsCache
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs the service. A nil cache disables caching.
func NewDashboardService(students, programs activeCounter, enrollments, shiftings statusCounter, cache statsCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:    students,
		programs:    programs,
		enrollments: enrollments,
		shiftings:   shiftings,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns the dashboard counters, from cache when fresh.
func (s *DashboardService) Stats(ctx context.Context, actor models.Identity) (*models.DashboardStats, error) {
	if !authz.CanAccess(actor.Role, authz.PageDashboard) {
		return nil, appErrors.ErrForbidden
	}

	if s.cache != nil {
		var cached models.DashboardStats
		err := s.cache.Get(ctx, statsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	stats, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// Invalidate drops the cached counters. Called after workflow decisions so
// the pending counts do not lag the queue.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) collect(ctx context.Context) (*models.DashboardStats, error) {
	activeStudents, err := s.students.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	activePrograms, err := s.programs.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count programs")
	}
	pendingEnrollments, err := s.enrollments.CountByStatus(ctx, models.RequestStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollment requests")
	}
	pendingShiftings, err := s.shiftings.CountByStatus(ctx, models.RequestStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count shifting requests")
	}
	return &models.DashboardStats{
		ActiveStudents:     activeStudents,
		ActivePrograms:     activePrograms,
		PendingEnrollments: pendingEnrollments,
		PendingShiftings:   pendingShiftings,
		GeneratedAt:        s.now(),
	}, nil
}
