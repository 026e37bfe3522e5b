package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type mockStatsCache struct {
	data map[string][]byte
	err  error
}

func newMockStatsCache() *mockStatsCache {
	return &mockStatsCache{data: make(map[string][]byte)}
}

func (m *mockStatsCache) Get(_ context.Context, key string, dest interface{}) error {
	if m.err != nil {
		return m.err
	}
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockStatsCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mockStatsCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type fixedActiveCounter struct {
	count int
	calls int
}

func (f *fixedActiveCounter) CountActive(_ context.Context) (int, error) {
	f.calls++
	return f.count, nil
}

type fixedStatusCounter struct {
	count int
	calls int
}

func (f *fixedStatusCounter) CountByStatus(_ context.Context, _ models.RequestStatus) (int, error) {
	f.calls++
	return f.count, nil
}

func TestDashboardStats(t *testing.T) {
	students := &fixedActiveCounter{count: 420}
	programs := &fixedActiveCounter{count: 7}
	enrollments := &fixedStatusCounter{count: 12}
	shiftings := &fixedStatusCounter{count: 3}
	cache := newMockStatsCache()
	svc := NewDashboardService(students, programs, enrollments, shiftings, cache, time.Minute, nil)

	stats, err := svc.Stats(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, 420, stats.ActiveStudents)
	assert.Equal(t, 7, stats.ActivePrograms)
	assert.Equal(t, 12, stats.PendingEnrollments)
	assert.Equal(t, 3, stats.PendingShiftings)

	// second call served from cache
	_, err = svc.Stats(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, 1, students.calls)
	assert.Equal(t, 1, enrollments.calls)

	// invalidation forces a recount
	svc.Invalidate(context.Background())
	_, err = svc.Stats(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, 2, students.calls)
}

func TestDashboardStatsDegradesWithoutCache(t *testing.T) {
	students := &fixedActiveCounter{count: 10}
	programs := &fixedActiveCounter{count: 2}
	enrollments := &fixedStatusCounter{count: 1}
	shiftings := &fixedStatusCounter{count: 0}
	cache := newMockStatsCache()
	cache.err = assert.AnError
	svc := NewDashboardService(students, programs, enrollments, shiftings, cache, time.Minute, nil)

	stats, err := svc.Stats(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.ActiveStudents)
}

func TestDashboardStatsForbiddenForUnknownRole(t *testing.T) {
	svc := NewDashboardService(&fixedActiveCounter{}, &fixedActiveCounter{}, &fixedStatusCounter{}, &fixedStatusCounter{}, nil, 0, nil)

	_, err := svc.Stats(context.Background(), models.Identity{ID: "x", Role: models.RoleStudent})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
