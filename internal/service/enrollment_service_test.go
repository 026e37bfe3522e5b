package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
	"github.com/noah-isme/uni-adp-api/internal/repository"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type mockAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
}

func newMockAudit() *mockAudit {
	return &mockAudit{}
}

func (m *mockAudit) Append(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockEnrollmentStore struct {
	mu       sync.Mutex
	requests map[string]*models.EnrollmentRequest
}

func newMockEnrollmentStore(requests ...*models.EnrollmentRequest) *mockEnrollmentStore {
	store := &mockEnrollmentStore{requests: make(map[string]*models.EnrollmentRequest)}
	for _, r := range requests {
		dup := *r
		store.requests[r.ID] = &dup
	}
	return store
}

func (m *mockEnrollmentStore) ListByStatus(_ context.Context, filter models.RequestFilter) ([]models.EnrollmentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EnrollmentRequest
	for _, r := range m.requests {
		if r.Status == filter.Status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockEnrollmentStore) FindByID(_ context.Context, id string) (*models.EnrollmentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	dup := *r
	return &dup, nil
}

// Decide mirrors the conditional update: only pending rows transition, and a
// miss surfaces as sql.ErrNoRows.
func (m *mockEnrollmentStore) Decide(_ context.Context, params repository.DecideEnrollmentParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[params.ID]
	if !ok || r.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	r.Status = params.Status
	r.DecidedBy = &params.DecidedBy
	r.DecidedAt = &params.DecidedAt
	r.RejectionReason = params.RejectionReason
	return nil
}

func pendingEnrollment(id string) *models.EnrollmentRequest {
	return &models.EnrollmentRequest{
		ID:          id,
		StudentID:   "stu-1",
		StudentName: "Ada Lim",
		Program:     "BS Computer Science",
		YearLevel:   "2",
		Semester:    "2025-1",
		SubmittedAt: time.Date(2025, time.August, 10, 9, 0, 0, 0, time.UTC),
		Status:      models.RequestStatusPending,
		Subjects: []models.SubjectRef{
			{Code: "CS101", Title: "Intro to Computing", Units: 3},
		},
	}
}

func adminActor() models.Identity {
	return models.Identity{ID: "adm-1", Email: "admin@uni.edu", Role: models.RoleAdmin, Active: true}
}

func registrarActor() models.Identity {
	return models.Identity{ID: "reg-1", Email: "registrar@uni.edu", Role: models.RoleRegistrar, Active: true}
}

func TestEnrollmentServiceApprove(t *testing.T) {
	store := newMockEnrollmentStore(pendingEnrollment("req-1"))
	audit := newMockAudit()
	svc := NewEnrollmentService(store, audit, nil)

	decided, err := svc.Approve(context.Background(), adminActor(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, "adm-1", *decided.DecidedBy)
	assert.NotNil(t, decided.DecidedAt)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionApprove, audit.entries[0].Action)
	assert.Equal(t, "enrollment", audit.entries[0].EntityType)
}

func TestEnrollmentServiceRegistrarMayApprove(t *testing.T) {
	store := newMockEnrollmentStore(pendingEnrollment("req-1"))
	svc := NewEnrollmentService(store, newMockAudit(), nil)

	decided, err := svc.Approve(context.Background(), registrarActor(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, decided.Status)
}

func TestEnrollmentServiceRejectRequiresReason(t *testing.T) {
	store := newMockEnrollmentStore(pendingEnrollment("req-1"))
	svc := NewEnrollmentService(store, newMockAudit(), nil)

	_, err := svc.Reject(context.Background(), adminActor(), "req-1", "   ")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	decided, err := svc.Reject(context.Background(), adminActor(), "req-1", "schedule conflict")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, decided.Status)
	require.NotNil(t, decided.RejectionReason)
	assert.Equal(t, "schedule conflict", *decided.RejectionReason)
}

func TestEnrollmentServiceApproveTwice(t *testing.T) {
	store := newMockEnrollmentStore(pendingEnrollment("req-1"))
	audit := newMockAudit()
	svc := NewEnrollmentService(store, audit, nil)

	_, err := svc.Approve(context.Background(), adminActor(), "req-1")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), adminActor(), "req-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))

	// first decision stands and only one audit entry exists
	current, err := store.FindByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, current.Status)
	assert.Len(t, audit.entries, 1)
}

func TestEnrollmentServiceRejectAfterApprove(t *testing.T) {
	store := newMockEnrollmentStore(pendingEnrollment("req-1"))
	svc := NewEnrollmentService(store, newMockAudit(), nil)

	_, err := svc.Approve(context.Background(), adminActor(), "req-1")
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), adminActor(), "req-1", "late submission")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
}

func TestEnrollmentServiceApproveMissing(t *testing.T) {
	svc := NewEnrollmentService(newMockEnrollmentStore(), newMockAudit(), nil)

	_, err := svc.Approve(context.Background(), adminActor(), "req-404")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestEnrollmentServiceApproveForbidden(t *testing.T) {
	store := newMockEnrollmentStore(pendingEnrollment("req-1"))
	svc := NewEnrollmentService(store, newMockAudit(), nil)
	faculty := models.Identity{ID: "fac-1", Role: models.RoleFaculty, Active: true}

	_, err := svc.Approve(context.Background(), faculty, "req-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	current, err := store.FindByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, current.Status)
}

func TestEnrollmentServiceAuditFailureDoesNotBlock(t *testing.T) {
	store := newMockEnrollmentStore(pendingEnrollment("req-1"))
	audit := newMockAudit()
	audit.err = assert.AnError
	svc := NewEnrollmentService(store, audit, nil)

	decided, err := svc.Approve(context.Background(), adminActor(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, decided.Status)
}

func TestEnrollmentServiceListDefaultsToPending(t *testing.T) {
	approved := pendingEnrollment("req-2")
	approved.Status = models.RequestStatusApproved
	store := newMockEnrollmentStore(pendingEnrollment("req-1"), approved)
	svc := NewEnrollmentService(store, newMockAudit(), nil)

	requests, err := svc.List(context.Background(), adminActor(), models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "req-1", requests[0].ID)
}

func TestEnrollmentServiceListForbiddenForFaculty(t *testing.T) {
	svc := NewEnrollmentService(newMockEnrollmentStore(), newMockAudit(), nil)
	faculty := models.Identity{ID: "fac-1", Role: models.RoleFaculty, Active: true}

	_, err := svc.List(context.Background(), faculty, models.RequestFilter{})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
