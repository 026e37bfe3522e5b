package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/uni-adp-api/internal/middleware"
	"github.com/noah-isme/uni-adp-api/internal/models"
	"github.com/noah-isme/uni-adp-api/internal/repository"
	"github.com/noah-isme/uni-adp-api/internal/service"
)

type fakeEnrollmentStore struct {
	requests map[string]*models.EnrollmentRequest
}

func (f *fakeEnrollmentStore) ListByStatus(_ context.Context, filter models.RequestFilter) ([]models.EnrollmentRequest, error) {
	var out []models.EnrollmentRequest
	for _, r := range f.requests {
		if r.Status == filter.Status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentStore) FindByID(_ context.Context, id string) (*models.EnrollmentRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	dup := *r
	return &dup, nil
}

func (f *fakeEnrollmentStore) Decide(_ context.Context, params repository.DecideEnrollmentParams) error {
	r, ok := f.requests[params.ID]
	if !ok || r.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	r.Status = params.Status
	r.DecidedBy = &params.DecidedBy
	r.DecidedAt = &params.DecidedAt
	r.RejectionReason = params.RejectionReason
	return nil
}

func newEnrollmentTestHandler(store *fakeEnrollmentStore) *EnrollmentHandler {
	svc := service.NewEnrollmentService(store, nil, nil)
	return NewEnrollmentHandler(svc, nil, nil)
}

func pendingRequest(id string) *models.EnrollmentRequest {
	return &models.EnrollmentRequest{
		ID:          id,
		StudentID:   "stu-1",
		StudentName: "Jordan Reyes",
		Semester:    "2026-1",
		SubmittedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		Status:      models.RequestStatusPending,
	}
}

func asRole(c *gin.Context, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "actor-1", Role: role})
}

func TestEnrollmentHandlerApprove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeEnrollmentStore{requests: map[string]*models.EnrollmentRequest{"req-1": pendingRequest("req-1")}}
	handler := newEnrollmentTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/enrollments/req-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	asRole(c, models.RoleAdmin)

	handler.Approve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.EnrollmentRequest `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.RequestStatusApproved, envelope.Data.Status)
	assert.Equal(t, "actor-1", *envelope.Data.DecidedBy)
}

func TestEnrollmentHandlerApproveAlreadyDecided(t *testing.T) {
	gin.SetMode(gin.TestMode)
	decided := pendingRequest("req-1")
	decided.Status = models.RequestStatusApproved
	store := &fakeEnrollmentStore{requests: map[string]*models.EnrollmentRequest{"req-1": decided}}
	handler := newEnrollmentTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/enrollments/req-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	asRole(c, models.RoleAdmin)

	handler.Approve(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEnrollmentHandlerRejectRequiresReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeEnrollmentStore{requests: map[string]*models.EnrollmentRequest{"req-1": pendingRequest("req-1")}}
	handler := newEnrollmentTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/enrollments/req-1/reject", strings.NewReader(`{"reason":"  "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	asRole(c, models.RoleAdmin)

	handler.Reject(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.RequestStatusPending, store.requests["req-1"].Status)
}

func TestEnrollmentHandlerForbiddenRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeEnrollmentStore{requests: map[string]*models.EnrollmentRequest{"req-1": pendingRequest("req-1")}}
	handler := newEnrollmentTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/enrollments/req-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	asRole(c, models.RoleFaculty)

	handler.Approve(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.RequestStatusPending, store.requests["req-1"].Status)
}

func TestEnrollmentHandlerMissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentTestHandler(&fakeEnrollmentStore{requests: map[string]*models.EnrollmentRequest{}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollments", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
