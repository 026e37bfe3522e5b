package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adp-api/internal/models"
	"github.com/noah-isme/uni-adp-api/internal/service"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment approval queue.
type EnrollmentHandler struct {
	service   *service.EnrollmentService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService, dashboard *service.DashboardService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, dashboard: dashboard, metrics: metrics}
}

// List godoc
// @Summary List enrollment requests
// @Description List enrollment requests by status, pending by default
// @Tags Enrollment
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param semester query string false "Semester filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.RequestFilter{
		Status:   models.RequestStatus(c.Query("status")),
		Semester: c.Query("semester"),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	requests, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Approve godoc
// @Summary Approve an enrollment request
// @Description Approve a pending request, making its subject registrations durable
// @Tags Enrollment
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id}/approve [post]
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	decided, err := h.service.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordDecision("enrollment", "approved")
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, decided, nil)
}

// Reject godoc
// @Summary Reject an enrollment request
// @Description Reject a pending request with a reason
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body object true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id}/reject [post]
func (h *EnrollmentHandler) Reject(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rejection reason required"))
		return
	}

	decided, err := h.service.Reject(c.Request.Context(), actor, c.Param("id"), payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordDecision("enrollment", "rejected")
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, decided, nil)
}
