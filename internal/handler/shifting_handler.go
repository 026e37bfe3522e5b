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

// ShiftingHandler exposes the program-transfer approval queue.
type ShiftingHandler struct {
	service   *service.ShiftingService
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewShiftingHandler creates a new handler.
func NewShiftingHandler(svc *service.ShiftingService, dashboard *service.DashboardService, metrics *service.MetricsService) *ShiftingHandler {
	return &ShiftingHandler{service: svc, dashboard: dashboard, metrics: metrics}
}

// List godoc
// @Summary List shifting requests
// @Description List program-transfer requests by status, pending by default
// @Tags Shifting
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /shiftings [get]
func (h *ShiftingHandler) List(c *gin.Context) {
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
// @Summary Approve a shifting request
// @Description Approve a pending request and apply the program transfer
// @Tags Shifting
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /shiftings/{id}/approve [post]
func (h *ShiftingHandler) Approve(c *gin.Context) {
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

	h.metrics.RecordDecision("shifting", "approved")
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, decided, nil)
}

// Reject godoc
// @Summary Reject a shifting request
// @Description Reject a pending request with a reason
// @Tags Shifting
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body object true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /shiftings/{id}/reject [post]
func (h *ShiftingHandler) Reject(c *gin.Context) {
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

	h.metrics.RecordDecision("shifting", "rejected")
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, decided, nil)
}
