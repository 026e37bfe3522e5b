package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adp-api/internal/service"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/response"
)

// GradeHandler exposes grade recording and section rosters.
type GradeHandler struct {
	service *service.GradeService
	metrics *service.MetricsService
}

// NewGradeHandler creates a new handler.
func NewGradeHandler(svc *service.GradeService, metrics *service.MetricsService) *GradeHandler {
	return &GradeHandler{service: svc, metrics: metrics}
}

// Record godoc
// @Summary Record grades
// @Description Record midterm/finals marks for a student in a section
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.RecordGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RecordGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	record, err := h.service.Record(c.Request.Context(), actor, req)
	if err != nil {
		h.metrics.RecordGradeSubmission("rejected")
		response.Error(c, err)
		return
	}

	h.metrics.RecordGradeSubmission("accepted")
	response.JSON(c, http.StatusOK, record, nil)
}

// Roster godoc
// @Summary Section roster
// @Description List registered students with current marks for a section
// @Tags Grades
// @Produce json
// @Param code path string true "Subject code"
// @Param semester query string true "Semester"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sections/{code}/roster [get]
func (h *GradeHandler) Roster(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	roster, err := h.service.Roster(c.Request.Context(), actor, c.Param("code"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Sections godoc
// @Summary Assigned sections
// @Description List sections assigned to the authenticated faculty member
// @Tags Grades
// @Produce json
// @Param semester query string false "Semester"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sections [get]
func (h *GradeHandler) Sections(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sections, err := h.service.Sections(c.Request.Context(), actor, c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Get godoc
// @Summary Grade record
// @Description Return the grade record for a student and subject
// @Tags Grades
// @Produce json
// @Param student path string true "Student ID"
// @Param code path string true "Subject code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{student}/{code} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	record, err := h.service.Get(c.Request.Context(), actor, c.Param("student"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
