package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adp-api/internal/service"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/response"
)

// ClassHandler manages section roster membership.
type ClassHandler struct {
	service *service.ClassService
}

// NewClassHandler creates a new handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// AddStudent godoc
// @Summary Add a student to a section roster
// @Description Register a student into the caller's own section
// @Tags Grades
// @Accept json
// @Produce json
// @Param code path string true "Subject code"
// @Param payload body object true "Student and semester"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sections/{code}/roster [post]
func (h *ClassHandler) AddStudent(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		StudentID string `json:"student_id" binding:"required"`
		Semester  string `json:"semester" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id and semester required"))
		return
	}

	req := service.RosterChangeRequest{
		StudentID:   payload.StudentID,
		SubjectCode: c.Param("code"),
		Semester:    payload.Semester,
	}
	if err := h.service.AddStudent(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveStudent godoc
// @Summary Remove a student from a section roster
// @Description Drop a student's registration in the caller's own section
// @Tags Grades
// @Produce json
// @Param code path string true "Subject code"
// @Param student path string true "Student ID"
// @Param semester query string true "Semester"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{code}/roster/{student} [delete]
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.RosterChangeRequest{
		StudentID:   c.Param("student"),
		SubjectCode: c.Param("code"),
		Semester:    c.Query("semester"),
	}
	if err := h.service.RemoveStudent(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
