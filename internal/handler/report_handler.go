package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adp-api/internal/service"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/response"
)

// ReportHandler serves transcript and grade-sheet downloads.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Transcript godoc
// @Summary Transcript of records
// @Description Download the official transcript for a student as PDF or CSV
// @Tags Reports
// @Produce application/octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "pdf"))
	result, err := h.service.Transcript(c.Request.Context(), actor, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, result)
}

// GradeSheet godoc
// @Summary Section grade sheet
// @Description Download the section's marks as CSV or PDF
// @Tags Reports
// @Produce application/octet-stream
// @Param code path string true "Subject code"
// @Param semester query string true "Semester"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /sections/{code}/grade-sheet [get]
func (h *ReportHandler) GradeSheet(c *gin.Context) {
	actor, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.GradeSheet(c.Request.Context(), actor, c.Param("code"), c.Query("semester"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, result)
}

// Download godoc
// @Summary Re-download an archived export
// @Description Fetch a previously generated export via its signed token
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	result, err := h.service.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, result)
}

func serveDownload(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	if result.DownloadToken != "" {
		c.Header("X-Download-Token", result.DownloadToken)
	}
	c.Data(200, result.ContentType, result.Data)
}
