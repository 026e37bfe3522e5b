package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-adp-api/internal/service"
	"github.com/noah-isme/uni-adp-api/pkg/response"
)

// NavigationHandler resolves console pages against the persisted session.
type NavigationHandler struct {
	service *service.NavigationService
}

// NewNavigationHandler creates a new handler.
func NewNavigationHandler(svc *service.NavigationService) *NavigationHandler {
	return &NavigationHandler{service: svc}
}

// Resolve godoc
// @Summary Resolve a console page
// @Description Resolve a page request to a render or a redirect
// @Tags Navigation
// @Produce json
// @Param page path string true "Page key"
// @Success 200 {object} response.Envelope
// @Router /pages/{page} [get]
func (h *NavigationHandler) Resolve(c *gin.Context) {
	resolution, err := h.service.Resolve(c.Request.Context(), c.Param("page"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolution, nil)
}

// Menu godoc
// @Summary Navigation menu
// @Description List the pages visible to the current session's role
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /menu [get]
func (h *NavigationHandler) Menu(c *gin.Context) {
	menu, err := h.service.Menu(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, menu, nil)
}
