package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/services"
)

// AdminHandler handles operational requests
type AdminHandler struct {
	expiry services.ExpiryService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(expiry services.ExpiryService) *AdminHandler {
	return &AdminHandler{expiry: expiry}
}

// RunReaper handles POST /admin/reaper/run. It fails with 422 while another sweep
// is running.
func (h *AdminHandler) RunReaper(c *gin.Context) {
	report, err := h.expiry.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
