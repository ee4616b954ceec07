// server/internal/api/handlers/admin_handler.go
package handlers

import (
	"net/http"

	"magnova-scm-api-server/internal/report"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the maintenance endpoints reserved for the Admin role.
type AdminHandler struct {
	Reports *report.Service
}

// ArchiveMasterReport renders the master report, stores it in object storage and returns its URL.
func (h *AdminHandler) ArchiveMasterReport(c *gin.Context) {
	url, err := h.Reports.ArchiveMaster(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "url": url})
}
