package handlers

import (
	"bytes"
	"net/http"

	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/report"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	Reports *report.Service
	Audit   *audit.Recorder
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	d, err := h.Reports.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *ReportHandler) POSummary(c *gin.Context) {
	sum, err := h.Reports.POSummary(c.Request.Context(), c.Query("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *ReportHandler) ExportInventory(c *gin.Context) {
	buf, err := h.Reports.ExportInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, "inventory_report.xlsx", buf)
}

func (h *ReportHandler) ExportMaster(c *gin.Context) {
	buf, err := h.Reports.ExportMaster(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, "master_report.xlsx", buf)
}

func (h *ReportHandler) AuditLogs(c *gin.Context) {
	logs, err := h.Audit.List(c.Request.Context(), c.Query("entity_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func sendWorkbook(c *gin.Context, filename string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, report.XLSXContentType, buf.Bytes())
}
