package handlers

import (
	"net/http"

	"magnova-scm-api-server/internal/invoice"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	Invoices *invoice.Service
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req invoice.CreateInput
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.Invoices.Create(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *InvoiceHandler) List(c *gin.Context) {
	invoices, err := h.Invoices.List(c.Request.Context(), c.Query("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	id := c.Param("invoice_id")
	if err := h.Invoices.Delete(c.Request.Context(), pr, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice " + id + " deleted successfully"})
}
