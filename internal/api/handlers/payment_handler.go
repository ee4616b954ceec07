package handlers

import (
	"net/http"

	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/payment"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	Payments *payment.Service
}

func (h *PaymentHandler) CreateInternal(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req payment.InternalInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Payments.RecordInternal(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PaymentHandler) CreateExternal(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req payment.ExternalInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Payments.RecordExternal(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PaymentHandler) Summary(c *gin.Context) {
	sum, err := h.Payments.Summary(c.Request.Context(), c.Param("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *PaymentHandler) List(c *gin.Context) {
	kind := models.PaymentType(c.Query("payment_type"))
	payments, err := h.Payments.List(c.Request.Context(), c.Query("po_number"), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	id := c.Param("payment_id")
	if err := h.Payments.Delete(c.Request.Context(), pr, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment " + id + " deleted successfully"})
}
