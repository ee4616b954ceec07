package handlers

import (
	"net/http"

	"magnova-scm-api-server/internal/sales"

	"github.com/gin-gonic/gin"
)

type SalesOrderHandler struct {
	Sales *sales.Service
}

func (h *SalesOrderHandler) Create(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req sales.CreateInput
	if !bindJSON(c, &req) {
		return
	}
	so, err := h.Sales.Create(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, so)
}

func (h *SalesOrderHandler) List(c *gin.Context) {
	orders, err := h.Sales.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *SalesOrderHandler) Delete(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	so := c.Param("so_number")
	if err := h.Sales.Delete(c.Request.Context(), pr, so); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sales order " + so + " deleted successfully"})
}
