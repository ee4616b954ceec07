// server/internal/api/handlers/shipment_handler.go
package handlers

import (
	"net/http"

	"magnova-scm-api-server/internal/logistics"

	"github.com/gin-gonic/gin"
)

type ShipmentHandler struct {
	Logistics *logistics.Service
}

func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req logistics.CreateInput
	if !bindJSON(c, &req) {
		return
	}
	sh, err := h.Logistics.Create(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sh)
}

// UpdateStatus handles PATCH /logistics/shipments/:id/status.
func (h *ShipmentHandler) UpdateStatus(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req logistics.StatusInput
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Logistics.UpdateStatus(c.Request.Context(), pr, c.Param("id"), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shipment status updated successfully"})
}

func (h *ShipmentHandler) GetShipments(c *gin.Context) {
	shipments, err := h.Logistics.List(c.Request.Context(), c.Query("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipments)
}

func (h *ShipmentHandler) DeleteShipment(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.Logistics.Delete(c.Request.Context(), pr, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shipment " + id + " deleted successfully"})
}
