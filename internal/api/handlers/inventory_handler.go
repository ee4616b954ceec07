package handlers

import (
	"net/http"

	"magnova-scm-api-server/internal/inventory"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves procurement intake and the IMEI inventory.
type InventoryHandler struct {
	Inventory *inventory.Service
}

func (h *InventoryHandler) CreateProcurement(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req inventory.ProcurementInput
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.Inventory.CreateProcurement(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *InventoryHandler) ListProcurement(c *gin.Context) {
	records, err := h.Inventory.ListProcurement(c.Request.Context(), c.Query("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *InventoryHandler) DeleteProcurement(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	id := c.Param("procurement_id")
	if err := h.Inventory.DeleteProcurement(c.Request.Context(), pr, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Procurement record " + id + " deleted successfully"})
}

func (h *InventoryHandler) Lookup(c *gin.Context) {
	res, err := h.Inventory.Lookup(c.Request.Context(), c.Param("imei"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InventoryHandler) Scan(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req inventory.ScanInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Inventory.Scan(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.Inventory.List(c.Request.Context(), c.Query("status"), c.Query("organization"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.Inventory.Get(c.Request.Context(), c.Param("imei"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	imei := c.Param("imei")
	if err := h.Inventory.DeleteInventory(c.Request.Context(), pr, imei); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory item " + imei + " deleted successfully"})
}
