package handlers

import (
	"fmt"
	"net/http"

	"magnova-scm-api-server/internal/cascade"
	"magnova-scm-api-server/internal/purchaseorder"

	"github.com/gin-gonic/gin"
)

type PurchaseOrderHandler struct {
	POs     *purchaseorder.Service
	Cascade *cascade.Service
}

func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req purchaseorder.CreateInput
	if !bindJSON(c, &req) {
		return
	}
	po, err := h.POs.Create(c.Request.Context(), pr, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

func (h *PurchaseOrderHandler) List(c *gin.Context) {
	pos, err := h.POs.List(c.Request.Context(), c.Query("approval_status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	po, err := h.POs.Get(c.Request.Context(), c.Param("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// Decide handles POST /purchase-orders/:po_number/approve with action approve or reject.
func (h *PurchaseOrderHandler) Decide(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	var req purchaseorder.DecisionInput
	if !bindJSON(c, &req) {
		return
	}
	po, err := h.POs.Decide(c.Request.Context(), pr, c.Param("po_number"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("PO %sd successfully", req.Action),
		"purchase_order": po,
	})
}

func (h *PurchaseOrderHandler) RelatedCounts(c *gin.Context) {
	rc, err := h.POs.RelatedCounts(c.Request.Context(), c.Param("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rc)
}

// Delete removes the PO and everything that references it.
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	pr, ok := principal(c)
	if !ok {
		return
	}
	res, err := h.Cascade.DeletePO(c.Request.Context(), pr, c.Param("po_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
