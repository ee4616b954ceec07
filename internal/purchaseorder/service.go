// Package purchaseorder creates purchase orders and drives their approval decision.
package purchaseorder

import (
	"context"
	"errors"
	"strings"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/sequence"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decision actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type Service struct {
	store  store.Store
	seq    *sequence.Generator
	audit  *audit.Recorder
	policy auth.Policy
	now    func() time.Time
}

func NewService(s store.Store, seq *sequence.Generator, rec *audit.Recorder, policy auth.Policy) *Service {
	return &Service{store: s, seq: seq, audit: rec, policy: policy, now: time.Now}
}

type CreateInput struct {
	PODate         *time.Time        `json:"po_date"`
	PurchaseOffice string            `json:"purchase_office"`
	Items          []models.LineItem `json:"items" validate:"required,min=1,dive"`
	Notes          string            `json:"notes"`
}

type DecisionInput struct {
	Action string `json:"action" validate:"required"`
	Reason string `json:"rejection_reason"`
}

// Rollup returns the total quantity and value of items. Values are summed in decimal.
func Rollup(items []models.LineItem) (int, float64) {
	qty := 0
	total := decimal.Zero
	for _, it := range items {
		qty += it.Qty
		total = total.Add(decimal.NewFromFloat(it.POValue))
	}
	value, _ := total.Float64()
	return qty, value
}

func (s *Service) Create(ctx context.Context, pr auth.Principal, in CreateInput) (*models.PurchaseOrder, error) {
	if err := s.policy.CanCreatePO(pr); err != nil {
		return nil, err
	}
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}

	items := make([]models.LineItem, len(in.Items))
	for i, it := range in.Items {
		if it.SlNo == 0 {
			it.SlNo = i + 1
		}
		if it.Qty == 0 {
			it.Qty = 1
		}
		items[i] = it
	}
	qty, value := Rollup(items)

	number, err := s.seq.Next(ctx, sequence.PurchaseOrders(s.store))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	poDate := now
	if in.PODate != nil {
		poDate = in.PODate.UTC()
	}
	office := in.PurchaseOffice
	if office == "" {
		office = models.DefaultPurchaseOffice
	}
	po := &models.PurchaseOrder{
		POID:           uuid.NewString(),
		PONumber:       number,
		PODate:         poDate,
		PurchaseOffice: office,
		CreatedBy:      pr.UserID,
		CreatedByName:  pr.Name,
		Organization:   pr.Organization,
		Status:         models.POStatusCreated,
		TotalQuantity:  qty,
		TotalValue:     value,
		Items:          items,
		Notes:          in.Notes,
		ApprovalStatus: models.ApprovalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertPurchaseOrder(ctx, po); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("purchase order %s already exists", number)
		}
		return nil, apperr.Internal(err, "could not create purchase order")
	}

	s.audit.Record(ctx, pr, models.ActionCreate, audit.EntityPurchaseOrder, po.PONumber, map[string]any{
		"po_number":      po.PONumber,
		"total_quantity": po.TotalQuantity,
		"total_value":    po.TotalValue,
	})
	return po, nil
}

// Decide approves or rejects a pending PO. A decision is final.
func (s *Service) Decide(ctx context.Context, pr auth.Principal, poNumber string, in DecisionInput) (*models.PurchaseOrder, error) {
	if err := auth.RequireRole(pr, models.RoleApprover, models.RoleAdmin); err != nil {
		return nil, err
	}
	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action != ActionApprove && action != ActionReject {
		return nil, apperr.Invalid("action must be %q or %q", ActionApprove, ActionReject)
	}

	po, err := s.Get(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	if po.ApprovalStatus != models.ApprovalPending {
		return nil, apperr.Conflict("purchase order %s is already %s", poNumber, po.ApprovalStatus)
	}

	now := s.now().UTC()
	d := models.PODecision{UpdatedAt: now}
	auditAction := models.ActionApprove
	if action == ActionApprove {
		d.Status = models.POStatusApproved
		d.ApprovalStatus = models.ApprovalApproved
		d.ApprovedBy = pr.UserID
		d.ApprovedAt = &now
	} else {
		d.Status = models.POStatusRejected
		d.ApprovalStatus = models.ApprovalRejected
		d.RejectionReason = in.Reason
		auditAction = models.ActionReject
	}

	if err := s.store.UpdatePurchaseOrderDecision(ctx, poNumber, d); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.NotFound("purchase order %s not found", poNumber)
		case errors.Is(err, store.ErrConflict):
			return nil, apperr.Conflict("purchase order %s was decided concurrently", poNumber)
		}
		return nil, apperr.Internal(err, "could not update purchase order %s", poNumber)
	}

	po.Status = d.Status
	po.ApprovalStatus = d.ApprovalStatus
	po.ApprovedBy = d.ApprovedBy
	po.ApprovedAt = d.ApprovedAt
	po.RejectionReason = d.RejectionReason
	po.UpdatedAt = now

	s.audit.Record(ctx, pr, auditAction, audit.EntityPurchaseOrder, poNumber, map[string]any{
		"action": action,
		"reason": in.Reason,
	})
	return po, nil
}

func (s *Service) Get(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	po, err := s.store.FindPurchaseOrder(ctx, poNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("purchase order %s not found", poNumber)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load purchase order %s", poNumber)
	}
	return po, nil
}

// List returns POs newest first, optionally filtered by approval status.
func (s *Service) List(ctx context.Context, approvalStatus string) ([]models.PurchaseOrder, error) {
	pos, err := s.store.ListPurchaseOrders(ctx, store.POFilter{ApprovalStatus: approvalStatus})
	if err != nil {
		return nil, apperr.Internal(err, "could not list purchase orders")
	}
	return pos, nil
}

type RelatedCounts struct {
	PONumber           string `json:"po_number"`
	ProcurementRecords int64  `json:"procurement_records"`
	Payments           int64  `json:"payments"`
	LogisticsShipments int64  `json:"logistics_shipments"`
	InventoryItems     int64  `json:"inventory_items"`
	Invoices           int64  `json:"invoices"`
	TotalRelated       int64  `json:"total_related"`
}

// RelatedCounts reports what a cascade delete of poNumber would remove besides the PO itself.
func (s *Service) RelatedCounts(ctx context.Context, poNumber string) (*RelatedCounts, error) {
	if _, err := s.Get(ctx, poNumber); err != nil {
		return nil, err
	}

	records, err := s.store.ListProcurement(ctx, store.ProcurementFilter{PONumber: poNumber})
	if err != nil {
		return nil, apperr.Internal(err, "could not list procurement for %s", poNumber)
	}
	imeis := make([]string, 0, len(records))
	for _, r := range records {
		imeis = append(imeis, r.IMEI)
	}

	rc := RelatedCounts{PONumber: poNumber}
	rc.ProcurementRecords = int64(len(records))
	if rc.InventoryItems, err = s.store.CountInventory(ctx, store.InventoryFilter{IMEIs: imeis}); err != nil {
		return nil, apperr.Internal(err, "could not count inventory for %s", poNumber)
	}
	if rc.Payments, err = s.store.CountPayments(ctx, store.PaymentFilter{PONumber: poNumber}); err != nil {
		return nil, apperr.Internal(err, "could not count payments for %s", poNumber)
	}
	if rc.LogisticsShipments, err = s.store.CountShipments(ctx, store.POScope{PONumber: poNumber}); err != nil {
		return nil, apperr.Internal(err, "could not count shipments for %s", poNumber)
	}
	if rc.Invoices, err = s.store.CountInvoices(ctx, store.POScope{PONumber: poNumber}); err != nil {
		return nil, apperr.Internal(err, "could not count invoices for %s", poNumber)
	}
	rc.TotalRelated = rc.ProcurementRecords + rc.InventoryItems + rc.Payments + rc.LogisticsShipments + rc.Invoices
	return &rc, nil
}
