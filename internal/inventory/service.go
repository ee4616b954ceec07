// Package inventory takes devices in against purchase orders and moves each IMEI through its states.
package inventory

import (
	"context"
	"errors"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
)

type Service struct {
	store             store.Store
	audit             *audit.Recorder
	requireApprovedPO bool
	now               func() time.Time
}

// NewService builds the engine. With requireApprovedPO set, procurement is only
// accepted against POs whose approval_status is Approved.
func NewService(s store.Store, rec *audit.Recorder, requireApprovedPO bool) *Service {
	return &Service{store: s, audit: rec, requireApprovedPO: requireApprovedPO, now: time.Now}
}

type ProcurementInput struct {
	PONumber        string     `json:"po_number" validate:"required"`
	VendorName      string     `json:"vendor_name" validate:"required"`
	StoreLocation   string     `json:"store_location" validate:"required"`
	IMEI            string     `json:"imei" validate:"required"`
	SerialNumber    string     `json:"serial_number"`
	DeviceModel     string     `json:"device_model" validate:"required"`
	Quantity        int        `json:"quantity" validate:"gte=0"`
	PurchasePrice   float64    `json:"purchase_price" validate:"gte=0"`
	ProcurementDate *time.Time `json:"procurement_date"`
}

// CreateProcurement records one unit against a PO and opens its inventory item at Procured.
func (s *Service) CreateProcurement(ctx context.Context, pr auth.Principal, in ProcurementInput) (*models.ProcurementRecord, error) {
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}

	po, err := s.store.FindPurchaseOrder(ctx, in.PONumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.InvalidReference("purchase order %s not found", in.PONumber)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load purchase order %s", in.PONumber)
	}
	if s.requireApprovedPO && po.ApprovalStatus != models.ApprovalApproved {
		return nil, apperr.InvalidReference("purchase order %s is not approved", in.PONumber)
	}

	if _, err := s.store.FindProcurementByIMEI(ctx, in.IMEI); err == nil {
		return nil, apperr.Conflict("IMEI %s already exists", in.IMEI)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err, "could not check IMEI %s", in.IMEI)
	}

	now := s.now().UTC()
	procDate := now
	if in.ProcurementDate != nil {
		procDate = in.ProcurementDate.UTC()
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	rec := &models.ProcurementRecord{
		ProcurementID:   uuid.NewString(),
		PONumber:        in.PONumber,
		VendorName:      in.VendorName,
		StoreLocation:   in.StoreLocation,
		IMEI:            in.IMEI,
		SerialNumber:    in.SerialNumber,
		DeviceModel:     in.DeviceModel,
		Quantity:        qty,
		PurchasePrice:   in.PurchasePrice,
		ProcurementDate: procDate,
		CreatedBy:       pr.UserID,
		CreatedAt:       now,
	}
	item := &models.InventoryItem{
		IMEI:            in.IMEI,
		ProcurementID:   rec.ProcurementID,
		DeviceModel:     in.DeviceModel,
		Vendor:          in.VendorName,
		Status:          models.StatusProcured,
		CurrentLocation: in.StoreLocation,
		Organization:    pr.Organization,
		PONumber:        in.PONumber,
		PurchasePrice:   in.PurchasePrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if li := matchLineItem(po, in.IMEI, in.VendorName); li != nil {
		item.Brand, item.Model, item.Colour, item.Storage = li.Brand, li.Model, li.Colour, li.Storage
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertProcurement(ctx, rec); err != nil {
			return err
		}
		return s.store.InsertInventory(ctx, item)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("IMEI %s already exists", in.IMEI)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not record procurement for IMEI %s", in.IMEI)
	}

	s.audit.Record(ctx, pr, models.ActionCreate, audit.EntityProcurement, rec.ProcurementID, map[string]any{
		"imei":      rec.IMEI,
		"po_number": rec.PONumber,
	})
	return rec, nil
}

func (s *Service) ListProcurement(ctx context.Context, poNumber string) ([]models.ProcurementRecord, error) {
	recs, err := s.store.ListProcurement(ctx, store.ProcurementFilter{PONumber: poNumber})
	if err != nil {
		return nil, apperr.Internal(err, "could not list procurement")
	}
	return recs, nil
}

func (s *Service) Get(ctx context.Context, imei string) (*models.InventoryItem, error) {
	item, err := s.store.FindInventory(ctx, imei)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("IMEI %s not found in inventory", imei)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load IMEI %s", imei)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, status, organization string) ([]models.InventoryItem, error) {
	items, err := s.store.ListInventory(ctx, store.InventoryFilter{Status: status, Organization: organization})
	if err != nil {
		return nil, apperr.Internal(err, "could not list inventory")
	}
	return items, nil
}

// Reserve marks every listed IMEI Reserved without checking its prior state.
// IMEIs without an inventory item are skipped; the number updated is returned.
func (s *Service) Reserve(ctx context.Context, imeis []string) (int64, error) {
	n, err := s.store.SetInventoryStatus(ctx, imeis, models.StatusReserved, s.now().UTC())
	if err != nil {
		return 0, apperr.Internal(err, "could not reserve IMEIs")
	}
	return n, nil
}

// DeleteProcurement removes one procurement record together with its inventory item.
func (s *Service) DeleteProcurement(ctx context.Context, pr auth.Principal, procurementID string) error {
	if err := auth.RequireAdmin(pr); err != nil {
		return err
	}
	rec, err := s.store.FindProcurementByID(ctx, procurementID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("procurement record %s not found", procurementID)
	}
	if err != nil {
		return apperr.Internal(err, "could not load procurement record %s", procurementID)
	}

	var inventoryDeleted int64
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.DeleteProcurementByID(ctx, procurementID); err != nil {
			return err
		}
		n, err := s.store.DeleteInventory(ctx, store.InventoryFilter{IMEIs: []string{rec.IMEI}})
		inventoryDeleted = n
		return err
	})
	if err != nil {
		return apperr.Internal(err, "could not delete procurement record %s", procurementID)
	}

	s.audit.Record(ctx, pr, models.ActionDelete, audit.EntityProcurement, procurementID, map[string]any{
		"imei":              rec.IMEI,
		"po_number":         rec.PONumber,
		"inventory_deleted": inventoryDeleted,
	})
	return nil
}

func (s *Service) DeleteInventory(ctx context.Context, pr auth.Principal, imei string) error {
	if err := auth.RequireAdmin(pr); err != nil {
		return err
	}
	n, err := s.store.DeleteInventory(ctx, store.InventoryFilter{IMEIs: []string{imei}})
	if err != nil {
		return apperr.Internal(err, "could not delete IMEI %s", imei)
	}
	if n == 0 {
		return apperr.NotFound("IMEI %s not found in inventory", imei)
	}
	s.audit.Record(ctx, pr, models.ActionDelete, audit.EntityIMEI, imei, nil)
	return nil
}

// matchLineItem finds the PO line item describing a unit: by IMEI, then by vendor,
// then the first item.
func matchLineItem(po *models.PurchaseOrder, imei, vendor string) *models.LineItem {
	if po == nil || len(po.Items) == 0 {
		return nil
	}
	for i := range po.Items {
		it := &po.Items[i]
		if (imei != "" && it.IMEI == imei) || (vendor != "" && it.Vendor == vendor) {
			return it
		}
	}
	return &po.Items[0]
}
