package inventory

import (
	"context"
	"errors"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"
)

// Scan actions.
const (
	ScanInwardNova     = "inward_nova"
	ScanInwardMagnova  = "inward_magnova"
	ScanOutwardNova    = "outward_nova"
	ScanOutwardMagnova = "outward_magnova"
	ScanDispatch       = "dispatch"
	ScanAvailable      = "available"
)

type transition struct {
	status       string
	dateField    string
	organization string
}

var transitions = map[string]transition{
	ScanInwardNova:     {status: models.StatusInwardNova, dateField: "inward_nova_date"},
	ScanInwardMagnova:  {status: models.StatusInwardMagnova, dateField: "inward_magnova_date", organization: models.OrgMagnova},
	ScanOutwardNova:    {status: models.StatusOutwardNova, dateField: "outward_nova_date"},
	ScanOutwardMagnova: {status: models.StatusOutwardMagnova, dateField: "outward_magnova_date"},
	ScanDispatch:       {status: models.StatusDispatched, dateField: "dispatched_date"},
	ScanAvailable:      {status: models.StatusAvailable},
}

type ScanInput struct {
	IMEI     string `json:"imei" validate:"required"`
	Action   string `json:"action" validate:"required"`
	Location string `json:"location" validate:"required"`
	Vendor   string `json:"vendor"`
}

type ScanResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Scan applies action to imei. An IMEI with a procurement record but no inventory item
// gets its item created first. Unrecognized actions only move location and vendor.
func (s *Service) Scan(ctx context.Context, pr auth.Principal, in ScanInput) (*ScanResult, error) {
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}

	item, err := s.store.FindInventory(ctx, in.IMEI)
	if errors.Is(err, store.ErrNotFound) {
		item, err = s.backfill(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	update := models.InventoryUpdate{
		CurrentLocation: in.Location,
		Vendor:          in.Vendor,
		UpdatedAt:       now,
	}
	status := item.Status
	if t, ok := transitions[in.Action]; ok {
		update.Status = t.status
		update.DateField = t.dateField
		update.Organization = t.organization
		status = t.status
	}

	if err := s.store.UpdateInventory(ctx, in.IMEI, update); err != nil {
		return nil, apperr.Internal(err, "could not update IMEI %s", in.IMEI)
	}

	s.audit.Record(ctx, pr, models.ActionScan, audit.EntityIMEI, in.IMEI, map[string]any{
		"action":   in.Action,
		"location": in.Location,
		"vendor":   in.Vendor,
	})
	return &ScanResult{Message: "IMEI scanned successfully", Status: status}, nil
}

func (s *Service) backfill(ctx context.Context, in ScanInput) (*models.InventoryItem, error) {
	rec, err := s.store.FindProcurementByIMEI(ctx, in.IMEI)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("IMEI %s not found in procurement records", in.IMEI)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load procurement for IMEI %s", in.IMEI)
	}

	now := s.now().UTC()
	item := &models.InventoryItem{
		IMEI:            in.IMEI,
		ProcurementID:   rec.ProcurementID,
		DeviceModel:     rec.DeviceModel,
		Status:          models.StatusProcured,
		Vendor:          rec.VendorName,
		Organization:    models.OrgNova,
		CurrentLocation: in.Location,
		PONumber:        rec.PONumber,
		PurchasePrice:   rec.PurchasePrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if item.DeviceModel == "" {
		item.DeviceModel = "Unknown"
	}
	if item.Vendor == "" {
		item.Vendor = in.Vendor
	}
	if item.CurrentLocation == "" {
		item.CurrentLocation = rec.StoreLocation
	}

	if rec.PONumber != "" {
		po, err := s.store.FindPurchaseOrder(ctx, rec.PONumber)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err, "could not load purchase order %s", rec.PONumber)
		}
		if li := matchLineItem(po, in.IMEI, rec.VendorName); li != nil {
			item.Brand, item.Model, item.Colour, item.Storage = li.Brand, li.Model, li.Colour, li.Storage
		}
	}

	if err := s.store.InsertInventory(ctx, item); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Internal(err, "could not create inventory for IMEI %s", in.IMEI)
	}
	return item, nil
}
