package inventory

import (
	"context"
	"errors"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/store"
)

// Lookup merges what procurement, the PO line item and inventory know about an IMEI.
type Lookup struct {
	Found           bool       `json:"found"`
	Message         string     `json:"message,omitempty"`
	InInventory     bool       `json:"in_inventory"`
	InProcurement   bool       `json:"in_procurement"`
	Vendor          string     `json:"vendor,omitempty"`
	DeviceModel     string     `json:"device_model,omitempty"`
	PONumber        string     `json:"po_number,omitempty"`
	StoreLocation   string     `json:"store_location,omitempty"`
	PurchasePrice   float64    `json:"purchase_price,omitempty"`
	ProcurementDate *time.Time `json:"procurement_date,omitempty"`
	Brand           string     `json:"brand,omitempty"`
	Model           string     `json:"model,omitempty"`
	Colour          string     `json:"colour,omitempty"`
	Storage         string     `json:"storage,omitempty"`
	Status          string     `json:"status,omitempty"`
	CurrentLocation string     `json:"current_location,omitempty"`
	Organization    string     `json:"organization,omitempty"`
}

func (s *Service) Lookup(ctx context.Context, imei string) (*Lookup, error) {
	item, err := s.store.FindInventory(ctx, imei)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err, "could not load IMEI %s", imei)
	}
	rec, err := s.store.FindProcurementByIMEI(ctx, imei)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err, "could not load procurement for IMEI %s", imei)
	}
	if item == nil && rec == nil {
		return &Lookup{Found: false, Message: "IMEI not found in procurement or inventory"}, nil
	}

	out := &Lookup{Found: true, InInventory: item != nil, InProcurement: rec != nil}
	if rec != nil {
		out.Vendor = rec.VendorName
		out.DeviceModel = rec.DeviceModel
		out.PONumber = rec.PONumber
		out.StoreLocation = rec.StoreLocation
		out.PurchasePrice = rec.PurchasePrice
		d := rec.ProcurementDate
		out.ProcurementDate = &d

		po, err := s.store.FindPurchaseOrder(ctx, rec.PONumber)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err, "could not load purchase order %s", rec.PONumber)
		}
		if li := matchLineItem(po, imei, rec.VendorName); li != nil {
			out.Brand, out.Model, out.Colour, out.Storage = li.Brand, li.Model, li.Colour, li.Storage
			out.Vendor = firstNonEmpty(li.Vendor, out.Vendor)
			out.StoreLocation = firstNonEmpty(li.Location, out.StoreLocation)
		}
	}
	if item != nil {
		out.Status = item.Status
		out.CurrentLocation = item.CurrentLocation
		out.Organization = item.Organization
		out.DeviceModel = firstNonEmpty(item.DeviceModel, out.DeviceModel)
		out.Vendor = firstNonEmpty(item.Vendor, out.Vendor)
		out.Brand = firstNonEmpty(item.Brand, out.Brand)
		out.Model = firstNonEmpty(item.Model, out.Model)
		out.Colour = firstNonEmpty(item.Colour, out.Colour)
		out.Storage = firstNonEmpty(item.Storage, out.Storage)
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
