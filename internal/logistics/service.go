// Package logistics tracks shipments moving devices between locations for a PO.
package logistics

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
	store store.Store
	audit *audit.Recorder
	now   func() time.Time
}

func NewService(s store.Store, rec *audit.Recorder) *Service {
	return &Service{store: s, audit: rec, now: time.Now}
}

type CreateInput struct {
	PONumber         string    `json:"po_number" validate:"required"`
	TransporterName  string    `json:"transporter_name" validate:"required"`
	VehicleNumber    string    `json:"vehicle_number" validate:"required"`
	EwayBillNumber   string    `json:"eway_bill_number"`
	FromLocation     string    `json:"from_location" validate:"required"`
	ToLocation       string    `json:"to_location" validate:"required"`
	PickupDate       time.Time `json:"pickup_date" validate:"required"`
	ExpectedDelivery time.Time `json:"expected_delivery" validate:"required"`
	IMEIList         []string  `json:"imei_list"`
	PickupQuantity   int       `json:"pickup_quantity" validate:"gte=0"`
	Brand            string    `json:"brand"`
	Model            string    `json:"model"`
	Vendor           string    `json:"vendor"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

func (s *Service) Create(ctx context.Context, pr auth.Principal, in CreateInput) (*models.LogisticsShipment, error) {
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}
	ok, err := s.store.PurchaseOrderExists(ctx, in.PONumber)
	if err != nil {
		return nil, apperr.Internal(err, "could not load purchase order %s", in.PONumber)
	}
	if !ok {
		return nil, apperr.InvalidReference("purchase order %s not found", in.PONumber)
	}

	imeis := in.IMEIList
	if imeis == nil {
		imeis = []string{}
	}
	qty := in.PickupQuantity
	if qty == 0 {
		qty = len(imeis)
	}

	now := s.now().UTC()
	sh := &models.LogisticsShipment{
		ShipmentID:       uuid.NewString(),
		PONumber:         in.PONumber,
		TransporterName:  in.TransporterName,
		VehicleNumber:    in.VehicleNumber,
		EwayBillNumber:   in.EwayBillNumber,
		FromLocation:     in.FromLocation,
		ToLocation:       in.ToLocation,
		PickupDate:       in.PickupDate.UTC(),
		ExpectedDelivery: in.ExpectedDelivery.UTC(),
		Status:           models.ShipmentPending,
		IMEIList:         imeis,
		PickupQuantity:   qty,
		Brand:            in.Brand,
		Model:            in.Model,
		Vendor:           in.Vendor,
		CreatedBy:        pr.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.InsertShipment(ctx, sh); err != nil {
		return nil, apperr.Internal(err, "could not create shipment")
	}

	s.audit.Record(ctx, pr, models.ActionCreate, audit.EntityShipment, sh.ShipmentID, map[string]any{
		"po_number":       sh.PONumber,
		"pickup_quantity": sh.PickupQuantity,
		"vendor":          sh.Vendor,
	})
	return sh, nil
}

// UpdateStatus sets the shipment status. actual_delivery is stamped on Delivered and cleared otherwise.
func (s *Service) UpdateStatus(ctx context.Context, pr auth.Principal, shipmentID string, in StatusInput) error {
	if err := apperr.Validate(in); err != nil {
		return err
	}
	now := s.now().UTC()
	var delivered *time.Time
	if in.Status == models.ShipmentDelivered {
		delivered = &now
	}

	err := s.store.UpdateShipmentStatus(ctx, shipmentID, in.Status, delivered, now)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("shipment %s not found", shipmentID)
	}
	if err != nil {
		return apperr.Internal(err, "could not update shipment %s", shipmentID)
	}

	s.audit.Record(ctx, pr, models.ActionUpdate, audit.EntityShipment, shipmentID, map[string]any{"new_status": in.Status})
	return nil
}

func (s *Service) List(ctx context.Context, poNumber string) ([]models.LogisticsShipment, error) {
	out, err := s.store.ListShipments(ctx, store.POScope{PONumber: poNumber})
	if err != nil {
		return nil, apperr.Internal(err, "could not list shipments")
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, pr auth.Principal, shipmentID string) error {
	if err := auth.RequireAdmin(pr); err != nil {
		return err
	}
	n, err := s.store.DeleteShipmentByID(ctx, shipmentID)
	if err != nil {
		return apperr.Internal(err, "could not delete shipment %s", shipmentID)
	}
	if n == 0 {
		return apperr.NotFound("shipment %s not found", shipmentID)
	}
	s.audit.Record(ctx, pr, models.ActionDelete, audit.EntityShipment, shipmentID, nil)
	return nil
}
