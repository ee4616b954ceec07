package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ShipmentPending   = "Pending"
	ShipmentInTransit = "In-Transit"
	ShipmentDelivered = "Delivered"
)

type LogisticsShipment struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ShipmentID       string             `bson:"shipment_id" json:"shipment_id"`
	PONumber         string             `bson:"po_number" json:"po_number"`
	TransporterName  string             `bson:"transporter_name" json:"transporter_name"`
	VehicleNumber    string             `bson:"vehicle_number" json:"vehicle_number"`
	EwayBillNumber   string             `bson:"eway_bill_number,omitempty" json:"eway_bill_number,omitempty"`
	FromLocation     string             `bson:"from_location" json:"from_location"`
	ToLocation       string             `bson:"to_location" json:"to_location"`
	PickupDate       time.Time          `bson:"pickup_date" json:"pickup_date"`
	ExpectedDelivery time.Time          `bson:"expected_delivery" json:"expected_delivery"`
	ActualDelivery   *time.Time         `bson:"actual_delivery" json:"actual_delivery"`
	Status           string             `bson:"status" json:"status"`
	IMEIList         []string           `bson:"imei_list" json:"imei_list"`
	PickupQuantity   int                `bson:"pickup_quantity" json:"pickup_quantity"`
	Brand            string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Model            string             `bson:"model,omitempty" json:"model,omitempty"`
	Vendor           string             `bson:"vendor,omitempty" json:"vendor,omitempty"`
	CreatedBy        string             `bson:"created_by" json:"created_by"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}
