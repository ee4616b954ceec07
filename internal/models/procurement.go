package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcurementRecord is one physical unit taken in against a PO. IMEI is unique across the collection.
type ProcurementRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProcurementID   string             `bson:"procurement_id" json:"procurement_id"`
	PONumber        string             `bson:"po_number" json:"po_number"`
	VendorName      string             `bson:"vendor_name" json:"vendor_name"`
	StoreLocation   string             `bson:"store_location" json:"store_location"`
	IMEI            string             `bson:"imei" json:"imei"`
	SerialNumber    string             `bson:"serial_number,omitempty" json:"serial_number,omitempty"`
	DeviceModel     string             `bson:"device_model" json:"device_model"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	PurchasePrice   float64            `bson:"purchase_price" json:"purchase_price"`
	ProcurementDate time.Time          `bson:"procurement_date" json:"procurement_date"`
	CreatedBy       string             `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
