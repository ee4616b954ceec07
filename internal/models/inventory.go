// server/internal/models/inventory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inventory states.
const (
	StatusProcured       = "Procured"
	StatusInwardNova     = "Inward Nova"
	StatusInwardMagnova  = "Inward Magnova"
	StatusOutwardNova    = "Outward Nova"
	StatusOutwardMagnova = "Outward Magnova"
	StatusDispatched     = "Dispatched"
	StatusAvailable      = "Available"
	StatusReserved       = "Reserved"
	StatusSold           = "Sold"
)

type InventoryItem struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	IMEI               string             `bson:"imei" json:"imei"`
	ProcurementID      string             `bson:"procurement_id,omitempty" json:"procurement_id,omitempty"`
	DeviceModel        string             `bson:"device_model,omitempty" json:"device_model,omitempty"`
	Brand              string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Model              string             `bson:"model,omitempty" json:"model,omitempty"`
	Colour             string             `bson:"colour,omitempty" json:"colour,omitempty"`
	Storage            string             `bson:"storage,omitempty" json:"storage,omitempty"`
	Vendor             string             `bson:"vendor,omitempty" json:"vendor,omitempty"`
	Status             string             `bson:"status" json:"status"`
	CurrentLocation    string             `bson:"current_location" json:"current_location"`
	Organization       string             `bson:"organization" json:"organization"`
	PONumber           string             `bson:"po_number,omitempty" json:"po_number,omitempty"`
	PurchasePrice      float64            `bson:"purchase_price,omitempty" json:"purchase_price,omitempty"`
	InwardNovaDate     *time.Time         `bson:"inward_nova_date,omitempty" json:"inward_nova_date,omitempty"`
	InwardMagnovaDate  *time.Time         `bson:"inward_magnova_date,omitempty" json:"inward_magnova_date,omitempty"`
	OutwardNovaDate    *time.Time         `bson:"outward_nova_date,omitempty" json:"outward_nova_date,omitempty"`
	OutwardMagnovaDate *time.Time         `bson:"outward_magnova_date,omitempty" json:"outward_magnova_date,omitempty"`
	DispatchedDate     *time.Time         `bson:"dispatched_date,omitempty" json:"dispatched_date,omitempty"`
	SoldDate           *time.Time         `bson:"sold_date,omitempty" json:"sold_date,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// InventoryUpdate is a partial update applied by a scan. Nil or empty fields are left untouched.
type InventoryUpdate struct {
	Status          string
	CurrentLocation string
	Organization    string
	Vendor          string
	// DateField names the bson date field stamped with UpdatedAt, e.g. "inward_nova_date".
	DateField string
	UpdatedAt time.Time
}
