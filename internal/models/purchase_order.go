// server/internal/models/purchase_order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PO lifecycle status.
const (
	POStatusCreated  = "Created"
	POStatusApproved = "Approved"
	POStatusRejected = "Rejected"
)

// PO approval status.
const (
	ApprovalPending  = "Pending"
	ApprovalApproved = "Approved"
	ApprovalRejected = "Rejected"
)

// DefaultPurchaseOffice applies when a PO is created, or was stored, without an office.
const DefaultPurchaseOffice = "Magnova Head Office"

type LineItem struct {
	SlNo     int     `bson:"sl_no" json:"sl_no"`
	Vendor   string  `bson:"vendor" json:"vendor" validate:"required"`
	Location string  `bson:"location" json:"location" validate:"required"`
	Brand    string  `bson:"brand" json:"brand" validate:"required"`
	Model    string  `bson:"model" json:"model" validate:"required"`
	Storage  string  `bson:"storage,omitempty" json:"storage,omitempty"`
	Colour   string  `bson:"colour,omitempty" json:"colour,omitempty"`
	IMEI     string  `bson:"imei,omitempty" json:"imei,omitempty"`
	Qty      int     `bson:"qty" json:"qty" validate:"gte=0"`
	Rate     float64 `bson:"rate" json:"rate" validate:"gte=0"`
	POValue  float64 `bson:"po_value" json:"po_value" validate:"gte=0"` // caller supplied, not checked against qty*rate
}

type PurchaseOrder struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	POID            string             `bson:"po_id" json:"po_id"`
	PONumber        string             `bson:"po_number" json:"po_number"`
	PODate          time.Time          `bson:"po_date" json:"po_date"`
	PurchaseOffice  string             `bson:"purchase_office" json:"purchase_office"`
	CreatedBy       string             `bson:"created_by" json:"created_by"`
	CreatedByName   string             `bson:"created_by_name" json:"created_by_name"`
	Organization    string             `bson:"organization" json:"organization"`
	Status          string             `bson:"status" json:"status"`
	TotalQuantity   int                `bson:"total_quantity" json:"total_quantity"`
	TotalValue      float64            `bson:"total_value" json:"total_value"`
	Items           []LineItem         `bson:"items" json:"items"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ApprovalStatus  string             `bson:"approval_status" json:"approval_status"`
	ApprovedBy      string             `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time         `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	RejectionReason string             `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// PODecision is the set of fields written by an approve or reject action.
type PODecision struct {
	Status          string
	ApprovalStatus  string
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string
	UpdatedAt       time.Time
}
