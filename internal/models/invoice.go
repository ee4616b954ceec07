package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultGSTPercentage  = 18.0
	InvoicePaymentPending = "Pending"
)

type Invoice struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	InvoiceID       string             `bson:"invoice_id" json:"invoice_id"`
	InvoiceNumber   string             `bson:"invoice_number" json:"invoice_number"`
	InvoiceType     string             `bson:"invoice_type" json:"invoice_type"`
	PONumber        string             `bson:"po_number" json:"po_number"`
	FromOrg         string             `bson:"from_organization" json:"from_organization"`
	ToOrg           string             `bson:"to_organization" json:"to_organization"`
	Amount          float64            `bson:"amount" json:"amount"`
	GSTAmount       float64            `bson:"gst_amount" json:"gst_amount"`
	GSTPercentage   float64            `bson:"gst_percentage" json:"gst_percentage"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	IMEIList        []string           `bson:"imei_list" json:"imei_list"`
	InvoiceDate     time.Time          `bson:"invoice_date" json:"invoice_date"`
	PaymentStatus   string             `bson:"payment_status" json:"payment_status"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	BillingAddress  string             `bson:"billing_address,omitempty" json:"billing_address,omitempty"`
	ShippingAddress string             `bson:"shipping_address,omitempty" json:"shipping_address,omitempty"`
	CreatedBy       string             `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
