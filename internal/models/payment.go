package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentType string

const (
	PaymentInternal PaymentType = "internal"
	PaymentExternal PaymentType = "external"
)

const PaymentStatusCompleted = "Completed"

// Payee types for external payments.
const (
	PayeeVendor = "vendor"
	PayeeCC     = "cc"
)

// PaymentHeader holds the fields shared by both payment variants.
type PaymentHeader struct {
	PaymentID   string      `bson:"payment_id" json:"payment_id"`
	PONumber    string      `bson:"po_number" json:"po_number"`
	PaymentType PaymentType `bson:"payment_type,omitempty" json:"payment_type"`
	PayeeName   string      `bson:"payee_name" json:"payee_name"`
	PaymentMode string      `bson:"payment_mode" json:"payment_mode"`
	Amount      float64     `bson:"amount" json:"amount"`
	PaymentDate time.Time   `bson:"payment_date" json:"payment_date"`
	Status      string      `bson:"status" json:"status"`
	CreatedBy   string      `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
}

// InternalDetails describe a Magnova to Nova payment.
type InternalDetails struct {
	PayeeAccount   string `bson:"payee_account" json:"payee_account"`
	PayeeBank      string `bson:"payee_bank" json:"payee_bank"`
	TransactionRef string `bson:"transaction_ref,omitempty" json:"transaction_ref,omitempty"`
}

// ExternalDetails describe a Nova to vendor or cost-center payment.
type ExternalDetails struct {
	PayeeType     string `bson:"payee_type" json:"payee_type"`
	AccountNumber string `bson:"account_number" json:"account_number"`
	IFSCCode      string `bson:"ifsc_code" json:"ifsc_code"`
	Location      string `bson:"location" json:"location"`
	UTRNumber     string `bson:"utr_number" json:"utr_number"`
}

// Payment is a tagged union: exactly one of Internal or External is set, matching Kind().
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PaymentHeader `bson:",inline"`
	Internal      *InternalDetails `bson:"internal,omitempty" json:"internal,omitempty"`
	External      *ExternalDetails `bson:"external,omitempty" json:"external,omitempty"`
}

// Kind returns the payment variant. Untagged legacy payments count as internal.
func (p Payment) Kind() PaymentType {
	if p.PaymentType == "" {
		return PaymentInternal
	}
	return p.PaymentType
}

func NewInternalPayment(header PaymentHeader, details InternalDetails) Payment {
	header.PaymentType = PaymentInternal
	return Payment{PaymentHeader: header, Internal: &details}
}

func NewExternalPayment(header PaymentHeader, details ExternalDetails) Payment {
	header.PaymentType = PaymentExternal
	return Payment{PaymentHeader: header, External: &details}
}
