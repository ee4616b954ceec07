// Package invoice issues numbered invoices between organizations for a PO.
package invoice

import (
	"context"
	"errors"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/sequence"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	store store.Store
	seq   *sequence.Generator
	audit *audit.Recorder
	now   func() time.Time
}

func NewService(s store.Store, seq *sequence.Generator, rec *audit.Recorder) *Service {
	return &Service{store: s, seq: seq, audit: rec, now: time.Now}
}

type CreateInput struct {
	InvoiceType     string     `json:"invoice_type" validate:"required"`
	PONumber        string     `json:"po_number" validate:"required"`
	FromOrg         string     `json:"from_organization" validate:"required"`
	ToOrg           string     `json:"to_organization" validate:"required"`
	Amount          float64    `json:"amount" validate:"gte=0"`
	GSTAmount       float64    `json:"gst_amount" validate:"gte=0"`
	GSTPercentage   float64    `json:"gst_percentage" validate:"gte=0"`
	IMEIList        []string   `json:"imei_list"`
	InvoiceDate     *time.Time `json:"invoice_date"`
	Description     string     `json:"description"`
	BillingAddress  string     `json:"billing_address"`
	ShippingAddress string     `json:"shipping_address"`
}

func (s *Service) Create(ctx context.Context, pr auth.Principal, in CreateInput) (*models.Invoice, error) {
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

	number, err := s.seq.Next(ctx, sequence.Invoices(s.store))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	invDate := now
	if in.InvoiceDate != nil {
		invDate = in.InvoiceDate.UTC()
	}
	gstPct := in.GSTPercentage
	if gstPct == 0 {
		gstPct = models.DefaultGSTPercentage
	}
	imeis := in.IMEIList
	if imeis == nil {
		imeis = []string{}
	}
	total := decimal.NewFromFloat(in.Amount).Add(decimal.NewFromFloat(in.GSTAmount))

	inv := &models.Invoice{
		InvoiceID:       uuid.NewString(),
		InvoiceNumber:   number,
		InvoiceType:     in.InvoiceType,
		PONumber:        in.PONumber,
		FromOrg:         in.FromOrg,
		ToOrg:           in.ToOrg,
		Amount:          in.Amount,
		GSTAmount:       in.GSTAmount,
		GSTPercentage:   gstPct,
		TotalAmount:     total.InexactFloat64(),
		IMEIList:        imeis,
		InvoiceDate:     invDate,
		PaymentStatus:   models.InvoicePaymentPending,
		Description:     in.Description,
		BillingAddress:  in.BillingAddress,
		ShippingAddress: in.ShippingAddress,
		CreatedBy:       pr.UserID,
		CreatedAt:       now,
	}
	if err := s.store.InsertInvoice(ctx, inv); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("invoice %s already exists", number)
		}
		return nil, apperr.Internal(err, "could not create invoice")
	}

	s.audit.Record(ctx, pr, models.ActionCreate, audit.EntityInvoice, inv.InvoiceNumber, map[string]any{
		"po_number": inv.PONumber,
		"amount":    inv.Amount,
	})
	return inv, nil
}

func (s *Service) List(ctx context.Context, poNumber string) ([]models.Invoice, error) {
	out, err := s.store.ListInvoices(ctx, store.POScope{PONumber: poNumber})
	if err != nil {
		return nil, apperr.Internal(err, "could not list invoices")
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, pr auth.Principal, invoiceID string) error {
	if err := auth.RequireAdmin(pr); err != nil {
		return err
	}
	n, err := s.store.DeleteInvoiceByID(ctx, invoiceID)
	if err != nil {
		return apperr.Internal(err, "could not delete invoice %s", invoiceID)
	}
	if n == 0 {
		return apperr.NotFound("invoice %s not found", invoiceID)
	}
	s.audit.Record(ctx, pr, models.ActionDelete, audit.EntityInvoice, invoiceID, nil)
	return nil
}
