// Package payment records internal and external payments against purchase orders and keeps
// cumulative external payments for a PO within the internal payments received for it.
package payment

import (
	"context"
	"errors"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	store   store.Store
	audit   *audit.Recorder
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(s store.Store, rec *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{store: s, audit: rec, metrics: m, now: time.Now}
}

type InternalInput struct {
	PONumber       string     `json:"po_number" validate:"required"`
	PayeeName      string     `json:"payee_name" validate:"required"`
	PayeeAccount   string     `json:"payee_account" validate:"required"`
	PayeeBank      string     `json:"payee_bank" validate:"required"`
	PaymentMode    string     `json:"payment_mode" validate:"required"`
	Amount         float64    `json:"amount" validate:"gt=0"`
	TransactionRef string     `json:"transaction_ref"`
	PaymentDate    *time.Time `json:"payment_date"`
}

type ExternalInput struct {
	PONumber      string     `json:"po_number" validate:"required"`
	PayeeType     string     `json:"payee_type" validate:"required,oneof=vendor cc"`
	PayeeName     string     `json:"payee_name" validate:"required"`
	AccountNumber string     `json:"account_number" validate:"required"`
	IFSCCode      string     `json:"ifsc_code" validate:"required"`
	Location      string     `json:"location" validate:"required"`
	PaymentMode   string     `json:"payment_mode" validate:"required"`
	Amount        float64    `json:"amount" validate:"gt=0"`
	UTRNumber     string     `json:"utr_number" validate:"required"`
	PaymentDate   *time.Time `json:"payment_date"`
}

// Summary is derived from the PO and its payments.
type Summary struct {
	PONumber          string  `json:"po_number"`
	POTotalValue      float64 `json:"po_total_value"`
	InternalPaid      float64 `json:"internal_paid"`
	ExternalPaid      float64 `json:"external_paid"`
	ExternalRemaining float64 `json:"external_remaining"`
}

func (s *Service) header(pr auth.Principal, poNumber, payee, mode string, amount float64, date *time.Time) models.PaymentHeader {
	now := s.now().UTC()
	paid := now
	if date != nil {
		paid = date.UTC()
	}
	return models.PaymentHeader{
		PaymentID:   uuid.NewString(),
		PONumber:    poNumber,
		PayeeName:   payee,
		PaymentMode: mode,
		Amount:      amount,
		PaymentDate: paid,
		Status:      models.PaymentStatusCompleted,
		CreatedBy:   pr.UserID,
		CreatedAt:   now,
	}
}

func (s *Service) requirePO(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	po, err := s.store.FindPurchaseOrder(ctx, poNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.InvalidReference("purchase order %s not found", poNumber)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load purchase order %s", poNumber)
	}
	return po, nil
}

// RecordInternal stores a Magnova to Nova payment. It is not bounded by the PO value.
func (s *Service) RecordInternal(ctx context.Context, pr auth.Principal, in InternalInput) (*models.Payment, error) {
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.requirePO(ctx, in.PONumber); err != nil {
		return nil, err
	}

	p := models.NewInternalPayment(
		s.header(pr, in.PONumber, in.PayeeName, in.PaymentMode, in.Amount, in.PaymentDate),
		models.InternalDetails{PayeeAccount: in.PayeeAccount, PayeeBank: in.PayeeBank, TransactionRef: in.TransactionRef},
	)
	if err := s.store.InsertPayment(ctx, &p); err != nil {
		return nil, apperr.Internal(err, "could not record internal payment for %s", in.PONumber)
	}

	s.audit.Record(ctx, pr, models.ActionCreate, audit.EntityInternalPayment, p.PaymentID, map[string]any{
		"po_number": p.PONumber,
		"amount":    p.Amount,
	})
	return &p, nil
}

// RecordExternal stores a Nova to vendor or cost-center payment, provided the PO's external
// total stays within its internal total. A rejected call writes nothing.
func (s *Service) RecordExternal(ctx context.Context, pr auth.Principal, in ExternalInput) (*models.Payment, error) {
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.requirePO(ctx, in.PONumber); err != nil {
		return nil, err
	}

	p := models.NewExternalPayment(
		s.header(pr, in.PONumber, in.PayeeName, in.PaymentMode, in.Amount, in.PaymentDate),
		models.ExternalDetails{
			PayeeType:     in.PayeeType,
			AccountNumber: in.AccountNumber,
			IFSCCode:      in.IFSCCode,
			Location:      in.Location,
			UTRNumber:     in.UTRNumber,
		},
	)

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		// Concurrent externals for the same PO must not both pass the check below.
		if err := s.store.BumpPaymentVersion(ctx, in.PONumber); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.InvalidReference("purchase order %s not found", in.PONumber)
			}
			return err
		}
		internal, external, err := s.totals(ctx, in.PONumber)
		if err != nil {
			return err
		}
		amount := decimal.NewFromFloat(in.Amount)
		if external.Add(amount).GreaterThan(internal) {
			remaining := internal.Sub(external)
			return apperr.New(apperr.KindBudgetExceeded,
				"external payment exceeds internal payment received. Total internal: %s, total external: %s, remaining: %s",
				internal.StringFixed(2), external.StringFixed(2), remaining.StringFixed(2),
			).WithDetails(map[string]any{
				"total_internal": internal.InexactFloat64(),
				"total_external": external.InexactFloat64(),
				"remaining":      remaining.InexactFloat64(),
			})
		}
		return s.store.InsertPayment(ctx, &p)
	})
	if err != nil {
		if apperr.Is(err, apperr.KindBudgetExceeded) {
			if s.metrics != nil {
				s.metrics.BudgetRejections.Inc()
			}
			return nil, err
		}
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Internal(err, "could not record external payment for %s", in.PONumber)
	}

	s.audit.Record(ctx, pr, models.ActionCreate, audit.EntityExternalPayment, p.PaymentID, map[string]any{
		"po_number":  p.PONumber,
		"amount":     p.Amount,
		"payee_type": in.PayeeType,
	})
	return &p, nil
}

// totals sums the internal (including untagged) and external payments of a PO.
func (s *Service) totals(ctx context.Context, poNumber string) (internal, external decimal.Decimal, err error) {
	payments, err := s.store.ListPayments(ctx, store.PaymentFilter{PONumber: poNumber})
	if err != nil {
		return decimal.Zero, decimal.Zero, apperr.Internal(err, "could not load payments for %s", poNumber)
	}
	internal, external = decimal.Zero, decimal.Zero
	for _, p := range payments {
		amount := decimal.NewFromFloat(p.Amount)
		if p.Kind() == models.PaymentExternal {
			external = external.Add(amount)
		} else {
			internal = internal.Add(amount)
		}
	}
	return internal, external, nil
}

func (s *Service) Summary(ctx context.Context, poNumber string) (*Summary, error) {
	po, err := s.store.FindPurchaseOrder(ctx, poNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("purchase order %s not found", poNumber)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load purchase order %s", poNumber)
	}
	internal, external, err := s.totals(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	return &Summary{
		PONumber:          poNumber,
		POTotalValue:      po.TotalValue,
		InternalPaid:      internal.InexactFloat64(),
		ExternalPaid:      external.InexactFloat64(),
		ExternalRemaining: internal.Sub(external).InexactFloat64(),
	}, nil
}

// List returns payments newest first, optionally filtered by PO and variant.
func (s *Service) List(ctx context.Context, poNumber string, kind models.PaymentType) ([]models.Payment, error) {
	if kind != "" && kind != models.PaymentInternal && kind != models.PaymentExternal {
		return nil, apperr.Invalid("payment_type must be %q or %q", models.PaymentInternal, models.PaymentExternal)
	}
	payments, err := s.store.ListPayments(ctx, store.PaymentFilter{PONumber: poNumber, Type: kind})
	if err != nil {
		return nil, apperr.Internal(err, "could not list payments")
	}
	return payments, nil
}

func (s *Service) Delete(ctx context.Context, pr auth.Principal, paymentID string) error {
	if err := auth.RequireAdmin(pr); err != nil {
		return err
	}
	n, err := s.store.DeletePaymentByID(ctx, paymentID)
	if err != nil {
		return apperr.Internal(err, "could not delete payment %s", paymentID)
	}
	if n == 0 {
		return apperr.NotFound("payment %s not found", paymentID)
	}
	s.audit.Record(ctx, pr, models.ActionDelete, audit.EntityPayment, paymentID, nil)
	return nil
}
