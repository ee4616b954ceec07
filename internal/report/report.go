// Package report builds read-only aggregates over the store: dashboard counters, PO summaries
// and the spreadsheet exports.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/shopspring/decimal"
)

// XLSXContentType is the media type of every export.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Archiver stores a generated report and returns where it can be fetched from.
type Archiver interface {
	Upload(ctx context.Context, body io.Reader, key, contentType string) (string, error)
}

type Service struct {
	store    store.Store
	archiver Archiver
	now      func() time.Time
}

// NewService wires the report service. archiver may be nil, in which case ArchiveMaster fails.
func NewService(s store.Store, archiver Archiver) *Service {
	return &Service{store: s, archiver: archiver, now: time.Now}
}

type Dashboard struct {
	TotalPOs           int64   `json:"total_pos"`
	PendingPOs         int64   `json:"pending_pos"`
	TotalProcurement   int64   `json:"total_procurement"`
	TotalInventory     int64   `json:"total_inventory"`
	AvailableInventory int64   `json:"available_inventory"`
	TotalSales         int64   `json:"total_sales"`
	TotalPaymentAmount float64 `json:"total_payment_amount"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.TotalPOs, err = s.store.CountPurchaseOrders(ctx, store.POFilter{}); err != nil {
		return nil, apperr.Internal(err, "could not count purchase orders")
	}
	if d.PendingPOs, err = s.store.CountPurchaseOrders(ctx, store.POFilter{ApprovalStatus: models.ApprovalPending}); err != nil {
		return nil, apperr.Internal(err, "could not count pending purchase orders")
	}
	if d.TotalProcurement, err = s.store.CountProcurement(ctx, store.ProcurementFilter{}); err != nil {
		return nil, apperr.Internal(err, "could not count procurement")
	}
	if d.TotalInventory, err = s.store.CountInventory(ctx, store.InventoryFilter{}); err != nil {
		return nil, apperr.Internal(err, "could not count inventory")
	}
	if d.AvailableInventory, err = s.store.CountInventory(ctx, store.InventoryFilter{Status: models.StatusAvailable}); err != nil {
		return nil, apperr.Internal(err, "could not count available inventory")
	}
	if d.TotalSales, err = s.store.CountSalesOrders(ctx); err != nil {
		return nil, apperr.Internal(err, "could not count sales orders")
	}

	payments, err := s.store.ListPayments(ctx, store.PaymentFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "could not list payments")
	}
	d.TotalPaymentAmount = sumPayments(payments)
	return &d, nil
}

type POSummary struct {
	PO                 *models.PurchaseOrder      `json:"po"`
	TotalProcured      int                        `json:"total_procured"`
	ProcurementRecords []models.ProcurementRecord `json:"procurement_records"`
	Payments           []models.Payment           `json:"payments"`
	TotalPaid          float64                    `json:"total_paid"`
}

func (s *Service) POSummary(ctx context.Context, poNumber string) (*POSummary, error) {
	if poNumber == "" {
		return nil, apperr.Invalid("po_number is required")
	}
	po, err := s.store.FindPurchaseOrder(ctx, poNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("purchase order %s not found", poNumber)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load purchase order %s", poNumber)
	}
	records, err := s.store.ListProcurement(ctx, store.ProcurementFilter{PONumber: poNumber})
	if err != nil {
		return nil, apperr.Internal(err, "could not list procurement for %s", poNumber)
	}
	payments, err := s.store.ListPayments(ctx, store.PaymentFilter{PONumber: poNumber})
	if err != nil {
		return nil, apperr.Internal(err, "could not list payments for %s", poNumber)
	}
	return &POSummary{
		PO:                 po,
		TotalProcured:      len(records),
		ProcurementRecords: records,
		Payments:           payments,
		TotalPaid:          sumPayments(payments),
	}, nil
}

// ArchiveMaster renders the master report and uploads it, returning the object URL.
func (s *Service) ArchiveMaster(ctx context.Context) (string, error) {
	if s.archiver == nil {
		return "", apperr.Invalid("report archiving is not configured")
	}
	buf, err := s.ExportMaster(ctx)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("reports/master_report_%s.xlsx", s.now().UTC().Format("20060102T150405Z"))
	url, err := s.archiver.Upload(ctx, buf, key, XLSXContentType)
	if err != nil {
		return "", apperr.Internal(err, "could not archive master report")
	}
	return url, nil
}

func sumPayments(payments []models.Payment) float64 {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(decimal.NewFromFloat(p.Amount))
	}
	f, _ := total.Float64()
	return f
}
