// Package cascade deletes a purchase order together with every record that hangs off it.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"
)

type Service struct {
	store   store.Store
	audit   *audit.Recorder
	metrics *metrics.Metrics
}

func NewService(s store.Store, rec *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{store: s, audit: rec, metrics: m}
}

type DeletedCounts struct {
	Procurement int64 `json:"procurement"`
	Payments    int64 `json:"payments"`
	Logistics   int64 `json:"logistics"`
	Inventory   int64 `json:"inventory"`
	Invoices    int64 `json:"invoices"`
}

func (c DeletedCounts) Total() int64 {
	return c.Procurement + c.Payments + c.Logistics + c.Inventory + c.Invoices
}

type Result struct {
	Message       string        `json:"message"`
	DeletedCounts DeletedCounts `json:"deleted_counts"`
}

var errPOGone = errors.New("purchase order vanished during delete")

// DeletePO removes the PO's inventory items, procurement records, payments, shipments and
// invoices, then the PO itself, all inside one store transaction.
func (s *Service) DeletePO(ctx context.Context, pr auth.Principal, poNumber string) (*Result, error) {
	if err := auth.RequireAdmin(pr); err != nil {
		return nil, err
	}
	ok, err := s.store.PurchaseOrderExists(ctx, poNumber)
	if err != nil {
		return nil, apperr.Internal(err, "could not load purchase order %s", poNumber)
	}
	if !ok {
		return nil, apperr.NotFound("purchase order %s not found", poNumber)
	}

	var counts DeletedCounts
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		counts = DeletedCounts{}
		scope := store.POScope{PONumber: poNumber}

		records, err := s.store.ListProcurement(ctx, store.ProcurementFilter{PONumber: poNumber})
		if err != nil {
			return fmt.Errorf("collect IMEIs: %w", err)
		}
		imeis := make([]string, 0, len(records))
		for _, r := range records {
			if r.IMEI != "" {
				imeis = append(imeis, r.IMEI)
			}
		}

		if len(imeis) > 0 {
			if counts.Inventory, err = s.store.DeleteInventory(ctx, store.InventoryFilter{IMEIs: imeis}); err != nil {
				return fmt.Errorf("delete inventory: %w", err)
			}
		}
		if counts.Procurement, err = s.store.DeleteProcurement(ctx, store.ProcurementFilter{PONumber: poNumber}); err != nil {
			return fmt.Errorf("delete procurement: %w", err)
		}
		if counts.Payments, err = s.store.DeletePayments(ctx, store.PaymentFilter{PONumber: poNumber}); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		if counts.Logistics, err = s.store.DeleteShipments(ctx, scope); err != nil {
			return fmt.Errorf("delete shipments: %w", err)
		}
		if counts.Invoices, err = s.store.DeleteInvoices(ctx, scope); err != nil {
			return fmt.Errorf("delete invoices: %w", err)
		}
		n, err := s.store.DeletePurchaseOrder(ctx, poNumber)
		if err != nil {
			return fmt.Errorf("delete purchase order: %w", err)
		}
		if n == 0 {
			return errPOGone
		}
		return nil
	})
	if errors.Is(err, errPOGone) {
		return nil, apperr.NotFound("purchase order %s not found", poNumber)
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not delete purchase order %s", poNumber)
	}

	if s.metrics != nil {
		s.metrics.CascadeDeletes.WithLabelValues("imei_inventory").Add(float64(counts.Inventory))
		s.metrics.CascadeDeletes.WithLabelValues("procurement").Add(float64(counts.Procurement))
		s.metrics.CascadeDeletes.WithLabelValues("payments").Add(float64(counts.Payments))
		s.metrics.CascadeDeletes.WithLabelValues("logistics_shipments").Add(float64(counts.Logistics))
		s.metrics.CascadeDeletes.WithLabelValues("invoices").Add(float64(counts.Invoices))
	}
	s.audit.Record(ctx, pr, models.ActionCascadeDelete, audit.EntityPurchaseOrder, poNumber, map[string]any{
		"procurement": counts.Procurement,
		"payments":    counts.Payments,
		"logistics":   counts.Logistics,
		"inventory":   counts.Inventory,
		"invoices":    counts.Invoices,
	})
	return &Result{
		Message:       fmt.Sprintf("Purchase order %s and all related records deleted successfully", poNumber),
		DeletedCounts: counts,
	}, nil
}
