// Package audit writes the append-only audit trail and fans each record out to live clients.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Entity types.
const (
	EntityPurchaseOrder   = "PurchaseOrder"
	EntityProcurement     = "Procurement"
	EntityPayment         = "Payment"
	EntityInternalPayment = "InternalPayment"
	EntityExternalPayment = "ExternalPayment"
	EntityIMEI            = "IMEI"
	EntityShipment        = "Shipment"
	EntityInvoice         = "Invoice"
	EntitySalesOrder      = "SalesOrder"
)

// ListLimit caps how many records List returns.
const ListLimit = 500

// Publisher receives every audit record that was stored.
type Publisher interface {
	Broadcast(message []byte)
}

type Recorder struct {
	store     store.AuditLogs
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	now       func() time.Time
}

type Option func(*Recorder)

func WithMetrics(m *metrics.Metrics) Option { return func(r *Recorder) { r.metrics = m } }

func WithPublisher(p Publisher) Option { return func(r *Recorder) { r.publisher = p } }

func WithClock(now func() time.Time) Option { return func(r *Recorder) { r.now = now } }

func NewRecorder(s store.AuditLogs, logger *logrus.Logger, opts ...Option) *Recorder {
	r := &Recorder{store: s, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one audit entry. It never fails the caller: store errors are logged and counted.
func (r *Recorder) Record(ctx context.Context, actor auth.Principal, action, entityType, entityID string, details map[string]any) {
	entry := &models.AuditLog{
		LogID:      uuid.NewString(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     actor.UserID,
		UserName:   actor.Name,
		Details:    details,
		Timestamp:  r.now().UTC(),
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	if err := r.store.InsertAuditLog(ctx, entry); err != nil {
		config.LogError(r.logger, "audit", "Record", fmt.Sprintf("%s %s", action, entityType), entityID, err)
		if r.metrics != nil {
			r.metrics.AuditFailures.Inc()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.AuditEvents.WithLabelValues(action, entityType).Inc()
	}
	if r.publisher != nil {
		msg, err := json.Marshal(map[string]any{"type": "audit", "data": entry})
		if err != nil {
			config.LogError(r.logger, "audit", "Record", "marshal audit event", entityID, err)
			return
		}
		r.publisher.Broadcast(msg)
	}
}

// List returns the newest audit records first, optionally restricted to one entity type.
func (r *Recorder) List(ctx context.Context, entityType string) ([]models.AuditLog, error) {
	logs, err := r.store.ListAuditLogs(ctx, store.AuditFilter{EntityType: entityType, Limit: ListLimit})
	if err != nil {
		return nil, apperr.Internal(err, "could not list audit logs")
	}
	return logs, nil
}
