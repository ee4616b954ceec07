// Package sequence allocates formatted business identifiers such as PO-MAG-00001.
//
// Each allocation takes the next value of a dedicated store counter and then checks the
// formatted identifier against the target collection, advancing until a free one is found
// or the attempt budget runs out.
package sequence

import (
	"context"
	"fmt"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/store"
)

// Definition describes one identifier sequence.
type Definition struct {
	Name   string
	Format string
	Exists func(ctx context.Context, id string) (bool, error)
}

func PurchaseOrders(s store.PurchaseOrders) Definition {
	return Definition{Name: store.SeqPurchaseOrder, Format: store.FormatPurchaseOrder, Exists: s.PurchaseOrderExists}
}

func Invoices(s store.Invoices) Definition {
	return Definition{Name: store.SeqInvoice, Format: store.FormatInvoice, Exists: s.InvoiceNumberExists}
}

func SalesOrders(s store.SalesOrders) Definition {
	return Definition{Name: store.SeqSalesOrder, Format: store.FormatSalesOrder, Exists: s.SalesOrderExists}
}

// Locker serializes allocators. Release must be safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

type Generator struct {
	counters    store.Sequences
	maxAttempts int
	locker      Locker
	metrics     *metrics.Metrics
}

type Option func(*Generator)

func WithLocker(l Locker) Option { return func(g *Generator) { g.locker = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(g *Generator) { g.metrics = m } }

func NewGenerator(counters store.Sequences, maxAttempts int, opts ...Option) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	g := &Generator{counters: counters, maxAttempts: maxAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a formatted identifier not yet present in the target collection.
func (g *Generator) Next(ctx context.Context, def Definition) (string, error) {
	if g.locker != nil {
		release, err := g.locker.Lock(ctx, "sequence:"+def.Name)
		if err != nil {
			return "", apperr.Internal(err, "could not lock sequence %s", def.Name)
		}
		defer release()
	}

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		n, err := g.counters.NextSequence(ctx, def.Name)
		if err != nil {
			return "", apperr.Internal(err, "could not advance sequence %s", def.Name)
		}
		id := fmt.Sprintf(def.Format, n)
		taken, err := def.Exists(ctx, id)
		if err != nil {
			return "", apperr.Internal(err, "could not check identifier %s", id)
		}
		if !taken {
			return id, nil
		}
		if g.metrics != nil {
			g.metrics.SequenceRetries.WithLabelValues(def.Name).Inc()
		}
	}
	return "", apperr.Conflict("no free %s identifier after %d attempts", def.Name, g.maxAttempts)
}
