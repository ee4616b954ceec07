// Package metrics holds the process Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	AuditEvents      *prometheus.CounterVec
	AuditFailures    prometheus.Counter
	BudgetRejections prometheus.Counter
	SequenceRetries  *prometheus.CounterVec
	CascadeDeletes   *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so tests can build as many as they need.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AuditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magnova",
			Name:      "audit_events_total",
			Help:      "Audit records written, by action and entity type.",
		}, []string{"action", "entity_type"}),
		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "magnova",
			Name:      "audit_failures_total",
			Help:      "Audit records that could not be written.",
		}),
		BudgetRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "magnova",
			Name:      "payment_budget_rejections_total",
			Help:      "External payments rejected because they exceeded internal payments.",
		}),
		SequenceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magnova",
			Name:      "sequence_collisions_total",
			Help:      "Generated identifiers that were already taken.",
		}, []string{"sequence"}),
		CascadeDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magnova",
			Name:      "cascade_deleted_documents_total",
			Help:      "Documents removed by purchase order cascade deletes, by collection.",
		}, []string{"collection"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuditEvents,
		m.AuditFailures,
		m.BudgetRejections,
		m.SequenceRetries,
		m.CascadeDeletes,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
