// Package app assembles the engines over a store and exposes them to the router.
package app

import (
	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/api/routes"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/cascade"
	"magnova-scm-api-server/internal/identity"
	"magnova-scm-api-server/internal/inventory"
	"magnova-scm-api-server/internal/invoice"
	"magnova-scm-api-server/internal/logistics"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/payment"
	"magnova-scm-api-server/internal/purchaseorder"
	"magnova-scm-api-server/internal/report"
	"magnova-scm-api-server/internal/sales"
	"magnova-scm-api-server/internal/sequence"
	"magnova-scm-api-server/internal/socket"
	"magnova-scm-api-server/internal/store"

	"github.com/sirupsen/logrus"
)

// Extras are the optional infrastructure pieces. Nil fields are simply not used.
type Extras struct {
	Locker   sequence.Locker
	Archiver report.Archiver
}

// New builds every service over st and returns them ready for routes.SetupRouter.
func New(cfg config.Config, st store.Store, logger *logrus.Logger, extras Extras) routes.Dependencies {
	m := metrics.New()
	hub := socket.NewHub(logger)
	rec := audit.NewRecorder(st, logger, audit.WithMetrics(m), audit.WithPublisher(hub))

	seqOpts := []sequence.Option{sequence.WithMetrics(m)}
	if extras.Locker != nil {
		seqOpts = append(seqOpts, sequence.WithLocker(extras.Locker))
	}
	seq := sequence.NewGenerator(st, cfg.Sequence.MaxAttempts, seqOpts...)

	policy := auth.NewPolicy(cfg.Organizations)
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.Expiration)
	inv := inventory.NewService(st, rec, cfg.Procurement.RequireApprovedPO)

	return routes.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Identity:  identity.NewService(st, tokens),
		POs:       purchaseorder.NewService(st, seq, rec, policy),
		Cascade:   cascade.NewService(st, rec, m),
		Inventory: inv,
		Payments:  payment.NewService(st, rec, m),
		Logistics: logistics.NewService(st, rec),
		Invoices:  invoice.NewService(st, seq, rec),
		Sales:     sales.NewService(st, seq, rec, policy, inv),
		Reports:   report.NewService(st, extras.Archiver),
		Audit:     rec,
		Hub:       hub,
		Metrics:   m,
	}
}
