// Package store is the document-store boundary used by the engines.
//
// Each method maps to one collection operation. Single-document writes are atomic;
// multi-document sequences are only atomic inside WithTransaction, and only when the
// backing implementation supports transactions.
package store

import (
	"context"
	"errors"
	"time"

	"magnova-scm-api-server/internal/models"
)

var (
	// ErrNotFound is returned when a single-document lookup or update matches nothing.
	ErrNotFound = errors.New("store: document not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrConflict is returned when a conditional update finds the document in an unexpected state.
	ErrConflict = errors.New("store: document changed concurrently")
)

// Collection names, shared by the Mongo implementation and the migrations.
const (
	CollUsers       = "users"
	CollPOs         = "purchase_orders"
	CollProcurement = "procurement"
	CollInventory   = "imei_inventory"
	CollPayments    = "payments"
	CollShipments   = "logistics_shipments"
	CollInvoices    = "invoices"
	CollSalesOrders = "sales_orders"
	CollAuditLogs   = "audit_logs"
	CollCounters    = "counters"
	CollMigrations  = "migrations"
)

// Sequence counter names.
const (
	SeqPurchaseOrder = "purchase_order"
	SeqInvoice       = "invoice"
	SeqSalesOrder    = "sales_order"
)

// Business number formats.
const (
	FormatPurchaseOrder = "PO-MAG-%05d"
	FormatInvoice       = "INV-%06d"
	FormatSalesOrder    = "SO-MAG-%05d"
)

type POFilter struct {
	ApprovalStatus string
}

type ProcurementFilter struct {
	PONumber string
}

type InventoryFilter struct {
	Status       string
	Organization string
	// IMEIs restricts the match to the listed IMEIs when non-nil. An empty non-nil slice matches nothing.
	IMEIs []string
}

type PaymentFilter struct {
	PONumber string
	// Type filters by variant. PaymentInternal also matches untagged legacy payments.
	Type models.PaymentType
}

// POScope filters collections that only hang off a PO number. Empty matches everything.
type POScope struct {
	PONumber string
}

type AuditFilter struct {
	EntityType string
	Limit      int
}

type Users interface {
	InsertUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
}

type PurchaseOrders interface {
	InsertPurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
	FindPurchaseOrder(ctx context.Context, poNumber string) (*models.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, f POFilter) ([]models.PurchaseOrder, error)
	CountPurchaseOrders(ctx context.Context, f POFilter) (int64, error)
	PurchaseOrderExists(ctx context.Context, poNumber string) (bool, error)
	UpdatePurchaseOrderDecision(ctx context.Context, poNumber string, d models.PODecision) error
	// BumpPaymentVersion writes to the PO document so that transactions changing its payments
	// conflict with each other instead of reading the same snapshot.
	BumpPaymentVersion(ctx context.Context, poNumber string) error
	DeletePurchaseOrder(ctx context.Context, poNumber string) (int64, error)
}

type Procurement interface {
	InsertProcurement(ctx context.Context, p *models.ProcurementRecord) error
	FindProcurementByIMEI(ctx context.Context, imei string) (*models.ProcurementRecord, error)
	FindProcurementByID(ctx context.Context, procurementID string) (*models.ProcurementRecord, error)
	ListProcurement(ctx context.Context, f ProcurementFilter) ([]models.ProcurementRecord, error)
	CountProcurement(ctx context.Context, f ProcurementFilter) (int64, error)
	DeleteProcurementByID(ctx context.Context, procurementID string) (int64, error)
	DeleteProcurement(ctx context.Context, f ProcurementFilter) (int64, error)
}

type Inventory interface {
	InsertInventory(ctx context.Context, item *models.InventoryItem) error
	FindInventory(ctx context.Context, imei string) (*models.InventoryItem, error)
	UpdateInventory(ctx context.Context, imei string, u models.InventoryUpdate) error
	// SetInventoryStatus updates every matching IMEI and returns how many were matched. Missing IMEIs are skipped.
	SetInventoryStatus(ctx context.Context, imeis []string, status string, at time.Time) (int64, error)
	ListInventory(ctx context.Context, f InventoryFilter) ([]models.InventoryItem, error)
	CountInventory(ctx context.Context, f InventoryFilter) (int64, error)
	DeleteInventory(ctx context.Context, f InventoryFilter) (int64, error)
}

type Payments interface {
	InsertPayment(ctx context.Context, p *models.Payment) error
	ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error)
	CountPayments(ctx context.Context, f PaymentFilter) (int64, error)
	DeletePaymentByID(ctx context.Context, paymentID string) (int64, error)
	DeletePayments(ctx context.Context, f PaymentFilter) (int64, error)
}

type Shipments interface {
	InsertShipment(ctx context.Context, s *models.LogisticsShipment) error
	UpdateShipmentStatus(ctx context.Context, shipmentID, status string, actualDelivery *time.Time, at time.Time) error
	ListShipments(ctx context.Context, f POScope) ([]models.LogisticsShipment, error)
	CountShipments(ctx context.Context, f POScope) (int64, error)
	DeleteShipmentByID(ctx context.Context, shipmentID string) (int64, error)
	DeleteShipments(ctx context.Context, f POScope) (int64, error)
}

type Invoices interface {
	InsertInvoice(ctx context.Context, inv *models.Invoice) error
	InvoiceNumberExists(ctx context.Context, number string) (bool, error)
	ListInvoices(ctx context.Context, f POScope) ([]models.Invoice, error)
	CountInvoices(ctx context.Context, f POScope) (int64, error)
	DeleteInvoiceByID(ctx context.Context, invoiceID string) (int64, error)
	DeleteInvoices(ctx context.Context, f POScope) (int64, error)
}

type SalesOrders interface {
	InsertSalesOrder(ctx context.Context, so *models.SalesOrder) error
	SalesOrderExists(ctx context.Context, soNumber string) (bool, error)
	ListSalesOrders(ctx context.Context) ([]models.SalesOrder, error)
	CountSalesOrders(ctx context.Context) (int64, error)
	DeleteSalesOrder(ctx context.Context, soNumber string) (int64, error)
}

type AuditLogs interface {
	InsertAuditLog(ctx context.Context, l *models.AuditLog) error
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error)
}

// Sequences hands out monotonically increasing values per named counter.
type Sequences interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

// Store is the full document store.
type Store interface {
	Users
	PurchaseOrders
	Procurement
	Inventory
	Payments
	Shipments
	Invoices
	SalesOrders
	AuditLogs
	Sequences

	// WithTransaction runs fn so that its writes commit or abort together where the backend allows it.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
