// Package memstore is an in-process implementation of store.Store.
//
// It backs the "memory" store driver and the engine tests. Unique constraints match the
// Mongo indexes: users.email, purchase_orders.po_number, procurement.imei, imei_inventory.imei,
// invoices.invoice_number and sales_orders.so_number.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users       []models.User
	pos         []models.PurchaseOrder
	procurement []models.ProcurementRecord
	inventory   []models.InventoryItem
	payments    []models.Payment
	shipments   []models.LogisticsShipment
	invoices    []models.Invoice
	salesOrders []models.SalesOrder
	auditLogs   []models.AuditLog
	counters    map[string]int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{counters: make(map[string]int64)}
}

type snapshot struct {
	users       []models.User
	pos         []models.PurchaseOrder
	procurement []models.ProcurementRecord
	inventory   []models.InventoryItem
	payments    []models.Payment
	shipments   []models.LogisticsShipment
	invoices    []models.Invoice
	salesOrders []models.SalesOrder
	counters    map[string]int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counters := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	return snapshot{
		users:       slices.Clone(s.users),
		pos:         slices.Clone(s.pos),
		procurement: slices.Clone(s.procurement),
		inventory:   slices.Clone(s.inventory),
		payments:    slices.Clone(s.payments),
		shipments:   slices.Clone(s.shipments),
		invoices:    slices.Clone(s.invoices),
		salesOrders: slices.Clone(s.salesOrders),
		counters:    counters,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.pos = snap.pos
	s.procurement = snap.procurement
	s.inventory = snap.inventory
	s.payments = snap.payments
	s.shipments = snap.shipments
	s.invoices = snap.invoices
	s.salesOrders = snap.salesOrders
	s.counters = snap.counters
}

// WithTransaction serializes transactions and rolls every collection back when fn fails.
// Audit logs are append-only and are not rolled back.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// --- generic helpers ---

func find[T any](items []T, match func(T) bool) (*T, bool) {
	for i := range items {
		if match(items[i]) {
			out := items[i]
			return &out, true
		}
	}
	return nil, false
}

func filter[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0)
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

func count[T any](items []T, match func(T) bool) int64 {
	var n int64
	for _, it := range items {
		if match(it) {
			n++
		}
	}
	return n
}

func deleteWhere[T any](items *[]T, match func(T) bool) int64 {
	kept := (*items)[:0:0]
	var n int64
	for _, it := range *items {
		if match(it) {
			n++
			continue
		}
		kept = append(kept, it)
	}
	*items = kept
	return n
}

// newestFirst orders by createdAt descending; equal timestamps keep reverse insertion order.
func newestFirst[T any](items []T, createdAt func(T) time.Time) []T {
	slices.Reverse(items)
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
	return items
}

// --- users ---

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := find(s.users, func(x models.User) bool { return x.Email == u.Email }); ok {
		return store.ErrDuplicate
	}
	s.users = append(s.users, *u)
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := find(s.users, func(x models.User) bool { return x.Email == email }); ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := find(s.users, func(x models.User) bool { return x.UserID == userID }); ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

// --- purchase orders ---

func matchPO(f store.POFilter) func(models.PurchaseOrder) bool {
	return func(po models.PurchaseOrder) bool {
		return f.ApprovalStatus == "" || po.ApprovalStatus == f.ApprovalStatus
	}
}

func (s *Store) InsertPurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := find(s.pos, func(x models.PurchaseOrder) bool { return x.PONumber == po.PONumber }); ok {
		return store.ErrDuplicate
	}
	cp := *po
	cp.Items = slices.Clone(po.Items)
	s.pos = append(s.pos, cp)
	return nil
}

func (s *Store) FindPurchaseOrder(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if po, ok := find(s.pos, func(x models.PurchaseOrder) bool { return x.PONumber == poNumber }); ok {
		return po, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListPurchaseOrders(ctx context.Context, f store.POFilter) ([]models.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(filter(s.pos, matchPO(f)), func(po models.PurchaseOrder) time.Time { return po.CreatedAt }), nil
}

func (s *Store) CountPurchaseOrders(ctx context.Context, f store.POFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.pos, matchPO(f)), nil
}

func (s *Store) PurchaseOrderExists(ctx context.Context, poNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := find(s.pos, func(x models.PurchaseOrder) bool { return x.PONumber == poNumber })
	return ok, nil
}

func (s *Store) UpdatePurchaseOrderDecision(ctx context.Context, poNumber string, d models.PODecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pos {
		if s.pos[i].PONumber != poNumber {
			continue
		}
		po := &s.pos[i]
		if po.ApprovalStatus != models.ApprovalPending {
			return store.ErrConflict
		}
		po.Status = d.Status
		po.ApprovalStatus = d.ApprovalStatus
		po.UpdatedAt = d.UpdatedAt
		if d.ApprovedBy != "" {
			po.ApprovedBy = d.ApprovedBy
			po.ApprovedAt = d.ApprovedAt
		}
		if d.RejectionReason != "" {
			po.RejectionReason = d.RejectionReason
		}
		return nil
	}
	return store.ErrNotFound
}

// BumpPaymentVersion only checks the PO exists: WithTransaction already serializes writers here.
func (s *Store) BumpPaymentVersion(ctx context.Context, poNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := find(s.pos, func(po models.PurchaseOrder) bool { return po.PONumber == poNumber }); !ok {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePurchaseOrder(ctx context.Context, poNumber string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.pos, func(x models.PurchaseOrder) bool { return x.PONumber == poNumber }), nil
}

// --- procurement ---

func matchProcurement(f store.ProcurementFilter) func(models.ProcurementRecord) bool {
	return func(p models.ProcurementRecord) bool {
		return f.PONumber == "" || p.PONumber == f.PONumber
	}
}

func (s *Store) InsertProcurement(ctx context.Context, p *models.ProcurementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := find(s.procurement, func(x models.ProcurementRecord) bool { return x.IMEI == p.IMEI }); ok {
		return store.ErrDuplicate
	}
	s.procurement = append(s.procurement, *p)
	return nil
}

func (s *Store) FindProcurementByIMEI(ctx context.Context, imei string) (*models.ProcurementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := find(s.procurement, func(x models.ProcurementRecord) bool { return x.IMEI == imei }); ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindProcurementByID(ctx context.Context, procurementID string) (*models.ProcurementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := find(s.procurement, func(x models.ProcurementRecord) bool { return x.ProcurementID == procurementID }); ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListProcurement(ctx context.Context, f store.ProcurementFilter) ([]models.ProcurementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(filter(s.procurement, matchProcurement(f)), func(p models.ProcurementRecord) time.Time { return p.CreatedAt }), nil
}

func (s *Store) CountProcurement(ctx context.Context, f store.ProcurementFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.procurement, matchProcurement(f)), nil
}

func (s *Store) DeleteProcurementByID(ctx context.Context, procurementID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.procurement, func(x models.ProcurementRecord) bool { return x.ProcurementID == procurementID }), nil
}

func (s *Store) DeleteProcurement(ctx context.Context, f store.ProcurementFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.procurement, matchProcurement(f)), nil
}

// --- inventory ---

func matchInventory(f store.InventoryFilter) func(models.InventoryItem) bool {
	return func(it models.InventoryItem) bool {
		if f.Status != "" && it.Status != f.Status {
			return false
		}
		if f.Organization != "" && it.Organization != f.Organization {
			return false
		}
		if f.IMEIs != nil && !slices.Contains(f.IMEIs, it.IMEI) {
			return false
		}
		return true
	}
}

func (s *Store) InsertInventory(ctx context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := find(s.inventory, func(x models.InventoryItem) bool { return x.IMEI == item.IMEI }); ok {
		return store.ErrDuplicate
	}
	s.inventory = append(s.inventory, *item)
	return nil
}

func (s *Store) FindInventory(ctx context.Context, imei string) (*models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it, ok := find(s.inventory, func(x models.InventoryItem) bool { return x.IMEI == imei }); ok {
		return it, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateInventory(ctx context.Context, imei string, u models.InventoryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.inventory {
		it := &s.inventory[i]
		if it.IMEI != imei {
			continue
		}
		if u.Status != "" {
			it.Status = u.Status
		}
		if u.CurrentLocation != "" {
			it.CurrentLocation = u.CurrentLocation
		}
		if u.Organization != "" {
			it.Organization = u.Organization
		}
		if u.Vendor != "" {
			it.Vendor = u.Vendor
		}
		at := u.UpdatedAt
		switch u.DateField {
		case "inward_nova_date":
			it.InwardNovaDate = &at
		case "inward_magnova_date":
			it.InwardMagnovaDate = &at
		case "outward_nova_date":
			it.OutwardNovaDate = &at
		case "outward_magnova_date":
			it.OutwardMagnovaDate = &at
		case "dispatched_date":
			it.DispatchedDate = &at
		case "sold_date":
			it.SoldDate = &at
		}
		it.UpdatedAt = u.UpdatedAt
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) SetInventoryStatus(ctx context.Context, imeis []string, status string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.inventory {
		if slices.Contains(imeis, s.inventory[i].IMEI) {
			s.inventory[i].Status = status
			s.inventory[i].UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (s *Store) ListInventory(ctx context.Context, f store.InventoryFilter) ([]models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(filter(s.inventory, matchInventory(f)), func(it models.InventoryItem) time.Time { return it.CreatedAt }), nil
}

func (s *Store) CountInventory(ctx context.Context, f store.InventoryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.inventory, matchInventory(f)), nil
}

func (s *Store) DeleteInventory(ctx context.Context, f store.InventoryFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.inventory, matchInventory(f)), nil
}

// --- payments ---

func matchPayment(f store.PaymentFilter) func(models.Payment) bool {
	return func(p models.Payment) bool {
		if f.PONumber != "" && p.PONumber != f.PONumber {
			return false
		}
		return f.Type == "" || p.Kind() == f.Type
	}
}

func (s *Store) InsertPayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, *p)
	return nil
}

func (s *Store) ListPayments(ctx context.Context, f store.PaymentFilter) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(filter(s.payments, matchPayment(f)), func(p models.Payment) time.Time { return p.CreatedAt }), nil
}

func (s *Store) CountPayments(ctx context.Context, f store.PaymentFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.payments, matchPayment(f)), nil
}

func (s *Store) DeletePaymentByID(ctx context.Context, paymentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.payments, func(p models.Payment) bool { return p.PaymentID == paymentID }), nil
}

func (s *Store) DeletePayments(ctx context.Context, f store.PaymentFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.payments, matchPayment(f)), nil
}

// --- shipments ---

func matchShipment(f store.POScope) func(models.LogisticsShipment) bool {
	return func(sh models.LogisticsShipment) bool {
		return f.PONumber == "" || sh.PONumber == f.PONumber
	}
}

func (s *Store) InsertShipment(ctx context.Context, sh *models.LogisticsShipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sh
	cp.IMEIList = slices.Clone(sh.IMEIList)
	s.shipments = append(s.shipments, cp)
	return nil
}

func (s *Store) UpdateShipmentStatus(ctx context.Context, shipmentID, status string, actualDelivery *time.Time, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.shipments {
		if s.shipments[i].ShipmentID == shipmentID {
			s.shipments[i].Status = status
			s.shipments[i].ActualDelivery = actualDelivery
			s.shipments[i].UpdatedAt = at
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListShipments(ctx context.Context, f store.POScope) ([]models.LogisticsShipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(filter(s.shipments, matchShipment(f)), func(sh models.LogisticsShipment) time.Time { return sh.CreatedAt }), nil
}

func (s *Store) CountShipments(ctx context.Context, f store.POScope) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.shipments, matchShipment(f)), nil
}

func (s *Store) DeleteShipmentByID(ctx context.Context, shipmentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.shipments, func(sh models.LogisticsShipment) bool { return sh.ShipmentID == shipmentID }), nil
}

func (s *Store) DeleteShipments(ctx context.Context, f store.POScope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.shipments, matchShipment(f)), nil
}

// --- invoices ---

func matchInvoice(f store.POScope) func(models.Invoice) bool {
	return func(inv models.Invoice) bool {
		return f.PONumber == "" || inv.PONumber == f.PONumber
	}
}

func (s *Store) InsertInvoice(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := find(s.invoices, func(x models.Invoice) bool { return x.InvoiceNumber == inv.InvoiceNumber }); ok {
		return store.ErrDuplicate
	}
	s.invoices = append(s.invoices, *inv)
	return nil
}

func (s *Store) InvoiceNumberExists(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := find(s.invoices, func(x models.Invoice) bool { return x.InvoiceNumber == number })
	return ok, nil
}

func (s *Store) ListInvoices(ctx context.Context, f store.POScope) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(filter(s.invoices, matchInvoice(f)), func(inv models.Invoice) time.Time { return inv.CreatedAt }), nil
}

func (s *Store) CountInvoices(ctx context.Context, f store.POScope) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(s.invoices, matchInvoice(f)), nil
}

func (s *Store) DeleteInvoiceByID(ctx context.Context, invoiceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.invoices, func(x models.Invoice) bool { return x.InvoiceID == invoiceID }), nil
}

func (s *Store) DeleteInvoices(ctx context.Context, f store.POScope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.invoices, matchInvoice(f)), nil
}

// --- sales orders ---

func (s *Store) InsertSalesOrder(ctx context.Context, so *models.SalesOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := find(s.salesOrders, func(x models.SalesOrder) bool { return x.SONumber == so.SONumber }); ok {
		return store.ErrDuplicate
	}
	cp := *so
	cp.IMEIList = slices.Clone(so.IMEIList)
	s.salesOrders = append(s.salesOrders, cp)
	return nil
}

func (s *Store) SalesOrderExists(ctx context.Context, soNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := find(s.salesOrders, func(x models.SalesOrder) bool { return x.SONumber == soNumber })
	return ok, nil
}

func (s *Store) ListSalesOrders(ctx context.Context) ([]models.SalesOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(slices.Clone(s.salesOrders), func(so models.SalesOrder) time.Time { return so.CreatedAt }), nil
}

func (s *Store) CountSalesOrders(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.salesOrders)), nil
}

func (s *Store) DeleteSalesOrder(ctx context.Context, soNumber string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWhere(&s.salesOrders, func(x models.SalesOrder) bool { return x.SONumber == soNumber }), nil
}

// --- audit logs ---

func (s *Store) InsertAuditLog(ctx context.Context, l *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, *l)
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, f store.AuditFilter) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := filter(s.auditLogs, func(l models.AuditLog) bool {
		return f.EntityType == "" || l.EntityType == f.EntityType
	})
	out = newestFirst(out, func(l models.AuditLog) time.Time { return l.Timestamp })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// --- sequences ---

func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name]++
	return s.counters[name], nil
}

// SetSequence positions a counter, mirroring the counter seeding migration.
func (s *Store) SetSequence(name string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] = value
}
