// server/internal/store/mongostore/mongostore.go
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(cfg.DBName)}, nil
}

func (s *Store) Database() *mongo.Database { return s.db }

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes every uniqueness invariant relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}, Options: options.Index().SetUnique(true)}
	}
	plain := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
	}
	indexes := map[string][]mongo.IndexModel{
		store.CollUsers:       {unique("email"), unique("user_id")},
		store.CollPOs:         {unique("po_number")},
		store.CollProcurement: {unique("imei"), plain("po_number")},
		store.CollInventory:   {unique("imei"), plain("status")},
		store.CollPayments:    {plain("po_number")},
		store.CollShipments:   {plain("po_number")},
		store.CollInvoices:    {unique("invoice_number"), plain("po_number")},
		store.CollSalesOrders: {unique("so_number")},
		store.CollAuditLogs:   {plain("entity_type")},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// WithTransaction runs fn inside a session transaction. Requires a replica set.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start database session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// --- helpers ---

func (s *Store) insert(ctx context.Context, coll string, doc any) error {
	_, err := s.db.Collection(coll).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *Store) findOne(ctx context.Context, coll string, filter bson.M, out any) error {
	err := s.db.Collection(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func (s *Store) exists(ctx context.Context, coll string, filter bson.M) (bool, error) {
	n, err := s.db.Collection(coll).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Store) deleteMany(ctx context.Context, coll string, filter bson.M) (int64, error) {
	res, err := s.db.Collection(coll).DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) deleteOne(ctx context.Context, coll string, filter bson.M) (int64, error) {
	res, err := s.db.Collection(coll).DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func poScope(f store.POScope) bson.M {
	filter := bson.M{}
	if f.PONumber != "" {
		filter["po_number"] = f.PONumber
	}
	return filter
}

// --- users ---

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	return s.insert(ctx, store.CollUsers, u)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, store.CollUsers, bson.M{"email": email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, store.CollUsers, bson.M{"user_id": userID}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- purchase orders ---

func poFilter(f store.POFilter) bson.M {
	filter := bson.M{}
	if f.ApprovalStatus != "" {
		filter["approval_status"] = f.ApprovalStatus
	}
	return filter
}

func (s *Store) InsertPurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	return s.insert(ctx, store.CollPOs, po)
}

func (s *Store) FindPurchaseOrder(ctx context.Context, poNumber string) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := s.findOne(ctx, store.CollPOs, bson.M{"po_number": poNumber}, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, f store.POFilter) ([]models.PurchaseOrder, error) {
	return findAll[models.PurchaseOrder](ctx, s.db.Collection(store.CollPOs), poFilter(f), newestFirst())
}

func (s *Store) CountPurchaseOrders(ctx context.Context, f store.POFilter) (int64, error) {
	return s.db.Collection(store.CollPOs).CountDocuments(ctx, poFilter(f))
}

func (s *Store) PurchaseOrderExists(ctx context.Context, poNumber string) (bool, error) {
	return s.exists(ctx, store.CollPOs, bson.M{"po_number": poNumber})
}

func (s *Store) UpdatePurchaseOrderDecision(ctx context.Context, poNumber string, d models.PODecision) error {
	set := bson.M{
		"status":          d.Status,
		"approval_status": d.ApprovalStatus,
		"updated_at":      d.UpdatedAt,
	}
	if d.ApprovedBy != "" {
		set["approved_by"] = d.ApprovedBy
		set["approved_at"] = d.ApprovedAt
	}
	if d.RejectionReason != "" {
		set["rejection_reason"] = d.RejectionReason
	}
	filter := bson.M{"po_number": poNumber, "approval_status": models.ApprovalPending}
	res, err := s.db.Collection(store.CollPOs).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		exists, err := s.PurchaseOrderExists(ctx, poNumber)
		if err != nil {
			return err
		}
		if exists {
			return store.ErrConflict
		}
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) BumpPaymentVersion(ctx context.Context, poNumber string) error {
	res, err := s.db.Collection(store.CollPOs).UpdateOne(ctx,
		bson.M{"po_number": poNumber},
		bson.M{"$inc": bson.M{"payment_version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePurchaseOrder(ctx context.Context, poNumber string) (int64, error) {
	return s.deleteOne(ctx, store.CollPOs, bson.M{"po_number": poNumber})
}

// --- procurement ---

func procurementFilter(f store.ProcurementFilter) bson.M {
	filter := bson.M{}
	if f.PONumber != "" {
		filter["po_number"] = f.PONumber
	}
	return filter
}

func (s *Store) InsertProcurement(ctx context.Context, p *models.ProcurementRecord) error {
	return s.insert(ctx, store.CollProcurement, p)
}

func (s *Store) FindProcurementByIMEI(ctx context.Context, imei string) (*models.ProcurementRecord, error) {
	var p models.ProcurementRecord
	if err := s.findOne(ctx, store.CollProcurement, bson.M{"imei": imei}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) FindProcurementByID(ctx context.Context, procurementID string) (*models.ProcurementRecord, error) {
	var p models.ProcurementRecord
	if err := s.findOne(ctx, store.CollProcurement, bson.M{"procurement_id": procurementID}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProcurement(ctx context.Context, f store.ProcurementFilter) ([]models.ProcurementRecord, error) {
	return findAll[models.ProcurementRecord](ctx, s.db.Collection(store.CollProcurement), procurementFilter(f), newestFirst())
}

func (s *Store) CountProcurement(ctx context.Context, f store.ProcurementFilter) (int64, error) {
	return s.db.Collection(store.CollProcurement).CountDocuments(ctx, procurementFilter(f))
}

func (s *Store) DeleteProcurementByID(ctx context.Context, procurementID string) (int64, error) {
	return s.deleteOne(ctx, store.CollProcurement, bson.M{"procurement_id": procurementID})
}

func (s *Store) DeleteProcurement(ctx context.Context, f store.ProcurementFilter) (int64, error) {
	return s.deleteMany(ctx, store.CollProcurement, procurementFilter(f))
}

// --- inventory ---

func inventoryFilter(f store.InventoryFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Organization != "" {
		filter["organization"] = f.Organization
	}
	if f.IMEIs != nil {
		filter["imei"] = bson.M{"$in": f.IMEIs}
	}
	return filter
}

func (s *Store) InsertInventory(ctx context.Context, item *models.InventoryItem) error {
	return s.insert(ctx, store.CollInventory, item)
}

func (s *Store) FindInventory(ctx context.Context, imei string) (*models.InventoryItem, error) {
	var it models.InventoryItem
	if err := s.findOne(ctx, store.CollInventory, bson.M{"imei": imei}, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) UpdateInventory(ctx context.Context, imei string, u models.InventoryUpdate) error {
	set := bson.M{"updated_at": u.UpdatedAt}
	if u.Status != "" {
		set["status"] = u.Status
	}
	if u.CurrentLocation != "" {
		set["current_location"] = u.CurrentLocation
	}
	if u.Organization != "" {
		set["organization"] = u.Organization
	}
	if u.Vendor != "" {
		set["vendor"] = u.Vendor
	}
	if u.DateField != "" {
		set[u.DateField] = u.UpdatedAt
	}
	res, err := s.db.Collection(store.CollInventory).UpdateOne(ctx, bson.M{"imei": imei}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetInventoryStatus(ctx context.Context, imeis []string, status string, at time.Time) (int64, error) {
	if len(imeis) == 0 {
		return 0, nil
	}
	res, err := s.db.Collection(store.CollInventory).UpdateMany(ctx,
		bson.M{"imei": bson.M{"$in": imeis}},
		bson.M{"$set": bson.M{"status": status, "updated_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *Store) ListInventory(ctx context.Context, f store.InventoryFilter) ([]models.InventoryItem, error) {
	return findAll[models.InventoryItem](ctx, s.db.Collection(store.CollInventory), inventoryFilter(f), newestFirst())
}

func (s *Store) CountInventory(ctx context.Context, f store.InventoryFilter) (int64, error) {
	return s.db.Collection(store.CollInventory).CountDocuments(ctx, inventoryFilter(f))
}

func (s *Store) DeleteInventory(ctx context.Context, f store.InventoryFilter) (int64, error) {
	return s.deleteMany(ctx, store.CollInventory, inventoryFilter(f))
}

// --- payments ---

func paymentFilter(f store.PaymentFilter) bson.M {
	filter := bson.M{}
	if f.PONumber != "" {
		filter["po_number"] = f.PONumber
	}
	switch f.Type {
	case "":
	case models.PaymentInternal:
		// $in with nil also matches documents missing the field.
		filter["payment_type"] = bson.M{"$in": bson.A{string(models.PaymentInternal), nil, ""}}
	default:
		filter["payment_type"] = string(f.Type)
	}
	return filter
}

func (s *Store) InsertPayment(ctx context.Context, p *models.Payment) error {
	return s.insert(ctx, store.CollPayments, p)
}

func (s *Store) ListPayments(ctx context.Context, f store.PaymentFilter) ([]models.Payment, error) {
	return findAll[models.Payment](ctx, s.db.Collection(store.CollPayments), paymentFilter(f), newestFirst())
}

func (s *Store) CountPayments(ctx context.Context, f store.PaymentFilter) (int64, error) {
	return s.db.Collection(store.CollPayments).CountDocuments(ctx, paymentFilter(f))
}

func (s *Store) DeletePaymentByID(ctx context.Context, paymentID string) (int64, error) {
	return s.deleteOne(ctx, store.CollPayments, bson.M{"payment_id": paymentID})
}

func (s *Store) DeletePayments(ctx context.Context, f store.PaymentFilter) (int64, error) {
	return s.deleteMany(ctx, store.CollPayments, paymentFilter(f))
}

// --- shipments ---

func (s *Store) InsertShipment(ctx context.Context, sh *models.LogisticsShipment) error {
	return s.insert(ctx, store.CollShipments, sh)
}

func (s *Store) UpdateShipmentStatus(ctx context.Context, shipmentID, status string, actualDelivery *time.Time, at time.Time) error {
	res, err := s.db.Collection(store.CollShipments).UpdateOne(ctx,
		bson.M{"shipment_id": shipmentID},
		bson.M{"$set": bson.M{"status": status, "actual_delivery": actualDelivery, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListShipments(ctx context.Context, f store.POScope) ([]models.LogisticsShipment, error) {
	return findAll[models.LogisticsShipment](ctx, s.db.Collection(store.CollShipments), poScope(f), newestFirst())
}

func (s *Store) CountShipments(ctx context.Context, f store.POScope) (int64, error) {
	return s.db.Collection(store.CollShipments).CountDocuments(ctx, poScope(f))
}

func (s *Store) DeleteShipmentByID(ctx context.Context, shipmentID string) (int64, error) {
	return s.deleteOne(ctx, store.CollShipments, bson.M{"shipment_id": shipmentID})
}

func (s *Store) DeleteShipments(ctx context.Context, f store.POScope) (int64, error) {
	return s.deleteMany(ctx, store.CollShipments, poScope(f))
}

// --- invoices ---

func (s *Store) InsertInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.insert(ctx, store.CollInvoices, inv)
}

func (s *Store) InvoiceNumberExists(ctx context.Context, number string) (bool, error) {
	return s.exists(ctx, store.CollInvoices, bson.M{"invoice_number": number})
}

func (s *Store) ListInvoices(ctx context.Context, f store.POScope) ([]models.Invoice, error) {
	return findAll[models.Invoice](ctx, s.db.Collection(store.CollInvoices), poScope(f), newestFirst())
}

func (s *Store) CountInvoices(ctx context.Context, f store.POScope) (int64, error) {
	return s.db.Collection(store.CollInvoices).CountDocuments(ctx, poScope(f))
}

func (s *Store) DeleteInvoiceByID(ctx context.Context, invoiceID string) (int64, error) {
	return s.deleteOne(ctx, store.CollInvoices, bson.M{"invoice_id": invoiceID})
}

func (s *Store) DeleteInvoices(ctx context.Context, f store.POScope) (int64, error) {
	return s.deleteMany(ctx, store.CollInvoices, poScope(f))
}

// --- sales orders ---

func (s *Store) InsertSalesOrder(ctx context.Context, so *models.SalesOrder) error {
	return s.insert(ctx, store.CollSalesOrders, so)
}

func (s *Store) SalesOrderExists(ctx context.Context, soNumber string) (bool, error) {
	return s.exists(ctx, store.CollSalesOrders, bson.M{"so_number": soNumber})
}

func (s *Store) ListSalesOrders(ctx context.Context) ([]models.SalesOrder, error) {
	return findAll[models.SalesOrder](ctx, s.db.Collection(store.CollSalesOrders), bson.M{}, newestFirst())
}

func (s *Store) CountSalesOrders(ctx context.Context) (int64, error) {
	return s.db.Collection(store.CollSalesOrders).CountDocuments(ctx, bson.M{})
}

func (s *Store) DeleteSalesOrder(ctx context.Context, soNumber string) (int64, error) {
	return s.deleteOne(ctx, store.CollSalesOrders, bson.M{"so_number": soNumber})
}

// --- audit logs ---

func (s *Store) InsertAuditLog(ctx context.Context, l *models.AuditLog) error {
	return s.insert(ctx, store.CollAuditLogs, l)
}

func (s *Store) ListAuditLogs(ctx context.Context, f store.AuditFilter) ([]models.AuditLog, error) {
	filter := bson.M{}
	if f.EntityType != "" {
		filter["entity_type"] = f.EntityType
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findAll[models.AuditLog](ctx, s.db.Collection(store.CollAuditLogs), filter, opts)
}

// --- sequences ---

type counter struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// NextSequence atomically increments and returns the named counter, creating it at 1.
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	var c counter
	err := s.db.Collection(store.CollCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return c.Seq, nil
}
