// server/internal/store/mongostore/migrate.go
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type migration struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, db *mongo.Database, logger *logrus.Logger) error
}

type migrationRecord struct {
	Version   int       `bson:"_id"`
	Name      string    `bson:"name"`
	AppliedAt time.Time `bson:"applied_at"`
}

var migrations = []migration{
	{Version: 1, Name: "backfill legacy fields", Apply: backfillLegacyFields},
	{Version: 2, Name: "seed sequence counters", Apply: seedCounters},
	{Version: 3, Name: "resolve duplicate unique keys", Apply: resolveDuplicates},
}

// Migrate applies every migration not yet recorded in the migrations collection, in version order.
// It must run before EnsureIndexes: legacy data may hold values the unique indexes reject.
func (s *Store) Migrate(ctx context.Context, logger *logrus.Logger) error {
	coll := s.db.Collection(store.CollMigrations)
	for _, m := range migrations {
		err := coll.FindOne(ctx, bson.M{"_id": m.Version}).Err()
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("failed to read migration %d: %w", m.Version, err)
		}

		logger.WithFields(logrus.Fields{"version": m.Version, "name": m.Name}).Info("applying migration")
		if err := m.Apply(ctx, s.db, logger); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		rec := migrationRecord{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}
		if _, err := coll.InsertOne(ctx, rec); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

type backfill struct {
	coll   string
	filter bson.M
	update any
}

func missing(field string) bson.M {
	return bson.M{field: bson.M{"$exists": false}}
}

func setIfMissing(coll, field string, value any) backfill {
	return backfill{coll: coll, filter: missing(field), update: bson.M{"$set": bson.M{field: value}}}
}

// timestampFields lists the date fields older deployments wrote as ISO strings.
var timestampFields = map[string][]string{
	store.CollUsers:       {"created_at"},
	store.CollPOs:         {"po_date", "approved_at", "created_at", "updated_at"},
	store.CollProcurement: {"procurement_date", "created_at"},
	store.CollInventory: {
		"inward_nova_date", "inward_magnova_date", "outward_nova_date", "outward_magnova_date",
		"dispatched_date", "sold_date", "created_at", "updated_at",
	},
	store.CollPayments:    {"payment_date", "created_at"},
	store.CollShipments:   {"pickup_date", "expected_delivery", "actual_delivery", "created_at", "updated_at"},
	store.CollInvoices:    {"invoice_date", "created_at"},
	store.CollSalesOrders: {"created_at", "updated_at"},
	store.CollAuditLogs:   {"timestamp"},
}

func backfillLegacyFields(ctx context.Context, db *mongo.Database, _ *logrus.Logger) error {
	for _, step := range legacyBackfills() {
		if _, err := db.Collection(step.coll).UpdateMany(ctx, step.filter, step.update); err != nil {
			return fmt.Errorf("backfill on %s: %w", step.coll, err)
		}
	}
	return nil
}

// legacyBackfills lists the v1 updates in the order they run. Timestamp conversion comes last
// so that copied fields such as po_date are converted too.
func legacyBackfills() []backfill {
	steps := []backfill{
		// Flat internal payments predate the sub-document layout.
		{
			coll:   store.CollPayments,
			filter: bson.M{"payment_type": bson.M{"$in": bson.A{nil, "", "internal"}}, "internal": bson.M{"$exists": false}},
			update: mongo.Pipeline{
				{{Key: "$set", Value: bson.M{
					"payment_type": "internal",
					"internal": bson.M{
						"payee_account":   bson.M{"$ifNull": bson.A{"$payee_account", ""}},
						"payee_bank":      bson.M{"$ifNull": bson.A{"$payee_bank", ""}},
						"transaction_ref": bson.M{"$ifNull": bson.A{"$transaction_ref", ""}},
					},
				}}},
				{{Key: "$unset", Value: bson.A{"payee_account", "payee_bank", "transaction_ref"}}},
			},
		},
		{
			coll:   store.CollPayments,
			filter: bson.M{"payment_type": "external", "external": bson.M{"$exists": false}},
			update: mongo.Pipeline{
				{{Key: "$set", Value: bson.M{
					"external": bson.M{
						"payee_type":     bson.M{"$ifNull": bson.A{"$payee_type", ""}},
						"account_number": bson.M{"$ifNull": bson.A{"$account_number", ""}},
						"ifsc_code":      bson.M{"$ifNull": bson.A{"$ifsc_code", ""}},
						"location":       bson.M{"$ifNull": bson.A{"$location", ""}},
						"utr_number":     bson.M{"$ifNull": bson.A{"$utr_number", ""}},
					},
				}}},
				{{Key: "$unset", Value: bson.A{"payee_type", "account_number", "ifsc_code", "location", "utr_number"}}},
			},
		},
		setIfMissing(store.CollProcurement, "quantity", 1),
		setIfMissing(store.CollPOs, "purchase_office", models.DefaultPurchaseOffice),
		{
			coll:   store.CollPOs,
			filter: missing("po_date"),
			update: mongo.Pipeline{{{Key: "$set", Value: bson.M{"po_date": "$created_at"}}}},
		},
		setIfMissing(store.CollPOs, "items", bson.A{}),
		setIfMissing(store.CollPOs, "total_value", 0.0),
		setIfMissing(store.CollPOs, "approval_status", "Pending"),
		{
			coll:   store.CollShipments,
			filter: missing("pickup_quantity"),
			update: mongo.Pipeline{
				{{Key: "$set", Value: bson.M{"pickup_quantity": bson.M{"$size": bson.M{"$ifNull": bson.A{"$imei_list", bson.A{}}}}}}},
			},
		},
		setIfMissing(store.CollShipments, "imei_list", bson.A{}),
		setIfMissing(store.CollInvoices, "gst_percentage", 18.0),
		setIfMissing(store.CollInvoices, "imei_list", bson.A{}),
	}

	for coll, fields := range timestampFields {
		for _, field := range fields {
			steps = append(steps, backfill{
				coll:   coll,
				filter: bson.M{field: bson.M{"$type": "string"}},
				update: mongo.Pipeline{
					{{Key: "$set", Value: bson.M{field: bson.M{"$toDate": "$" + field}}}},
				},
			})
		}
	}

	return steps
}

// seedCounters moves each sequence counter at least to the current document count,
// so numbers issued before counters existed are not handed out again.
func seedCounters(ctx context.Context, db *mongo.Database, _ *logrus.Logger) error {
	sources := map[string]string{
		store.SeqPurchaseOrder: store.CollPOs,
		store.SeqInvoice:       store.CollInvoices,
		store.SeqSalesOrder:    store.CollSalesOrders,
	}
	counters := db.Collection(store.CollCounters)
	for name, coll := range sources {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			return fmt.Errorf("count %s: %w", coll, err)
		}
		_, err = counters.UpdateOne(ctx,
			bson.M{"_id": name},
			bson.M{"$max": bson.M{"seq": n}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed counter %s: %w", name, err)
		}
	}
	return nil
}
