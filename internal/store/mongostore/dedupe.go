package mongostore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"magnova-scm-api-server/internal/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Generated numbers nothing else points at can be reissued.
var renumberable = []struct {
	coll   string
	field  string
	format string
}{
	{store.CollInvoices, "invoice_number", store.FormatInvoice},
	{store.CollSalesOrders, "so_number", store.FormatSalesOrder},
}

// Keys other documents refer to, or that identify a person or device, are only reported.
var reportOnly = []struct {
	coll  string
	field string
}{
	{store.CollPOs, "po_number"},
	{store.CollUsers, "email"},
	{store.CollProcurement, "imei"},
	{store.CollInventory, "imei"},
}

type numberedDoc struct {
	ID     any
	Number string
}

type renumber struct {
	ID   any
	From string
	To   string
}

// planRenumbering keeps the first holder of every number (docs arrive oldest first) and
// moves later holders to fresh numbers above the highest one in use.
func planRenumbering(docs []numberedDoc, format string) []renumber {
	prefix := format[:strings.IndexByte(format, '%')]
	highest := 0
	for _, d := range docs {
		if n, err := strconv.Atoi(strings.TrimPrefix(d.Number, prefix)); err == nil && strings.HasPrefix(d.Number, prefix) && n > highest {
			highest = n
		}
	}

	seen := make(map[string]bool, len(docs))
	var plan []renumber
	for _, d := range docs {
		if !seen[d.Number] {
			seen[d.Number] = true
			continue
		}
		highest++
		plan = append(plan, renumber{ID: d.ID, From: d.Number, To: fmt.Sprintf(format, highest)})
	}
	return plan
}

func resolveDuplicates(ctx context.Context, db *mongo.Database, logger *logrus.Logger) error {
	var blocking []string
	for _, k := range reportOnly {
		dups, err := duplicateValues(ctx, db.Collection(k.coll), k.field)
		if err != nil {
			return err
		}
		for _, v := range dups {
			blocking = append(blocking, fmt.Sprintf("%s.%s=%v", k.coll, k.field, v))
		}
	}
	if len(blocking) > 0 {
		return fmt.Errorf("duplicate values must be resolved by hand before unique indexes can be built: %s", strings.Join(blocking, ", "))
	}

	for _, r := range renumberable {
		coll := db.Collection(r.coll)
		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetProjection(bson.M{"_id": 1, r.field: 1})
		cursor, err := coll.Find(ctx, bson.M{}, opts)
		if err != nil {
			return fmt.Errorf("scan %s: %w", r.coll, err)
		}
		var raw []bson.M
		if err := cursor.All(ctx, &raw); err != nil {
			return fmt.Errorf("scan %s: %w", r.coll, err)
		}
		docs := make([]numberedDoc, 0, len(raw))
		for _, m := range raw {
			number, _ := m[r.field].(string)
			docs = append(docs, numberedDoc{ID: m["_id"], Number: number})
		}

		for _, step := range planRenumbering(docs, r.format) {
			if _, err := coll.UpdateOne(ctx, bson.M{"_id": step.ID}, bson.M{"$set": bson.M{r.field: step.To}}); err != nil {
				return fmt.Errorf("renumber %s %s: %w", r.coll, step.From, err)
			}
			logger.WithFields(logrus.Fields{"collection": r.coll, "from": step.From, "to": step.To}).Warn("renumbered duplicate document")
		}
	}
	return nil
}

func duplicateValues(ctx context.Context, coll *mongo.Collection, field string) ([]any, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}}},
		{{Key: "$match", Value: bson.M{"n": bson.M{"$gt": 1}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find duplicate %s: %w", field, err)
	}
	var groups []struct {
		Value any `bson:"_id"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("find duplicate %s: %w", field, err)
	}
	out := make([]any, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Value)
	}
	return out, nil
}
