package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store/memstore"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct{ messages [][]byte }

func (c *capture) Broadcast(msg []byte) { c.messages = append(c.messages, msg) }

type failingStore struct{ *memstore.Store }

func (failingStore) InsertAuditLog(context.Context, *models.AuditLog) error {
	return errors.New("disk full")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var actor = auth.Principal{UserID: "u-1", Name: "Asha", Organization: models.OrgMagnova, Role: models.RoleAdmin}

func TestRecordStoresAndPublishes(t *testing.T) {
	st := memstore.New()
	pub := &capture{}
	m := metrics.New()
	r := NewRecorder(st, quietLogger(), WithPublisher(pub), WithMetrics(m))
	ctx := context.Background()

	r.Record(ctx, actor, models.ActionCreate, EntityPurchaseOrder, "PO-MAG-00001", map[string]any{"total_value": 350.0})

	logs, err := r.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "u-1", logs[0].UserID)
	assert.Equal(t, "Asha", logs[0].UserName)
	assert.Equal(t, "PO-MAG-00001", logs[0].EntityID)
	assert.NotEmpty(t, logs[0].LogID)

	require.Len(t, pub.messages, 1)
	var event map[string]any
	require.NoError(t, json.Unmarshal(pub.messages[0], &event))
	assert.Equal(t, "audit", event["type"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues(models.ActionCreate, EntityPurchaseOrder)))
}

func TestRecordFailureIsSwallowed(t *testing.T) {
	pub := &capture{}
	m := metrics.New()
	r := NewRecorder(failingStore{memstore.New()}, quietLogger(), WithPublisher(pub), WithMetrics(m))

	assert.NotPanics(t, func() {
		r.Record(context.Background(), actor, models.ActionDelete, EntityInvoice, "inv-1", nil)
	})
	assert.Empty(t, pub.messages)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures))
}

func TestListNewestFirstAndFiltered(t *testing.T) {
	st := memstore.New()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRecorder(st, quietLogger(), WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	r.Record(ctx, actor, models.ActionCreate, EntityPurchaseOrder, "first", nil)
	r.Record(ctx, actor, models.ActionScan, EntityIMEI, "imei", nil)
	r.Record(ctx, actor, models.ActionApprove, EntityPurchaseOrder, "second", nil)

	logs, err := r.List(ctx, EntityPurchaseOrder)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].EntityID)
	assert.Equal(t, "first", logs[1].EntityID)
}
