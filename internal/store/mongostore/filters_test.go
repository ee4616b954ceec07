package mongostore

import (
	"testing"

	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPaymentFilter(t *testing.T) {
	t.Run("internal matches untagged payments", func(t *testing.T) {
		f := paymentFilter(store.PaymentFilter{PONumber: "PO-MAG-00001", Type: models.PaymentInternal})
		assert.Equal(t, "PO-MAG-00001", f["po_number"])
		assert.Equal(t, bson.M{"$in": bson.A{"internal", nil, ""}}, f["payment_type"])
	})

	t.Run("external matches exactly", func(t *testing.T) {
		f := paymentFilter(store.PaymentFilter{Type: models.PaymentExternal})
		assert.Equal(t, "external", f["payment_type"])
		assert.NotContains(t, f, "po_number")
	})

	t.Run("no type means every payment", func(t *testing.T) {
		assert.Empty(t, paymentFilter(store.PaymentFilter{}))
	})
}

func TestInventoryFilter(t *testing.T) {
	assert.Empty(t, inventoryFilter(store.InventoryFilter{}))

	f := inventoryFilter(store.InventoryFilter{Status: models.StatusAvailable, IMEIs: []string{}})
	assert.Equal(t, models.StatusAvailable, f["status"])
	assert.Equal(t, bson.M{"$in": []string{}}, f["imei"])
}

func TestPOScope(t *testing.T) {
	assert.Empty(t, poScope(store.POScope{}))
	assert.Equal(t, bson.M{"po_number": "PO-MAG-00007"}, poScope(store.POScope{PONumber: "PO-MAG-00007"}))
}
