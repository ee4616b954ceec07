package inventory

import (
	"context"
	"testing"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"
	"magnova-scm-api-server/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPO(t *testing.T, env *testkit.Env, approval string) *models.PurchaseOrder {
	t.Helper()
	po := &models.PurchaseOrder{
		PONumber:       "PO-MAG-00001",
		ApprovalStatus: approval,
		Items: []models.LineItem{
			{Vendor: "Acme", Location: "Mumbai", Brand: "Samsung", Model: "S24", Colour: "Black", Storage: "256GB", Qty: 1},
			{Vendor: "Zen", Location: "Delhi", Brand: "Apple", Model: "iPhone 15", Colour: "Blue", IMEI: "350000000000002", Qty: 1},
		},
	}
	require.NoError(t, env.Store.InsertPurchaseOrder(context.Background(), po))
	return po
}

func procurementInput(imei string) ProcurementInput {
	return ProcurementInput{
		PONumber:      "PO-MAG-00001",
		VendorName:    "Acme",
		StoreLocation: "Mumbai",
		IMEI:          imei,
		DeviceModel:   "Galaxy S24",
		PurchasePrice: 500,
	}
}

func TestCreateProcurementOpensInventory(t *testing.T) {
	env := testkit.New()
	seedPO(t, env, models.ApprovalPending)
	svc := NewService(env.Store, env.Audit, false)
	ctx := context.Background()

	rec, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("350000000000001"))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Quantity)
	assert.NotEmpty(t, rec.ProcurementID)

	item, err := svc.Get(ctx, "350000000000001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcured, item.Status)
	assert.Equal(t, rec.ProcurementID, item.ProcurementID)
	assert.Equal(t, models.OrgNova, item.Organization)
	assert.Equal(t, "Mumbai", item.CurrentLocation)
	assert.Equal(t, "Samsung", item.Brand)
}

func TestCreateProcurementRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate IMEI", func(t *testing.T) {
		env := testkit.New()
		seedPO(t, env, models.ApprovalPending)
		svc := NewService(env.Store, env.Audit, false)
		_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
		require.NoError(t, err)

		_, err = svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

		n, _ := env.Store.CountProcurement(ctx, store.ProcurementFilter{})
		assert.EqualValues(t, 1, n)
	})

	t.Run("unknown PO", func(t *testing.T) {
		env := testkit.New()
		svc := NewService(env.Store, env.Audit, false)
		_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
		assert.Equal(t, apperr.KindInvalidReference, apperr.KindOf(err))
	})

	t.Run("strict mode needs approved PO", func(t *testing.T) {
		env := testkit.New()
		seedPO(t, env, models.ApprovalPending)
		svc := NewService(env.Store, env.Audit, true)
		_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
		assert.Equal(t, apperr.KindInvalidReference, apperr.KindOf(err))
	})

	t.Run("strict mode accepts approved PO", func(t *testing.T) {
		env := testkit.New()
		seedPO(t, env, models.ApprovalApproved)
		svc := NewService(env.Store, env.Audit, true)
		_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
		assert.NoError(t, err)
	})

	t.Run("missing IMEI", func(t *testing.T) {
		env := testkit.New()
		seedPO(t, env, models.ApprovalPending)
		svc := NewService(env.Store, env.Audit, false)
		_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput(""))
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})
}

func TestScanTransitions(t *testing.T) {
	tests := []struct {
		action string
		status string
		org    string
		date   func(*models.InventoryItem) bool
	}{
		{ScanInwardNova, models.StatusInwardNova, models.OrgNova, func(i *models.InventoryItem) bool { return i.InwardNovaDate != nil }},
		{ScanInwardMagnova, models.StatusInwardMagnova, models.OrgMagnova, func(i *models.InventoryItem) bool { return i.InwardMagnovaDate != nil }},
		{ScanOutwardNova, models.StatusOutwardNova, models.OrgNova, func(i *models.InventoryItem) bool { return i.OutwardNovaDate != nil }},
		{ScanOutwardMagnova, models.StatusOutwardMagnova, models.OrgNova, func(i *models.InventoryItem) bool { return i.OutwardMagnovaDate != nil }},
		{ScanDispatch, models.StatusDispatched, models.OrgNova, func(i *models.InventoryItem) bool { return i.DispatchedDate != nil }},
		{ScanAvailable, models.StatusAvailable, models.OrgNova, func(*models.InventoryItem) bool { return true }},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			env := testkit.New()
			seedPO(t, env, models.ApprovalPending)
			svc := NewService(env.Store, env.Audit, false)
			ctx := context.Background()
			_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
			require.NoError(t, err)

			res, err := svc.Scan(ctx, testkit.NovaStaff, ScanInput{IMEI: "111", Action: tt.action, Location: "Warehouse 2"})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)

			item, err := svc.Get(ctx, "111")
			require.NoError(t, err)
			assert.Equal(t, tt.status, item.Status)
			assert.Equal(t, tt.org, item.Organization)
			assert.Equal(t, "Warehouse 2", item.CurrentLocation)
			assert.True(t, tt.date(item))
		})
	}
}

func TestScanUnknownActionOnlyMovesLocation(t *testing.T) {
	env := testkit.New()
	seedPO(t, env, models.ApprovalPending)
	svc := NewService(env.Store, env.Audit, false)
	ctx := context.Background()
	_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
	require.NoError(t, err)

	res, err := svc.Scan(ctx, testkit.NovaStaff, ScanInput{IMEI: "111", Action: "teleport", Location: "Dock", Vendor: "Zen"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcured, res.Status)

	item, _ := svc.Get(ctx, "111")
	assert.Equal(t, models.StatusProcured, item.Status)
	assert.Equal(t, "Dock", item.CurrentLocation)
	assert.Equal(t, "Zen", item.Vendor)
}

func TestScanUnknownIMEI(t *testing.T) {
	env := testkit.New()
	svc := NewService(env.Store, env.Audit, false)
	_, err := svc.Scan(context.Background(), testkit.NovaStaff, ScanInput{IMEI: "999", Action: ScanInwardNova, Location: "Dock"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestScanBackfillsFromProcurement(t *testing.T) {
	env := testkit.New()
	seedPO(t, env, models.ApprovalPending)
	svc := NewService(env.Store, env.Audit, false)
	ctx := context.Background()

	// A procurement record whose inventory item was never created.
	require.NoError(t, env.Store.InsertProcurement(ctx, &models.ProcurementRecord{
		ProcurementID: "p-legacy",
		PONumber:      "PO-MAG-00001",
		VendorName:    "Other",
		StoreLocation: "Pune",
		IMEI:          "350000000000002",
		DeviceModel:   "iPhone",
		PurchasePrice: 700,
	}))

	res, err := svc.Scan(ctx, testkit.MagnovaStaff, ScanInput{IMEI: "350000000000002", Action: ScanInwardNova, Location: "Dock"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInwardNova, res.Status)

	item, err := svc.Get(ctx, "350000000000002")
	require.NoError(t, err)
	assert.Equal(t, models.OrgNova, item.Organization)
	assert.Equal(t, "p-legacy", item.ProcurementID)
	assert.Equal(t, "Apple", item.Brand, "line item matched by IMEI")
	assert.Equal(t, "Blue", item.Colour)
	assert.Equal(t, "PO-MAG-00001", item.PONumber)
}

func TestReserve(t *testing.T) {
	env := testkit.New()
	svc := NewService(env.Store, env.Audit, false)
	ctx := context.Background()
	for _, imei := range []string{"A", "B", "C"} {
		require.NoError(t, env.Store.InsertInventory(ctx, &models.InventoryItem{IMEI: imei, Status: models.StatusAvailable}))
	}

	n, err := svc.Reserve(ctx, []string{"A", "B", "missing"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	for imei, want := range map[string]string{"A": models.StatusReserved, "B": models.StatusReserved, "C": models.StatusAvailable} {
		item, err := svc.Get(ctx, imei)
		require.NoError(t, err)
		assert.Equal(t, want, item.Status, imei)
	}
}

func TestLookup(t *testing.T) {
	env := testkit.New()
	seedPO(t, env, models.ApprovalPending)
	svc := NewService(env.Store, env.Audit, false)
	ctx := context.Background()
	_, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
	require.NoError(t, err)

	got, err := svc.Lookup(ctx, "111")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.True(t, got.InInventory)
	assert.True(t, got.InProcurement)
	assert.Equal(t, "Samsung", got.Brand)
	assert.Equal(t, models.StatusProcured, got.Status)
	assert.Equal(t, "PO-MAG-00001", got.PONumber)

	missing, err := svc.Lookup(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, missing.Found)
}

func TestDeletes(t *testing.T) {
	ctx := context.Background()

	t.Run("procurement delete removes inventory", func(t *testing.T) {
		env := testkit.New()
		seedPO(t, env, models.ApprovalPending)
		svc := NewService(env.Store, env.Audit, false)
		rec, err := svc.CreateProcurement(ctx, testkit.NovaStaff, procurementInput("111"))
		require.NoError(t, err)

		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.DeleteProcurement(ctx, testkit.Approver, rec.ProcurementID)))
		require.NoError(t, svc.DeleteProcurement(ctx, testkit.Admin, rec.ProcurementID))

		_, err = svc.Get(ctx, "111")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.DeleteProcurement(ctx, testkit.Admin, rec.ProcurementID)))
	})

	t.Run("inventory delete", func(t *testing.T) {
		env := testkit.New()
		svc := NewService(env.Store, env.Audit, false)
		require.NoError(t, env.Store.InsertInventory(ctx, &models.InventoryItem{IMEI: "222"}))

		require.NoError(t, svc.DeleteInventory(ctx, testkit.Admin, "222"))
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.DeleteInventory(ctx, testkit.Admin, "222")))
	})
}
