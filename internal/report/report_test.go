package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var created = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func seed(t *testing.T) *memstore.Store {
	t.Helper()
	st := memstore.New()
	ctx := context.Background()

	require.NoError(t, st.InsertPurchaseOrder(ctx, &models.PurchaseOrder{
		POID:           "po-1",
		PONumber:       "PO-MAG-00001",
		PODate:         created,
		PurchaseOffice: "HQ",
		ApprovalStatus: models.ApprovalPending,
		Items: []models.LineItem{
			{SlNo: 1, Vendor: "Acme", Location: "Mumbai", Brand: "Samsung", Model: "S24", Qty: 1, Rate: 100, POValue: 100},
			{SlNo: 2, Vendor: "Zen", Location: "Pune", Brand: "Apple", Model: "iPhone 15", Qty: 1, Rate: 50, POValue: 50},
		},
		CreatedAt: created,
	}))
	require.NoError(t, st.InsertPurchaseOrder(ctx, &models.PurchaseOrder{
		POID: "po-2", PONumber: "PO-MAG-00002", ApprovalStatus: models.ApprovalApproved, CreatedAt: created.Add(time.Hour),
	}))
	require.NoError(t, st.InsertProcurement(ctx, &models.ProcurementRecord{
		ProcurementID: "proc-0001-aaaa", PONumber: "PO-MAG-00001", VendorName: "Acme", IMEI: "356000000000001", DeviceModel: "Samsung S24",
	}))
	require.NoError(t, st.InsertInventory(ctx, &models.InventoryItem{
		IMEI: "356000000000001", Brand: "Samsung", Model: "S24", Status: models.StatusAvailable,
		CurrentLocation: "Warehouse A", Organization: models.OrgNova, PONumber: "PO-MAG-00001", CreatedAt: created,
	}))
	in := models.NewInternalPayment(models.PaymentHeader{PaymentID: "pay-internal-1", PONumber: "PO-MAG-00001", Amount: 0.1, PaymentDate: created},
		models.InternalDetails{PayeeAccount: "0001", PayeeBank: "HDFC"})
	ex := models.NewExternalPayment(models.PaymentHeader{PaymentID: "pay-external-1", PONumber: "PO-MAG-00001", PayeeName: "Acme", Amount: 0.2, PaymentDate: created},
		models.ExternalDetails{PayeeType: models.PayeeVendor, AccountNumber: "9999", UTRNumber: "UTR1"})
	require.NoError(t, st.InsertPayment(ctx, &in))
	require.NoError(t, st.InsertPayment(ctx, &ex))
	require.NoError(t, st.InsertShipment(ctx, &models.LogisticsShipment{
		ShipmentID: "ship-0001-bbbb", PONumber: "PO-MAG-00001", TransporterName: "BlueDart", FromLocation: "Mumbai",
		PickupDate: created, Status: models.ShipmentInTransit,
	}))
	require.NoError(t, st.InsertSalesOrder(ctx, &models.SalesOrder{SalesOrderID: "so-1", SONumber: "SO-MAG-00001"}))
	return st
}

func TestDashboard(t *testing.T) {
	svc := NewService(seed(t), nil)
	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Dashboard{
		TotalPOs:           2,
		PendingPOs:         1,
		TotalProcurement:   1,
		TotalInventory:     1,
		AvailableInventory: 1,
		TotalSales:         1,
		TotalPaymentAmount: 0.3,
	}, *d)
}

func TestPOSummary(t *testing.T) {
	svc := NewService(seed(t), nil)
	ctx := context.Background()

	sum, err := svc.POSummary(ctx, "PO-MAG-00001")
	require.NoError(t, err)
	assert.Equal(t, "PO-MAG-00001", sum.PO.PONumber)
	assert.Equal(t, 1, sum.TotalProcured)
	assert.Len(t, sum.Payments, 2)
	assert.Equal(t, 0.3, sum.TotalPaid)

	_, err = svc.POSummary(ctx, "PO-MAG-00404")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.POSummary(ctx, "")
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func rows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	out, err := f.GetRows(sheet)
	require.NoError(t, err)
	return out
}

func TestExportInventory(t *testing.T) {
	svc := NewService(seed(t), nil)
	buf, err := svc.ExportInventory(context.Background())
	require.NoError(t, err)

	got := rows(t, buf, inventorySheet)
	require.Len(t, got, 2)
	assert.Equal(t, "IMEI", got[0][0])
	assert.Equal(t, "356000000000001", got[1][0])
	assert.Equal(t, models.StatusAvailable, got[1][6])
	assert.Equal(t, "Warehouse A", got[1][9])
}

func TestExportMasterJoinsByPOAndIMEI(t *testing.T) {
	svc := NewService(seed(t), nil)
	buf, err := svc.ExportMaster(context.Background())
	require.NoError(t, err)

	got := rows(t, buf, masterSheet)
	// banner, headers, two line items of PO-MAG-00001; PO-MAG-00002 has no items
	require.Len(t, got, 4)
	assert.Equal(t, "PROCUREMENT (Magnova → Nova PO)", got[0][0])
	assert.Equal(t, "SL No", got[1][0])

	first := got[2]
	assert.Equal(t, "PO-MAG-00001", first[1])
	assert.Equal(t, "2025-04-02", first[2])
	assert.Equal(t, "356000000000001", first[10])
	assert.Equal(t, "proc-000", first[14])
	assert.Equal(t, "pay-inte", first[15])
	assert.Equal(t, "HDFC", first[17])
	assert.Equal(t, "vendor", first[23])
	assert.Equal(t, "BlueDart", first[28])
	assert.Equal(t, "Warehouse A", first[34])
	assert.Equal(t, models.StatusAvailable, first[35])

	second := got[3]
	assert.Equal(t, "Zen", second[4])
	assert.Equal(t, "-", second[14])
	assert.Equal(t, "-", second[28])
	assert.Equal(t, "0", second[33])
}

type fakeArchiver struct {
	key, contentType string
	size             int
	err              error
}

func (f *fakeArchiver) Upload(_ context.Context, body io.Reader, key, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.key, f.contentType, f.size = key, contentType, len(b)
	return "https://cdn.example.com/" + key, nil
}

func TestArchiveMaster(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads rendered workbook", func(t *testing.T) {
		arch := &fakeArchiver{}
		svc := NewService(seed(t), arch)
		svc.now = func() time.Time { return created }

		url, err := svc.ArchiveMaster(ctx)
		require.NoError(t, err)
		assert.Equal(t, "reports/master_report_20250402T093000Z.xlsx", arch.key)
		assert.Equal(t, XLSXContentType, arch.contentType)
		assert.Positive(t, arch.size)
		assert.Equal(t, "https://cdn.example.com/"+arch.key, url)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewService(seed(t), nil).ArchiveMaster(ctx)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})

	t.Run("upload failure", func(t *testing.T) {
		svc := NewService(seed(t), &fakeArchiver{err: errors.New("denied")})
		_, err := svc.ArchiveMaster(ctx)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}
