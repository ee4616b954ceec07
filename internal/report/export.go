package report

import (
	"bytes"
	"context"
	"strings"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/xuri/excelize/v2"
)

const (
	inventorySheet = "Inventory"
	masterSheet    = "Master Report"
	placeholder    = "-"
)

var inventoryHeaders = []any{
	"IMEI", "Brand", "Model", "Colour", "Storage", "Device Model", "Status",
	"Vendor", "Organization", "Location", "PO Number", "Created At",
}

// masterSections are the merged banner cells above the column headers.
var masterSections = []struct {
	from, to, title, color string
}{
	{"A1", "O1", "PROCUREMENT (Magnova → Nova PO)", "16A34A"},
	{"P1", "U1", "PAYMENT (Magnova → Nova)", "F97316"},
	{"V1", "AB1", "PAYMENTS (Nova → Vendors)", "9333EA"},
	{"AC1", "AF1", "LOGISTICS", "2563EB"},
	{"AG1", "AJ1", "STORES", "EC4899"},
}

var masterHeaders = []any{
	"SL No", "PO ID", "PO Date", "Purchase Office", "Vendor", "Location", "Brand", "Model",
	"Storage", "Colour", "IMEI", "Qty", "Rate", "PO Value", "GRN No",
	"Payment#", "Bank Acc#", "IFSC", "Payment Dt", "UTR No", "Amount",
	"Payment#", "Payee Name", "Payee Type", "Bank Acc#", "Payment Dt", "UTR No", "Amount",
	"Courier", "Dispatch Dt", "POD No", "Status",
	"Received Dt", "Rcvd Qty", "Warehouse", "Status",
}

// ExportInventory renders every inventory item as one spreadsheet row.
func (s *Service) ExportInventory(ctx context.Context) (*bytes.Buffer, error) {
	items, err := s.store.ListInventory(ctx, store.InventoryFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "could not list inventory")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return nil, apperr.Internal(err, "could not build inventory sheet")
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &inventoryHeaders); err != nil {
		return nil, apperr.Internal(err, "could not write inventory headers")
	}
	for i, it := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			it.IMEI, it.Brand, it.Model, it.Colour, it.Storage, it.DeviceModel, it.Status,
			it.Vendor, it.Organization, it.CurrentLocation, it.PONumber, it.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return nil, apperr.Internal(err, "could not write inventory row %d", i+2)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperr.Internal(err, "could not render inventory report")
	}
	return buf, nil
}

// masterIndex holds the collections joined into the master report, keyed for direct lookup.
type masterIndex struct {
	procurement map[string][]models.ProcurementRecord
	procByIMEI  map[string]models.ProcurementRecord
	internal    map[string]models.Payment
	external    map[string]models.Payment
	shipments   map[string][]models.LogisticsShipment
	inventory   map[string]models.InventoryItem
}

func (s *Service) loadMasterIndex(ctx context.Context) (*masterIndex, error) {
	records, err := s.store.ListProcurement(ctx, store.ProcurementFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "could not list procurement")
	}
	payments, err := s.store.ListPayments(ctx, store.PaymentFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "could not list payments")
	}
	shipments, err := s.store.ListShipments(ctx, store.POScope{})
	if err != nil {
		return nil, apperr.Internal(err, "could not list shipments")
	}
	inventory, err := s.store.ListInventory(ctx, store.InventoryFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "could not list inventory")
	}

	idx := &masterIndex{
		procurement: make(map[string][]models.ProcurementRecord),
		procByIMEI:  make(map[string]models.ProcurementRecord, len(records)),
		internal:    make(map[string]models.Payment),
		external:    make(map[string]models.Payment),
		shipments:   make(map[string][]models.LogisticsShipment),
		inventory:   make(map[string]models.InventoryItem, len(inventory)),
	}
	for _, r := range records {
		idx.procurement[r.PONumber] = append(idx.procurement[r.PONumber], r)
		idx.procByIMEI[r.IMEI] = r
	}
	for _, p := range payments {
		target := idx.internal
		if p.Kind() == models.PaymentExternal {
			target = idx.external
		}
		if _, ok := target[p.PONumber]; !ok {
			target[p.PONumber] = p
		}
	}
	for _, sh := range shipments {
		idx.shipments[sh.PONumber] = append(idx.shipments[sh.PONumber], sh)
	}
	for _, it := range inventory {
		idx.inventory[it.IMEI] = it
	}
	return idx, nil
}

// procurementFor picks the unit behind a line item: by IMEI, then vendor, then device model.
func (idx *masterIndex) procurementFor(poNumber string, item models.LineItem) (models.ProcurementRecord, bool) {
	if item.IMEI != "" {
		if r, ok := idx.procByIMEI[item.IMEI]; ok && r.PONumber == poNumber {
			return r, true
		}
	}
	records := idx.procurement[poNumber]
	for _, r := range records {
		if item.Vendor != "" && r.VendorName == item.Vendor {
			return r, true
		}
	}
	for _, r := range records {
		if item.Model != "" && strings.Contains(r.DeviceModel, item.Model) {
			return r, true
		}
	}
	return models.ProcurementRecord{}, false
}

func (idx *masterIndex) shipmentFor(poNumber string, item models.LineItem) (models.LogisticsShipment, bool) {
	for _, sh := range idx.shipments[poNumber] {
		if (item.Vendor != "" && sh.Vendor == item.Vendor) || (item.Location != "" && sh.FromLocation == item.Location) {
			return sh, true
		}
	}
	return models.LogisticsShipment{}, false
}

// masterRow lays out one line item across the five report sections.
func (idx *masterIndex) masterRow(slNo int, po models.PurchaseOrder, item models.LineItem) []any {
	proc, hasProc := idx.procurementFor(po.PONumber, item)
	imei := item.IMEI
	if imei == "" && hasProc {
		imei = proc.IMEI
	}

	row := []any{
		slNo, po.PONumber, day(po.PODate), po.PurchaseOffice, item.Vendor, item.Location,
		item.Brand, item.Model, item.Storage, item.Colour, imei, item.Qty, item.Rate, item.POValue,
	}
	if hasProc {
		row = append(row, short(proc.ProcurementID))
	} else {
		row = append(row, placeholder)
	}

	if p, ok := idx.internal[po.PONumber]; ok {
		acc, bank, ref := placeholder, placeholder, placeholder
		if p.Internal != nil {
			acc, bank, ref = orDash(p.Internal.PayeeAccount), orDash(p.Internal.PayeeBank), orDash(p.Internal.TransactionRef)
		}
		row = append(row, short(p.PaymentID), acc, bank, day(p.PaymentDate), ref, p.Amount)
	} else {
		row = append(row, placeholder, placeholder, placeholder, placeholder, placeholder, 0)
	}

	if p, ok := idx.external[po.PONumber]; ok {
		payeeType, acc, utr := placeholder, placeholder, placeholder
		if p.External != nil {
			payeeType, acc, utr = orDash(p.External.PayeeType), orDash(p.External.AccountNumber), orDash(p.External.UTRNumber)
		}
		row = append(row, short(p.PaymentID), orDash(p.PayeeName), payeeType, acc, day(p.PaymentDate), utr, p.Amount)
	} else {
		row = append(row, placeholder, placeholder, placeholder, placeholder, placeholder, placeholder, 0)
	}

	if sh, ok := idx.shipmentFor(po.PONumber, item); ok {
		row = append(row, orDash(sh.TransporterName), day(sh.PickupDate), short(sh.ShipmentID), orDash(sh.Status))
	} else {
		row = append(row, placeholder, placeholder, placeholder, placeholder)
	}

	if inv, ok := idx.inventory[imei]; ok && imei != "" {
		row = append(row, day(inv.CreatedAt), 1, orDash(inv.CurrentLocation), orDash(inv.Status))
	} else {
		row = append(row, placeholder, 0, placeholder, placeholder)
	}
	return row
}

// ExportMaster renders one row per PO line item, joined with its procurement, payments,
// shipment and inventory state.
func (s *Service) ExportMaster(ctx context.Context) (*bytes.Buffer, error) {
	pos, err := s.store.ListPurchaseOrders(ctx, store.POFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "could not list purchase orders")
	}
	idx, err := s.loadMasterIndex(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", masterSheet); err != nil {
		return nil, apperr.Internal(err, "could not build master sheet")
	}
	if err := writeMasterHeader(f); err != nil {
		return nil, apperr.Internal(err, "could not write master headers")
	}

	rowNo, slNo := 3, 1
	for _, po := range pos {
		for _, item := range po.Items {
			cell, _ := excelize.CoordinatesToCellName(1, rowNo)
			row := idx.masterRow(slNo, po, item)
			if err := f.SetSheetRow(masterSheet, cell, &row); err != nil {
				return nil, apperr.Internal(err, "could not write master row %d", rowNo)
			}
			rowNo++
			slNo++
		}
	}
	if err := f.SetColWidth(masterSheet, "A", "AJ", 12); err != nil {
		return nil, apperr.Internal(err, "could not size master columns")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperr.Internal(err, "could not render master report")
	}
	return buf, nil
}

func writeMasterHeader(f *excelize.File) error {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	for _, sec := range masterSections {
		style, err := f.NewStyle(&excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{sec.color}},
			Border: border,
		})
		if err != nil {
			return err
		}
		if err := f.MergeCell(masterSheet, sec.from, sec.to); err != nil {
			return err
		}
		if err := f.SetCellValue(masterSheet, sec.from, sec.title); err != nil {
			return err
		}
		if err := f.SetCellStyle(masterSheet, sec.from, sec.to, style); err != nil {
			return err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E3A5F"}},
		Border: border,
	})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(masterSheet, "A2", &masterHeaders); err != nil {
		return err
	}
	return f.SetCellStyle(masterSheet, "A2", "AJ2", header)
}

func day(t time.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return t.UTC().Format("2006-01-02")
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return placeholder
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
