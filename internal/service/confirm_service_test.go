package service

import (
	"context"
	"testing"
	"time"

	"sskerp/internal/model"
	ws "sskerp/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type confirmFixture struct {
	staging  *fakeStagingRepo
	ledger   *fakeLedgerRepo
	catalog  *fakeCatalogRepo
	supplier *fakeSupplierRepo
	audit    *fakeAuditRepo
	svc      ConfirmService

	operatorID uuid.UUID
	supplierID uuid.UUID
	batchID    uuid.UUID
	itemID     uuid.UUID
	packingID  uuid.UUID
}

// newConfirmFixture wires a same-state supplier (27/27), a GST18 catalog
// item, a 1x10 packing unit and a staged batch of two lines: 1000.00
// taxable with a batch number, 500.00 taxable without one.
func newConfirmFixture(t *testing.T) *confirmFixture {
	t.Helper()

	f := &confirmFixture{
		staging:  newFakeStagingRepo(),
		ledger:   newFakeLedgerRepo(),
		catalog:  newFakeCatalogRepo(),
		supplier: newFakeSupplierRepo(),
		audit:    &fakeAuditRepo{},

		operatorID: uuid.New(),
		supplierID: uuid.New(),
		batchID:    uuid.New(),
		itemID:     uuid.New(),
		packingID:  uuid.New(),
	}

	f.supplier.suppliers[f.supplierID] = &model.Supplier{
		ID:        f.supplierID,
		Code:      "SUN01",
		Name:      "Sunrise Pharma Distributors",
		StateCode: "27",
	}

	rateID := uuid.New()
	f.catalog.items[f.itemID] = &model.CatalogItem{
		ID:        f.itemID,
		Code:      "PARA500",
		Name:      "PARACETAMOL 500MG",
		TaxRateID: &rateID,
		TaxRate: &model.TaxRate{
			ID:      rateID,
			Class:   "GST18",
			CGSTPct: decimal.NewFromInt(9),
			SGSTPct: decimal.NewFromInt(9),
			IGSTPct: decimal.NewFromInt(18),
		},
	}
	f.catalog.packs[f.packingID] = &model.PackingUnit{
		ID:           f.packingID,
		Name:         "1x10",
		UnitsPerPack: 10,
	}

	expiry := time.Date(2027, 12, 1, 0, 0, 0, 0, time.UTC)
	invoiceDate := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	f.staging.batches[f.batchID] = &model.UploadBatch{
		ID:          f.batchID,
		FileName:    "invoice.xlsx",
		UploadedBy:  f.operatorID,
		SupplierID:  f.supplierID,
		InvoiceNo:   "INV-1234",
		InvoiceDate: &invoiceDate,
		Status:      model.BatchStatusUploaded,
		Lines: []model.StagedLine{
			{
				LineNo:       1,
				Description:  "PARACETAMOL 500MG",
				HSNCode:      "3004",
				BatchNo:      "B123",
				BoxText:      "5",
				ExpiryDate:   &expiry,
				Qty:          decimal.NewFromInt(50),
				TaxableValue: decimal.RequireFromString("1000.00"),
			},
			{
				LineNo:       2,
				Description:  "COUGH SYRUP 100ML",
				HSNCode:      "3004",
				BoxText:      "10",
				Qty:          decimal.NewFromInt(100),
				TaxableValue: decimal.RequireFromString("500.00"),
			},
		},
	}

	hub := ws.NewHub()
	go hub.Run()

	f.svc = NewConfirmService(f.staging, f.ledger, f.catalog, f.supplier, f.audit, fakeTxManager{}, hub, "27")
	return f
}

func (f *confirmFixture) selectAll() []LineSelection {
	return []LineSelection{
		{LineNo: 1, CatalogItemID: f.itemID.String(), PackingUnitID: f.packingID.String()},
		{LineNo: 2, CatalogItemID: f.itemID.String(), PackingUnitID: f.packingID.String()},
	}
}

func TestConfirmSameStateCommit(t *testing.T) {
	f := newConfirmFixture(t)

	resp, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), f.selectAll())
	require.NoError(t, err)

	assert.Equal(t, "PUR-000001", resp.DocNo)
	assert.Equal(t, "INV-1234", resp.InvoiceNo)
	assert.Equal(t, 2, resp.Lines)
	// GST18 from the catalog splits into 9% halves on each line:
	// 1000 -> 90/90, 500 -> 45/45.
	assert.Equal(t, "1500.00", resp.TotalTaxable)
	assert.Equal(t, "135.00", resp.TotalCGST)
	assert.Equal(t, "135.00", resp.TotalSGST)
	assert.Equal(t, "0.00", resp.TotalIGST)
	assert.Equal(t, "1770.00", resp.GrandTotal)

	require.Len(t, f.ledger.masters, 1)
	assert.True(t, f.ledger.finalized)
	require.Len(t, f.ledger.details, 2)
	assert.True(t, f.ledger.details[0].CGSTAmount.Equal(decimal.RequireFromString("90")))
	assert.True(t, f.ledger.details[1].SGSTAmount.Equal(decimal.RequireFromString("45")))

	// Only the line with a batch number produces a lot row. 5 boxes of 10
	// cover all 50 units, so nothing is loose.
	require.Len(t, f.ledger.batchRows, 1)
	row := f.ledger.batchRows[0]
	assert.Equal(t, "B123", row.BatchNo)
	assert.Equal(t, 5, row.Packs)
	assert.Equal(t, 10, row.UnitsPerPack)
	assert.True(t, row.LooseUnits.IsZero())

	// The staging batch is consumed by the commit.
	assert.Contains(t, f.staging.deleted, f.batchID)
	_, ok := f.staging.batches[f.batchID]
	assert.False(t, ok)

	assert.Contains(t, f.audit.actions(), model.ActionCommitPurchase)
}

func TestConfirmCrossStateUsesIGST(t *testing.T) {
	f := newConfirmFixture(t)
	f.supplier.suppliers[f.supplierID].StateCode = "33"

	resp, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), f.selectAll())
	require.NoError(t, err)

	assert.Equal(t, "0.00", resp.TotalCGST)
	assert.Equal(t, "0.00", resp.TotalSGST)
	assert.Equal(t, "270.00", resp.TotalIGST)
	assert.Equal(t, "1770.00", resp.GrandTotal)

	require.Len(t, f.ledger.details, 2)
	assert.True(t, f.ledger.details[0].IGSTAmount.Equal(decimal.RequireFromString("180")))
	assert.True(t, f.ledger.details[0].CGSTAmount.IsZero())
}

func TestConfirmRejectsDuplicateInvoice(t *testing.T) {
	f := newConfirmFixture(t)
	f.ledger.existing[invoiceKey(f.supplierID, "INV-1234")] = true

	_, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), f.selectAll())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateInvoice)
	assert.Contains(t, err.Error(), "INV-1234")

	// Nothing reached the ledger and the staging batch survives.
	assert.Empty(t, f.ledger.masters)
	_, ok := f.staging.batches[f.batchID]
	assert.True(t, ok)
}

func TestConfirmDropsUnknownLineNumbers(t *testing.T) {
	f := newConfirmFixture(t)

	// One real line, one stale line number from a superseded upload.
	selections := []LineSelection{
		{LineNo: 1, CatalogItemID: f.itemID.String(), PackingUnitID: f.packingID.String()},
		{LineNo: 99, CatalogItemID: f.itemID.String(), PackingUnitID: f.packingID.String()},
	}
	resp, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), selections)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Lines)
	assert.Equal(t, "1000.00", resp.TotalTaxable)
}

func TestConfirmAllSelectionsUnknownIsError(t *testing.T) {
	f := newConfirmFixture(t)

	selections := []LineSelection{
		{LineNo: 98, CatalogItemID: f.itemID.String(), PackingUnitID: f.packingID.String()},
		{LineNo: 99, CatalogItemID: f.itemID.String(), PackingUnitID: f.packingID.String()},
	}
	_, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), selections)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid lines selected")
}

func TestConfirmMissingBatchReportsSuperseded(t *testing.T) {
	f := newConfirmFixture(t)

	_, err := f.svc.Confirm(context.Background(), f.operatorID.String(), uuid.NewString(), f.selectAll())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "superseded")
}

func TestConfirmRejectsNonUploadedStatus(t *testing.T) {
	f := newConfirmFixture(t)
	f.staging.batches[f.batchID].Status = model.BatchStatusConfirmed

	_, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), f.selectAll())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already CONFIRMED")
}

func TestConfirmItemWithoutTaxRateIsZeroRated(t *testing.T) {
	f := newConfirmFixture(t)
	f.catalog.items[f.itemID].TaxRate = nil

	resp, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), f.selectAll())
	require.NoError(t, err)

	assert.Equal(t, "0.00", resp.TotalCGST)
	assert.Equal(t, "0.00", resp.TotalSGST)
	assert.Equal(t, "0.00", resp.TotalIGST)
	assert.Equal(t, "1500.00", resp.GrandTotal)
}

func TestConfirmLooseUnitsRemainder(t *testing.T) {
	f := newConfirmFixture(t)
	// 4 boxes of 10 against 47 units leaves 7 loose.
	batch := f.staging.batches[f.batchID]
	batch.Lines[0].BoxText = "4"
	batch.Lines[0].Qty = decimal.NewFromInt(47)

	_, err := f.svc.Confirm(context.Background(), f.operatorID.String(), f.batchID.String(), f.selectAll())
	require.NoError(t, err)

	require.Len(t, f.ledger.batchRows, 1)
	assert.Equal(t, 4, f.ledger.batchRows[0].Packs)
	assert.True(t, f.ledger.batchRows[0].LooseUnits.Equal(decimal.NewFromInt(7)))
}
