package service

import (
	"context"
	"strings"
	"testing"

	"sskerp/internal/ingest"
	"sskerp/internal/model"
	ws "sskerp/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadCSV = `M/s Sunrise Pharma Distributors,,,,,,,,,,,,,,,,
Invoice No: INV-1234,Date: 05-04-2026,,,,,,,,,,,,,,,
GSTIN: 27ABCDE1234F1Z5,,,,,,,,,,,,,,,,
S.No,Product Description,HSN Code,Category,UOM,Batch No,Expiry,Box,Total Qty,Price Per Unit,Gross Value,Taxable Value,CGST Rate,CGST Amt,SGST Rate,SGST Amt,Total Amount
1,PARACETAMOL 500MG,3004,TAB,10'S,B123,12/2027,5,50,20.00,1000.00,1000.00,9,90.00,9,90.00,1180.00
2,COUGH SYRUP 100ML,3004,SYP,100ML,B456,06/2027,10,100,20.00,2000.00,2000.00,9,180.00,9,180.00,2360.00
,Grand Total,,,,,,,150,,3000.00,3000.00,,,,,
`

type uploadFixture struct {
	staging  *fakeStagingRepo
	supplier *fakeSupplierRepo
	audit    *fakeAuditRepo
	svc      UploadService

	uploaderID uuid.UUID
	supplierID uuid.UUID
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()

	f := &uploadFixture{
		staging:  newFakeStagingRepo(),
		supplier: newFakeSupplierRepo(),
		audit:    &fakeAuditRepo{},

		uploaderID: uuid.New(),
		supplierID: uuid.New(),
	}
	f.supplier.suppliers[f.supplierID] = &model.Supplier{
		ID:        f.supplierID,
		Code:      "SUN01",
		Name:      "Sunrise Pharma Distributors",
		StateCode: "27",
	}

	hub := ws.NewHub()
	go hub.Run()

	f.svc = NewUploadService(f.staging, f.supplier, f.audit, fakeTxManager{}, hub)
	return f
}

func (f *uploadFixture) request() UploadRequest {
	return UploadRequest{
		SupplierID: f.supplierID.String(),
		OrderNo:    "PO-42",
		FileName:   "invoice.csv",
		File:       strings.NewReader(uploadCSV),
	}
}

func TestUploadStagesBatch(t *testing.T) {
	f := newUploadFixture(t)

	resp, err := f.svc.Upload(context.Background(), f.uploaderID.String(), f.request())
	require.NoError(t, err)

	assert.Equal(t, "INV-1234", resp.InvoiceNo)
	require.NotNil(t, resp.InvoiceDate)
	assert.Equal(t, "2026-04-05", *resp.InvoiceDate)
	assert.Equal(t, "Sunrise Pharma Distributors", resp.PartyName)
	assert.Equal(t, "27ABCDE1234F1Z5", resp.PartyGSTIN)
	assert.Equal(t, "PO-42", resp.OrderNo)
	assert.Equal(t, model.BatchStatusUploaded, resp.Status)
	assert.Equal(t, "Sunrise Pharma Distributors", resp.SupplierName)
	assert.False(t, resp.NeedsReview)

	require.Len(t, resp.Lines, 2)
	first := resp.Lines[0]
	assert.Equal(t, 1, first.LineNo)
	assert.Equal(t, "PARACETAMOL 500MG", first.Description)
	assert.Equal(t, "B123", first.BatchNo)
	assert.Equal(t, "5", first.BoxText)
	assert.Equal(t, "50.000", first.Qty)
	assert.Equal(t, "1000.00", first.TaxableValue)
	assert.Equal(t, "90.00", first.CGSTAmount)
	assert.Equal(t, "1180.00", first.TotalAmount)

	// The footer row is not a staged line.
	for _, l := range resp.Lines {
		assert.NotContains(t, strings.ToLower(l.Description), "grand total")
	}

	require.Len(t, f.staging.batches, 1)
	assert.Contains(t, f.audit.actions(), model.ActionUploadBatch)
	assert.NotContains(t, f.audit.actions(), model.ActionSupersedeBatch)
}

func TestUploadSupersedesPreviousUnconfirmedBatch(t *testing.T) {
	f := newUploadFixture(t)

	oldID := uuid.New()
	f.staging.batches[oldID] = &model.UploadBatch{
		ID:         oldID,
		FileName:   "stale.csv",
		UploadedBy: f.uploaderID,
		SupplierID: f.supplierID,
		Status:     model.BatchStatusUploaded,
	}

	resp, err := f.svc.Upload(context.Background(), f.uploaderID.String(), f.request())
	require.NoError(t, err)

	_, stale := f.staging.batches[oldID]
	assert.False(t, stale)
	assert.NotEqual(t, oldID.String(), resp.ID)
	assert.Len(t, f.staging.batches, 1)
	assert.Contains(t, f.audit.actions(), model.ActionSupersedeBatch)
}

func TestUploadLeavesOtherUploadersBatchesAlone(t *testing.T) {
	f := newUploadFixture(t)

	otherID := uuid.New()
	f.staging.batches[otherID] = &model.UploadBatch{
		ID:         otherID,
		FileName:   "colleague.csv",
		UploadedBy: uuid.New(),
		SupplierID: f.supplierID,
		Status:     model.BatchStatusUploaded,
	}

	_, err := f.svc.Upload(context.Background(), f.uploaderID.String(), f.request())
	require.NoError(t, err)

	_, kept := f.staging.batches[otherID]
	assert.True(t, kept)
	assert.Len(t, f.staging.batches, 2)
}

func TestUploadUnknownSupplier(t *testing.T) {
	f := newUploadFixture(t)

	req := f.request()
	req.SupplierID = uuid.NewString()
	_, err := f.svc.Upload(context.Background(), f.uploaderID.String(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier not found")
	assert.Empty(t, f.staging.batches)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	f := newUploadFixture(t)

	req := f.request()
	req.FileName = "scan.pdf"
	_, err := f.svc.Upload(context.Background(), f.uploaderID.String(), req)

	var unsupported *ingest.UnsupportedFileError
	require.ErrorAs(t, err, &unsupported)
	assert.Empty(t, f.staging.batches)
}

func TestUploadEmptySheetIsError(t *testing.T) {
	f := newUploadFixture(t)

	req := f.request()
	req.File = strings.NewReader("S.No,Product Description,HSN Code,Box,Qty\n")
	_, err := f.svc.Upload(context.Background(), f.uploaderID.String(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no item lines")
	assert.Empty(t, f.staging.batches)
}

func TestGetBatchNotFound(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.svc.GetBatch(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch not found")
}
