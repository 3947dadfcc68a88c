package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testColumns is a resolved map for a compact sheet layout used by the
// reconstruction tests: serial, description, hsn, uom, batch, expiry,
// box, qty, gross.
func testColumns() *ColumnMap {
	return &ColumnMap{
		Serial: 0, Description: 1, HSN: 2, UOM: 3, Batch: 4,
		Expiry: 5, Box: 6, Qty: 7, Gross: 8,
		MfrCode: noCol, Category: noCol, PricePerUnit: noCol, TradePrice: noCol,
		MRP: noCol, DiscountPct: noCol, DiscountValue: noCol, Taxable: noCol,
		CGSTRate: noCol, CGSTAmount: noCol, SGSTRate: noCol, SGSTAmount: noCol,
		IGSTRate: noCol, IGSTAmount: noCol, Total: noCol,
	}
}

func TestReconstructorWrappedDescriptionIsOneItem(t *testing.T) {
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{
		"1", "PARACETAMOL\n500MG TABLETS", "3004", "10'S", "B123", "12/2027", "5", "50", "1000",
	})
	items := rec.Finish()

	require.Len(t, items, 1)
	assert.Equal(t, "PARACETAMOL 500MG TABLETS", items[0].Description)
	assert.Equal(t, "3004", items[0].HSN)
	assert.Equal(t, "B123", items[0].BatchNo)
	assert.Equal(t, "50", items[0].QtyText)
}

func TestReconstructorSplitsMultiLineRow(t *testing.T) {
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{
		"1\n2", "ITEM A\nITEM B", "3004\n3005", "10'S\n20'S", "B1\nB2",
		"01/27\n02/27", "5\n6", "50\n60", "500\n600",
	})
	items := rec.Finish()

	require.Len(t, items, 2)
	assert.Equal(t, "ITEM A", items[0].Description)
	assert.Equal(t, "3004", items[0].HSN)
	assert.Equal(t, "B1", items[0].BatchNo)
	assert.Equal(t, "50", items[0].QtyText)
	assert.Equal(t, "ITEM B", items[1].Description)
	assert.Equal(t, "3005", items[1].HSN)
	assert.Equal(t, "B2", items[1].BatchNo)
	assert.Equal(t, "60", items[1].QtyText)
}

func TestReconstructorGroupHeaderPrefix(t *testing.T) {
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{"", "AB - ACME DIVISION", "", "", "", "", "", "", ""})
	rec.ProcessRow([]string{"1", "PARACETAMOL", "3004", "10'S", "B1", "01/27", "5", "50", "500"})
	rec.ProcessRow([]string{"2", "IBUPROFEN", "3004", "10'S", "B2", "02/27", "3", "30", "300"})
	items := rec.Finish()

	require.Len(t, items, 2)
	assert.Equal(t, "AB - ACME DIVISION PARACETAMOL", items[0].Description)
	assert.Equal(t, "AB - ACME DIVISION IBUPROFEN", items[1].Description)
}

func TestReconstructorStopsAtTotalRow(t *testing.T) {
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{"1", "PARACETAMOL", "3004", "10'S", "B1", "01/27", "5", "50", "500"})
	rec.ProcessRow([]string{"", "Grand Total", "", "", "", "", "", "50", "500"})
	rec.ProcessRow([]string{"2", "SHOULD NOT APPEAR", "3005", "10'S", "B2", "02/27", "1", "10", "100"})
	items := rec.Finish()

	assert.True(t, rec.Done())
	require.Len(t, items, 1)
	assert.Equal(t, "PARACETAMOL", items[0].Description)
}

func TestReconstructorTotalRowWithHSNIsData(t *testing.T) {
	// "TOTAL CARE LOTION" starts with a stop word but carries an HSN, so
	// it is a real item, not a footer.
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{"1", "TOTAL CARE LOTION", "3304", "100ML", "B1", "01/27", "2", "20", "400"})
	items := rec.Finish()

	require.Len(t, items, 1)
	assert.False(t, rec.Done())
}

func TestReconstructorContinuationRowMerges(t *testing.T) {
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{"1", "COUGH SYRUP", "3004", "100ML", "B9", "06/27", "4", "", ""})
	rec.ProcessRow([]string{"", "SUGAR FREE", "", "", "", "", "", "40", "800"})
	items := rec.Finish()

	require.Len(t, items, 1)
	assert.Equal(t, "COUGH SYRUP SUGAR FREE", items[0].Description)
	assert.Equal(t, "40", items[0].QtyText)
	assert.Equal(t, "800", items[0].GrossText)
}

func TestReconstructorDropsEmptyRows(t *testing.T) {
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{"", "", "", "", "", "", "", "", ""})
	rec.ProcessRow([]string{})
	items := rec.Finish()

	assert.Empty(t, items)
}

func TestReconstructorRedistributesBatchTokens(t *testing.T) {
	// Two logical lines but the batch cell holds both values on one
	// sub-line; token redistribution pairs them back up.
	rec := NewReconstructor(testColumns())
	rec.ProcessRow([]string{
		"1\n2", "ITEM A\nITEM B", "3004\n3005", "10'S\n10'S", "B1 B2",
		"01/27\n02/27", "5\n6", "50\n60", "500\n600",
	})
	items := rec.Finish()

	require.Len(t, items, 2)
	assert.Equal(t, "B1", items[0].BatchNo)
	assert.Equal(t, "B2", items[1].BatchNo)
}
