package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pharmaHeaderGrid() [][]string {
	return [][]string{
		{"", ""},
		{
			"S.No", "Mfr", "Product Description", "HSN Code", "Category", "UOM",
			"Batch No", "Expiry", "Box", "Total Qty", "Price Per Unit", "MRP",
			"Gross Value", "Disc %", "Taxable Value", "CGST Rate", "CGST Amt",
			"SGST Rate", "SGST Amt", "Total Amount",
		},
		{
			"1", "ACM", "PARACETAMOL 500MG", "3004", "TAB", "10'S",
			"B123", "12/2027", "5", "50", "20.00", "35.00",
			"1000.00", "0", "1000.00", "9", "90.00",
			"9", "90.00", "1180.00",
		},
	}
}

func TestMapColumnsByHeaderText(t *testing.T) {
	cm, err := MapColumns(pharmaHeaderGrid())
	require.NoError(t, err)

	assert.Equal(t, 1, cm.HeaderRow)
	assert.Equal(t, 0, cm.Serial)
	assert.Equal(t, 1, cm.MfrCode)
	assert.Equal(t, 2, cm.Description)
	assert.Equal(t, 3, cm.HSN)
	assert.Equal(t, 4, cm.Category)
	assert.Equal(t, 5, cm.UOM)
	assert.Equal(t, 6, cm.Batch)
	assert.Equal(t, 7, cm.Expiry)
	assert.Equal(t, 8, cm.Box)
	assert.Equal(t, 9, cm.Qty)
	assert.Equal(t, 10, cm.PricePerUnit)
	assert.Equal(t, 11, cm.MRP)
	assert.Equal(t, 12, cm.Gross)
	assert.Equal(t, 13, cm.DiscountPct)
	assert.Equal(t, 14, cm.Taxable)
	assert.Equal(t, 15, cm.CGSTRate)
	assert.Equal(t, 16, cm.CGSTAmount)
	assert.Equal(t, 17, cm.SGSTRate)
	assert.Equal(t, 18, cm.SGSTAmount)
	assert.Equal(t, 19, cm.Total)
	assert.False(t, cm.NeedsReview)
}

func TestMapColumnsDeterministic(t *testing.T) {
	first, err := MapColumns(pharmaHeaderGrid())
	require.NoError(t, err)
	second, err := MapColumns(pharmaHeaderGrid())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMapColumnsNoHeaderRow(t *testing.T) {
	grid := [][]string{
		{"Some Supplier Pvt Ltd"},
		{"random", "text", "only"},
	}
	_, err := MapColumns(grid)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestMapColumnsMissingBoxColumn(t *testing.T) {
	grid := [][]string{
		{"Product Description", "HSN Code", "Qty"},
		{"PARACETAMOL", "3004", "50"},
	}
	_, err := MapColumns(grid)

	var mapErr *MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.Contains(t, mapErr.Missing, "box count")
}

func TestMapColumnsTaxableOffsetBlock(t *testing.T) {
	// The five columns after the taxable value follow the
	// rate/amount/rate/amount/total shape even though the headers never
	// say CGST or SGST.
	grid := [][]string{
		{
			"Product Description", "HSN Code", "Category", "UOM", "Batch No",
			"Expiry", "Box", "Qty", "Taxable Value", "Rate", "Amt", "Rate",
			"Amt", "Net Amount",
		},
		{
			"PARACETAMOL", "3004", "TAB", "10'S", "B123",
			"12/2027", "5", "50", "1000.00", "9", "90.00", "9",
			"90.00", "1180.00",
		},
	}
	cm, err := MapColumns(grid)
	require.NoError(t, err)

	assert.Equal(t, 8, cm.Taxable)
	assert.Equal(t, 9, cm.CGSTRate)
	assert.Equal(t, 10, cm.CGSTAmount)
	assert.Equal(t, 11, cm.SGSTRate)
	assert.Equal(t, 12, cm.SGSTAmount)
	assert.Equal(t, 13, cm.Total)
}

func TestMapColumnsPositionalGrabFlagsReview(t *testing.T) {
	// Value columns with blank headers resolve positionally after the box
	// column and flag the whole sheet for review.
	grid := [][]string{
		{"Product Description", "HSN Code", "Category", "UOM", "Batch No", "Expiry", "Box", "", "", ""},
		{"PARACETAMOL", "3004", "TAB", "10'S", "B123", "12/2027", "5", "50", "20.00", "1000.00"},
	}
	cm, err := MapColumns(grid)
	require.NoError(t, err)

	assert.Equal(t, 7, cm.Qty)
	assert.Equal(t, 8, cm.PricePerUnit)
	assert.Equal(t, 9, cm.Gross)
	assert.True(t, cm.NeedsReview)
}

func TestMapColumnsTwoLineHeader(t *testing.T) {
	// "Total" and "Qty" split across two header lines still resolve to
	// one quantity column.
	grid := [][]string{
		{"Product Description", "HSN Code", "Category", "UOM", "Batch No", "Expiry", "Box", "Total"},
		{"", "", "", "", "", "", "", "Qty"},
		{"PARACETAMOL", "3004", "TAB", "10'S", "B123", "12/2027", "5", "50"},
	}
	cm, err := MapColumns(grid)
	require.NoError(t, err)
	assert.Equal(t, 7, cm.Qty)
}
