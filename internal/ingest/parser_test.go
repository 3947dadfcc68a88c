package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var parseNow = time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

const sampleCSV = `M/s Sunrise Pharma Distributors,,,,,,,,,,,,,,,,
Invoice No: INV-1234,Date: 05-04-2026,,,,,,,,,,,,,,,
GSTIN: 27ABCDE1234F1Z5,,,,,,,,,,,,,,,,
S.No,Product Description,HSN Code,Category,UOM,Batch No,Expiry,Box,Total Qty,Price Per Unit,Gross Value,Taxable Value,CGST Rate,CGST Amt,SGST Rate,SGST Amt,Total Amount
1,PARACETAMOL 500MG,3004,TAB,10'S,B123,12/2027,5,50,20.00,1000.00,1000.00,9,90.00,9,90.00,1180.00
2,COUGH SYRUP 100ML,3004,SYP,100ML,B456,06/2027,10,100,20.00,2000.00,2000.00,9,2000.00,9,180.00,2360.00
,Grand Total,,,,,,,150,,3000.00,3000.00,,,,,
`

func TestParseCSVEndToEnd(t *testing.T) {
	inv, err := Parse(strings.NewReader(sampleCSV), "invoice.csv", parseNow)
	require.NoError(t, err)

	// Document header band
	assert.Equal(t, "INV-1234", inv.Header.InvoiceNo)
	require.NotNil(t, inv.Header.InvoiceDate)
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), *inv.Header.InvoiceDate)
	assert.Equal(t, "Sunrise Pharma Distributors", inv.Header.PartyName)
	assert.Equal(t, "27ABCDE1234F1Z5", inv.Header.PartyGSTIN)

	require.Len(t, inv.Lines, 2)
	assert.False(t, inv.NeedsReview)

	first := inv.Lines[0]
	assert.Equal(t, 1, first.LineNo)
	assert.Equal(t, "PARACETAMOL 500MG", first.Description)
	assert.Equal(t, "3004", first.HSN)
	assert.Equal(t, "B123", first.BatchNo)
	assert.Equal(t, time.Date(2027, 12, 1, 0, 0, 0, 0, time.UTC), first.ExpiryDate)
	assert.Equal(t, "50", first.Qty.String())
	assert.Equal(t, "1000", first.Taxable.String())
	assert.Equal(t, "90", first.CGSTAmount.String())
	assert.Equal(t, "90", first.SGSTAmount.String())
	assert.Equal(t, "1180", first.Total.String())
	// No trade-price column: derived from gross over quantity.
	assert.Equal(t, "20", first.TradePrice.String())

	// Second line's CGST amount cell repeated the taxable value; it is
	// reconciled back to rate x base.
	second := inv.Lines[1]
	assert.Equal(t, "180", second.CGSTAmount.String())
	assert.Equal(t, "180", second.SGSTAmount.String())

	// The footer row never becomes an item, but the raw text keeps it.
	for _, ln := range inv.Lines {
		assert.NotContains(t, strings.ToLower(ln.Description), "grand total")
	}
	assert.Contains(t, inv.RawText, "Grand Total")
}

func TestParseXLSXEndToEnd(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{"Bill No: 778/A", "Date: 15-05-2026"},
		{"S.No", "Product Description", "HSN Code", "Category", "UOM", "Batch No", "Expiry", "Box", "Total Qty", "Price Per Unit", "Gross Value", "Taxable Value", "IGST Rate", "IGST Amt", "Total Amount"},
		{"1", "IBUPROFEN 400MG", "3004", "TAB", "15'S", "LOT9", "03/2028", "4", "60", "10.00", "600.00", "600.00", "18", "108.00", "708.00"},
		{"", "Sub Total", "", "", "", "", "", "", "60", "", "600.00", "600.00", "", "108.00", "708.00"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	inv, err := Parse(buf, "invoice.xlsx", parseNow)
	require.NoError(t, err)

	assert.Equal(t, "778/A", inv.Header.InvoiceNo)
	require.Len(t, inv.Lines, 1)
	ln := inv.Lines[0]
	assert.Equal(t, "IBUPROFEN 400MG", ln.Description)
	assert.Equal(t, "18", ln.IGSTRate.String())
	assert.Equal(t, "108", ln.IGSTAmount.String())
	assert.Equal(t, "708", ln.Total.String())
}

func TestParseRejectsLegacyXLS(t *testing.T) {
	_, err := Parse(strings.NewReader("x"), "old-stock.xls", parseNow)

	var unsupported *UnsupportedFileError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, err.Error(), "re-save the sheet as .xlsx")
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	_, err := Parse(strings.NewReader("x"), "notes.pdf", parseNow)

	var unsupported *UnsupportedFileError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ".pdf", unsupported.Ext)
}

func TestParseNoHeaderRow(t *testing.T) {
	csv := "just,some,cells\nwith,no,headings\n"
	_, err := Parse(strings.NewReader(csv), "plain.csv", parseNow)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}
