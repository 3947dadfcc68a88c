package ingest

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sskerp/internal/tax"
)

// DocumentHeader carries the invoice-level fields found in the band of
// rows above the column headers.
type DocumentHeader struct {
	InvoiceNo   string
	InvoiceDate *time.Time
	PartyName   string
	PartyGSTIN  string
}

// Line is one fully normalized logical invoice line.
type Line struct {
	LineNo      int
	MfrCode     string
	Category    string
	Description string
	HSN         string
	UOM         string
	BatchNo     string
	ExpiryText  string
	BoxText     string

	ExpiryDate    time.Time
	Qty           decimal.Decimal
	PricePerUnit  decimal.Decimal
	TradePrice    decimal.Decimal
	MRP           decimal.Decimal
	Gross         decimal.Decimal
	DiscountPct   decimal.Decimal
	DiscountValue decimal.Decimal
	Taxable       decimal.Decimal
	CGSTRate      decimal.Decimal
	CGSTAmount    decimal.Decimal
	SGSTRate      decimal.Decimal
	SGSTAmount    decimal.Decimal
	IGSTRate      decimal.Decimal
	IGSTAmount    decimal.Decimal
	Total         decimal.Decimal

	Raw string
}

// ParsedInvoice is the result of running a sheet through the whole
// pipeline: header band, column mapping, row reconstruction and field
// normalization.
type ParsedInvoice struct {
	Header      DocumentHeader
	Columns     *ColumnMap
	Lines       []Line
	RawText     string
	NeedsReview bool
}

var (
	invoiceNoPattern = regexp.MustCompile(`(?i)(?:invoice|bill)\s*(?:no|num|#)\s*[:.\-]?\s*([A-Za-z0-9][A-Za-z0-9/\-]*)`)
	docDatePattern   = regexp.MustCompile(`(?i)date\s*[:.\-]?\s*([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`)
	gstinPattern     = regexp.MustCompile(`\b[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]{3}\b`)
)

// Parse runs the full ingestion pipeline over one uploaded file.
// Structural failures (no header row, unmappable required columns,
// unreadable file) return an error and nothing else; row-level noise is
// absorbed and only visible through the retained raw text.
func Parse(r io.Reader, filename string, now time.Time) (*ParsedInvoice, error) {
	grid, err := ReadGrid(r, filename)
	if err != nil {
		return nil, err
	}

	cols, err := MapColumns(grid)
	if err != nil {
		return nil, err
	}

	inv := &ParsedInvoice{
		Columns:     cols,
		Header:      extractHeader(grid, cols.HeaderRow),
		RawText:     gridText(grid),
		NeedsReview: cols.NeedsReview,
	}

	rec := NewReconstructor(cols)
	for i := cols.HeaderRow + 1; i < len(grid); i++ {
		if isHeaderEcho(grid[i], cols) {
			continue
		}
		rec.ProcessRow(grid[i])
		if rec.Done() {
			break
		}
	}

	items := rec.Finish()
	inv.Lines = make([]Line, 0, len(items))
	counter := 0
	for _, it := range items {
		counter++
		inv.Lines = append(inv.Lines, normalizeItem(it, cols, counter, now))
	}
	return inv, nil
}

// extractHeader scans the rows above the column headers for the
// document-level fields: invoice number, invoice date, counterparty
// name and GSTIN.
func extractHeader(grid [][]string, headerRow int) DocumentHeader {
	var h DocumentHeader
	for i := 0; i < headerRow && i < len(grid); i++ {
		for _, cell := range grid[i] {
			text := strings.TrimSpace(cell)
			if text == "" {
				continue
			}
			if h.InvoiceNo == "" {
				if m := invoiceNoPattern.FindStringSubmatch(text); m != nil {
					h.InvoiceNo = m[1]
				}
			}
			if h.InvoiceDate == nil {
				if m := docDatePattern.FindStringSubmatch(text); m != nil {
					if t, ok := ParseDate(m[1]); ok {
						h.InvoiceDate = &t
					}
				}
			}
			if h.PartyGSTIN == "" {
				if m := gstinPattern.FindString(strings.ToUpper(text)); m != "" {
					h.PartyGSTIN = m
				}
			}
			if h.PartyName == "" && isPartyCandidate(text) {
				h.PartyName = strings.TrimSpace(strings.TrimPrefix(text, "M/s"))
			}
		}
	}
	return h
}

// isPartyCandidate filters header-band cells down to something that
// plausibly names the counterparty: free text with letters, not one of
// the labelled fields.
func isPartyCandidate(text string) bool {
	lower := strings.ToLower(text)
	for _, label := range []string{"invoice", "bill", "date", "gstin", "gst no", "phone", "page", "dl no", "order"} {
		if strings.Contains(lower, label) {
			return false
		}
	}
	letters := 0
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			letters++
		}
	}
	return letters >= 4
}

// isHeaderEcho skips the continuation line of a two-line header band:
// text in the identifying columns that is itself header wording rather
// than data.
func isHeaderEcho(row []string, cols *ColumnMap) bool {
	hsn := normalizeHeader(cellAt(row, cols.HSN))
	desc := normalizeHeader(cellAt(row, cols.Description))
	if hsn == "" && desc == "" {
		return false
	}
	// A data row carries a numeric HSN; header wording never does.
	if strings.ContainsAny(hsn, "0123456789") {
		return false
	}
	if len(desc) > 25 {
		return false
	}
	for _, t := range []string{hsn, desc} {
		if t == "" {
			continue
		}
		if hasAny("code", "description", "particulars", "name", "qty", "rate", "amount")(t) {
			return true
		}
	}
	return false
}

func normalizeItem(it RawItem, cols *ColumnMap, counter int, now time.Time) Line {
	ln := Line{
		MfrCode:     it.MfrCode,
		Category:    it.Category,
		Description: it.Description,
		HSN:         it.HSN,
		UOM:         it.UOM,
		BatchNo:     it.BatchNo,
		ExpiryText:  it.ExpiryText,
		BoxText:     it.BoxText,
		Raw:         strings.Join(it.Raw, "\n"),
	}

	// Prefer the sheet's own serial number; fall back to the counter.
	ln.LineNo = counter
	if n, err := strconv.Atoi(strings.TrimSpace(it.Serial)); err == nil && n > 0 {
		ln.LineNo = n
	}

	ln.ExpiryDate = ParseExpiry(it.ExpiryText, now)
	ln.Qty = ParseDecimal(it.QtyText)
	ln.PricePerUnit = ParseDecimal(it.PriceText)
	ln.TradePrice = ParseDecimal(it.TradeText)
	ln.MRP = ParseDecimal(it.MRPText)
	ln.Gross = ParseDecimal(it.GrossText)
	ln.DiscountPct = ParseDecimal(it.DiscPctText)
	ln.DiscountValue = ParseDecimal(it.DiscValText)
	ln.Taxable = ParseDecimal(it.TaxableText)
	ln.CGSTRate = ParseDecimal(it.CGSTRateText)
	ln.CGSTAmount = ParseDecimal(it.CGSTAmtText)
	ln.SGSTRate = ParseDecimal(it.SGSTRateText)
	ln.SGSTAmount = ParseDecimal(it.SGSTAmtText)
	ln.IGSTRate = ParseDecimal(it.IGSTRateText)
	ln.IGSTAmount = ParseDecimal(it.IGSTAmtText)
	ln.Total = ParseDecimal(it.TotalText)

	// Derived trade price: only when the sheet never had a trade-price
	// column. A detected column's value is never overridden, even when
	// it parsed to zero.
	if cols.TradePrice == noCol {
		if ln.Gross.IsPositive() && ln.Qty.IsPositive() {
			ln.TradePrice = ln.Gross.Div(ln.Qty).Round(4)
		} else {
			ln.TradePrice = ln.PricePerUnit
		}
	}

	if ln.Taxable.IsZero() {
		ln.Taxable = ln.Gross.Sub(ln.DiscountValue)
		if ln.Taxable.IsNegative() {
			ln.Taxable = decimal.Zero
		}
	}

	// Reconcile extracted tax amounts against rate x base before they
	// reach staging; the sheet is not trusted when its own arithmetic
	// does not hold up.
	ln.CGSTAmount = tax.Reconcile(ln.CGSTAmount, ln.Taxable, ln.CGSTRate)
	ln.SGSTAmount = tax.Reconcile(ln.SGSTAmount, ln.Taxable, ln.SGSTRate)
	ln.IGSTAmount = tax.Reconcile(ln.IGSTAmount, ln.Taxable, ln.IGSTRate)

	if ln.Total.IsZero() {
		ln.Total = ln.Taxable.Add(ln.CGSTAmount).Add(ln.SGSTAmount).Add(ln.IGSTAmount)
	}
	return ln
}

func gridText(grid [][]string) string {
	lines := make([]string, 0, len(grid))
	for _, row := range grid {
		if t := joinRow(row); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}
