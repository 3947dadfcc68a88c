package ingest

import (
	"regexp"
	"strings"
)

// RawItem is one reconstructed logical invoice line, still textual.
// Field normalization (4.4) happens afterwards so the original cell text
// survives for the audit trail.
type RawItem struct {
	Serial      string
	MfrCode     string
	Category    string
	Description string
	HSN         string
	UOM         string
	BatchNo     string
	ExpiryText  string
	BoxText     string

	QtyText      string
	PriceText    string
	TradeText    string
	MRPText      string
	GrossText    string
	DiscPctText  string
	DiscValText  string
	TaxableText  string
	CGSTRateText string
	CGSTAmtText  string
	SGSTRateText string
	SGSTAmtText  string
	IGSTRateText string
	IGSTAmtText  string
	TotalText    string

	Raw []string // source row text, one entry per contributing physical row
}

func (it *RawItem) hasNumeric() bool {
	for _, v := range []string{it.QtyText, it.PriceText, it.TradeText, it.MRPText,
		it.GrossText, it.TaxableText, it.TotalText} {
		if v != "" {
			return true
		}
	}
	return false
}

// empty items are dropped, never emitted
func (it *RawItem) isEmpty() bool {
	return it.Description == "" && !it.hasNumeric()
}

// Rows whose leading text starts with one of these markers end the item
// block: everything below is subtotals and footer noise.
var stopMarkers = []string{
	"grand total",
	"sub total",
	"subtotal",
	"total",
	"b/f",
	"brought forward",
	"c/f",
	"carried forward",
	"continued",
}

// Short "division code - name" label occupying a row of its own.
var groupHeaderPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}\s*[-–]\s*\S.*$`)

// Reconstructor merges the per-column sub-lines of physical spreadsheet
// rows into logical item records. It keeps at most one pending item and
// accumulates into it until a differing serial number or a flush.
type Reconstructor struct {
	cols    *ColumnMap
	pending *RawItem
	group   string // remembered group-header label, prefixed onto following descriptions
	done    bool
	items   []RawItem
}

func NewReconstructor(cols *ColumnMap) *Reconstructor {
	return &Reconstructor{cols: cols}
}

// Done reports whether a stop row ended reconstruction for the sheet.
func (r *Reconstructor) Done() bool {
	return r.done
}

// Finish flushes the pending item and returns everything reconstructed.
func (r *Reconstructor) Finish() []RawItem {
	r.flush()
	return r.items
}

func (r *Reconstructor) flush() {
	if r.pending != nil && !r.pending.isEmpty() {
		r.items = append(r.items, *r.pending)
	}
	r.pending = nil
}

// ProcessRow consumes one physical row of the sheet body.
func (r *Reconstructor) ProcessRow(row []string) {
	if r.done {
		return
	}
	if r.isStopRow(row) {
		r.flush()
		r.done = true
		return
	}

	c := r.cols
	serials := SplitCellLines(cellAt(row, c.Serial))
	descs := SplitCellLines(cellAt(row, c.Description))
	hsns := SplitCellLines(cellAt(row, c.HSN))
	mfrs := SplitCellLines(cellAt(row, c.MfrCode))
	cats := SplitCellLines(cellAt(row, c.Category))
	uoms := SplitCellLines(cellAt(row, c.UOM))
	batches := SplitCellLines(cellAt(row, c.Batch))
	expiries := SplitCellLines(cellAt(row, c.Expiry))
	boxes := SplitCellLines(cellAt(row, c.Box))

	// The logical line count is driven only by identifying columns.
	// Description and box-count sub-lines never multiply items: a single
	// item's description or packing note may wrap freely.
	n := maxLen(serials, hsns, mfrs, cats, uoms, batches, expiries)

	rawLine := joinRow(row)

	if n == 0 {
		if r.isGroupHeader(row, descs, hsns) {
			r.group = descs[0]
			return
		}
		if r.pending == nil {
			return
		}
		// Continuation row: description wraps, or numbers arrive late.
		if len(descs) > 0 {
			r.pending.Description = joinText(r.pending.Description, strings.Join(descs, " "))
		}
		if len(boxes) > 0 && r.pending.BoxText == "" {
			r.pending.BoxText = strings.Join(boxes, " ")
		}
		r.mergeNumeric(r.pending, row, 0)
		r.pending.Raw = append(r.pending.Raw, rawLine)
		return
	}

	uoms = redistribute(uoms, n)
	batches = redistribute(batches, n)
	descParts := distributeText(descs, n)

	for i := 0; i < n; i++ {
		serial := at(serials, i)
		if r.pending != nil && (i > 0 || r.differingSerial(serial)) {
			r.flush()
		}
		if r.pending == nil {
			r.pending = &RawItem{}
		}
		p := r.pending

		if serial != "" && p.Serial == "" {
			p.Serial = serial
		}
		setIfEmpty(&p.HSN, at(hsns, i))
		setIfEmpty(&p.MfrCode, at(mfrs, i))
		setIfEmpty(&p.Category, at(cats, i))
		setIfEmpty(&p.UOM, at(uoms, i))
		setIfEmpty(&p.BatchNo, at(batches, i))
		setIfEmpty(&p.ExpiryText, at(expiries, i))
		setIfEmpty(&p.BoxText, at(boxes, i))

		if d := at(descParts, i); d != "" {
			if p.Description == "" && r.group != "" {
				d = r.group + " " + d
			}
			p.Description = joinText(p.Description, d)
		}

		r.mergeNumeric(p, row, i)
		p.Raw = append(p.Raw, rawLine)
	}
}

func (r *Reconstructor) differingSerial(serial string) bool {
	return serial != "" && r.pending.Serial != "" && serial != r.pending.Serial
}

// mergeNumeric copies the i-th sub-line of every numeric column into the
// pending item, never overwriting a value that already arrived.
func (r *Reconstructor) mergeNumeric(p *RawItem, row []string, i int) {
	c := r.cols
	merge := func(dst *string, col int) {
		if *dst != "" || col == noCol {
			return
		}
		*dst = at(SplitCellLines(cellAt(row, col)), i)
	}
	merge(&p.QtyText, c.Qty)
	merge(&p.PriceText, c.PricePerUnit)
	merge(&p.TradeText, c.TradePrice)
	merge(&p.MRPText, c.MRP)
	merge(&p.GrossText, c.Gross)
	merge(&p.DiscPctText, c.DiscountPct)
	merge(&p.DiscValText, c.DiscountValue)
	merge(&p.TaxableText, c.Taxable)
	merge(&p.CGSTRateText, c.CGSTRate)
	merge(&p.CGSTAmtText, c.CGSTAmount)
	merge(&p.SGSTRateText, c.SGSTRate)
	merge(&p.SGSTAmtText, c.SGSTAmount)
	merge(&p.IGSTRateText, c.IGSTRate)
	merge(&p.IGSTAmtText, c.IGSTAmount)
	merge(&p.TotalText, c.Total)
}

// isStopRow reports whether the row is a subtotal/footer marker. An item
// row always carries an HSN value, so any stop-marker text on an
// HSN-less row terminates the block.
func (r *Reconstructor) isStopRow(row []string) bool {
	if strings.TrimSpace(cellAt(row, r.cols.HSN)) != "" {
		return false
	}
	for _, cell := range row {
		norm := strings.ToLower(strings.TrimSpace(cell))
		if norm == "" {
			continue
		}
		for _, marker := range stopMarkers {
			if strings.HasPrefix(norm, marker) {
				return true
			}
		}
	}
	return false
}

// isGroupHeader recognizes a standalone "division code - name" label:
// one description sub-line, no HSN, no numeric data.
func (r *Reconstructor) isGroupHeader(row []string, descs, hsns []string) bool {
	if len(descs) != 1 || len(hsns) != 0 {
		return false
	}
	if len(descs[0]) > 40 || !groupHeaderPattern.MatchString(descs[0]) {
		return false
	}
	c := r.cols
	for _, col := range []int{c.Qty, c.PricePerUnit, c.Gross, c.Taxable, c.Total} {
		if strings.TrimSpace(cellAt(row, col)) != "" {
			return false
		}
	}
	return true
}

// --- small helpers ---

func maxLen(lists ...[]string) int {
	n := 0
	for _, l := range lists {
		if len(l) > n {
			n = len(l)
		}
	}
	return n
}

func at(lines []string, i int) string {
	if i < 0 || i >= len(lines) {
		return ""
	}
	return lines[i]
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// redistribute hands out one whitespace token per logical line when a
// support column's sub-line count disagrees with the logical count but
// its token count matches.
func redistribute(lines []string, n int) []string {
	if len(lines) == n {
		return lines
	}
	if toks := whitespaceTokens(lines); len(toks) == n {
		return toks
	}
	return lines
}

// distributeText assigns description sub-lines to logical lines: for a
// single logical line everything concatenates; for several, surplus
// sub-lines fold into the last line.
func distributeText(lines []string, n int) []string {
	if n <= 1 {
		if len(lines) == 0 {
			return nil
		}
		return []string{strings.Join(lines, " ")}
	}
	if len(lines) <= n {
		return lines
	}
	out := make([]string, n)
	copy(out, lines[:n-1])
	out[n-1] = strings.Join(lines[n-1:], " ")
	return out
}

func joinRow(row []string) string {
	parts := make([]string, 0, len(row))
	for _, cell := range row {
		cell = strings.TrimSpace(cellLineReplacer.Replace(cell))
		if cell != "" {
			parts = append(parts, strings.Join(strings.Fields(cell), " "))
		}
	}
	return strings.Join(parts, " | ")
}
