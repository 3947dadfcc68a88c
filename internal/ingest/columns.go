package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// noCol marks a logical field with no resolved column.
const noCol = -1

// ErrHeaderNotFound is returned when no row of the sheet qualifies as a
// header row. The operator must fix the source file; nothing is staged.
var ErrHeaderNotFound = errors.New("no header row found: the sheet needs product description and HSN code headings")

// MappingError reports structurally required columns that could not be
// resolved by header text or positional fallback.
type MappingError struct {
	Missing []string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot map required columns: %s", strings.Join(e.Missing, ", "))
}

// ColumnMap maps each logical invoice field to a concrete column index
// of the sheet's used range. Unresolved fields hold -1.
type ColumnMap struct {
	HeaderRow int

	Serial      int
	MfrCode     int
	Category    int
	Description int
	HSN         int
	UOM         int
	Batch       int
	Expiry      int
	Box         int

	Qty           int
	PricePerUnit  int
	TradePrice    int
	MRP           int
	Gross         int
	DiscountPct   int
	DiscountValue int
	Taxable       int
	CGSTRate      int
	CGSTAmount    int
	SGSTRate      int
	SGSTAmount    int
	IGSTRate      int
	IGSTAmount    int
	Total         int

	// NeedsReview is set when a value column had to be resolved by the
	// last-resort positional grab instead of header text. Batches from
	// such sheets are flagged for manual review, never silently trusted.
	NeedsReview bool
}

// columnRule is one (predicate, field) entry of the priority-ordered
// header-matching table. afterHSN restricts value rules to columns right
// of the HSN anchor so body text left of the item block can't claim them.
type columnRule struct {
	name     string
	sel      func(*ColumnMap) *int
	match    func(string) bool
	afterHSN bool
}

func hasAll(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if !strings.Contains(s, w) {
				return false
			}
		}
		return true
	}
}

func hasAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

// Evaluated top to bottom per column; the first matching rule whose
// field is still unclaimed wins. Order matters: specific wordings sit
// above the generic ones they overlap with ("total qty" above "qty",
// the tax amount rules above the bare "amount" total rule).
var columnRules = []columnRule{
	{"qty", func(m *ColumnMap) *int { return &m.Qty }, hasAny("total qty", "total quantity"), true},
	{"price_per_unit", func(m *ColumnMap) *int { return &m.PricePerUnit }, hasAll("price", "unit"), true},
	{"trade_price", func(m *ColumnMap) *int { return &m.TradePrice }, hasAny("trade price", "ptr"), true},
	{"mrp", func(m *ColumnMap) *int { return &m.MRP }, hasAny("mrp"), true},
	{"cgst_rate", func(m *ColumnMap) *int { return &m.CGSTRate }, hasAll("cgst", "rate"), true},
	{"cgst_rate", func(m *ColumnMap) *int { return &m.CGSTRate }, hasAll("cgst", "%"), true},
	{"cgst_amount", func(m *ColumnMap) *int { return &m.CGSTAmount }, hasAll("cgst", "amt"), true},
	{"cgst_amount", func(m *ColumnMap) *int { return &m.CGSTAmount }, hasAll("cgst", "amount"), true},
	{"sgst_rate", func(m *ColumnMap) *int { return &m.SGSTRate }, hasAll("sgst", "rate"), true},
	{"sgst_rate", func(m *ColumnMap) *int { return &m.SGSTRate }, hasAll("sgst", "%"), true},
	{"sgst_amount", func(m *ColumnMap) *int { return &m.SGSTAmount }, hasAll("sgst", "amt"), true},
	{"sgst_amount", func(m *ColumnMap) *int { return &m.SGSTAmount }, hasAll("sgst", "amount"), true},
	{"igst_rate", func(m *ColumnMap) *int { return &m.IGSTRate }, hasAll("igst", "rate"), true},
	{"igst_rate", func(m *ColumnMap) *int { return &m.IGSTRate }, hasAll("igst", "%"), true},
	{"igst_amount", func(m *ColumnMap) *int { return &m.IGSTAmount }, hasAll("igst", "amt"), true},
	{"igst_amount", func(m *ColumnMap) *int { return &m.IGSTAmount }, hasAll("igst", "amount"), true},
	{"taxable", func(m *ColumnMap) *int { return &m.Taxable }, hasAny("taxable"), true},
	{"discount_pct", func(m *ColumnMap) *int { return &m.DiscountPct }, hasAll("disc", "%"), true},
	{"discount_value", func(m *ColumnMap) *int { return &m.DiscountValue }, hasAny("discount", "disc"), true},
	{"gross", func(m *ColumnMap) *int { return &m.Gross }, hasAny("gross"), true},
	{"batch", func(m *ColumnMap) *int { return &m.Batch }, hasAny("batch", "lot no"), true},
	{"expiry", func(m *ColumnMap) *int { return &m.Expiry }, hasAny("exp"), true},
	{"box", func(m *ColumnMap) *int { return &m.Box }, hasAny("box", "case"), true},
	{"uom", func(m *ColumnMap) *int { return &m.UOM }, hasAny("uom", "pack", "unit"), true},
	{"qty", func(m *ColumnMap) *int { return &m.Qty }, hasAny("qty", "quantity"), true},
	{"serial", func(m *ColumnMap) *int { return &m.Serial }, hasAny("sno", "s no", "sr no", "sl no", "serial"), false},
	{"mfr_code", func(m *ColumnMap) *int { return &m.MfrCode }, hasAny("mfr", "mfg", "manufacturer", "company"), false},
	{"category", func(m *ColumnMap) *int { return &m.Category }, hasAny("category", "division"), false},
	{"total", func(m *ColumnMap) *int { return &m.Total }, hasAny("net amount", "net amt", "net value", "total amount", "amount", "total"), true},
}

func normalizeHeader(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), " ")
}

func matchesDescription(norm string) bool {
	return hasAny("description", "particulars", "product name", "item name")(norm)
}

func matchesHSN(norm string) bool {
	return strings.Contains(norm, "hsn")
}

// headerTextAt concatenates the normalized header text of one column
// across the header row and the rows immediately above and below it, so
// two-line headers ("Total / Qty") still match single rules.
func headerTextAt(grid [][]string, headerRow, col int) string {
	parts := make([]string, 0, 3)
	for r := headerRow - 1; r <= headerRow+1; r++ {
		if r < 0 || r >= len(grid) {
			continue
		}
		if t := normalizeHeader(cellAt(grid[r], col)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func findHeaderRow(grid [][]string) int {
	for i, row := range grid {
		hasDesc, hasHSN := false, false
		for _, cell := range row {
			norm := normalizeHeader(cell)
			if norm == "" {
				continue
			}
			if matchesDescription(norm) {
				hasDesc = true
			}
			if matchesHSN(norm) {
				hasHSN = true
			}
		}
		if hasDesc && hasHSN {
			return i
		}
	}
	return noCol
}

func gridWidth(grid [][]string) int {
	w := 0
	for _, row := range grid {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// MapColumns locates the header row and resolves every logical field to
// a column index.
//
// Precedence, applied in this order and documented here once:
//  1. header-text rules over the header row +-1, priority ordered;
//  2. the taxable-offset re-derivation of the rate/amount/rate/amount/
//     total block, which corrects inconsistent tax-column wording;
//  3. positional fallbacks — structural columns relative to the
//     description/HSN anchors, then the last-resort numeric grab after
//     the box column, which flags the sheet for review.
//
// A field resolved by an earlier stage is never overwritten by a later
// one, except that stage 2 deliberately re-derives the five tax-block
// fields when the shape after the taxable column matches.
func MapColumns(grid [][]string) (*ColumnMap, error) {
	hr := findHeaderRow(grid)
	if hr == noCol {
		return nil, ErrHeaderNotFound
	}

	cm := &ColumnMap{
		HeaderRow: hr,
		Serial:    noCol, MfrCode: noCol, Category: noCol, Description: noCol,
		HSN: noCol, UOM: noCol, Batch: noCol, Expiry: noCol, Box: noCol,
		Qty: noCol, PricePerUnit: noCol, TradePrice: noCol, MRP: noCol,
		Gross: noCol, DiscountPct: noCol, DiscountValue: noCol, Taxable: noCol,
		CGSTRate: noCol, CGSTAmount: noCol, SGSTRate: noCol, SGSTAmount: noCol,
		IGSTRate: noCol, IGSTAmount: noCol, Total: noCol,
	}

	// Anchors come from the header row itself, not the neighbor rows.
	for j, cell := range grid[hr] {
		norm := normalizeHeader(cell)
		if cm.Description == noCol && matchesDescription(norm) {
			cm.Description = j
		}
		if cm.HSN == noCol && matchesHSN(norm) {
			cm.HSN = j
		}
	}
	if cm.Description == noCol || cm.HSN == noCol {
		return nil, ErrHeaderNotFound
	}

	width := gridWidth(grid)
	claimed := map[int]bool{cm.Description: true, cm.HSN: true}

	for j := 0; j < width; j++ {
		if claimed[j] {
			continue
		}
		text := headerTextAt(grid, hr, j)
		if text == "" {
			continue
		}
		for _, rule := range columnRules {
			if rule.afterHSN && j <= cm.HSN {
				continue
			}
			if *rule.sel(cm) != noCol || !rule.match(text) {
				continue
			}
			*rule.sel(cm) = j
			claimed[j] = true
			break
		}
	}

	// Secondary pass: when the five columns after the taxable value look
	// like rate/amount/rate/amount/total, trust that shape for the tax
	// block regardless of how the individual headers were worded.
	if t := cm.Taxable; t != noCol && t+5 < width {
		looksRate := hasAny("rate", "%")
		looksAmount := hasAny("amt", "amount")
		looksTotal := hasAny("total", "net", "amount")
		h := func(off int) string { return headerTextAt(grid, hr, t+off) }
		if looksRate(h(1)) && looksAmount(h(2)) && looksRate(h(3)) && looksAmount(h(4)) && looksTotal(h(5)) {
			cm.CGSTRate, cm.CGSTAmount = t+1, t+2
			cm.SGSTRate, cm.SGSTAmount = t+3, t+4
			cm.Total = t+5
			for off := 1; off <= 5; off++ {
				claimed[t+off] = true
			}
		}
	}

	// Structural columns fall back to fixed offsets from the anchors.
	fallback := func(sel *int, idx int) {
		if *sel == noCol && idx >= 0 && idx < width && !claimed[idx] {
			*sel = idx
			claimed[idx] = true
		}
	}
	fallback(&cm.Serial, cm.Description-2)
	fallback(&cm.MfrCode, cm.Description-1)
	fallback(&cm.Category, cm.HSN+1)
	fallback(&cm.UOM, cm.HSN+2)
	fallback(&cm.Batch, cm.HSN+3)
	fallback(&cm.Expiry, cm.HSN+4)

	// Last-resort numeric grab after the box column. Positional guesses
	// are never silently trusted: the whole batch gets flagged.
	grab := func(sel *int, idx int) {
		if *sel == noCol && idx >= 0 && idx < width && !claimed[idx] {
			*sel = idx
			claimed[idx] = true
			cm.NeedsReview = true
		}
	}
	if cm.Box != noCol {
		grab(&cm.Qty, cm.Box+1)
	}
	if cm.Qty != noCol {
		grab(&cm.PricePerUnit, cm.Qty+1)
	}
	if cm.PricePerUnit != noCol {
		grab(&cm.Gross, cm.PricePerUnit+1)
	}

	var missing []string
	if cm.Description == noCol {
		missing = append(missing, "product description")
	}
	if cm.HSN == noCol {
		missing = append(missing, "hsn code")
	}
	if cm.Box == noCol {
		missing = append(missing, "box count")
	}
	if len(missing) > 0 {
		return nil, &MappingError{Missing: missing}
	}

	return cm, nil
}
