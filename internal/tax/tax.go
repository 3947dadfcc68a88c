package tax

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Split holds the per-component GST breakdown of one line.
// Intra-state supplies carry CGST+SGST, inter-state supplies carry IGST.
type Split struct {
	CGSTRate   decimal.Decimal `json:"cgst_rate"`
	CGSTAmount decimal.Decimal `json:"cgst_amount"`
	SGSTRate   decimal.Decimal `json:"sgst_rate"`
	SGSTAmount decimal.Decimal `json:"sgst_amount"`
	IGSTRate   decimal.Decimal `json:"igst_rate"`
	IGSTAmount decimal.Decimal `json:"igst_amount"`
}

// Compute applies the total GST rate (as a percentage, e.g. 18) to a
// taxable base. Same-state supplies split the rate into two equal half
// components, each rounded to 2 decimal places independently; cross-state
// supplies apply the full rate as a single IGST component.
func Compute(base, ratePct decimal.Decimal, sameState bool) Split {
	var s Split
	if sameState {
		half := ratePct.Div(decimal.NewFromInt(2))
		s.CGSTRate = half
		s.SGSTRate = half
		s.CGSTAmount = base.Mul(half).Div(hundred).Round(2)
		s.SGSTAmount = base.Mul(half).Div(hundred).Round(2)
		return s
	}
	s.IGSTRate = ratePct
	s.IGSTAmount = base.Mul(ratePct).Div(hundred).Round(2)
	return s
}

// TaxTotal is the sum of all tax components.
func (s Split) TaxTotal() decimal.Decimal {
	return s.CGSTAmount.Add(s.SGSTAmount).Add(s.IGSTAmount)
}

// Net is the line total: taxable base plus all tax components.
func (s Split) Net(base decimal.Decimal) decimal.Decimal {
	return base.Add(s.TaxTotal())
}

// Reconcile sanity-checks a tax amount extracted from a sheet against
// rate x base. Two known sheet artifacts are corrected: the amount cell
// repeating the taxable value, and a zero amount next to a positive rate
// and base. In both cases the amount is recomputed instead of trusted.
func Reconcile(extracted, base, ratePct decimal.Decimal) decimal.Decimal {
	if base.IsPositive() && extracted.Equal(base) {
		return base.Mul(ratePct).Div(hundred).Round(2)
	}
	if extracted.IsZero() && base.IsPositive() && ratePct.IsPositive() {
		return base.Mul(ratePct).Div(hundred).Round(2)
	}
	return extracted
}
