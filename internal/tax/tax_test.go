package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeSameState(t *testing.T) {
	split := Compute(d("1000"), d("18"), true)

	assert.True(t, split.CGSTRate.Equal(d("9")), "cgst rate = %s", split.CGSTRate)
	assert.True(t, split.SGSTRate.Equal(d("9")), "sgst rate = %s", split.SGSTRate)
	assert.True(t, split.CGSTAmount.Equal(d("90")), "cgst amount = %s", split.CGSTAmount)
	assert.True(t, split.SGSTAmount.Equal(d("90")), "sgst amount = %s", split.SGSTAmount)
	assert.True(t, split.IGSTAmount.IsZero())

	assert.True(t, split.TaxTotal().Equal(d("180")))
	assert.True(t, split.Net(d("1000")).Equal(d("1180")))
}

func TestComputeCrossState(t *testing.T) {
	split := Compute(d("1000"), d("18"), false)

	assert.True(t, split.CGSTAmount.IsZero())
	assert.True(t, split.SGSTAmount.IsZero())
	assert.True(t, split.IGSTRate.Equal(d("18")))
	assert.True(t, split.IGSTAmount.Equal(d("180")))
	assert.True(t, split.Net(d("1000")).Equal(d("1180")))
}

func TestComputeHalvesRoundIndependently(t *testing.T) {
	// 12% of 100.10 = 12.012; each 6% half is 6.006 and rounds to 6.01 on its own
	split := Compute(d("100.10"), d("12"), true)

	assert.True(t, split.CGSTAmount.Equal(d("6.01")), "cgst amount = %s", split.CGSTAmount)
	assert.True(t, split.SGSTAmount.Equal(d("6.01")), "sgst amount = %s", split.SGSTAmount)
}

func TestComputeZeroRate(t *testing.T) {
	split := Compute(d("500"), decimal.Zero, true)

	assert.True(t, split.TaxTotal().IsZero())
	assert.True(t, split.Net(d("500")).Equal(d("500")))
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		base      string
		rate      string
		want      string
	}{
		{"trusted when plausible", "90", "1000", "9", "90"},
		{"amount repeats base", "1000", "1000", "9", "90"},
		{"zero amount with positive rate", "0", "1000", "9", "90"},
		{"zero rate keeps zero amount", "0", "1000", "0", "0"},
		{"zero base trusts extracted", "5", "0", "9", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(d(tt.extracted), d(tt.base), d(tt.rate))
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}
