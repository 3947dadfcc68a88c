package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var nonNumericChars = regexp.MustCompile(`[^0-9.+-]`)

// ParseDecimal converts raw cell text into a decimal. Thousands
// separators and any character outside digits/sign/decimal point are
// stripped first; an empty or sign-only result normalizes to zero.
// Supplier sheets routinely carry stray characters in numeric cells, so
// this never returns an error.
func ParseDecimal(raw string) decimal.Decimal {
	cleaned := nonNumericChars.ReplaceAllString(strings.TrimSpace(raw), "")
	switch cleaned {
	case "", "-", "+", ".", "-.", "+.":
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Date formats seen across supplier sheets, tried in order.
var dateFormats = []string{
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2/1/2006",
	"02-01-06",
	"02/01/06",
	"2006-01-02",
	"02.01.2006",
	"02 Jan 2006",
	"02-Jan-2006",
}

// Month/year-only formats used by expiry columns.
var monthYearFormats = []string{
	"01/2006",
	"1/2006",
	"01-2006",
	"1-2006",
	"01/06",
	"Jan-06",
	"Jan-2006",
	"Jan 2006",
}

// ParseDate attempts the explicit day-month-year formats in order.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseExpiry parses expiry text, accepting full dates and the
// month/year-only variants expiry columns use. Unparsable text
// normalizes to the processing date — a conservative placeholder, not a
// fabricated expiry.
func ParseExpiry(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if t, ok := ParseDate(raw); ok {
		return t
	}
	for _, layout := range monthYearFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}
