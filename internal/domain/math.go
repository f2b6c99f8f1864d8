package domain

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	// QuantityPrecision is the number of decimal places kept for unit counts.
	QuantityPrecision = 3
	// ValuePrecision is the number of decimal places kept for cash amounts.
	ValuePrecision = 2
	// PricePrecision is the number of decimal places kept for derived unit prices.
	PricePrecision = 4
)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeAccounting converts accounting notation to a plain decimal literal.
// "(1,234.56)" → "-1234.56", "1,234.56" → "1234.56"
func NormalizeAccounting(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(s[1:len(s)-1])
	}
	return s
}

// ParseAccounting parses an accounting-notation number.
func ParseAccounting(s string) (decimal.Decimal, error) {
	normalized := NormalizeAccounting(s)
	if normalized == "" || normalized == "-" {
		return decimal.Zero, fmt.Errorf("empty number %q", s)
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}

// DivideOrZero returns a/b rounded to places, or zero when b is zero.
func DivideOrZero(a, b decimal.Decimal, places int32) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, places)
}

// StripSpaces removes every whitespace rune from s.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
