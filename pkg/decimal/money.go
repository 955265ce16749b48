package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CentPlaces is the number of decimal places every worksheet line is rounded to.
const CentPlaces = 2

// RoundHalfUp rounds a value to cents. A value exactly halfway between two
// cents moves away from zero, so 123.455 becomes 123.46 and -123.455 becomes -123.46.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// Max returns the larger of two values.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of two values.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Money represents a monetary amount with proper financial precision
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal creates a new Money instance from a decimal.Decimal
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// NewMoneyFromString creates a new Money instance from a string. Currency
// symbols and thousands separators are accepted, so "$1,234.50" parses.
func NewMoneyFromString(value string) (Money, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	if cleaned == "" {
		return Money{decimal.Zero}, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// Round rounds the money amount to cents, ties away from zero
func (m Money) Round() Money {
	return Money{RoundHalfUp(m.Decimal)}
}

// String returns the amount with exactly two decimals
func (m Money) String() string {
	return m.Decimal.StringFixed(CentPlaces)
}

// Format renders the amount as US currency with thousands separators,
// e.g. "$12,345.60" or "-$5.00".
func (m Money) Format() string {
	s := m.Decimal.Abs().StringFixed(CentPlaces)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if m.Decimal.IsNegative() && !m.Round().IsZero() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}
