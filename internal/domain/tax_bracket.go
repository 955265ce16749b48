package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrMalformedBrackets is wrapped by every error ValidateBrackets returns.
var ErrMalformedBrackets = errors.New("malformed tax bracket table")

// TaxBracket is one row of an IRS tax rate schedule for a tax year and filing
// status. An income falls in the bracket when MinIncome < income <= MaxIncome.
// A nil MaxIncome marks the unbounded top bracket.
type TaxBracket struct {
	TaxYear        int              `yaml:"tax_year" json:"tax_year"`
	FilingStatusID int              `yaml:"filing_status_id" json:"filing_status_id"`
	MinIncome      decimal.Decimal  `yaml:"min_income" json:"min_income"`
	MaxIncome      *decimal.Decimal `yaml:"max_income,omitempty" json:"max_income,omitempty"`
	TaxRate        decimal.Decimal  `yaml:"tax_rate" json:"tax_rate"`
	BaseTax        decimal.Decimal  `yaml:"base_tax" json:"base_tax"`
}

// Contains reports whether income falls in the bracket.
func (b TaxBracket) Contains(income decimal.Decimal) bool {
	if !income.GreaterThan(b.MinIncome) {
		return false
	}
	return b.MaxIncome == nil || income.LessThanOrEqual(*b.MaxIncome)
}

// IsTop reports whether the bracket has no upper bound.
func (b TaxBracket) IsTop() bool { return b.MaxIncome == nil }

// SortBrackets orders brackets by ascending MinIncome in place.
func SortBrackets(brackets []TaxBracket) {
	sort.SliceStable(brackets, func(i, j int) bool {
		return brackets[i].MinIncome.LessThan(brackets[j].MinIncome)
	})
}

// ValidateBrackets checks that an ordered bracket table for one year and
// filing status partitions [0, ∞): the first bracket starts at zero, each
// bracket starts where the previous one ends, rates lie in [0,1], and exactly
// one bracket (the last) is unbounded.
func ValidateBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: no brackets", ErrMalformedBrackets)
	}
	if !brackets[0].MinIncome.IsZero() {
		return fmt.Errorf("%w: first bracket starts at %s, want 0", ErrMalformedBrackets, brackets[0].MinIncome)
	}

	year, status := brackets[0].TaxYear, brackets[0].FilingStatusID
	one := decimal.NewFromInt(1)
	for i, b := range brackets {
		if b.TaxYear != year || b.FilingStatusID != status {
			return fmt.Errorf("%w: bracket %d belongs to year %d status %d, want year %d status %d",
				ErrMalformedBrackets, i, b.TaxYear, b.FilingStatusID, year, status)
		}
		if b.TaxRate.IsNegative() || b.TaxRate.GreaterThan(one) {
			return fmt.Errorf("%w: bracket %d rate %s outside [0, 1]", ErrMalformedBrackets, i, b.TaxRate)
		}
		if b.BaseTax.IsNegative() {
			return fmt.Errorf("%w: bracket %d has negative base tax %s", ErrMalformedBrackets, i, b.BaseTax)
		}
		last := i == len(brackets)-1
		if b.MaxIncome == nil {
			if !last {
				return fmt.Errorf("%w: unbounded bracket %d is not last", ErrMalformedBrackets, i)
			}
			continue
		}
		if last {
			return fmt.Errorf("%w: top bracket has upper bound %s", ErrMalformedBrackets, b.MaxIncome)
		}
		if !b.MaxIncome.GreaterThan(b.MinIncome) {
			return fmt.Errorf("%w: bracket %d upper bound %s not above lower bound %s",
				ErrMalformedBrackets, i, b.MaxIncome, b.MinIncome)
		}
		if next := brackets[i+1].MinIncome; !next.Equal(*b.MaxIncome) {
			return fmt.Errorf("%w: gap or overlap between %s and %s", ErrMalformedBrackets, b.MaxIncome, next)
		}
	}
	return nil
}
