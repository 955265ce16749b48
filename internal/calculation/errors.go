package calculation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoTaxBrackets is returned when the estimated tax worksheet is given
	// an empty rate schedule.
	ErrNoTaxBrackets = errors.New("no tax brackets available")

	ErrInvalidNetEarningsFactor  = errors.New("net earnings factor must be greater than 0 and at most 1")
	ErrInvalidSocialSecurityRate = errors.New("social security tax rate must be between 0 and 1")
	ErrInvalidMedicareRate       = errors.New("medicare tax rate must be between 0 and 1")
	ErrInvalidDeductionFactor    = errors.New("deduction factor must be between 0 and 1")
	ErrInvalidSSWageMax          = errors.New("social security wage maximum must be positive")
	ErrInvalidMinSEThreshold     = errors.New("minimum SE threshold must be non-negative")
)

// NoMatchingBracketError reports a positive taxable income that no bracket
// covers, which only happens with a malformed table.
type NoMatchingBracketError struct {
	TaxableIncome decimal.Decimal
}

func (e *NoMatchingBracketError) Error() string {
	return fmt.Sprintf("no tax bracket found for taxable income %s", e.TaxableIncome.StringFixed(2))
}

// ConfigError names the SE worksheet configuration field that failed
// validation. It unwraps to one of the ErrInvalid* sentinels.
type ConfigError struct {
	Field string
	Value decimal.Decimal
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v, got %s", e.Field, e.Err, e.Value)
}

func (e *ConfigError) Unwrap() error { return e.Err }
