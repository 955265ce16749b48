package calculation

import (
	"github.com/rpgo/estimated-tax/internal/domain"
	money "github.com/rpgo/estimated-tax/pkg/decimal"
	"github.com/shopspring/decimal"
)

var (
	// Safe-harbor fractions of the current year's tax.
	currentYearRate       = decimal.RequireFromString("0.90")
	farmerFisherNumerator = decimal.NewFromInt(2)
	farmerFisherDivisor   = decimal.NewFromInt(3)
)

// EstimatedTaxWorksheetInput holds the taxpayer's expected amounts for the year.
type EstimatedTaxWorksheetInput struct {
	AdjustedGrossIncome      decimal.Decimal `yaml:"adjusted_gross_income" json:"adjusted_gross_income"`
	ItemizedDeduction        decimal.Decimal `yaml:"itemized_deduction" json:"itemized_deduction"`
	StandardDeduction        decimal.Decimal `yaml:"standard_deduction" json:"standard_deduction"`
	QBIDeduction             decimal.Decimal `yaml:"qbi_deduction" json:"qbi_deduction"`
	AlternativeMinimumTax    decimal.Decimal `yaml:"alternative_minimum_tax" json:"alternative_minimum_tax"`
	Credits                  decimal.Decimal `yaml:"credits" json:"credits"`
	SelfEmploymentTax        decimal.Decimal `yaml:"self_employment_tax" json:"self_employment_tax"`
	OtherTaxes               decimal.Decimal `yaml:"other_taxes" json:"other_taxes"`
	RefundableCredits        decimal.Decimal `yaml:"refundable_credits" json:"refundable_credits"`
	PriorYearTax             decimal.Decimal `yaml:"prior_year_tax" json:"prior_year_tax"`
	Withholding              decimal.Decimal `yaml:"withholding" json:"withholding"`
	IsFarmerOrFisher         bool            `yaml:"is_farmer_or_fisher" json:"is_farmer_or_fisher"`
	RequiredPaymentThreshold decimal.Decimal `yaml:"required_payment_threshold" json:"required_payment_threshold"`
}

// EstimatedTaxWorksheetResult holds the computed worksheet lines.
type EstimatedTaxWorksheetResult struct {
	TotalDeductions           decimal.Decimal `yaml:"total_deductions" json:"total_deductions"`
	TaxableIncome             decimal.Decimal `yaml:"taxable_income" json:"taxable_income"`
	CalculatedTax             decimal.Decimal `yaml:"calculated_tax" json:"calculated_tax"`
	TaxBeforeCredits          decimal.Decimal `yaml:"tax_before_credits" json:"tax_before_credits"`
	TaxAfterCredits           decimal.Decimal `yaml:"tax_after_credits" json:"tax_after_credits"`
	TotalTax                  decimal.Decimal `yaml:"total_tax" json:"total_tax"`
	TotalEstimatedTax         decimal.Decimal `yaml:"total_estimated_tax" json:"total_estimated_tax"`
	CurrentYearRequirement    decimal.Decimal `yaml:"current_year_requirement" json:"current_year_requirement"`
	RequiredAnnualPayment     decimal.Decimal `yaml:"required_annual_payment" json:"required_annual_payment"`
	Underpayment              decimal.Decimal `yaml:"underpayment" json:"underpayment"`
	ThresholdAmount           decimal.Decimal `yaml:"threshold_amount" json:"threshold_amount"`
	UsedItemizedDeduction     bool            `yaml:"used_itemized_deduction" json:"used_itemized_deduction"`
	EstimatedPaymentsRequired bool            `yaml:"estimated_payments_required" json:"estimated_payments_required"`
}

// EstimatedTaxWorksheet computes the Form 1040-ES estimated tax worksheet
// against one rate schedule.
type EstimatedTaxWorksheet struct {
	brackets []domain.TaxBracket
	logger   Logger
}

// NewEstimatedTaxWorksheet creates a worksheet over brackets ordered by
// ascending MinIncome. The slice is used as given and must not be modified
// while the worksheet is in use.
func NewEstimatedTaxWorksheet(brackets []domain.TaxBracket) *EstimatedTaxWorksheet {
	return &EstimatedTaxWorksheet{brackets: brackets, logger: NopLogger{}}
}

// SetLogger sets the logger. If nil is provided, a no-op logger is used.
func (w *EstimatedTaxWorksheet) SetLogger(l Logger) {
	w.logger = loggerOrNop(l)
}

// Calculate runs the worksheet from deductions through the required payment.
func (w *EstimatedTaxWorksheet) Calculate(in EstimatedTaxWorksheetInput) (*EstimatedTaxWorksheetResult, error) {
	if len(w.brackets) == 0 {
		return nil, ErrNoTaxBrackets
	}

	deduction, usedItemized := w.deduction(in)
	totalDeductions := money.RoundHalfUp(deduction.Add(in.QBIDeduction))
	taxable := money.Max(money.RoundHalfUp(in.AdjustedGrossIncome.Sub(totalDeductions)), decimal.Zero)

	tax, err := w.CalculateTax(taxable)
	if err != nil {
		return nil, err
	}

	beforeCredits := money.RoundHalfUp(tax.Add(in.AlternativeMinimumTax))
	afterCredits := money.Max(money.RoundHalfUp(beforeCredits.Sub(in.Credits)), decimal.Zero)
	totalTax := money.RoundHalfUp(afterCredits.Add(in.SelfEmploymentTax).Add(in.OtherTaxes))
	totalEstimated := money.Max(money.RoundHalfUp(totalTax.Sub(in.RefundableCredits)), decimal.Zero)

	currentYear := currentYearRequirement(totalEstimated, in.IsFarmerOrFisher)
	required := money.Min(currentYear, in.PriorYearTax)

	underpayment := money.Max(money.RoundHalfUp(required.Sub(in.Withholding)), decimal.Zero)
	thresholdAmount := money.Max(money.RoundHalfUp(totalEstimated.Sub(in.Withholding)), decimal.Zero)
	paymentsRequired := underpayment.IsPositive() && thresholdAmount.GreaterThanOrEqual(in.RequiredPaymentThreshold)

	w.logger.Debugf("estimated tax: taxable=%s tax=%s total=%s required=%s underpayment=%s payments_required=%t",
		taxable.StringFixed(2), tax.StringFixed(2), totalEstimated.StringFixed(2),
		required.StringFixed(2), underpayment.StringFixed(2), paymentsRequired)

	return &EstimatedTaxWorksheetResult{
		TotalDeductions:           totalDeductions,
		TaxableIncome:             taxable,
		CalculatedTax:             tax,
		TaxBeforeCredits:          beforeCredits,
		TaxAfterCredits:           afterCredits,
		TotalTax:                  totalTax,
		TotalEstimatedTax:         totalEstimated,
		CurrentYearRequirement:    currentYear,
		RequiredAnnualPayment:     required,
		Underpayment:              underpayment,
		ThresholdAmount:           thresholdAmount,
		UsedItemizedDeduction:     usedItemized,
		EstimatedPaymentsRequired: paymentsRequired,
	}, nil
}

// CalculateTax returns the schedule tax on a taxable income.
func (w *EstimatedTaxWorksheet) CalculateTax(taxable decimal.Decimal) (decimal.Decimal, error) {
	if len(w.brackets) == 0 {
		return decimal.Zero, ErrNoTaxBrackets
	}
	if !taxable.IsPositive() {
		return decimal.Zero, nil
	}
	for _, b := range w.brackets {
		if b.Contains(taxable) {
			return money.RoundHalfUp(b.BaseTax.Add(taxable.Sub(b.MinIncome).Mul(b.TaxRate))), nil
		}
	}
	w.logger.Errorf("no tax bracket covers taxable income %s", taxable.StringFixed(2))
	return decimal.Zero, &NoMatchingBracketError{TaxableIncome: taxable}
}

func (w *EstimatedTaxWorksheet) deduction(in EstimatedTaxWorksheetInput) (decimal.Decimal, bool) {
	if in.ItemizedDeduction.IsPositive() {
		return money.RoundHalfUp(in.ItemizedDeduction), true
	}
	return money.RoundHalfUp(in.StandardDeduction), false
}

// currentYearRequirement is 90% of the year's tax, or two thirds of it for
// farmers and fishers.
func currentYearRequirement(totalEstimated decimal.Decimal, farmerOrFisher bool) decimal.Decimal {
	if farmerOrFisher {
		return money.RoundHalfUp(totalEstimated.Mul(farmerFisherNumerator).Div(farmerFisherDivisor))
	}
	return money.RoundHalfUp(totalEstimated.Mul(currentYearRate))
}
