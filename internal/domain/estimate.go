package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstimateRequest is everything a taxpayer supplies for one Form 1040-ES
// computation. It is the document read from an input YAML file.
type EstimateRequest struct {
	TaxYear      int              `yaml:"tax_year" json:"tax_year"`
	FilingStatus FilingStatusCode `yaml:"filing_status" json:"filing_status"`

	AdjustedGrossIncome decimal.Decimal `yaml:"adjusted_gross_income" json:"adjusted_gross_income"`
	ItemizedDeduction   decimal.Decimal `yaml:"itemized_deduction,omitempty" json:"itemized_deduction,omitempty"`
	// StandardDeduction overrides the published amount for the year and status
	// when set.
	StandardDeduction     *decimal.Decimal `yaml:"standard_deduction,omitempty" json:"standard_deduction,omitempty"`
	QBIDeduction          decimal.Decimal  `yaml:"qbi_deduction,omitempty" json:"qbi_deduction,omitempty"`
	AlternativeMinimumTax decimal.Decimal  `yaml:"alternative_minimum_tax,omitempty" json:"alternative_minimum_tax,omitempty"`
	Credits               decimal.Decimal  `yaml:"credits,omitempty" json:"credits,omitempty"`
	OtherTaxes            decimal.Decimal  `yaml:"other_taxes,omitempty" json:"other_taxes,omitempty"`
	RefundableCredits     decimal.Decimal  `yaml:"refundable_credits,omitempty" json:"refundable_credits,omitempty"`
	PriorYearTax          decimal.Decimal  `yaml:"prior_year_tax" json:"prior_year_tax"`
	Withholding           decimal.Decimal  `yaml:"withholding,omitempty" json:"withholding,omitempty"`
	IsFarmerOrFisher      bool             `yaml:"is_farmer_or_fisher,omitempty" json:"is_farmer_or_fisher,omitempty"`

	// SelfEmployment is optional; when present the SE worksheet runs first.
	SelfEmployment *SelfEmploymentIncome `yaml:"self_employment,omitempty" json:"self_employment,omitempty"`
}

// SelfEmploymentIncome holds the inputs of the SE tax worksheet.
type SelfEmploymentIncome struct {
	NetProfit   decimal.Decimal `yaml:"net_profit" json:"net_profit"`
	CRPPayments decimal.Decimal `yaml:"crp_payments,omitempty" json:"crp_payments,omitempty"`
	Wages       decimal.Decimal `yaml:"wages,omitempty" json:"wages,omitempty"`
}

// HasIncome reports whether there is anything for the SE worksheet to do.
func (s *SelfEmploymentIncome) HasIncome() bool {
	return s != nil && !(s.NetProfit.IsZero() && s.CRPPayments.IsZero())
}

// NewTaxEstimate is a saved estimate before the store assigns an id.
// Optional inputs are nil when the taxpayer left them blank.
type NewTaxEstimate struct {
	TaxYear              int              `yaml:"tax_year" json:"tax_year"`
	FilingStatusID       int              `yaml:"filing_status_id" json:"filing_status_id"`
	ExpectedAGI          decimal.Decimal  `yaml:"expected_agi" json:"expected_agi"`
	ExpectedDeduction    decimal.Decimal  `yaml:"expected_deduction" json:"expected_deduction"`
	ExpectedQBIDeduction *decimal.Decimal `yaml:"expected_qbi_deduction,omitempty" json:"expected_qbi_deduction,omitempty"`
	ExpectedAMT          *decimal.Decimal `yaml:"expected_amt,omitempty" json:"expected_amt,omitempty"`
	ExpectedCredits      *decimal.Decimal `yaml:"expected_credits,omitempty" json:"expected_credits,omitempty"`
	ExpectedOtherTaxes   *decimal.Decimal `yaml:"expected_other_taxes,omitempty" json:"expected_other_taxes,omitempty"`
	ExpectedWithholding  *decimal.Decimal `yaml:"expected_withholding,omitempty" json:"expected_withholding,omitempty"`
	PriorYearTax         *decimal.Decimal `yaml:"prior_year_tax,omitempty" json:"prior_year_tax,omitempty"`
	SEIncome             *decimal.Decimal `yaml:"se_income,omitempty" json:"se_income,omitempty"`
	ExpectedCRPPayments  *decimal.Decimal `yaml:"expected_crp_payments,omitempty" json:"expected_crp_payments,omitempty"`
	ExpectedWages        *decimal.Decimal `yaml:"expected_wages,omitempty" json:"expected_wages,omitempty"`

	CalculatedSETax           *decimal.Decimal `yaml:"calculated_se_tax,omitempty" json:"calculated_se_tax,omitempty"`
	CalculatedTotalTax        *decimal.Decimal `yaml:"calculated_total_tax,omitempty" json:"calculated_total_tax,omitempty"`
	CalculatedRequiredPayment *decimal.Decimal `yaml:"calculated_required_payment,omitempty" json:"calculated_required_payment,omitempty"`
}

// TaxEstimate is a persisted estimate.
type TaxEstimate struct {
	ID int64 `yaml:"id" json:"id"`

	NewTaxEstimate `yaml:",inline"`

	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// QuarterlyPayment is the required annual payment split evenly over the four
// installments, or nil when nothing has been calculated.
func (e *TaxEstimate) QuarterlyPayment() *decimal.Decimal {
	if e.CalculatedRequiredPayment == nil {
		return nil
	}
	q := e.CalculatedRequiredPayment.Div(decimal.NewFromInt(4)).Round(2)
	return &q
}

// ToRequest rebuilds the worksheet request a saved estimate was made from.
// The stored deduction is replayed as the standard deduction.
func (e *NewTaxEstimate) ToRequest() EstimateRequest {
	code, _ := FilingStatusCodeForID(e.FilingStatusID)
	deduction := e.ExpectedDeduction
	req := EstimateRequest{
		TaxYear:               e.TaxYear,
		FilingStatus:          code,
		AdjustedGrossIncome:   e.ExpectedAGI,
		StandardDeduction:     &deduction,
		QBIDeduction:          valueOrZero(e.ExpectedQBIDeduction),
		AlternativeMinimumTax: valueOrZero(e.ExpectedAMT),
		Credits:               valueOrZero(e.ExpectedCredits),
		OtherTaxes:            valueOrZero(e.ExpectedOtherTaxes),
		PriorYearTax:          valueOrZero(e.PriorYearTax),
		Withholding:           valueOrZero(e.ExpectedWithholding),
	}
	if e.SEIncome != nil || e.ExpectedCRPPayments != nil {
		req.SelfEmployment = &SelfEmploymentIncome{
			NetProfit:   valueOrZero(e.SEIncome),
			CRPPayments: valueOrZero(e.ExpectedCRPPayments),
			Wages:       valueOrZero(e.ExpectedWages),
		}
	}
	return req
}

// OptionalDecimal returns nil for zero so blank inputs stay blank when saved.
func OptionalDecimal(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
