package domain

import "github.com/shopspring/decimal"

// TaxYearConfig holds the per-year constants published with Form 1040-ES.
type TaxYearConfig struct {
	TaxYear                  int             `yaml:"tax_year" json:"tax_year"`
	SSWageMax                decimal.Decimal `yaml:"ss_wage_max" json:"ss_wage_max"`
	SSTaxRate                decimal.Decimal `yaml:"ss_tax_rate" json:"ss_tax_rate"`
	MedicareTaxRate          decimal.Decimal `yaml:"medicare_tax_rate" json:"medicare_tax_rate"`
	NetEarningsFactor        decimal.Decimal `yaml:"net_earnings_factor" json:"net_earnings_factor"` // 0.9235
	SEDeductionFactor        decimal.Decimal `yaml:"se_deduction_factor" json:"se_deduction_factor"`
	RequiredPaymentThreshold decimal.Decimal `yaml:"required_payment_threshold" json:"required_payment_threshold"`
	MinSEThreshold           decimal.Decimal `yaml:"min_se_threshold" json:"min_se_threshold"`
}

// StandardDeduction is the standard deduction for a year and filing status.
type StandardDeduction struct {
	TaxYear        int             `yaml:"tax_year" json:"tax_year"`
	FilingStatusID int             `yaml:"filing_status_id" json:"filing_status_id"`
	Amount         decimal.Decimal `yaml:"amount" json:"amount"`
}
