package calculation

import (
	"github.com/rpgo/estimated-tax/internal/domain"
	money "github.com/rpgo/estimated-tax/pkg/decimal"
	"github.com/shopspring/decimal"
)

// SeWorksheetConfig holds the year constants the SE tax worksheet needs.
type SeWorksheetConfig struct {
	SSWageMax         decimal.Decimal `yaml:"ss_wage_max" json:"ss_wage_max"`
	SSTaxRate         decimal.Decimal `yaml:"ss_tax_rate" json:"ss_tax_rate"`
	MedicareTaxRate   decimal.Decimal `yaml:"medicare_tax_rate" json:"medicare_tax_rate"`
	NetEarningsFactor decimal.Decimal `yaml:"net_earnings_factor" json:"net_earnings_factor"`
	DeductionFactor   decimal.Decimal `yaml:"deduction_factor" json:"deduction_factor"`
	MinSEThreshold    decimal.Decimal `yaml:"min_se_threshold" json:"min_se_threshold"`
}

// SeWorksheetConfigFromTaxYear picks the SE fields out of a year's constants.
func SeWorksheetConfigFromTaxYear(c domain.TaxYearConfig) SeWorksheetConfig {
	return SeWorksheetConfig{
		SSWageMax:         c.SSWageMax,
		SSTaxRate:         c.SSTaxRate,
		MedicareTaxRate:   c.MedicareTaxRate,
		NetEarningsFactor: c.NetEarningsFactor,
		DeductionFactor:   c.SEDeductionFactor,
		MinSEThreshold:    c.MinSEThreshold,
	}
}

// Validate checks every field and returns a *ConfigError for the first one
// out of range.
func (c SeWorksheetConfig) Validate() error {
	one := decimal.NewFromInt(1)
	inUnit := func(v decimal.Decimal) bool { return !v.IsNegative() && v.LessThanOrEqual(one) }

	switch {
	case !c.NetEarningsFactor.IsPositive() || c.NetEarningsFactor.GreaterThan(one):
		return &ConfigError{Field: "net_earnings_factor", Value: c.NetEarningsFactor, Err: ErrInvalidNetEarningsFactor}
	case !inUnit(c.SSTaxRate):
		return &ConfigError{Field: "ss_tax_rate", Value: c.SSTaxRate, Err: ErrInvalidSocialSecurityRate}
	case !inUnit(c.MedicareTaxRate):
		return &ConfigError{Field: "medicare_tax_rate", Value: c.MedicareTaxRate, Err: ErrInvalidMedicareRate}
	case !inUnit(c.DeductionFactor):
		return &ConfigError{Field: "deduction_factor", Value: c.DeductionFactor, Err: ErrInvalidDeductionFactor}
	case !c.SSWageMax.IsPositive():
		return &ConfigError{Field: "ss_wage_max", Value: c.SSWageMax, Err: ErrInvalidSSWageMax}
	case c.MinSEThreshold.IsNegative():
		return &ConfigError{Field: "min_se_threshold", Value: c.MinSEThreshold, Err: ErrInvalidMinSEThreshold}
	}
	return nil
}

// SeWorksheetResult carries every line of the SE tax worksheet.
type SeWorksheetResult struct {
	CombinedSEIncome  decimal.Decimal `yaml:"combined_se_income" json:"combined_se_income"`
	NetEarnings       decimal.Decimal `yaml:"net_earnings" json:"net_earnings"`
	MedicareTax       decimal.Decimal `yaml:"medicare_tax" json:"medicare_tax"`
	SSTaxableEarnings decimal.Decimal `yaml:"ss_taxable_earnings" json:"ss_taxable_earnings"`
	SocialSecurityTax decimal.Decimal `yaml:"social_security_tax" json:"social_security_tax"`
	SelfEmploymentTax decimal.Decimal `yaml:"self_employment_tax" json:"self_employment_tax"`
	SETaxDeduction    decimal.Decimal `yaml:"se_tax_deduction" json:"se_tax_deduction"`
	BelowThreshold    bool            `yaml:"below_threshold" json:"below_threshold"`
}

// SeWorksheet computes self-employment tax for one tax year.
type SeWorksheet struct {
	config SeWorksheetConfig
	logger Logger
}

// NewSeWorksheet creates a worksheet for the given year constants. The
// configuration is validated on every Calculate call.
func NewSeWorksheet(config SeWorksheetConfig) *SeWorksheet {
	return &SeWorksheet{config: config, logger: NopLogger{}}
}

// SetLogger sets the logger for warnings. If nil is provided, a no-op logger is used.
func (w *SeWorksheet) SetLogger(l Logger) {
	w.logger = loggerOrNop(l)
}

// Calculate runs the worksheet. Each line is rounded to the cent before it
// feeds the next one.
func (w *SeWorksheet) Calculate(seIncome, crpPayments, wages decimal.Decimal) (*SeWorksheetResult, error) {
	if err := w.config.Validate(); err != nil {
		return nil, err
	}
	cfg := w.config

	combined := seIncome.Add(crpPayments)
	if combined.IsNegative() {
		w.logger.Warnf("combined SE income is negative (se_income=%s crp_payments=%s combined=%s); SE tax will be zero",
			seIncome, crpPayments, combined)
	}
	combined = money.RoundHalfUp(combined)

	if combined.LessThanOrEqual(cfg.MinSEThreshold) {
		w.logger.Warnf("SE income %s at or below minimum threshold %s; no SE tax due",
			combined.StringFixed(2), cfg.MinSEThreshold.StringFixed(2))
		return &SeWorksheetResult{
			CombinedSEIncome:  combined,
			NetEarnings:       decimal.Zero,
			MedicareTax:       decimal.Zero,
			SSTaxableEarnings: decimal.Zero,
			SocialSecurityTax: decimal.Zero,
			SelfEmploymentTax: decimal.Zero,
			SETaxDeduction:    decimal.Zero,
			BelowThreshold:    true,
		}, nil
	}

	net := money.RoundHalfUp(combined.Mul(cfg.NetEarningsFactor))

	medicare := decimal.Zero
	if net.IsPositive() {
		medicare = money.RoundHalfUp(net.Mul(cfg.MedicareTaxRate))
	} else {
		w.logger.Warnf("net earnings %s are zero or negative; no Medicare or social security tax applies", net.StringFixed(2))
	}

	remaining := cfg.SSWageMax.Sub(wages)
	if remaining.IsPositive() {
		remaining = money.RoundHalfUp(remaining)
	} else {
		w.logger.Warnf("wages %s meet or exceed the social security wage base %s; no social security tax on SE income",
			wages.StringFixed(2), cfg.SSWageMax.StringFixed(2))
		remaining = decimal.Zero
	}

	ssTaxable := decimal.Zero
	if net.IsPositive() {
		ssTaxable = money.RoundHalfUp(money.Min(net, remaining))
	}

	ssTax := money.RoundHalfUp(ssTaxable.Mul(cfg.SSTaxRate))
	seTax := money.RoundHalfUp(medicare.Add(ssTax))
	deduction := money.RoundHalfUp(seTax.Mul(cfg.DeductionFactor))

	return &SeWorksheetResult{
		CombinedSEIncome:  combined,
		NetEarnings:       net,
		MedicareTax:       medicare,
		SSTaxableEarnings: ssTaxable,
		SocialSecurityTax: ssTax,
		SelfEmploymentTax: seTax,
		SETaxDeduction:    deduction,
	}, nil
}
