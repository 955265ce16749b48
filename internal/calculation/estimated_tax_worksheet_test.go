package calculation

import (
	"errors"
	"testing"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTaxYear2025() domain.TaxYearConfig {
	return domain.TaxYearConfig{
		TaxYear:                  2025,
		SSWageMax:                d("176100.00"),
		SSTaxRate:                d("0.124"),
		MedicareTaxRate:          d("0.029"),
		NetEarningsFactor:        d("0.9235"),
		SEDeductionFactor:        d("0.50"),
		RequiredPaymentThreshold: d("1000.00"),
		MinSEThreshold:           d("400.00"),
	}
}

func bracket(min, max, rate, base string) domain.TaxBracket {
	b := domain.TaxBracket{TaxYear: 2025, FilingStatusID: 1, MinIncome: d(min), TaxRate: d(rate), BaseTax: d(base)}
	if max != "" {
		m := d(max)
		b.MaxIncome = &m
	}
	return b
}

func singleBrackets2025() []domain.TaxBracket {
	return []domain.TaxBracket{
		bracket("0", "11925", "0.10", "0"),
		bracket("11925", "48475", "0.12", "1192.50"),
		bracket("48475", "103350", "0.22", "5578.50"),
		bracket("103350", "197300", "0.24", "17651"),
		bracket("197300", "250525", "0.32", "40199"),
		bracket("250525", "626350", "0.35", "57231"),
		bracket("626350", "", "0.37", "188769.75"),
	}
}

// exampleInput is a single filer with $100,000 AGI taking the standard deduction.
func exampleInput() EstimatedTaxWorksheetInput {
	return EstimatedTaxWorksheetInput{
		AdjustedGrossIncome:      d("100000.00"),
		StandardDeduction:        d("15000.00"),
		PriorYearTax:             d("12000.00"),
		RequiredPaymentThreshold: d("1000.00"),
	}
}

func TestCalculateTax(t *testing.T) {
	ws := NewEstimatedTaxWorksheet(singleBrackets2025())

	tests := []struct {
		taxable string
		want    string
	}{
		{"0", "0"},
		{"-100", "0"},
		{"0.01", "0.00"},
		{"10000", "1000.00"},
		{"11925", "1192.50"},
		{"11925.01", "1192.50"},
		{"30000", "3361.50"},
		{"48475", "5578.50"},
		{"85000", "13614.00"},
		{"103350", "17651.00"},
		{"197300", "40199.00"},
		{"250525", "57231.00"},
		{"626350", "188769.75"},
		{"700000", "216020.25"},
	}
	for _, tt := range tests {
		t.Run(tt.taxable, func(t *testing.T) {
			got, err := ws.CalculateTax(d(tt.taxable))
			require.NoError(t, err)
			assertDecimal(t, tt.want, got, "tax")
		})
	}
}

func TestCalculateTaxIsMonotonic(t *testing.T) {
	ws := NewEstimatedTaxWorksheet(singleBrackets2025())
	step := decimal.NewFromInt(997)
	limit := decimal.NewFromInt(800000)

	prev := decimal.Zero
	for income := decimal.Zero; income.LessThan(limit); income = income.Add(step) {
		tax, err := ws.CalculateTax(income)
		require.NoError(t, err)
		assert.True(t, tax.GreaterThanOrEqual(prev), "tax(%s) = %s dropped below %s", income, tax, prev)
		assert.False(t, tax.IsNegative())
		prev = tax
	}
}

func TestEstimatedTaxWorksheetExample(t *testing.T) {
	ws := NewEstimatedTaxWorksheet(singleBrackets2025())

	res, err := ws.Calculate(exampleInput())
	require.NoError(t, err)

	assertDecimal(t, "85000.00", res.TaxableIncome, "taxable income")
	assertDecimal(t, "13614.00", res.CalculatedTax, "calculated tax")
	assertDecimal(t, "13614.00", res.TotalEstimatedTax, "total estimated tax")
	assertDecimal(t, "12000.00", res.RequiredAnnualPayment, "required payment")
	assertDecimal(t, "12000.00", res.Underpayment, "underpayment")
	assertDecimal(t, "15000.00", res.TotalDeductions, "total deductions")
	assertDecimal(t, "13614.00", res.TaxBeforeCredits, "tax before credits")
	assertDecimal(t, "13614.00", res.TaxAfterCredits, "tax after credits")
	assertDecimal(t, "13614.00", res.TotalTax, "total tax")
	assertDecimal(t, "12252.60", res.CurrentYearRequirement, "current year requirement")
	assertDecimal(t, "13614.00", res.ThresholdAmount, "threshold amount")
	assert.False(t, res.UsedItemizedDeduction)
	assert.True(t, res.EstimatedPaymentsRequired)
}

func TestEstimatedTaxWorksheetScenarios(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*EstimatedTaxWorksheetInput)
		taxable   string
		total     string
		required  string
		under     string
		threshold string
		payments  bool
		itemized  bool
	}{
		{
			name: "current year safe harbor below prior year",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.PriorYearTax = d("20000")
			},
			taxable: "85000.00", total: "13614.00", required: "12252.60", under: "12252.60", threshold: "13614.00", payments: true,
		},
		{
			name: "farmer or fisher uses two thirds",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.PriorYearTax = d("20000")
				in.IsFarmerOrFisher = true
			},
			taxable: "85000.00", total: "13614.00", required: "9076.00", under: "9076.00", threshold: "13614.00", payments: true,
		},
		{
			name: "self-employment tax is added",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.SelfEmploymentTax = d("7065")
				in.PriorYearTax = d("50000")
			},
			taxable: "85000.00", total: "20679.00", required: "18611.10", under: "18611.10", threshold: "20679.00", payments: true,
		},
		{
			name: "credits reduce tax",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.Credits = d("3000")
			},
			taxable: "85000.00", total: "10614.00", required: "9552.60", under: "9552.60", threshold: "10614.00", payments: true,
		},
		{
			name: "credits cannot push tax below zero",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.Credits = d("50000")
				in.OtherTaxes = d("250")
			},
			taxable: "85000.00", total: "250.00", required: "225.00", under: "225.00", threshold: "250.00", payments: false,
		},
		{
			name: "refundable credits floor total at zero",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.RefundableCredits = d("20000")
			},
			taxable: "85000.00", total: "0.00", required: "0.00", under: "0.00", threshold: "0.00", payments: false,
		},
		{
			name: "withholding covers the requirement",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.Withholding = d("15000")
			},
			taxable: "85000.00", total: "13614.00", required: "12000.00", under: "0.00", threshold: "0.00", payments: false,
		},
		{
			name: "withholding above total tax leaves no threshold amount",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.Withholding = d("20000")
			},
			taxable: "85000.00", total: "13614.00", required: "12000.00", under: "0.00", threshold: "0.00", payments: false,
		},
		{
			name: "balance due below the threshold",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.AdjustedGrossIncome = d("30000")
				in.PriorYearTax = d("5000")
				in.Withholding = d("1000")
			},
			taxable: "15000.00", total: "1561.50", required: "1405.35", under: "405.35", threshold: "561.50", payments: false,
		},
		{
			name: "negative income credits and withholding",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.AdjustedGrossIncome = d("-50000")
				in.Credits = d("-100")
				in.Withholding = d("-100")
			},
			taxable: "0.00", total: "100.00", required: "90.00", under: "190.00", threshold: "200.00", payments: false,
		},
		{
			name: "itemized deduction replaces standard",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.ItemizedDeduction = d("20000")
				in.PriorYearTax = d("50000")
			},
			taxable: "80000.00", total: "12514.00", required: "11262.60", under: "11262.60", threshold: "12514.00", payments: true, itemized: true,
		},
		{
			name: "any positive itemized deduction is used even when it rounds to zero",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.ItemizedDeduction = d("0.004")
			},
			taxable: "100000.00", total: "16914.00", required: "12000.00", under: "12000.00", threshold: "16914.00", payments: true, itemized: true,
		},
		{
			name: "QBI deduction lowers taxable income",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.QBIDeduction = d("5000")
			},
			taxable: "80000.00", total: "12514.00", required: "11262.60", under: "11262.60", threshold: "12514.00", payments: true,
		},
		{
			name: "deductions larger than income",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.AdjustedGrossIncome = d("9000")
			},
			taxable: "0.00", total: "0.00", required: "0.00", under: "0.00", threshold: "0.00", payments: false,
		},
		{
			name: "alternative minimum tax is added before credits",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.AlternativeMinimumTax = d("386")
				in.PriorYearTax = d("50000")
			},
			taxable: "85000.00", total: "14000.00", required: "12600.00", under: "12600.00", threshold: "14000.00", payments: true,
		},
		{
			name: "no prior year tax means nothing is required",
			mutate: func(in *EstimatedTaxWorksheetInput) {
				in.PriorYearTax = decimal.Zero
			},
			taxable: "85000.00", total: "13614.00", required: "0.00", under: "0.00", threshold: "13614.00", payments: false,
		},
	}

	ws := NewEstimatedTaxWorksheet(singleBrackets2025())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := exampleInput()
			tt.mutate(&in)

			res, err := ws.Calculate(in)
			require.NoError(t, err)

			assertDecimal(t, tt.taxable, res.TaxableIncome, "taxable income")
			assertDecimal(t, tt.total, res.TotalEstimatedTax, "total estimated tax")
			assertDecimal(t, tt.required, res.RequiredAnnualPayment, "required payment")
			assertDecimal(t, tt.under, res.Underpayment, "underpayment")
			assertDecimal(t, tt.threshold, res.ThresholdAmount, "threshold amount")
			assert.Equal(t, tt.payments, res.EstimatedPaymentsRequired)
			assert.Equal(t, tt.itemized, res.UsedItemizedDeduction)
			for field, v := range map[string]decimal.Decimal{
				"taxable income":      res.TaxableIncome,
				"tax after credits":   res.TaxAfterCredits,
				"total estimated tax": res.TotalEstimatedTax,
				"underpayment":        res.Underpayment,
				"threshold amount":    res.ThresholdAmount,
			} {
				assert.False(t, v.IsNegative(), "%s = %s", field, v)
			}
		})
	}
}

func TestCurrentYearRequirement(t *testing.T) {
	assertDecimal(t, "6666.67", currentYearRequirement(d("10000"), true), "farmer")
	assertDecimal(t, "9000.00", currentYearRequirement(d("10000"), false), "regular")
	assertDecimal(t, "0.67", currentYearRequirement(d("1.00"), true), "farmer small")
	assertDecimal(t, "0", currentYearRequirement(decimal.Zero, true), "zero")
}

func TestEstimatedTaxWorksheetThresholdBoundary(t *testing.T) {
	ws := NewEstimatedTaxWorksheet(singleBrackets2025())
	in := exampleInput()
	in.RequiredPaymentThreshold = d("13614.00")

	res, err := ws.Calculate(in)
	require.NoError(t, err)
	assert.True(t, res.EstimatedPaymentsRequired, "balance of exactly the threshold requires payments")

	in.RequiredPaymentThreshold = d("13614.01")
	res, err = ws.Calculate(in)
	require.NoError(t, err)
	assert.False(t, res.EstimatedPaymentsRequired)
}

func TestEstimatedTaxWorksheetEmptyBrackets(t *testing.T) {
	for _, brackets := range [][]domain.TaxBracket{nil, {}} {
		ws := NewEstimatedTaxWorksheet(brackets)

		res, err := ws.Calculate(exampleInput())
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, ErrNoTaxBrackets))

		_, err = ws.CalculateTax(decimal.Zero)
		assert.True(t, errors.Is(err, ErrNoTaxBrackets))
	}
}

func TestEstimatedTaxWorksheetNoMatchingBracket(t *testing.T) {
	gapped := []domain.TaxBracket{
		bracket("0", "10000", "0.10", "0"),
		bracket("20000", "", "0.20", "1000"),
	}
	log := &recordingLogger{}
	ws := NewEstimatedTaxWorksheet(gapped)
	ws.SetLogger(log)

	in := exampleInput()
	in.AdjustedGrossIncome = d("30000")
	res, err := ws.Calculate(in)
	require.Error(t, err)
	assert.Nil(t, res)

	var nm *NoMatchingBracketError
	require.True(t, errors.As(err, &nm))
	assertDecimal(t, "15000.00", nm.TaxableIncome, "taxable income")
	assert.Contains(t, err.Error(), "15000.00")

	in.AdjustedGrossIncome = d("50000")
	res, err = ws.Calculate(in)
	require.NoError(t, err)
	assertDecimal(t, "4000.00", res.CalculatedTax, "tax above the gap")
}
