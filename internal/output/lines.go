package output

import (
	"fmt"

	"github.com/rpgo/estimated-tax/internal/calculation"
	"github.com/rpgo/estimated-tax/internal/domain"
	money "github.com/rpgo/estimated-tax/pkg/decimal"
	"github.com/shopspring/decimal"
)

// Worksheet names used in WorksheetLine.
const (
	SEWorksheet        = "se"
	EstimatedWorksheet = "estimated"
	InstallmentLines   = "installment"
)

// WorksheetLine is one numbered line of a printed worksheet.
type WorksheetLine struct {
	Worksheet   string
	Line        string
	Description string
	Amount      decimal.Decimal
}

// WorksheetLines lays the report out the way the 1040-ES worksheets number
// their lines: the SE worksheet (when it ran), the estimated tax worksheet,
// then the installment schedule.
func WorksheetLines(r *calculation.EstimateReport) []WorksheetLine {
	var lines []WorksheetLine
	add := func(ws, line, desc string, amount decimal.Decimal) {
		lines = append(lines, WorksheetLine{Worksheet: ws, Line: line, Description: desc, Amount: amount})
	}

	if r.SelfEmployment != nil {
		var req domain.SelfEmploymentIncome
		if r.Request.SelfEmployment != nil {
			req = *r.Request.SelfEmployment
		}
		lines = append(lines, SEWorksheetLines(r.TaxYear, req, r.SelfEmployment)...)
	}

	in, ws := r.Input, r.Worksheet
	deductionLabel := "Standard deduction"
	if ws.UsedItemizedDeduction {
		deductionLabel = "Itemized deductions"
	}
	requirementLabel := "90% of line 11c"
	if in.IsFarmerOrFisher {
		requirementLabel = "66 2/3% of line 11c"
	}
	add(EstimatedWorksheet, "1", "Adjusted gross income", in.AdjustedGrossIncome)
	add(EstimatedWorksheet, "2a", deductionLabel, r.DeductionUsed())
	add(EstimatedWorksheet, "2b", "Qualified business income deduction", in.QBIDeduction)
	add(EstimatedWorksheet, "2c", "Total deductions (line 2a + line 2b)", ws.TotalDeductions)
	add(EstimatedWorksheet, "3", "Taxable income (line 1 - line 2c)", ws.TaxableIncome)
	add(EstimatedWorksheet, "4", "Tax from the rate schedule", ws.CalculatedTax)
	add(EstimatedWorksheet, "5", "Alternative minimum tax", in.AlternativeMinimumTax)
	add(EstimatedWorksheet, "6", "Line 4 + line 5", ws.TaxBeforeCredits)
	add(EstimatedWorksheet, "7", "Credits", in.Credits)
	add(EstimatedWorksheet, "8", "Line 6 - line 7", ws.TaxAfterCredits)
	add(EstimatedWorksheet, "9", "Self-employment tax", in.SelfEmploymentTax)
	add(EstimatedWorksheet, "10", "Other taxes", in.OtherTaxes)
	add(EstimatedWorksheet, "11a", "Line 8 + line 9 + line 10", ws.TotalTax)
	add(EstimatedWorksheet, "11b", "Refundable credits", in.RefundableCredits)
	add(EstimatedWorksheet, "11c", "Total estimated tax", ws.TotalEstimatedTax)
	add(EstimatedWorksheet, "12a", requirementLabel, ws.CurrentYearRequirement)
	add(EstimatedWorksheet, "12b", "Prior year tax", in.PriorYearTax)
	add(EstimatedWorksheet, "12c", "Required annual payment (smaller of 12a or 12b)", ws.RequiredAnnualPayment)
	add(EstimatedWorksheet, "13", "Expected withholding", in.Withholding)
	add(EstimatedWorksheet, "14a", "Line 12c - line 13", ws.Underpayment)
	add(EstimatedWorksheet, "14b", "Line 11c - line 13", ws.ThresholdAmount)

	for _, inst := range r.Installments {
		add(InstallmentLines, intToString(inst.Number), "Due "+inst.DueDate.Format("2006-01-02"), inst.Amount)
	}
	return lines
}

// SEWorksheetLines lays out lines 1a through 11 of the self-employment tax
// worksheet.
func SEWorksheetLines(cfg domain.TaxYearConfig, in domain.SelfEmploymentIncome, se *calculation.SeWorksheetResult) []WorksheetLine {
	remaining := money.Max(cfg.SSWageMax.Sub(in.Wages), decimal.Zero)
	line := func(n, desc string, amount decimal.Decimal) WorksheetLine {
		return WorksheetLine{Worksheet: SEWorksheet, Line: n, Description: desc, Amount: amount}
	}
	return []WorksheetLine{
		line("1a", "Expected net profit subject to SE tax", in.NetProfit),
		line("1b", "Conservation Reserve Program payments", in.CRPPayments),
		line("2", "Combined SE income", se.CombinedSEIncome),
		line("3", fmt.Sprintf("Net earnings (line 2 x %s)", FormatPercentage(cfg.NetEarningsFactor)), se.NetEarnings),
		line("4", fmt.Sprintf("Medicare tax (line 3 x %s)", FormatPercentage(cfg.MedicareTaxRate)), se.MedicareTax),
		line("5", "Social security wage base", cfg.SSWageMax),
		line("6", "Expected wages subject to social security tax", in.Wages),
		line("7", "Remaining wage base (line 5 - line 6)", remaining),
		line("8", "Smaller of line 3 or line 7", se.SSTaxableEarnings),
		line("9", fmt.Sprintf("Social security tax (line 8 x %s)", FormatPercentage(cfg.SSTaxRate)), se.SocialSecurityTax),
		line("10", "Self-employment tax (line 4 + line 9)", se.SelfEmploymentTax),
		line("11", fmt.Sprintf("Deduction for SE tax (line 10 x %s)", FormatPercentage(cfg.SEDeductionFactor)), se.SETaxDeduction),
	}
}
