package output

import (
	"bytes"
	"fmt"

	"github.com/rpgo/estimated-tax/internal/calculation"
)

// SummaryFormatter provides a concise console summary of the key figures.
type SummaryFormatter struct{}

func (s SummaryFormatter) Name() string { return "summary" }

func (s SummaryFormatter) Format(r *calculation.EstimateReport) ([]byte, error) {
	var buf bytes.Buffer
	ws := r.Worksheet
	fmt.Fprintf(&buf, "%d %s\n", r.TaxYear.TaxYear, r.FilingStatus.Name)
	fmt.Fprintf(&buf, "Taxable income:        %s\n", FormatCurrency(ws.TaxableIncome))
	if r.SelfEmployment != nil {
		fmt.Fprintf(&buf, "Self-employment tax:   %s (deduction %s)\n",
			FormatCurrency(r.SelfEmploymentTax()), FormatCurrency(r.SETaxDeduction()))
	}
	fmt.Fprintf(&buf, "Total estimated tax:   %s\n", FormatCurrency(ws.TotalEstimatedTax))
	fmt.Fprintf(&buf, "Required payment:      %s\n", FormatCurrency(ws.RequiredAnnualPayment))
	fmt.Fprintf(&buf, "Balance after withholding: %s\n", FormatCurrency(ws.Underpayment))
	if ws.EstimatedPaymentsRequired && len(r.Installments) > 0 {
		fmt.Fprintf(&buf, "Payments required: %d x %s, first due %s\n",
			len(r.Installments), FormatCurrency(r.Installments[0].Amount), r.Installments[0].DueDate.Format("Jan 2, 2006"))
	} else {
		fmt.Fprintln(&buf, "Payments required: no")
	}
	return buf.Bytes(), nil
}
