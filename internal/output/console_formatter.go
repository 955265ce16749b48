package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/rpgo/estimated-tax/internal/calculation"
)

// ConsoleFormatter prints both worksheets line by line followed by the
// payment schedule.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(r *calculation.EstimateReport) ([]byte, error) {
	var buf bytes.Buffer
	title := fmt.Sprintf("%d FORM 1040-ES ESTIMATED TAX (%s)", r.TaxYear.TaxYear, r.FilingStatus.Name)
	fmt.Fprintln(&buf, title)
	fmt.Fprintln(&buf, strings.Repeat("=", len(title)))

	current := ""
	for _, l := range WorksheetLines(r) {
		if l.Worksheet != current {
			current = l.Worksheet
			fmt.Fprintln(&buf)
			heading := sectionHeading(current)
			fmt.Fprintln(&buf, heading)
			fmt.Fprintln(&buf, strings.Repeat("-", len(heading)))
		}
		writeLine(&buf, l)
	}

	fmt.Fprintln(&buf)
	if se := r.SelfEmployment; se != nil && se.BelowThreshold {
		fmt.Fprintf(&buf, "SE income is at or below %s; no self-employment tax is due.\n", FormatCurrency(r.TaxYear.MinSEThreshold))
	}
	if r.Worksheet.EstimatedPaymentsRequired {
		fmt.Fprintf(&buf, "Estimated payments are required: %s in four installments.\n", FormatCurrency(r.Worksheet.Underpayment))
	} else {
		fmt.Fprintln(&buf, "Estimated payments are not required.")
	}
	return buf.Bytes(), nil
}

// WriteWorksheetLines prints lines in the console layout without headings.
func WriteWorksheetLines(w io.Writer, lines []WorksheetLine) error {
	var buf bytes.Buffer
	for _, l := range lines {
		writeLine(&buf, l)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeLine(buf *bytes.Buffer, l WorksheetLine) {
	fmt.Fprintf(buf, "%4s  %-50s %16s\n", l.Line, l.Description, FormatCurrency(l.Amount))
}

func sectionHeading(worksheet string) string {
	switch worksheet {
	case SEWorksheet:
		return "Self-Employment Tax and Deduction Worksheet"
	case EstimatedWorksheet:
		return "Estimated Tax Worksheet"
	case InstallmentLines:
		return "Payment Schedule"
	default:
		return worksheet
	}
}
