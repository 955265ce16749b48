package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
)

// WriteEstimateTable prints saved estimates as an aligned table with the
// quarterly payment each implies.
func WriteEstimateTable(w io.Writer, estimates []domain.TaxEstimate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tYEAR\tSTATUS\tAGI\tSE TAX\tTOTAL TAX\tREQUIRED\tQUARTERLY\tSAVED\t")
	for i := range estimates {
		e := &estimates[i]
		status, ok := domain.FilingStatusCodeForID(e.FilingStatusID)
		if !ok {
			status = domain.FilingStatusCode(intToString(e.FilingStatusID))
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			e.ID, e.TaxYear, status,
			FormatCurrency(e.ExpectedAGI),
			optionalCurrency(e.CalculatedSETax),
			optionalCurrency(e.CalculatedTotalTax),
			optionalCurrency(e.CalculatedRequiredPayment),
			optionalCurrency(e.QuarterlyPayment()),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}

func optionalCurrency(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return FormatCurrency(*d)
}
