package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rpgo/estimated-tax/internal/domain"
)

// WriteBracketTable prints a rate schedule in the layout of the IRS tables:
// over, but not over, base tax plus a rate on the amount over.
func WriteBracketTable(w io.Writer, status domain.FilingStatus, brackets []domain.TaxBracket) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s (%s)\t\t\t\t\n", status.Name, status.Code)
	fmt.Fprintln(tw, "OVER\tBUT NOT OVER\tBASE TAX\tRATE\t")
	for _, b := range brackets {
		upper := "-"
		if !b.IsTop() {
			upper = FormatCurrency(*b.MaxIncome)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			FormatCurrency(b.MinIncome), upper, FormatCurrency(b.BaseTax), FormatPercentage(b.TaxRate))
	}
	return tw.Flush()
}
