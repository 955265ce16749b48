package main

import (
	"fmt"
	"time"

	"github.com/rpgo/estimated-tax/pkg/dateutil"
	"github.com/spf13/cobra"
)

func (a *app) dueCmd() *cobra.Command {
	var (
		year int
		asOf string
	)

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show the estimated tax installment due dates",
		Long: `Print the four installment due dates for a tax year and mark the next one
still to come. Dates that fall on a weekend move to the following Monday.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if asOf != "" {
				t, err := time.Parse(time.DateOnly, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of %q: want YYYY-MM-DD", asOf)
				}
				now = t
			}

			taxYear := a.taxYear(year)
			next, _, ok := dateutil.NextInstallment(taxYear, now)
			out := cmd.OutOrStdout()
			for i, due := range dateutil.InstallmentDueDates(taxYear) {
				marker := ""
				if ok && i == next {
					marker = "  <- next"
				}
				fmt.Fprintf(out, "%d  %s%s\n", i+1, due.Format("Mon Jan 2, 2006"), marker)
			}
			if !ok {
				fmt.Fprintf(out, "All %d installments are past due.\n", taxYear)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "tax year (default from settings)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "date to compare against, YYYY-MM-DD (default today)")

	return cmd
}
