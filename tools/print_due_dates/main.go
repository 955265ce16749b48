package main

import (
	"fmt"
	"time"

	"github.com/rpgo/estimated-tax/internal/calculation"
	"github.com/rpgo/estimated-tax/pkg/dateutil"
	"github.com/shopspring/decimal"
)

func main() {
	start := time.Now().Year() - 1
	for year := start; year < start+5; year++ {
		fmt.Printf("%d:", year)
		for _, due := range dateutil.InstallmentDueDates(year) {
			marker := ""
			if due.Day() != 15 {
				marker = "*"
			}
			fmt.Printf("  %s %s%s", due.Format("2006-01-02"), due.Weekday().String()[:3], marker)
		}
		fmt.Println()
	}
	fmt.Println("* moved off a weekend")

	// Rounding remainder lands on the last installment.
	for _, inst := range calculation.BuildInstallments(decimal.RequireFromString("1000.01"), start+1) {
		fmt.Printf("installment %d due %s: %s\n", inst.Number, inst.DueDate.Format("Jan 2, 2006"), inst.Amount.StringFixed(2))
	}
}
