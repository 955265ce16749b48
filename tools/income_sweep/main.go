package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rpgo/estimated-tax/internal/calculation"
	"github.com/rpgo/estimated-tax/internal/config"
	"github.com/rpgo/estimated-tax/internal/storage"
	"github.com/shopspring/decimal"
)

// income_sweep reruns an input file with AGI stepped from zero to the file's
// value and prints a CSV of where estimated payments start being required.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: income_sweep <input-file> [steps]")
		return
	}
	steps := 20
	if len(os.Args) > 2 {
		if _, err := fmt.Sscanf(os.Args[2], "%d", &steps); err != nil || steps <= 0 {
			fmt.Println("steps must be a positive integer")
			return
		}
	}

	req, err := config.NewInputParser().LoadFromFile(os.Args[1])
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	repo := storage.NewMemory(nil)
	if err := storage.Seed(ctx, repo); err != nil {
		panic(err)
	}
	est := calculation.NewEstimator(repo, nil)

	fmt.Println("AGI,TaxableIncome,TotalTax,Required,Underpayment,PaymentsRequired")
	top := req.AdjustedGrossIncome
	for i := 0; i <= steps; i++ {
		r := *req
		r.AdjustedGrossIncome = top.Mul(decimal.NewFromInt(int64(i))).Div(decimal.NewFromInt(int64(steps))).Round(0)
		rep, err := est.Run(ctx, r)
		if err != nil {
			panic(err)
		}
		ws := rep.Worksheet
		fmt.Printf("%s,%s,%s,%s,%s,%t\n",
			r.AdjustedGrossIncome.StringFixed(0), ws.TaxableIncome.StringFixed(2), ws.TotalEstimatedTax.StringFixed(2),
			ws.RequiredAnnualPayment.StringFixed(2), ws.Underpayment.StringFixed(2), ws.EstimatedPaymentsRequired)
	}
}
