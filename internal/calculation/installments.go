package calculation

import (
	"time"

	"github.com/rpgo/estimated-tax/pkg/dateutil"
	money "github.com/rpgo/estimated-tax/pkg/decimal"
	"github.com/shopspring/decimal"
)

// Installment is one quarterly estimated tax payment.
type Installment struct {
	Number  int             `yaml:"number" json:"number"`
	DueDate time.Time       `yaml:"due_date" json:"due_date"`
	Amount  decimal.Decimal `yaml:"amount" json:"amount"`
}

// BuildInstallments splits an underpayment into four equal installments
// rounded to the cent. The last installment absorbs the rounding remainder so
// the four always sum to the underpayment. A non-positive underpayment yields
// no installments.
func BuildInstallments(underpayment decimal.Decimal, taxYear int) []Installment {
	if !underpayment.IsPositive() {
		return nil
	}
	dates := dateutil.InstallmentDueDates(taxYear)
	quarter := money.RoundHalfUp(underpayment.Div(decimal.NewFromInt(int64(len(dates)))))

	out := make([]Installment, len(dates))
	paid := decimal.Zero
	for i, due := range dates {
		amount := quarter
		if i == len(dates)-1 {
			amount = money.RoundHalfUp(underpayment).Sub(paid)
		}
		out[i] = Installment{Number: i + 1, DueDate: due, Amount: amount}
		paid = paid.Add(amount)
	}
	return out
}
