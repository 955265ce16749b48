package output

import (
	"context"
	"testing"

	"github.com/rpgo/estimated-tax/internal/calculation"
	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/rpgo/estimated-tax/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// buildTestReport runs a single filer with $100,000 of SE profit and $50,000
// of wages against the seeded 2025 data.
func buildTestReport(t *testing.T) *calculation.EstimateReport {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewMemory(nil)
	require.NoError(t, storage.Seed(ctx, repo))

	report, err := calculation.NewEstimator(repo, nil).Run(ctx, domain.EstimateRequest{
		TaxYear:             2025,
		FilingStatus:        domain.Single,
		AdjustedGrossIncome: d("100000.00"),
		PriorYearTax:        d("50000.00"),
		SelfEmployment: &domain.SelfEmploymentIncome{
			NetProfit: d("100000.00"),
			Wages:     d("50000.00"),
		},
	})
	require.NoError(t, err)
	return report
}

// buildNoPaymentReport is a wage earner whose withholding covers the year.
func buildNoPaymentReport(t *testing.T) *calculation.EstimateReport {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewMemory(nil)
	require.NoError(t, storage.Seed(ctx, repo))

	report, err := calculation.NewEstimator(repo, nil).Run(ctx, domain.EstimateRequest{
		TaxYear:             2025,
		FilingStatus:        domain.HeadOfHousehold,
		AdjustedGrossIncome: d("60000"),
		PriorYearTax:        d("5000"),
		Withholding:         d("6000"),
	})
	require.NoError(t, err)
	return report
}
