package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

// seededBackends opens every backend that needs no external server, migrates
// and seeds it.
func seededBackends(t *testing.T) map[string]Repository {
	t.Helper()
	ctx := context.Background()

	sqlite, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "data", "estax.db"), nil)
	require.NoError(t, err)

	repos := map[string]Repository{
		"sqlite": sqlite,
		"memory": NewMemory(nil),
	}
	for name, repo := range repos {
		require.NoError(t, repo.Migrate(ctx), name)
		require.NoError(t, Seed(ctx, repo), name)
		r := repo
		t.Cleanup(func() { _ = r.Close() })
	}
	return repos
}

func TestRepositoryReferenceData(t *testing.T) {
	ctx := context.Background()
	for name, repo := range seededBackends(t) {
		t.Run(name, func(t *testing.T) {
			cfg, err := repo.GetTaxYearConfig(ctx, 2025)
			require.NoError(t, err)
			assert.True(t, cfg.SSWageMax.Equal(dec("176100")))
			assert.True(t, cfg.NetEarningsFactor.Equal(dec("0.9235")))
			assert.True(t, cfg.MinSEThreshold.Equal(dec("400")))

			years, err := repo.ListTaxYears(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int{2025}, years)

			statuses, err := repo.ListFilingStatuses(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.FilingStatuses(), statuses)

			hoh, err := repo.GetFilingStatusByCode(ctx, domain.HeadOfHousehold)
			require.NoError(t, err)
			assert.Equal(t, 4, hoh.ID)
			assert.Equal(t, "Head of Household", hoh.Name)

			byID, err := repo.GetFilingStatus(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, domain.MarriedFilingJointly, byID.Code)

			sd, err := repo.GetStandardDeduction(ctx, 2025, hoh.ID)
			require.NoError(t, err)
			assert.True(t, sd.Amount.Equal(dec("22500")))

			brackets, err := repo.GetTaxBrackets(ctx, 2025, 1)
			require.NoError(t, err)
			require.Len(t, brackets, 7)
			require.NoError(t, domain.ValidateBrackets(brackets))
			assert.True(t, brackets[1].MinIncome.Equal(dec("11925")))
			assert.True(t, brackets[6].IsTop())
			assert.True(t, brackets[6].BaseTax.Equal(dec("188769.75")))

			mfs, err := repo.GetTaxBrackets(ctx, 2025, 3)
			require.NoError(t, err)
			assert.True(t, mfs[6].MinIncome.Equal(dec("375800")))
		})
	}
}

func TestRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	for name, repo := range seededBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.GetTaxYearConfig(ctx, 1999)
			assert.True(t, errors.Is(err, ErrNotFound), "config: %v", err)

			_, err = repo.GetFilingStatusByCode(ctx, "XX")
			assert.True(t, errors.Is(err, ErrNotFound), "status: %v", err)

			_, err = repo.GetFilingStatus(ctx, 42)
			assert.True(t, errors.Is(err, ErrNotFound), "status id: %v", err)

			_, err = repo.GetStandardDeduction(ctx, 1999, 1)
			assert.True(t, errors.Is(err, ErrNotFound), "deduction: %v", err)

			_, err = repo.GetEstimate(ctx, 9999)
			assert.True(t, errors.Is(err, ErrNotFound), "estimate: %v", err)

			assert.True(t, errors.Is(repo.DeleteEstimate(ctx, 9999), ErrNotFound))

			brackets, err := repo.GetTaxBrackets(ctx, 1999, 1)
			require.NoError(t, err)
			assert.Empty(t, brackets)
		})
	}
}

func TestRepositoryBrackets(t *testing.T) {
	ctx := context.Background()
	for name, repo := range seededBackends(t) {
		t.Run(name, func(t *testing.T) {
			n, err := repo.DeleteTaxBrackets(ctx, 2025, 4)
			require.NoError(t, err)
			assert.Equal(t, int64(7), n)

			// inserted out of order and with amounts that sort wrongly as text
			upper := dec("9000")
			require.NoError(t, repo.InsertTaxBracket(ctx, domain.TaxBracket{
				TaxYear: 2025, FilingStatusID: 4, MinIncome: dec("9000"), TaxRate: dec("0.2"), BaseTax: dec("900"),
			}))
			require.NoError(t, repo.InsertTaxBracket(ctx, domain.TaxBracket{
				TaxYear: 2025, FilingStatusID: 4, MinIncome: dec("0"), MaxIncome: &upper, TaxRate: dec("0.1"), BaseTax: dec("0"),
			}))

			got, err := repo.GetTaxBrackets(ctx, 2025, 4)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.True(t, got[0].MinIncome.IsZero())
			require.NotNil(t, got[0].MaxIncome)
			assert.True(t, got[0].MaxIncome.Equal(upper))
			assert.Nil(t, got[1].MaxIncome)
			require.NoError(t, domain.ValidateBrackets(got))

			err = repo.ReplaceTaxBrackets(ctx, 2025, 4, []domain.TaxBracket{
				{TaxYear: 2024, FilingStatusID: 4, MinIncome: dec("0"), TaxRate: dec("0.1")},
			})
			assert.True(t, errors.Is(err, ErrInvalidRecord))

			require.NoError(t, repo.ReplaceTaxBrackets(ctx, 2025, 4, SeedBrackets(domain.FilingStatus{ID: 4, Code: domain.HeadOfHousehold})))
			got, err = repo.GetTaxBrackets(ctx, 2025, 4)
			require.NoError(t, err)
			assert.Len(t, got, 7)
		})
	}
}

func TestRepositoryConflicts(t *testing.T) {
	ctx := context.Background()
	for name, repo := range seededBackends(t) {
		t.Run(name, func(t *testing.T) {
			err := repo.SaveFilingStatus(ctx, domain.FilingStatus{ID: 9, Code: domain.Single, Name: "Duplicate"})
			assert.True(t, errors.Is(err, ErrConflict), "duplicate code: %v", err)

			err = repo.SaveStandardDeduction(ctx, domain.StandardDeduction{TaxYear: 2025, FilingStatusID: 77, Amount: dec("1")})
			assert.True(t, errors.Is(err, ErrConflict), "unknown status: %v", err)
		})
	}
}

func TestRepositoryEstimates(t *testing.T) {
	ctx := context.Background()
	for name, repo := range seededBackends(t) {
		t.Run(name, func(t *testing.T) {
			first, err := repo.CreateEstimate(ctx, domain.NewTaxEstimate{
				TaxYear:           2025,
				FilingStatusID:    1,
				ExpectedAGI:       dec("100000.00"),
				ExpectedDeduction: dec("15000.00"),
				PriorYearTax:      decPtr("12000.00"),
				SEIncome:          decPtr("50000.00"),
				CalculatedSETax:   decPtr("7064.78"),
			})
			require.NoError(t, err)
			assert.Positive(t, first.ID)
			assert.False(t, first.CreatedAt.IsZero())

			second, err := repo.CreateEstimate(ctx, domain.NewTaxEstimate{
				TaxYear: 2024, FilingStatusID: 2, ExpectedAGI: dec("80000"), ExpectedDeduction: dec("29200"),
			})
			require.NoError(t, err)
			assert.Greater(t, second.ID, first.ID)

			got, err := repo.GetEstimate(ctx, first.ID)
			require.NoError(t, err)
			assert.True(t, got.ExpectedAGI.Equal(dec("100000")))
			require.NotNil(t, got.PriorYearTax)
			assert.True(t, got.PriorYearTax.Equal(dec("12000")))
			require.NotNil(t, got.CalculatedSETax)
			assert.True(t, got.CalculatedSETax.Equal(dec("7064.78")))
			assert.Nil(t, got.ExpectedAMT)
			assert.Nil(t, got.ExpectedWages)
			assert.True(t, got.CreatedAt.Equal(first.CreatedAt))

			all, err := repo.ListEstimates(ctx, nil)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, second.ID, all[0].ID, "newest first")

			year := 2025
			only, err := repo.ListEstimates(ctx, &year)
			require.NoError(t, err)
			require.Len(t, only, 1)
			assert.Equal(t, first.ID, only[0].ID)

			got.ExpectedCredits = decPtr("500")
			got.SEIncome = nil
			require.NoError(t, repo.UpdateEstimate(ctx, got))
			updated, err := repo.GetEstimate(ctx, first.ID)
			require.NoError(t, err)
			require.NotNil(t, updated.ExpectedCredits)
			assert.True(t, updated.ExpectedCredits.Equal(dec("500")))
			assert.Nil(t, updated.SEIncome)
			assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

			missing := *got
			missing.ID = 9999
			assert.True(t, errors.Is(repo.UpdateEstimate(ctx, &missing), ErrNotFound))

			_, err = repo.CreateEstimate(ctx, domain.NewTaxEstimate{TaxYear: 0, FilingStatusID: 1})
			assert.True(t, errors.Is(err, ErrInvalidRecord))

			require.NoError(t, repo.DeleteEstimate(ctx, first.ID))
			_, err = repo.GetEstimate(ctx, first.ID)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "estax.db")

	repo, err := NewSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, Seed(ctx, repo))
	require.NoError(t, repo.Close())

	repo, err = NewSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, Seed(ctx, repo))

	brackets, err := repo.GetTaxBrackets(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Len(t, brackets, 7, "seeding twice must not duplicate brackets")
}

func TestNilContext(t *testing.T) {
	repo := NewMemory(nil)
	//nolint:staticcheck // exercising the nil guard
	_, err := repo.GetTaxYearConfig(nil, 2025)
	assert.ErrorIs(t, err, ErrNilContext)
}
