package loader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/rpgo/estimated-tax/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scheduleCSV = `tax_year,schedule,min_income,max_income,base_tax,rate
2025,X,0,11925,0,0.10
2025,X,11925,48475,1192.50,0.12
2025,X,48475,103350,5578.50,0.22
2025,X,103350,197300,17651,0.24
2025,X,197300,250525,40199,0.32
2025,X,250525,626350,57231,0.35
2025,X,626350,,188769.75,0.37
2025,Y-1,0,23850,0,0.10
2025,Y-1,23850,96950,2385,0.12
2025,Y-1,96950,206700,11157,0.22
2025,Y-1,206700,394600,35302,0.24
2025,Y-1,394600,501050,80398,0.32
2025,Y-1,501050,751600,114462,0.35
2025,Y-1,751600,,202154.50,0.37
`

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(scheduleCSV))
	require.NoError(t, err)
	require.Len(t, records, 14)

	first := records[0]
	assert.Equal(t, 2025, first.TaxYear)
	assert.Equal(t, "X", first.Schedule)
	assert.True(t, first.MinIncome.IsZero())
	require.NotNil(t, first.MaxIncome)
	assert.True(t, first.MaxIncome.Equal(dec("11925")))
	assert.True(t, first.Rate.Equal(dec("0.10")))

	assert.Nil(t, records[6].MaxIncome)
	assert.True(t, records[6].BaseTax.Equal(dec("188769.75")))
}

func TestParseReorderedColumnsAndWhitespace(t *testing.T) {
	in := "rate, base_tax, max_income, min_income, schedule, tax_year\n0.10, 0, 17000, 0, z, 2025\n"
	records, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Z", records[0].Schedule)
	assert.True(t, records[0].MaxIncome.Equal(dec("17000")))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		target error
		msg    string
	}{
		{"empty input", "", 1, nil, "missing header"},
		{"missing column", "tax_year,schedule,min_income,max_income,base_tax\n", 1, nil, `missing column "rate"`},
		{"bad decimal", "tax_year,schedule,min_income,max_income,base_tax,rate\n2025,X,abc,10,0,0.1\n", 2, nil, "invalid min_income"},
		{"bad year", "tax_year,schedule,min_income,max_income,base_tax,rate\n2025,X,0,10,0,0.1\nnext,X,0,10,0,0.1\n", 3, nil, "invalid tax_year"},
		{"unknown schedule", "tax_year,schedule,min_income,max_income,base_tax,rate\n2025,Q,0,10,0,0.1\n", 2, ErrInvalidSchedule, "Q"},
		{"missing rate", "tax_year,schedule,min_income,max_income,base_tax,rate\n2025,X,0,10,0,\n", 2, nil, "rate is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %T: %v", err, err)
			assert.Equal(t, tt.line, pe.Line)
			assert.Contains(t, err.Error(), tt.msg)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
		})
	}
}

func TestScheduleStatuses(t *testing.T) {
	codes, err := ScheduleStatuses("y-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.FilingStatusCode{domain.MarriedFilingJointly, domain.QualifyingSurvivingSpouse}, codes)

	_, err = ScheduleStatuses("W")
	assert.True(t, errors.Is(err, ErrInvalidSchedule))
}

func seededMemory(t *testing.T) storage.Repository {
	t.Helper()
	repo := storage.NewMemory(nil)
	require.NoError(t, storage.Seed(context.Background(), repo))
	return repo
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	repo := seededMemory(t)

	// replace the seeded 2025 single schedule and add 2026 Y-1
	records, err := Parse(strings.NewReader(scheduleCSV))
	require.NoError(t, err)
	for i := 7; i < len(records); i++ {
		records[i].TaxYear = 2026
	}

	n, err := Load(ctx, repo, records)
	require.NoError(t, err)
	assert.Equal(t, 7+7*2, n, "Y-1 is written for MFJ and QSS")

	for _, statusID := range []int{2, 5} {
		brackets, err := repo.GetTaxBrackets(ctx, 2026, statusID)
		require.NoError(t, err)
		require.Len(t, brackets, 7)
		assert.True(t, brackets[6].BaseTax.Equal(dec("202154.50")))
	}

	// loading again is idempotent
	n, err = Load(ctx, repo, records)
	require.NoError(t, err)
	assert.Equal(t, 21, n)
	single, err := repo.GetTaxBrackets(ctx, 2025, 1)
	require.NoError(t, err)
	assert.Len(t, single, 7)
}

func TestLoadRejectsGapsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	repo := seededMemory(t)

	in := `tax_year,schedule,min_income,max_income,base_tax,rate
2025,Z,0,1000,0,0.10
2025,Z,2000,,100,0.20
`
	records, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	n, err := Load(ctx, repo, records)
	assert.Zero(t, n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedBrackets))

	brackets, err := repo.GetTaxBrackets(ctx, 2025, 4)
	require.NoError(t, err)
	assert.Len(t, brackets, 7, "seeded schedule must survive a rejected load")
}

func TestLoadNeedsFilingStatuses(t *testing.T) {
	records, err := Parse(strings.NewReader(scheduleCSV))
	require.NoError(t, err)

	_, err = Load(context.Background(), storage.NewMemory(nil), records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.Contains(t, err.Error(), "seeded")
}
