package integration

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rpgo/estimated-tax/internal/calculation"
	"github.com/rpgo/estimated-tax/internal/config"
	"github.com/rpgo/estimated-tax/internal/loader"
	"github.com/rpgo/estimated-tax/internal/output"
	"github.com/rpgo/estimated-tax/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputGeneration(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemory(nil)
	require.NoError(t, storage.Seed(ctx, repo))

	req, err := config.NewInputParser().LoadFromFile("../testdata/example_input.yaml")
	require.NoError(t, err)
	report, err := calculation.NewEstimator(repo, nil).Run(ctx, *req)
	require.NoError(t, err)

	for _, format := range output.AvailableFormatterNames() {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, output.GenerateReport(&buf, report, format))
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestImportedEstimatesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openSQLite(t)

	f, err := os.Open("../testdata/estimates.csv")
	require.NoError(t, err)
	defer f.Close()

	records, err := loader.ParseEstimates(f)
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, rec := range records {
		_, err := repo.CreateEstimate(ctx, rec)
		require.NoError(t, err)
	}

	saved, err := repo.ListEstimates(ctx, nil)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	var buf bytes.Buffer
	require.NoError(t, output.WriteEstimateTable(&buf, saved))
	table := buf.String()
	assert.Contains(t, table, "MFJ")
	assert.Equal(t, 3, strings.Count(table, "\n"))

	// Blank optional columns stay blank through the database.
	for _, e := range saved {
		if e.FilingStatusID == 2 {
			assert.Nil(t, e.SEIncome)
			require.NotNil(t, e.ExpectedWithholding)
			assert.Equal(t, "20000", e.ExpectedWithholding.String())
		}
	}
}
