package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpgo/estimated-tax/internal/output"
	"github.com/rpgo/estimated-tax/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../../test/testdata"

// newTestConfig writes a settings file pointing at a fresh SQLite database so
// several invocations can share state.
func newTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "estax.yaml")
	content := "database:\n  backend: sqlite\n  dsn: " + filepath.Join(dir, "estax.db") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o644))
	return cfg
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg, "--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, newTestConfig(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "estax version dev\n", out)
}

func TestTaxCommand(t *testing.T) {
	cfg := newTestConfig(t)

	out, err := run(t, cfg, "tax", "--income", "85000")
	require.NoError(t, err)
	assert.Equal(t, "Tax on $85,000.00 (2025 Single): $13,614.00\n", out)

	out, err = run(t, cfg, "tax", "--income", "37500", "--status", "hoh")
	require.NoError(t, err)
	assert.Contains(t, out, "(2025 Head of Household): $4,160.00")

	_, err = run(t, cfg, "tax", "--income", "1000", "--status", "XYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filing status")

	_, err = run(t, cfg, "tax", "--income", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --income")
}

func TestMemoryBackendFromFlag(t *testing.T) {
	out, err := run(t, newTestConfig(t), "--db-backend", "memory", "tax", "--income", "85000")
	require.NoError(t, err)
	assert.Contains(t, out, "$13,614.00")
}

func TestUnknownBackend(t *testing.T) {
	_, err := run(t, newTestConfig(t), "--db-backend", "oracle", "tax", "--income", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrUnknownBackend))
}

func TestSECommand(t *testing.T) {
	cfg := newTestConfig(t)

	out, err := run(t, cfg, "se", "--se-income", "100000", "--wages", "50000")
	require.NoError(t, err)
	assert.Contains(t, out, "2025 Self-Employment Tax and Deduction Worksheet")
	assert.Contains(t, out, "$14,129.55")
	assert.Contains(t, out, "$7,064.78")

	out, err = run(t, cfg, "se", "--se-income", "350")
	require.NoError(t, err)
	assert.Contains(t, out, "no self-employment tax is due")

	_, err = run(t, cfg, "se")
	require.Error(t, err)
}

func TestCalcCommand(t *testing.T) {
	cfg := newTestConfig(t)
	input := filepath.Join(testdata, "example_input.yaml")

	out, err := run(t, cfg, "calc", "-i", input)
	require.NoError(t, err)
	assert.Contains(t, out, "2025 FORM 1040-ES ESTIMATED TAX (Single)")
	assert.Contains(t, out, "Estimated payments are required: $24,969.20")

	out, err = run(t, cfg, "calc", "-i", input, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "estimated,11c,Total estimated tax,27743.55")

	_, err = run(t, cfg, "calc", "-i", input, "--format", "pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, output.ErrUnsupportedFormat))

	dir := t.TempDir()
	out, err = run(t, cfg, "calc", "-i", input, "--format", "html", "--output-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to")
	files, err := filepath.Glob(filepath.Join(dir, "estimate_2025_s_*.html"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestEstimateLifecycle(t *testing.T) {
	cfg := newTestConfig(t)

	out, err := run(t, cfg, "estimates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved estimates")

	out, err = run(t, cfg, "estimates", "save", "-i", filepath.Join(testdata, "example_input.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Saved estimate 1: total tax $27,743.55, required payment $24,969.20\n", out)

	out, err = run(t, cfg, "estimates", "list", "--year", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "$24,969.20")
	assert.Contains(t, out, "$6,242.30")

	out, err = run(t, cfg, "estimates", "show", "1", "--format", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total estimated tax:   $27,743.55")

	out, err = run(t, cfg, "estimates", "recalc", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated estimate 1: required payment $24,969.20")

	out, err = run(t, cfg, "estimates", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted estimate 1\n", out)

	_, err = run(t, cfg, "estimates", "show", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = run(t, cfg, "estimates", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid estimate id")
}

func TestImportEstimates(t *testing.T) {
	cfg := newTestConfig(t)

	out, err := run(t, cfg, "estimates", "import", "-f", filepath.Join(testdata, "estimates.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 estimates")

	out, err = run(t, cfg, "estimates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "MFJ")
	assert.Contains(t, out, "$24,969.20")
}

func TestBracketCommands(t *testing.T) {
	cfg := newTestConfig(t)

	out, err := run(t, cfg, "brackets", "load", "-f", filepath.Join(testdata, "brackets_2025.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 35 tax brackets")

	out, err = run(t, cfg, "brackets", "list", "--status", "mfj")
	require.NoError(t, err)
	assert.Contains(t, out, "Married Filing Jointly (MFJ)")
	assert.Contains(t, out, "$202,154.50")
	assert.NotContains(t, out, "Single")

	out, err = run(t, cfg, "brackets", "list", "--year", "1999")
	require.NoError(t, err)
	assert.Contains(t, out, "No tax brackets for 1999")

	_, err = run(t, cfg, "brackets", "load", "-f", filepath.Join(testdata, "missing.csv"))
	require.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	out, err := run(t, newTestConfig(t), "migrate", "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "tax years available: [2025]")
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(""))
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))

	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("ESTAX_TEST_ONLY_VALUE=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ESTAX_TEST_ONLY_VALUE") })
	require.NoError(t, loadEnvFile(env))
	assert.Equal(t, "loaded", os.Getenv("ESTAX_TEST_ONLY_VALUE"))
}

func TestEnvFileOverridesSettings(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("ESTAX_FILING_STATUS=HOH\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ESTAX_FILING_STATUS") })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", newTestConfig(t), "--env-file", env, "tax", "--income", "37500"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Head of Household")
}

func TestDueCommand(t *testing.T) {
	cfg := newTestConfig(t)

	out, err := run(t, cfg, "due", "--as-of", "2025-05-01")
	require.NoError(t, err)
	assert.Contains(t, out, "1  Tue Apr 15, 2025\n")
	assert.Contains(t, out, "2  Mon Jun 16, 2025  <- next")
	assert.Contains(t, out, "4  Thu Jan 15, 2026")

	out, err = run(t, cfg, "due", "--year", "2024", "--as-of", "2025-05-01")
	require.NoError(t, err)
	assert.Contains(t, out, "All 2024 installments are past due.")

	_, err = run(t, cfg, "due", "--as-of", "May 1")
	require.Error(t, err)
}
