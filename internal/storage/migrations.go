package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ExpectedSchemaVersion is the latest schema version the application expects.
const ExpectedSchemaVersion = 1

// Migration is one forward-only schema change.
type Migration struct {
	Up          func(ctx context.Context, tx *sql.Tx, d dialect) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(ctx context.Context, tx *sql.Tx, d dialect) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS tax_year_config (
					tax_year INTEGER PRIMARY KEY,
					ss_wage_max TEXT NOT NULL,
					ss_tax_rate TEXT NOT NULL,
					medicare_tax_rate TEXT NOT NULL,
					se_tax_deductible_percentage TEXT NOT NULL,
					se_deduction_factor TEXT NOT NULL,
					required_payment_threshold TEXT NOT NULL,
					min_se_threshold TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS filing_status (
					id INTEGER PRIMARY KEY,
					status_code TEXT NOT NULL UNIQUE,
					status_name TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS standard_deductions (
					tax_year INTEGER NOT NULL,
					filing_status_id INTEGER NOT NULL REFERENCES filing_status(id),
					amount TEXT NOT NULL,
					PRIMARY KEY (tax_year, filing_status_id)
				)`,

				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tax_brackets (
					id %s,
					tax_year INTEGER NOT NULL,
					filing_status_id INTEGER NOT NULL REFERENCES filing_status(id),
					min_income TEXT NOT NULL,
					max_income TEXT,
					tax_rate TEXT NOT NULL,
					base_tax TEXT NOT NULL
				)`, d.serialPK),
				`CREATE INDEX IF NOT EXISTS idx_tax_brackets_year_status ON tax_brackets(tax_year, filing_status_id)`,

				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tax_estimate (
					id %s,
					tax_year INTEGER NOT NULL,
					filing_status_id INTEGER NOT NULL REFERENCES filing_status(id),
					expected_agi TEXT NOT NULL,
					expected_deduction TEXT NOT NULL,
					expected_qbi_deduction TEXT,
					expected_amt TEXT,
					expected_credits TEXT,
					expected_other_taxes TEXT,
					expected_withholding TEXT,
					prior_year_tax TEXT,
					se_income TEXT,
					expected_crp_payments TEXT,
					expected_wages TEXT,
					calculated_se_tax TEXT,
					calculated_total_tax TEXT,
					calculated_required_payment TEXT,
					created_at %s NOT NULL,
					updated_at %s NOT NULL
				)`, d.serialPK, d.timestampType, d.timestampType),
				`CREATE INDEX IF NOT EXISTS idx_tax_estimate_year ON tax_estimate(tax_year)`,
			}

			for _, query := range queries {
				if _, err := tx.ExecContext(ctx, query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies every migration newer than the recorded schema version.
func (s *sqlStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at %s NOT NULL
	)`, s.dialect.timestampType))
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	currentVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(ctx, tx, s.dialect); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		_, execErr := tx.ExecContext(ctx,
			s.dialect.rebind(`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`),
			migration.Version, migration.Description, time.Now().UTC())
		if execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		s.logger.Info("applied migration",
			zap.String("op", "storage.Migrate"),
			zap.String("backend", s.dialect.name),
			zap.Int("version", migration.Version),
			zap.String("description", migration.Description))
	}

	finalVersion, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}

func (s *sqlStore) schemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return int(version.Int64), nil
}
