package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sqlStore implements Repository over database/sql. Money is stored as TEXT
// so values round-trip exactly.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if s.dialect.isConflict != nil && s.dialect.isConflict(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullable converts an optional amount into a driver value.
func nullable(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// --- tax year configuration ---

func (s *sqlStore) GetTaxYearConfig(ctx context.Context, year int) (*domain.TaxYearConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var c domain.TaxYearConfig
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT tax_year, ss_wage_max, ss_tax_rate, medicare_tax_rate, se_tax_deductible_percentage,
		       se_deduction_factor, required_payment_threshold, min_se_threshold
		FROM tax_year_config WHERE tax_year = ?`), year).Scan(
		&c.TaxYear, &c.SSWageMax, &c.SSTaxRate, &c.MedicareTaxRate, &c.NetEarningsFactor,
		&c.SEDeductionFactor, &c.RequiredPaymentThreshold, &c.MinSEThreshold)
	if err != nil {
		return nil, s.wrapErr(fmt.Sprintf("tax year config %d", year), err)
	}
	return &c, nil
}

func (s *sqlStore) SaveTaxYearConfig(ctx context.Context, c domain.TaxYearConfig) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO tax_year_config (tax_year, ss_wage_max, ss_tax_rate, medicare_tax_rate,
			se_tax_deductible_percentage, se_deduction_factor, required_payment_threshold, min_se_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tax_year) DO UPDATE SET
			ss_wage_max = excluded.ss_wage_max,
			ss_tax_rate = excluded.ss_tax_rate,
			medicare_tax_rate = excluded.medicare_tax_rate,
			se_tax_deductible_percentage = excluded.se_tax_deductible_percentage,
			se_deduction_factor = excluded.se_deduction_factor,
			required_payment_threshold = excluded.required_payment_threshold,
			min_se_threshold = excluded.min_se_threshold`),
		c.TaxYear, c.SSWageMax.String(), c.SSTaxRate.String(), c.MedicareTaxRate.String(),
		c.NetEarningsFactor.String(), c.SEDeductionFactor.String(), c.RequiredPaymentThreshold.String(),
		c.MinSEThreshold.String())
	if err != nil {
		return s.wrapErr(fmt.Sprintf("save tax year config %d", c.TaxYear), err)
	}
	return nil
}

func (s *sqlStore) ListTaxYears(ctx context.Context) ([]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT tax_year FROM tax_year_config ORDER BY tax_year`)
	if err != nil {
		return nil, s.wrapErr("list tax years", err)
	}
	defer func() { _ = rows.Close() }()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, s.wrapErr("scan tax year", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// --- filing statuses ---

func (s *sqlStore) GetFilingStatus(ctx context.Context, id int) (*domain.FilingStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var fs domain.FilingStatus
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT id, status_code, status_name FROM filing_status WHERE id = ?`), id).
		Scan(&fs.ID, &fs.Code, &fs.Name)
	if err != nil {
		return nil, s.wrapErr(fmt.Sprintf("filing status %d", id), err)
	}
	return &fs, nil
}

func (s *sqlStore) GetFilingStatusByCode(ctx context.Context, code domain.FilingStatusCode) (*domain.FilingStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var fs domain.FilingStatus
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT id, status_code, status_name FROM filing_status WHERE status_code = ?`), string(code)).
		Scan(&fs.ID, &fs.Code, &fs.Name)
	if err != nil {
		return nil, s.wrapErr(fmt.Sprintf("filing status %s", code), err)
	}
	return &fs, nil
}

func (s *sqlStore) ListFilingStatuses(ctx context.Context) ([]domain.FilingStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, status_code, status_name FROM filing_status ORDER BY id`)
	if err != nil {
		return nil, s.wrapErr("list filing statuses", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.FilingStatus
	for rows.Next() {
		var fs domain.FilingStatus
		if err := rows.Scan(&fs.ID, &fs.Code, &fs.Name); err != nil {
			return nil, s.wrapErr("scan filing status", err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

func (s *sqlStore) SaveFilingStatus(ctx context.Context, fs domain.FilingStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO filing_status (id, status_code, status_name) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status_code = excluded.status_code, status_name = excluded.status_name`),
		fs.ID, string(fs.Code), fs.Name)
	if err != nil {
		return s.wrapErr(fmt.Sprintf("save filing status %s", fs.Code), err)
	}
	return nil
}

// --- standard deductions ---

func (s *sqlStore) GetStandardDeduction(ctx context.Context, year, filingStatusID int) (*domain.StandardDeduction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	sd := domain.StandardDeduction{TaxYear: year, FilingStatusID: filingStatusID}
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT amount FROM standard_deductions WHERE tax_year = ? AND filing_status_id = ?`),
		year, filingStatusID).Scan(&sd.Amount)
	if err != nil {
		return nil, s.wrapErr(fmt.Sprintf("standard deduction %d/%d", year, filingStatusID), err)
	}
	return &sd, nil
}

func (s *sqlStore) SaveStandardDeduction(ctx context.Context, sd domain.StandardDeduction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO standard_deductions (tax_year, filing_status_id, amount) VALUES (?, ?, ?)
		ON CONFLICT (tax_year, filing_status_id) DO UPDATE SET amount = excluded.amount`),
		sd.TaxYear, sd.FilingStatusID, sd.Amount.String())
	if err != nil {
		return s.wrapErr(fmt.Sprintf("save standard deduction %d/%d", sd.TaxYear, sd.FilingStatusID), err)
	}
	return nil
}

// --- tax brackets ---

func (s *sqlStore) GetTaxBrackets(ctx context.Context, year, filingStatusID int) ([]domain.TaxBracket, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT tax_year, filing_status_id, min_income, max_income, tax_rate, base_tax
		FROM tax_brackets WHERE tax_year = ? AND filing_status_id = ?`), year, filingStatusID)
	if err != nil {
		return nil, s.wrapErr(fmt.Sprintf("tax brackets %d/%d", year, filingStatusID), err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.TaxBracket
	for rows.Next() {
		var b domain.TaxBracket
		var maxIncome decimal.NullDecimal
		if err := rows.Scan(&b.TaxYear, &b.FilingStatusID, &b.MinIncome, &maxIncome, &b.TaxRate, &b.BaseTax); err != nil {
			return nil, s.wrapErr("scan tax bracket", err)
		}
		b.MaxIncome = fromNull(maxIncome)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrapErr("tax brackets", err)
	}
	// amounts are TEXT, so order numerically here rather than in SQL
	domain.SortBrackets(out)
	return out, nil
}

func (s *sqlStore) InsertTaxBracket(ctx context.Context, b domain.TaxBracket) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.insertTaxBracket(ctx, s.db, b)
}

func (s *sqlStore) insertTaxBracket(ctx context.Context, q queryer, b domain.TaxBracket) error {
	_, err := q.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO tax_brackets (tax_year, filing_status_id, min_income, max_income, tax_rate, base_tax)
		VALUES (?, ?, ?, ?, ?, ?)`),
		b.TaxYear, b.FilingStatusID, b.MinIncome.String(), nullable(b.MaxIncome), b.TaxRate.String(), b.BaseTax.String())
	if err != nil {
		return s.wrapErr(fmt.Sprintf("insert tax bracket %d/%d from %s", b.TaxYear, b.FilingStatusID, b.MinIncome), err)
	}
	return nil
}

func (s *sqlStore) DeleteTaxBrackets(ctx context.Context, year, filingStatusID int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.deleteTaxBrackets(ctx, s.db, year, filingStatusID)
}

func (s *sqlStore) deleteTaxBrackets(ctx context.Context, q queryer, year, filingStatusID int) (int64, error) {
	res, err := q.ExecContext(ctx, s.dialect.rebind(`
		DELETE FROM tax_brackets WHERE tax_year = ? AND filing_status_id = ?`), year, filingStatusID)
	if err != nil {
		return 0, s.wrapErr(fmt.Sprintf("delete tax brackets %d/%d", year, filingStatusID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.wrapErr("delete tax brackets", err)
	}
	return n, nil
}

func (s *sqlStore) ReplaceTaxBrackets(ctx context.Context, year, filingStatusID int, brackets []domain.TaxBracket) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, b := range brackets {
		if err := validateBracketKey(b, year, filingStatusID); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	deleted, err := s.deleteTaxBrackets(ctx, tx, year, filingStatusID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, b := range brackets {
		if err := s.insertTaxBracket(ctx, tx, b); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tax brackets %d/%d: %w", year, filingStatusID, err)
	}

	s.logger.Debug("replaced tax brackets",
		zap.String("op", "storage.ReplaceTaxBrackets"),
		zap.Int("tax_year", year),
		zap.Int("filing_status_id", filingStatusID),
		zap.Int64("deleted", deleted),
		zap.Int("inserted", len(brackets)))
	return nil
}

// --- estimates ---

const estimateColumns = `id, tax_year, filing_status_id, expected_agi, expected_deduction,
	expected_qbi_deduction, expected_amt, expected_credits, expected_other_taxes, expected_withholding,
	prior_year_tax, se_income, expected_crp_payments, expected_wages,
	calculated_se_tax, calculated_total_tax, calculated_required_payment, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEstimate(r rowScanner) (*domain.TaxEstimate, error) {
	var e domain.TaxEstimate
	var qbi, amt, credits, other, withholding, prior, seIncome, crp, wages, seTax, total, required decimal.NullDecimal
	err := r.Scan(&e.ID, &e.TaxYear, &e.FilingStatusID, &e.ExpectedAGI, &e.ExpectedDeduction,
		&qbi, &amt, &credits, &other, &withholding,
		&prior, &seIncome, &crp, &wages,
		&seTax, &total, &required, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ExpectedQBIDeduction = fromNull(qbi)
	e.ExpectedAMT = fromNull(amt)
	e.ExpectedCredits = fromNull(credits)
	e.ExpectedOtherTaxes = fromNull(other)
	e.ExpectedWithholding = fromNull(withholding)
	e.PriorYearTax = fromNull(prior)
	e.SEIncome = fromNull(seIncome)
	e.ExpectedCRPPayments = fromNull(crp)
	e.ExpectedWages = fromNull(wages)
	e.CalculatedSETax = fromNull(seTax)
	e.CalculatedTotalTax = fromNull(total)
	e.CalculatedRequiredPayment = fromNull(required)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func estimateArgs(e domain.NewTaxEstimate) []any {
	return []any{
		e.TaxYear, e.FilingStatusID, e.ExpectedAGI.String(), e.ExpectedDeduction.String(),
		nullable(e.ExpectedQBIDeduction), nullable(e.ExpectedAMT), nullable(e.ExpectedCredits),
		nullable(e.ExpectedOtherTaxes), nullable(e.ExpectedWithholding), nullable(e.PriorYearTax),
		nullable(e.SEIncome), nullable(e.ExpectedCRPPayments), nullable(e.ExpectedWages),
		nullable(e.CalculatedSETax), nullable(e.CalculatedTotalTax), nullable(e.CalculatedRequiredPayment),
	}
}

func (s *sqlStore) CreateEstimate(ctx context.Context, ne domain.NewTaxEstimate) (*domain.TaxEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateEstimate(ne); err != nil {
		return nil, err
	}

	ts := now()
	args := append(estimateArgs(ne), ts, ts)
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO tax_estimate (tax_year, filing_status_id, expected_agi, expected_deduction,
			expected_qbi_deduction, expected_amt, expected_credits, expected_other_taxes, expected_withholding,
			prior_year_tax, se_income, expected_crp_payments, expected_wages,
			calculated_se_tax, calculated_total_tax, calculated_required_payment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`), args...)

	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, s.wrapErr("create estimate", err)
	}

	s.logger.Debug("created estimate",
		zap.String("op", "storage.CreateEstimate"),
		zap.Int64("id", id),
		zap.Int("tax_year", ne.TaxYear))
	return &domain.TaxEstimate{ID: id, NewTaxEstimate: ne, CreatedAt: ts, UpdatedAt: ts}, nil
}

func (s *sqlStore) GetEstimate(ctx context.Context, id int64) (*domain.TaxEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+estimateColumns+` FROM tax_estimate WHERE id = ?`), id)
	e, err := scanEstimate(row)
	if err != nil {
		return nil, s.wrapErr(fmt.Sprintf("estimate %d", id), err)
	}
	return e, nil
}

func (s *sqlStore) UpdateEstimate(ctx context.Context, e *domain.TaxEstimate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: nil estimate", ErrInvalidRecord)
	}
	if err := validateEstimate(e.NewTaxEstimate); err != nil {
		return err
	}

	ts := now()
	args := append(estimateArgs(e.NewTaxEstimate), ts, e.ID)
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		UPDATE tax_estimate SET tax_year = ?, filing_status_id = ?, expected_agi = ?, expected_deduction = ?,
			expected_qbi_deduction = ?, expected_amt = ?, expected_credits = ?, expected_other_taxes = ?,
			expected_withholding = ?, prior_year_tax = ?, se_income = ?, expected_crp_payments = ?,
			expected_wages = ?, calculated_se_tax = ?, calculated_total_tax = ?, calculated_required_payment = ?,
			updated_at = ?
		WHERE id = ?`), args...)
	if err != nil {
		return s.wrapErr(fmt.Sprintf("update estimate %d", e.ID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.wrapErr(fmt.Sprintf("update estimate %d", e.ID), err)
	}
	if n == 0 {
		return fmt.Errorf("update estimate %d: %w", e.ID, ErrNotFound)
	}
	e.UpdatedAt = ts
	return nil
}

func (s *sqlStore) DeleteEstimate(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM tax_estimate WHERE id = ?`), id)
	if err != nil {
		return s.wrapErr(fmt.Sprintf("delete estimate %d", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.wrapErr(fmt.Sprintf("delete estimate %d", id), err)
	}
	if n == 0 {
		return fmt.Errorf("delete estimate %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *sqlStore) ListEstimates(ctx context.Context, year *int) ([]domain.TaxEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + estimateColumns + ` FROM tax_estimate`
	var args []any
	if year != nil {
		query += ` WHERE tax_year = ?`
		args = append(args, *year)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, s.wrapErr("list estimates", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.TaxEstimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, s.wrapErr("scan estimate", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
