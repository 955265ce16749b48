// Package loader imports tax rate schedules and saved estimates from CSV.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidSchedule is wrapped when a record names a schedule other than
// X, Y-1, Y-2 or Z.
var ErrInvalidSchedule = errors.New("invalid schedule")

var bracketColumns = []string{"tax_year", "schedule", "min_income", "max_income", "base_tax", "rate"}

// BracketRecord is one row of a rate schedule CSV. MaxIncome is nil for the
// top bracket.
type BracketRecord struct {
	TaxYear   int
	Schedule  string
	MinIncome decimal.Decimal
	MaxIncome *decimal.Decimal
	BaseTax   decimal.Decimal
	Rate      decimal.Decimal
}

// ParseError reports the CSV line a record failed on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ScheduleStatuses maps an IRS rate schedule to the filing statuses it
// applies to.
func ScheduleStatuses(schedule string) ([]domain.FilingStatusCode, error) {
	switch strings.ToUpper(strings.TrimSpace(schedule)) {
	case "X":
		return []domain.FilingStatusCode{domain.Single}, nil
	case "Y-1":
		return []domain.FilingStatusCode{domain.MarriedFilingJointly, domain.QualifyingSurvivingSpouse}, nil
	case "Y-2":
		return []domain.FilingStatusCode{domain.MarriedFilingSeparately}, nil
	case "Z":
		return []domain.FilingStatusCode{domain.HeadOfHousehold}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSchedule, schedule)
	}
}

// header maps column names to their position and checks the required ones
// are present.
type header map[string]int

func readHeader(r *csv.Reader, required []string) (header, error) {
	names, err := r.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Err: errors.New("missing header")}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}
	h := make(header, len(names))
	for i, name := range names {
		h[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, &ParseError{Line: 1, Err: fmt.Errorf("missing column %q", col)}
		}
	}
	return h, nil
}

// get returns the trimmed cell for col, or "" when the column is absent.
func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) decimal(row []string, col string) (decimal.Decimal, error) {
	v := h.get(row, col)
	if v == "" {
		return decimal.Zero, fmt.Errorf("%s is required", col)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", col, v, err)
	}
	return d, nil
}

func (h header) optionalDecimal(row []string, col string) (*decimal.Decimal, error) {
	if h.get(row, col) == "" {
		return nil, nil
	}
	d, err := h.decimal(row, col)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h header) year(row []string) (int, error) {
	v := h.get(row, "tax_year")
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid tax_year %q", v)
	}
	return year, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// readRow returns the next record and the line it started on.
func readRow(cr *csv.Reader) ([]string, int, error) {
	row, err := cr.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, pe.StartLine, &ParseError{Line: pe.StartLine, Err: pe.Err}
		}
		return nil, 0, err
	}
	line, _ := cr.FieldPos(0)
	return row, line, nil
}

// Parse reads a rate schedule CSV with the columns
// tax_year,schedule,min_income,max_income,base_tax,rate in any order.
func Parse(r io.Reader) ([]BracketRecord, error) {
	cr := newReader(r)
	h, err := readHeader(cr, bracketColumns)
	if err != nil {
		return nil, err
	}

	var records []BracketRecord
	for {
		row, line, err := readRow(cr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseBracketRow(h, row)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseBracketRow(h header, row []string) (BracketRecord, error) {
	var rec BracketRecord
	var err error
	if rec.TaxYear, err = h.year(row); err != nil {
		return rec, err
	}
	rec.Schedule = strings.ToUpper(h.get(row, "schedule"))
	if _, err := ScheduleStatuses(rec.Schedule); err != nil {
		return rec, err
	}
	if rec.MinIncome, err = h.decimal(row, "min_income"); err != nil {
		return rec, err
	}
	if rec.MaxIncome, err = h.optionalDecimal(row, "max_income"); err != nil {
		return rec, err
	}
	if rec.BaseTax, err = h.decimal(row, "base_tax"); err != nil {
		return rec, err
	}
	if rec.Rate, err = h.decimal(row, "rate"); err != nil {
		return rec, err
	}
	return rec, nil
}

// BracketStore is the part of a repository Load writes through.
type BracketStore interface {
	GetFilingStatusByCode(ctx context.Context, code domain.FilingStatusCode) (*domain.FilingStatus, error)
	ReplaceTaxBrackets(ctx context.Context, year, filingStatusID int, brackets []domain.TaxBracket) error
}

type scheduleKey struct {
	year     int
	schedule string
}

// Load replaces the stored schedule for every (year, schedule) group in
// records and returns the number of bracket rows written. Schedule Y-1 is
// written for both MFJ and QSS. Each group is validated before anything is
// written, so a malformed file leaves the store untouched.
func Load(ctx context.Context, store BracketStore, records []BracketRecord) (int, error) {
	groups := make(map[scheduleKey][]BracketRecord)
	var keys []scheduleKey
	for _, rec := range records {
		k := scheduleKey{rec.TaxYear, strings.ToUpper(rec.Schedule)}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], rec)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].schedule < keys[j].schedule
	})

	type pending struct {
		status   domain.FilingStatus
		brackets []domain.TaxBracket
	}
	var writes []pending
	for _, k := range keys {
		codes, err := ScheduleStatuses(k.schedule)
		if err != nil {
			return 0, err
		}
		for _, code := range codes {
			fs, err := store.GetFilingStatusByCode(ctx, code)
			if err != nil {
				return 0, fmt.Errorf("filing status %s for schedule %s (has the database been seeded?): %w", code, k.schedule, err)
			}
			brackets := toBrackets(groups[k], k.year, fs.ID)
			if err := domain.ValidateBrackets(brackets); err != nil {
				return 0, fmt.Errorf("schedule %s for %d: %w", k.schedule, k.year, err)
			}
			writes = append(writes, pending{status: *fs, brackets: brackets})
		}
	}

	inserted := 0
	for _, w := range writes {
		year := w.brackets[0].TaxYear
		if err := store.ReplaceTaxBrackets(ctx, year, w.status.ID, w.brackets); err != nil {
			return inserted, fmt.Errorf("failed to store %d brackets for %s: %w", year, w.status.Code, err)
		}
		inserted += len(w.brackets)
	}
	return inserted, nil
}

func toBrackets(records []BracketRecord, year, statusID int) []domain.TaxBracket {
	out := make([]domain.TaxBracket, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.TaxBracket{
			TaxYear:        year,
			FilingStatusID: statusID,
			MinIncome:      rec.MinIncome,
			MaxIncome:      rec.MaxIncome,
			TaxRate:        rec.Rate,
			BaseTax:        rec.BaseTax,
		})
	}
	domain.SortBrackets(out)
	return out
}
