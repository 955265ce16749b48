package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rpgo/estimated-tax/internal/domain"
	"go.uber.org/zap"
)

type memoryFactory struct{}

func (memoryFactory) Backend() string { return "memory" }

func (memoryFactory) Open(ctx context.Context, cfg Config) (Repository, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return NewMemory(cfg.Logger), nil
}

type bracketKey struct {
	year, statusID int
}

// memoryStore keeps everything in maps. It enforces the same keys and
// references as the SQL schema so it can stand in for it in tests.
type memoryStore struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	configs    map[int]domain.TaxYearConfig
	statuses   map[int]domain.FilingStatus
	deductions map[bracketKey]domain.StandardDeduction
	brackets   map[bracketKey][]domain.TaxBracket
	estimates  map[int64]domain.TaxEstimate
	nextID     int64
}

// NewMemory creates an empty in-process repository.
func NewMemory(logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &memoryStore{
		logger:     logger,
		configs:    make(map[int]domain.TaxYearConfig),
		statuses:   make(map[int]domain.FilingStatus),
		deductions: make(map[bracketKey]domain.StandardDeduction),
		brackets:   make(map[bracketKey][]domain.TaxBracket),
		estimates:  make(map[int64]domain.TaxEstimate),
	}
}

func (m *memoryStore) Migrate(ctx context.Context) error {
	return validateContext(ctx)
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) GetTaxYearConfig(ctx context.Context, year int) (*domain.TaxYearConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.configs[year]
	if !ok {
		return nil, fmt.Errorf("tax year config %d: %w", year, ErrNotFound)
	}
	return &c, nil
}

func (m *memoryStore) SaveTaxYearConfig(ctx context.Context, cfg domain.TaxYearConfig) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.TaxYear] = cfg
	return nil
}

func (m *memoryStore) ListTaxYears(ctx context.Context) ([]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var years []int
	for y := range m.configs {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func (m *memoryStore) GetFilingStatus(ctx context.Context, id int) (*domain.FilingStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	fs, ok := m.statuses[id]
	if !ok {
		return nil, fmt.Errorf("filing status %d: %w", id, ErrNotFound)
	}
	return &fs, nil
}

func (m *memoryStore) GetFilingStatusByCode(ctx context.Context, code domain.FilingStatusCode) (*domain.FilingStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, fs := range m.statuses {
		if fs.Code == code {
			out := fs
			return &out, nil
		}
	}
	return nil, fmt.Errorf("filing status %s: %w", code, ErrNotFound)
}

func (m *memoryStore) ListFilingStatuses(ctx context.Context) ([]domain.FilingStatus, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.FilingStatus, 0, len(m.statuses))
	for _, fs := range m.statuses {
		out = append(out, fs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) SaveFilingStatus(ctx context.Context, fs domain.FilingStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.statuses {
		if id != fs.ID && existing.Code == fs.Code {
			return fmt.Errorf("save filing status %s: %w", fs.Code, ErrConflict)
		}
	}
	m.statuses[fs.ID] = fs
	return nil
}

func (m *memoryStore) requireStatus(op string, id int) error {
	if _, ok := m.statuses[id]; !ok {
		return fmt.Errorf("%s: %w: filing status %d does not exist", op, ErrConflict, id)
	}
	return nil
}

func (m *memoryStore) GetStandardDeduction(ctx context.Context, year, filingStatusID int) (*domain.StandardDeduction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sd, ok := m.deductions[bracketKey{year, filingStatusID}]
	if !ok {
		return nil, fmt.Errorf("standard deduction %d/%d: %w", year, filingStatusID, ErrNotFound)
	}
	return &sd, nil
}

func (m *memoryStore) SaveStandardDeduction(ctx context.Context, sd domain.StandardDeduction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStatus("save standard deduction", sd.FilingStatusID); err != nil {
		return err
	}
	m.deductions[bracketKey{sd.TaxYear, sd.FilingStatusID}] = sd
	return nil
}

func (m *memoryStore) GetTaxBrackets(ctx context.Context, year, filingStatusID int) ([]domain.TaxBracket, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.brackets[bracketKey{year, filingStatusID}]
	out := make([]domain.TaxBracket, len(stored))
	copy(out, stored)
	domain.SortBrackets(out)
	return out, nil
}

func (m *memoryStore) InsertTaxBracket(ctx context.Context, b domain.TaxBracket) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStatus("insert tax bracket", b.FilingStatusID); err != nil {
		return err
	}
	key := bracketKey{b.TaxYear, b.FilingStatusID}
	m.brackets[key] = append(m.brackets[key], b)
	return nil
}

func (m *memoryStore) DeleteTaxBrackets(ctx context.Context, year, filingStatusID int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := bracketKey{year, filingStatusID}
	n := int64(len(m.brackets[key]))
	delete(m.brackets, key)
	return n, nil
}

func (m *memoryStore) ReplaceTaxBrackets(ctx context.Context, year, filingStatusID int, brackets []domain.TaxBracket) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, b := range brackets {
		if err := validateBracketKey(b, year, filingStatusID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := bracketKey{year, filingStatusID}
	if len(brackets) == 0 {
		delete(m.brackets, key)
		return nil
	}
	if err := m.requireStatus("replace tax brackets", filingStatusID); err != nil {
		return err
	}
	stored := make([]domain.TaxBracket, len(brackets))
	copy(stored, brackets)
	m.brackets[key] = stored

	m.logger.Debug("replaced tax brackets",
		zap.String("op", "storage.ReplaceTaxBrackets"),
		zap.Int("tax_year", year),
		zap.Int("filing_status_id", filingStatusID),
		zap.Int("inserted", len(brackets)))
	return nil
}

func (m *memoryStore) CreateEstimate(ctx context.Context, e domain.NewTaxEstimate) (*domain.TaxEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateEstimate(e); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireStatus("create estimate", e.FilingStatusID); err != nil {
		return nil, err
	}
	m.nextID++
	ts := now()
	saved := domain.TaxEstimate{ID: m.nextID, NewTaxEstimate: e, CreatedAt: ts, UpdatedAt: ts}
	m.estimates[saved.ID] = saved
	out := saved
	return &out, nil
}

func (m *memoryStore) GetEstimate(ctx context.Context, id int64) (*domain.TaxEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.estimates[id]
	if !ok {
		return nil, fmt.Errorf("estimate %d: %w", id, ErrNotFound)
	}
	return &e, nil
}

func (m *memoryStore) UpdateEstimate(ctx context.Context, e *domain.TaxEstimate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: nil estimate", ErrInvalidRecord)
	}
	if err := validateEstimate(e.NewTaxEstimate); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.estimates[e.ID]
	if !ok {
		return fmt.Errorf("update estimate %d: %w", e.ID, ErrNotFound)
	}
	if err := m.requireStatus("update estimate", e.FilingStatusID); err != nil {
		return err
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = now()
	m.estimates[e.ID] = *e
	return nil
}

func (m *memoryStore) DeleteEstimate(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.estimates[id]; !ok {
		return fmt.Errorf("delete estimate %d: %w", id, ErrNotFound)
	}
	delete(m.estimates, id)
	return nil
}

func (m *memoryStore) ListEstimates(ctx context.Context, year *int) ([]domain.TaxEstimate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.TaxEstimate
	for _, e := range m.estimates {
		if year != nil && e.TaxYear != *year {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
