package memory

import (
	"context"
	"sync"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/storage"
)

// BacktestStore is an in-memory implementation of storage.BacktestStore.
type BacktestStore struct {
	mu      sync.RWMutex
	reports []*domain.BacktestReport
	configs []*domain.BestConfig
}

// NewBacktestStore creates a new in-memory backtest store.
func NewBacktestStore() *BacktestStore {
	return &BacktestStore{}
}

// Compile-time interface check.
var _ storage.BacktestStore = (*BacktestStore)(nil)

// SaveReport stores a full grid-search report.
func (s *BacktestStore) SaveReport(_ context.Context, r *domain.BacktestReport) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, cloneBacktestReport(r))
	return nil
}

// SaveBestConfig stores the selected configuration.
func (s *BacktestStore) SaveBestConfig(_ context.Context, c *domain.BestConfig) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	configCopy := *c
	s.configs = append(s.configs, &configCopy)
	return nil
}

// LatestBestConfig retrieves the most recently selected configuration.
func (s *BacktestStore) LatestBestConfig(_ context.Context) (*domain.BestConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.configs) == 0 {
		return nil, storage.ErrNotFound
	}
	configCopy := *s.configs[len(s.configs)-1]
	return &configCopy, nil
}

func cloneBacktestReport(r *domain.BacktestReport) *domain.BacktestReport {
	out := *r
	out.AvailableYears = append([]int(nil), r.AvailableYears...)
	out.Results = make([]*domain.ConfigResult, len(r.Results))
	for i, res := range r.Results {
		resCopy := *res
		out.Results[i] = &resCopy
	}
	return &out
}
