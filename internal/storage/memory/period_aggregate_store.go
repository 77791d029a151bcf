package memory

import (
	"context"
	"sync"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/storage"
)

// PeriodAggregateStore is an in-memory implementation of
// storage.PeriodAggregateStore.
type PeriodAggregateStore struct {
	mu     sync.RWMutex
	levels map[domain.Level][]*domain.PeriodAggregate
}

// NewPeriodAggregateStore creates a new in-memory period aggregate store.
func NewPeriodAggregateStore() *PeriodAggregateStore {
	return &PeriodAggregateStore{
		levels: make(map[domain.Level][]*domain.PeriodAggregate),
	}
}

var _ storage.PeriodAggregateStore = (*PeriodAggregateStore)(nil)

// ReplaceLevel replaces the archived rows of one granularity level.
func (s *PeriodAggregateStore) ReplaceLevel(_ context.Context, level domain.Level, rows []*domain.PeriodAggregate) error {
	if level == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[level] = clonePeriodRows(rows)
	return nil
}

// GetByLevel retrieves all archived rows of one granularity level.
func (s *PeriodAggregateStore) GetByLevel(_ context.Context, level domain.Level) ([]*domain.PeriodAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return clonePeriodRows(s.levels[level]), nil
}

func clonePeriodRows(rows []*domain.PeriodAggregate) []*domain.PeriodAggregate {
	out := make([]*domain.PeriodAggregate, len(rows))
	for i, r := range rows {
		rowCopy := *r
		out[i] = &rowCopy
	}
	return out
}
