// Package memory provides in-memory store implementations, used as the
// default wiring when no database is configured and in tests.
package memory

import (
	"context"
	"sync"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/storage"
)

// InsightStore is an in-memory implementation of storage.InsightStore.
type InsightStore struct {
	mu      sync.RWMutex
	reports []*domain.InsightReport
}

// NewInsightStore creates a new in-memory insight store.
func NewInsightStore() *InsightStore {
	return &InsightStore{}
}

// Compile-time interface check.
var _ storage.InsightStore = (*InsightStore)(nil)

// SaveReport stores a full report. Returns ErrInvalidInput for nil.
func (s *InsightStore) SaveReport(_ context.Context, r *domain.InsightReport) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, cloneInsightReport(r))
	return nil
}

// LatestReport retrieves the most recently saved report.
func (s *InsightStore) LatestReport(_ context.Context) (*domain.InsightReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return nil, storage.ErrNotFound
	}
	return cloneInsightReport(s.reports[len(s.reports)-1]), nil
}

// cloneInsightReport copies a report so callers cannot mutate stored state.
func cloneInsightReport(r *domain.InsightReport) *domain.InsightReport {
	out := *r
	out.WindowsMonths = append([]int(nil), r.WindowsMonths...)
	out.Levels = append([]domain.Level(nil), r.Levels...)
	out.Deflator = make(map[int]float64, len(r.Deflator))
	for y, f := range r.Deflator {
		out.Deflator[y] = f
	}
	out.Insights = make([]*domain.Insight, len(r.Insights))
	for i, ins := range r.Insights {
		insCopy := *ins
		out.Insights[i] = &insCopy
	}
	return &out
}
