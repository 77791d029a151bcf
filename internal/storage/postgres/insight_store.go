package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/observability"
	"itbi-insight-lab/internal/storage"
)

// InsightStore implements storage.InsightStore using PostgreSQL.
// Reports are stored append-only; insight rows live in a JSONB payload
// since they are always read back as a whole report.
type InsightStore struct {
	pool *Pool
}

// NewInsightStore creates a new InsightStore.
func NewInsightStore(pool *Pool) *InsightStore {
	return &InsightStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InsightStore = (*InsightStore)(nil)

// SaveReport stores a full report. Returns ErrDuplicateKey when a report
// with the same generated_at timestamp already exists.
func (s *InsightStore) SaveReport(ctx context.Context, r *domain.InsightReport) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	windows, err := json.Marshal(r.WindowsMonths)
	if err != nil {
		return fmt.Errorf("marshal windows: %w", err)
	}
	levels, err := json.Marshal(r.Levels)
	if err != nil {
		return fmt.Errorf("marshal levels: %w", err)
	}
	deflator, err := json.Marshal(r.Deflator)
	if err != nil {
		return fmt.Errorf("marshal deflator: %w", err)
	}
	insights, err := json.Marshal(r.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}

	query := `
		INSERT INTO insight_reports (
			formula_version, generated_at, windows_months, levels, deflator, insights, total_insights
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		r.FormulaVersion,
		r.GeneratedAt,
		windows,
		levels,
		deflator,
		insights,
		len(r.Insights),
	)
	observability.RecordDBQuery("postgres", "save_insight_report", time.Since(start).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert insight report: %w", err)
	}
	return nil
}

// LatestReport retrieves the most recently generated report.
func (s *InsightStore) LatestReport(ctx context.Context) (*domain.InsightReport, error) {
	query := `
		SELECT formula_version, generated_at, windows_months, levels, deflator, insights
		FROM insight_reports
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var (
		r        domain.InsightReport
		windows  []byte
		levels   []byte
		deflator []byte
		insights []byte
	)

	start := time.Now()
	err := s.pool.QueryRow(ctx, query).Scan(
		&r.FormulaVersion,
		&r.GeneratedAt,
		&windows,
		&levels,
		&deflator,
		&insights,
	)
	observability.RecordDBQuery("postgres", "latest_insight_report", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest insight report: %w", err)
	}

	if err := json.Unmarshal(windows, &r.WindowsMonths); err != nil {
		return nil, fmt.Errorf("unmarshal windows: %w", err)
	}
	if err := json.Unmarshal(levels, &r.Levels); err != nil {
		return nil, fmt.Errorf("unmarshal levels: %w", err)
	}
	if err := json.Unmarshal(deflator, &r.Deflator); err != nil {
		return nil, fmt.Errorf("unmarshal deflator: %w", err)
	}
	if err := json.Unmarshal(insights, &r.Insights); err != nil {
		return nil, fmt.Errorf("unmarshal insights: %w", err)
	}

	return &r, nil
}
