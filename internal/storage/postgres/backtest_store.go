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

// BacktestStore implements storage.BacktestStore using PostgreSQL.
type BacktestStore struct {
	pool *Pool
}

// NewBacktestStore creates a new BacktestStore.
func NewBacktestStore(pool *Pool) *BacktestStore {
	return &BacktestStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestStore = (*BacktestStore)(nil)

// SaveReport stores a full grid-search report.
func (s *BacktestStore) SaveReport(ctx context.Context, r *domain.BacktestReport) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	years, err := json.Marshal(r.AvailableYears)
	if err != nil {
		return fmt.Errorf("marshal years: %w", err)
	}
	results, err := json.Marshal(r.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		INSERT INTO backtest_reports (
			formula_version, executed_at, available_years, cutoff_year,
			total_configs, ground_truth_regions, results
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		r.FormulaVersion,
		r.ExecutedAt,
		years,
		r.CutoffYear,
		r.TotalConfigs,
		r.GroundTruthRegions,
		results,
	)
	observability.RecordDBQuery("postgres", "save_backtest_report", time.Since(start).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest report: %w", err)
	}
	return nil
}

// SaveBestConfig stores the selected configuration.
func (s *BacktestStore) SaveBestConfig(ctx context.Context, c *domain.BestConfig) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	valWeights, err := json.Marshal(c.Valorization)
	if err != nil {
		return fmt.Errorf("marshal valorization weights: %w", err)
	}
	gemWeights, err := json.Marshal(c.Gem)
	if err != nil {
		return fmt.Errorf("marshal gem weights: %w", err)
	}
	thresholds, err := json.Marshal(c.Thresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	metrics, err := json.Marshal(c.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO best_configs (
			formula_version, selected_at, config_id,
			valorization_weights, gem_weights, thresholds, metrics
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		c.FormulaVersion,
		c.SelectedAt,
		c.ConfigID,
		valWeights,
		gemWeights,
		thresholds,
		metrics,
	)
	observability.RecordDBQuery("postgres", "save_best_config", time.Since(start).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert best config: %w", err)
	}
	return nil
}

// LatestBestConfig retrieves the most recently selected configuration.
func (s *BacktestStore) LatestBestConfig(ctx context.Context) (*domain.BestConfig, error) {
	query := `
		SELECT formula_version, selected_at, config_id,
		       valorization_weights, gem_weights, thresholds, metrics
		FROM best_configs
		ORDER BY selected_at DESC
		LIMIT 1
	`

	var (
		c          domain.BestConfig
		valWeights []byte
		gemWeights []byte
		thresholds []byte
		metrics    []byte
	)

	start := time.Now()
	err := s.pool.QueryRow(ctx, query).Scan(
		&c.FormulaVersion,
		&c.SelectedAt,
		&c.ConfigID,
		&valWeights,
		&gemWeights,
		&thresholds,
		&metrics,
	)
	observability.RecordDBQuery("postgres", "latest_best_config", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest best config: %w", err)
	}

	if err := json.Unmarshal(valWeights, &c.Valorization); err != nil {
		return nil, fmt.Errorf("unmarshal valorization weights: %w", err)
	}
	if err := json.Unmarshal(gemWeights, &c.Gem); err != nil {
		return nil, fmt.Errorf("unmarshal gem weights: %w", err)
	}
	if err := json.Unmarshal(thresholds, &c.Thresholds); err != nil {
		return nil, fmt.Errorf("unmarshal thresholds: %w", err)
	}
	if err := json.Unmarshal(metrics, &c.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}

	return &c, nil
}
