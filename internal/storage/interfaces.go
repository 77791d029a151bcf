// Package storage defines persistence interfaces for insight reports,
// backtest outputs and period-aggregate archives. Each run overwrites
// its documents wholesale; stores keep history and serve the latest.
package storage

import (
	"context"

	"itbi-insight-lab/internal/domain"
)

// InsightStore persists generated insight reports.
type InsightStore interface {
	// SaveReport stores a full report. Returns ErrInvalidInput for nil.
	SaveReport(ctx context.Context, r *domain.InsightReport) error

	// LatestReport retrieves the most recently generated report.
	// Returns ErrNotFound when no report has been stored.
	LatestReport(ctx context.Context) (*domain.InsightReport, error)
}

// BacktestStore persists backtest runs and selected configurations.
type BacktestStore interface {
	// SaveReport stores a full grid-search report.
	SaveReport(ctx context.Context, r *domain.BacktestReport) error

	// SaveBestConfig stores the selected configuration.
	SaveBestConfig(ctx context.Context, c *domain.BestConfig) error

	// LatestBestConfig retrieves the most recently selected configuration.
	// Returns ErrNotFound when none has been stored.
	LatestBestConfig(ctx context.Context) (*domain.BestConfig, error)
}

// PeriodAggregateStore archives per-(region, year) aggregates for ad-hoc
// analysis outside the scoring pipeline.
type PeriodAggregateStore interface {
	// ReplaceLevel replaces the archived rows of one granularity level.
	ReplaceLevel(ctx context.Context, level domain.Level, rows []*domain.PeriodAggregate) error

	// GetByLevel retrieves all archived rows of one granularity level,
	// ordered by (neighborhood, region, year).
	GetByLevel(ctx context.Context, level domain.Level) ([]*domain.PeriodAggregate, error)
}
