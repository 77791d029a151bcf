package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/storage"
)

func TestBacktestStore_SaveReport(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestStore(pool)

	report := &domain.BacktestReport{
		FormulaVersion:     "v0.1",
		ExecutedAt:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		AvailableYears:     []int{2020, 2021, 2022, 2023, 2024},
		CutoffYear:         2022,
		TotalConfigs:       125,
		GroundTruthRegions: 38,
		Results: []*domain.ConfigResult{
			{
				ConfigID:     1,
				Valorization: domain.ValorizationWeights{Trend: 0.55, Liquidity: 0.25, Stability: 0.20},
				Gem:          domain.GemWeights{Trend: 0.40, Discount: 0.35, LiqDelta: 0.15, Stability: 0.10},
				Thresholds:   domain.Thresholds{MinConfidence: 0.50, MinTransactions: 15},
				ConfigMetrics: domain.ConfigMetrics{
					Spearman:      0.42,
					PrecisionAt20: 0.65,
					Stability:     0.42,
					Coverage:      0.8,
					Composite:     0.4295,
				},
				EligibleCount: 31,
			},
		},
	}

	require.NoError(t, store.SaveReport(ctx, report))

	err := store.SaveReport(ctx, report)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBacktestStore_SaveAndLatestBestConfig(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestStore(pool)

	older := &domain.BestConfig{
		FormulaVersion: "v0.1",
		SelectedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ConfigID:       3,
	}
	newer := &domain.BestConfig{
		FormulaVersion: "v0.1",
		SelectedAt:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		ConfigID:       57,
		Valorization:   domain.ValorizationWeights{Trend: 0.45, Liquidity: 0.35, Stability: 0.20},
		Gem:            domain.GemWeights{Trend: 0.30, Discount: 0.45, LiqDelta: 0.15, Stability: 0.10},
		Thresholds:     domain.Thresholds{MinConfidence: 0.55, MinTransactions: 20},
		Metrics: domain.ConfigMetrics{
			Spearman:      0.51,
			PrecisionAt20: 0.7,
			Stability:     0.51,
			Coverage:      0.74,
			Composite:     0.4902,
		},
	}

	require.NoError(t, store.SaveBestConfig(ctx, older))
	require.NoError(t, store.SaveBestConfig(ctx, newer))

	got, err := store.LatestBestConfig(ctx)
	require.NoError(t, err)

	assert.Equal(t, 57, got.ConfigID)
	assert.True(t, got.SelectedAt.Equal(newer.SelectedAt))
	assert.Equal(t, newer.Valorization, got.Valorization)
	assert.Equal(t, newer.Gem, got.Gem)
	assert.Equal(t, newer.Thresholds, got.Thresholds)
	assert.InDelta(t, 0.4902, got.Metrics.Composite, 0.0001)
}

func TestBacktestStore_BestConfigNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBacktestStore(pool)

	_, err := store.LatestBestConfig(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBacktestStore_NilInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestStore(pool)

	assert.ErrorIs(t, store.SaveReport(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveBestConfig(ctx, nil), storage.ErrInvalidInput)
}
