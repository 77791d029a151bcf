package backtest

import "itbi-insight-lab/internal/domain"

// Parameter grid for the search. Weight variations of ±0.10 around the
// defaults, each set summing to 1.0.

var valorizationGrid = []domain.ValorizationWeights{
	{Trend: 0.55, Liquidity: 0.25, Stability: 0.20}, // default
	{Trend: 0.65, Liquidity: 0.20, Stability: 0.15},
	{Trend: 0.45, Liquidity: 0.35, Stability: 0.20},
	{Trend: 0.55, Liquidity: 0.15, Stability: 0.30},
	{Trend: 0.50, Liquidity: 0.30, Stability: 0.20},
}

var gemGrid = []domain.GemWeights{
	{Trend: 0.40, Discount: 0.35, LiqDelta: 0.15, Stability: 0.10}, // default
	{Trend: 0.50, Discount: 0.25, LiqDelta: 0.15, Stability: 0.10},
	{Trend: 0.30, Discount: 0.45, LiqDelta: 0.15, Stability: 0.10},
	{Trend: 0.40, Discount: 0.25, LiqDelta: 0.25, Stability: 0.10},
	{Trend: 0.40, Discount: 0.35, LiqDelta: 0.05, Stability: 0.20},
}

var thresholdGrid = []domain.Thresholds{
	{MinConfidence: 0.50, MinTransactions: 15},
	{MinConfidence: 0.55, MinTransactions: 20}, // default
	{MinConfidence: 0.60, MinTransactions: 20},
	{MinConfidence: 0.55, MinTransactions: 30},
	{MinConfidence: 0.60, MinTransactions: 30},
}

// TotalConfigs is the size of the full grid.
func TotalConfigs() int {
	return len(valorizationGrid) * len(gemGrid) * len(thresholdGrid)
}
