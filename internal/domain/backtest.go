package domain

import "time"

// ConfigMetrics are the out-of-sample quality metrics of one scoring
// configuration evaluated by the walk-forward backtest.
type ConfigMetrics struct {
	Spearman      float64 `json:"spearman"`
	PrecisionAt20 float64 `json:"precision_at_20"`
	Stability     float64 `json:"stability_tau"` // max(0, spearman)
	Coverage      float64 `json:"coverage"`
	Composite     float64 `json:"composite"`
}

// ConfigResult is one evaluated grid configuration.
type ConfigResult struct {
	ConfigID      int                 `json:"config_id"`
	Valorization  ValorizationWeights `json:"peso_val"`
	Gem           GemWeights          `json:"peso_joia"`
	Thresholds    Thresholds          `json:"thresholds"`
	ConfigMetrics
	EligibleCount int `json:"n_eligible"`
}

// BacktestReport holds the full grid-search output of one backtest run.
type BacktestReport struct {
	FormulaVersion     string
	ExecutedAt         time.Time
	AvailableYears     []int
	CutoffYear         int // train ≤ cutoff, test > cutoff
	TotalConfigs       int
	GroundTruthRegions int
	Results            []*ConfigResult
}

// BestConfig is the configuration selected by the backtest. A plain
// value object; never mutated after selection.
type BestConfig struct {
	FormulaVersion string
	SelectedAt     time.Time
	ConfigID       int
	Valorization   ValorizationWeights
	Gem            GemWeights
	Thresholds     Thresholds
	Metrics        ConfigMetrics
}

// Params returns the scoring parameters of the selected configuration.
func (c *BestConfig) Params() ScoringParams {
	return ScoringParams{
		Valorization: c.Valorization,
		Gem:          c.Gem,
		Thresholds:   c.Thresholds,
	}
}
