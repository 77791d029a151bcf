package domain

// ValorizationWeights weight the components of the valorization score.
// Grids are constructed so each set sums to 1.0; not validated at runtime.
type ValorizationWeights struct {
	Trend     float64 `json:"trend"`
	Liquidity float64 `json:"liquidez"`
	Stability float64 `json:"estabilidade"`
}

// GemWeights weight the components of the hidden-gem score.
type GemWeights struct {
	Trend     float64 `json:"trend"`
	Discount  float64 `json:"desconto"`
	LiqDelta  float64 `json:"liq_delta"`
	Stability float64 `json:"estabilidade"`
}

// Thresholds gate score eligibility.
type Thresholds struct {
	MinConfidence   float64 `json:"confianca_min"`
	MinTransactions int     `json:"q_min"`
}

// ScoringParams is the full scoring configuration, passed explicitly
// through every call instead of living in mutable package state.
type ScoringParams struct {
	Valorization ValorizationWeights
	Gem          GemWeights
	Thresholds   Thresholds
}
