package domain

// FeatureRow holds the per-region features extracted within one trailing
// window. Every *Norm field is clamped to [0, 1] by construction.
type FeatureRow struct {
	Region       string `json:"regiao"`
	Neighborhood string `json:"bairro"`

	FirstPrice float64 `json:"p0"` // average real price of the first period in window
	LastPrice  float64 `json:"p1"` // average real price of the last period in window

	TrendPct  float64 `json:"trend_pct"`
	TrendNorm float64 `json:"trend_norm"`

	Volume        int     `json:"q"` // total transactions in window
	LiquidityNorm float64 `json:"liquidez_norm"`

	CV            float64 `json:"cv"` // coefficient of variation of per-period price
	StabilityNorm float64 `json:"estabilidade_norm"`

	ActivePeriods int     `json:"periodos_ativos"`
	GeoTier       GeoTier `json:"nivel_geo"`
	Confidence    float64 `json:"confianca"`
	Seal          string  `json:"selo"`

	BenchmarkPrice float64 `json:"preco_ref"`
	DiscountPct    float64 `json:"desconto_pct"`
	DiscountNorm   float64 `json:"desconto_norm"`

	LiqDeltaPct  float64 `json:"liq_delta_pct"`
	LiqDeltaNorm float64 `json:"liq_delta_norm"`
}
