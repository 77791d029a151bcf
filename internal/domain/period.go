package domain

// PeriodAggregate is one (region, year) row produced by period aggregation.
// Consumed read-only by feature extraction.
type PeriodAggregate struct {
	Region       string  `json:"regiao"`
	Neighborhood string  `json:"bairro"`
	Year         int     `json:"ano"`
	Count        float64 `json:"qtd"`
	TotalReal    float64 `json:"valor_total_real"`
	AvgRealPrice float64 `json:"ticket_medio_real"` // TotalReal / max(Count, 1)
	GeoTier      GeoTier `json:"nivel_geo_predominante"`
}
