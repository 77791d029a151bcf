package domain

// GeoTier is the geocoding precision tag attached to a transaction row.
// Values follow the upstream geocoder vocabulary.
type GeoTier string

// Known geocoding tiers, from most to least precise.
const (
	GeoTierAddress      GeoTier = "endereco"
	GeoTierNeighborhood GeoTier = "bairro"
	GeoTierCentroid     GeoTier = "centroide"
)

// Level is the regional granularity of an aggregation.
type Level string

// Granularity levels.
const (
	LevelNeighborhood Level = "bairro"
	LevelStreet       Level = "logradouro"
)

// Transaction is one reported real-estate transaction row from the
// consolidated municipal table. Owned by the caller; the core never
// mutates a loaded record.
type Transaction struct {
	Neighborhood string
	Street       string
	Year         *int    // payment year; nil when the source cell is not numeric
	NominalValue float64 // declared transaction value (non-numeric cells coerced to 0)
	RealValue    float64 // inflation-adjusted value, set by the deflator step
	Count        float64 // transaction multiplicity (non-numeric cells coerced to 0)
	GeoTier      GeoTier // empty when the source table has no precision column
}
