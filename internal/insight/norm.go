// Package insight implements the valorization and hidden-gem scoring
// core: period aggregation, windowed feature extraction, confidence
// weighting and eligibility-gated scores.
package insight

import (
	"math"
	"sort"

	"itbi-insight-lab/internal/domain"
)

// EPS guards divisions by near-zero prices and benchmarks.
const EPS = 1e-9

// Confidence component weights: sample size, temporal coverage,
// geocoding quality.
const (
	confidenceWeightSample   = 0.50
	confidenceWeightCoverage = 0.30
	confidenceWeightGeo      = 0.20
)

// Confidence seal thresholds.
const (
	sealHighMin   = 0.75
	sealMediumMin = 0.55
)

// geoConfidence maps geocoding tiers to quality scores. Unknown tiers
// fall back to the centroid score.
var geoConfidence = map[domain.GeoTier]float64{
	domain.GeoTierAddress:      1.0,
	domain.GeoTierNeighborhood: 0.7,
	domain.GeoTierCentroid:     0.4,
}

const geoConfidenceDefault = 0.4

// Norm maps x linearly from [lo, hi] to [0, 1], clamping values outside
// the range to the boundary. Returns 0 for a degenerate range.
func Norm(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0.0
	}
	clipped := math.Min(math.Max(x, lo), hi)
	return (clipped - lo) / (hi - lo)
}

// ConfidenceSeal returns the textual confidence tier:
// "alta" (≥ 0.75), "media" (0.55–0.74) or "baixa" (< 0.55).
func ConfidenceSeal(confidence float64) string {
	switch {
	case confidence >= sealHighMin:
		return "alta"
	case confidence >= sealMediumMin:
		return "media"
	default:
		return "baixa"
	}
}

// ComputeConfidence blends sample size (q vs the 30-transaction bar),
// window coverage and geocoding quality into a [0, 1] reliability value.
func ComputeConfidence(q, activePeriods, windowPeriods int, tier domain.GeoTier) float64 {
	sample := math.Min(1.0, float64(q)/30.0)
	coverage := float64(activePeriods) / math.Max(float64(windowPeriods), 1)
	geo, ok := geoConfidence[tier]
	if !ok {
		geo = geoConfidenceDefault
	}
	return confidenceWeightSample*sample +
		confidenceWeightCoverage*coverage +
		confidenceWeightGeo*geo
}

// Median returns the median of vals (average of the two middle values
// for even lengths), or 0 for an empty slice. vals is not mutated.
func Median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
