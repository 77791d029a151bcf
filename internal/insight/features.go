package insight

import (
	"math"
	"sort"

	"itbi-insight-lab/internal/domain"
)

// Normalization ranges for the clamp-mapped features: a 20% decline maps
// trend to 0 and a 30% rise to 1; a region priced at benchmark scores 0
// discount and 25%+ below scores 1; liquidity delta spans -30%..+50%.
const (
	trendRangeLo = -0.20
	trendRangeHi = 0.30

	discountRangeLo = 0.00
	discountRangeHi = 0.25

	liqDeltaRangeLo = -0.30
	liqDeltaRangeHi = 0.50
)

// liquiditySaturation is the transaction volume at which the log-scaled
// liquidity score reaches 1.
const liquiditySaturation = 120.0

// cvSaturation is the coefficient of variation at which stability
// bottoms out at 0.
const cvSaturation = 0.35

// ExtractWindowFeatures computes one FeatureRow per region whose periods
// fall inside the trailing window [maxYear-windowYears+1, maxYear].
//
// benchmark is the coarser-level aggregate table used for the discount
// feature; nil disables it (discount 0). With benchmarkByNeighborhood
// set (street-level extraction) the reference price is the region's own
// neighborhood median within the window, falling back to the city-wide
// median; without it (neighborhood-level extraction) only the city-wide
// median applies.
//
// Regions with no rows in the window are skipped, not emitted as zeros.
// Empty input yields empty output.
func ExtractWindowFeatures(
	periods []*domain.PeriodAggregate,
	windowYears int,
	benchmark []*domain.PeriodAggregate,
	benchmarkByNeighborhood bool,
) []*domain.FeatureRow {
	if len(periods) == 0 {
		return nil
	}

	maxYear := periods[0].Year
	for _, p := range periods {
		if p.Year > maxYear {
			maxYear = p.Year
		}
	}
	minYear := maxYear - windowYears + 1

	windowed := make([]*domain.PeriodAggregate, 0, len(periods))
	for _, p := range periods {
		if p.Year >= minYear {
			windowed = append(windowed, p)
		}
	}
	if len(windowed) == 0 {
		return nil
	}

	benchByNeighborhood, cityMedian := buildBenchmark(benchmark, minYear, benchmarkByNeighborhood)

	byRegion := make(map[string][]*domain.PeriodAggregate)
	regionOrder := make([]string, 0)
	for _, p := range windowed {
		if _, seen := byRegion[p.Region]; !seen {
			regionOrder = append(regionOrder, p.Region)
		}
		byRegion[p.Region] = append(byRegion[p.Region], p)
	}
	sort.Strings(regionOrder)

	rows := make([]*domain.FeatureRow, 0, len(regionOrder))
	for _, region := range regionOrder {
		group := byRegion[region]
		sort.Slice(group, func(i, j int) bool { return group[i].Year < group[j].Year })
		rows = append(rows, extractRegion(region, group, minYear, windowYears,
			benchByNeighborhood, cityMedian))
	}
	return rows
}

// buildBenchmark derives reference prices from the coarser aggregate
// table restricted to the same window. Returns a per-neighborhood median
// lookup (nil unless perRegion) and the city-wide median over all
// benchmark rows in the window.
func buildBenchmark(benchmark []*domain.PeriodAggregate, minYear int, perRegion bool) (map[string]float64, float64) {
	if len(benchmark) == 0 {
		return nil, 0
	}

	var all []float64
	prices := make(map[string][]float64)
	for _, p := range benchmark {
		if p.Year < minYear {
			continue
		}
		all = append(all, p.AvgRealPrice)
		if perRegion {
			prices[p.Region] = append(prices[p.Region], p.AvgRealPrice)
		}
	}
	if len(all) == 0 {
		return nil, 0
	}

	var lookup map[string]float64
	if perRegion {
		lookup = make(map[string]float64, len(prices))
		for region, vals := range prices {
			lookup[region] = Median(vals)
		}
	}
	return lookup, Median(all)
}

func extractRegion(
	region string,
	group []*domain.PeriodAggregate,
	minYear, windowYears int,
	benchByNeighborhood map[string]float64,
	cityMedian float64,
) *domain.FeatureRow {
	activePeriods := len(group)
	p0 := group[0].AvgRealPrice
	p1 := group[len(group)-1].AvgRealPrice

	trendPct := p1/math.Max(p0, EPS) - 1.0

	var qSum float64
	for _, p := range group {
		qSum += p.Count
	}
	q := int(qSum)
	liquidityNorm := math.Min(1.0, math.Log1p(float64(q))/math.Log1p(liquiditySaturation))

	cv := priceVariation(group)
	stabilityNorm := 1.0 - math.Min(cv/cvSaturation, 1.0)

	tier := windowPredominantTier(group)
	confidence := ComputeConfidence(q, activePeriods, windowYears, tier)

	neighborhood := group[0].Neighborhood
	refPrice := 0.0
	if len(benchByNeighborhood) > 0 {
		if v, ok := benchByNeighborhood[neighborhood]; ok {
			refPrice = v
		} else {
			refPrice = cityMedian
		}
	} else if cityMedian > 0 {
		refPrice = cityMedian
	}
	discountPct := 0.0
	if refPrice > 0 {
		discountPct = (refPrice - p1) / math.Max(refPrice, EPS)
	}

	// Split the window at its midpoint. Integer division keeps the
	// original uneven split for odd windows; calibrated thresholds
	// assume this exact boundary.
	midYear := minYear + windowYears/2
	var firstSum, secondSum float64
	for _, p := range group {
		if p.Year < midYear {
			firstSum += p.Count
		} else {
			secondSum += p.Count
		}
	}
	qFirst, qSecond := int(firstSum), int(secondSum)
	liqDeltaPct := float64(qSecond-qFirst) / math.Max(float64(qFirst), 1)

	return &domain.FeatureRow{
		Region:         region,
		Neighborhood:   neighborhood,
		FirstPrice:     round2(p0),
		LastPrice:      round2(p1),
		TrendPct:       round4(trendPct),
		TrendNorm:      round4(Norm(trendPct, trendRangeLo, trendRangeHi)),
		Volume:         q,
		LiquidityNorm:  round4(liquidityNorm),
		CV:             round4(cv),
		StabilityNorm:  round4(stabilityNorm),
		ActivePeriods:  activePeriods,
		GeoTier:        tier,
		Confidence:     round4(confidence),
		Seal:           ConfidenceSeal(confidence),
		BenchmarkPrice: round2(refPrice),
		DiscountPct:    round4(discountPct),
		DiscountNorm:   round4(Norm(discountPct, discountRangeLo, discountRangeHi)),
		LiqDeltaPct:    round4(liqDeltaPct),
		LiqDeltaNorm:   round4(Norm(liqDeltaPct, liqDeltaRangeLo, liqDeltaRangeHi)),
	}
}

// priceVariation is the coefficient of variation of per-period average
// prices: population standard deviation over mean, with an EPS floor on
// the mean. Single-period groups have zero deviation.
func priceVariation(group []*domain.PeriodAggregate) float64 {
	n := len(group)
	var sum float64
	for _, p := range group {
		sum += p.AvgRealPrice
	}
	mean := sum / float64(n)

	std := 0.0
	if n > 1 {
		var sq float64
		for _, p := range group {
			d := p.AvgRealPrice - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(n))
	}
	return std / math.Max(mean, EPS)
}

// windowPredominantTier is the modal predominant tier across the
// region's window rows, ties broken by the lexically smaller tag.
func windowPredominantTier(group []*domain.PeriodAggregate) domain.GeoTier {
	counts := make(map[domain.GeoTier]int)
	for _, p := range group {
		tier := p.GeoTier
		if tier == "" {
			tier = domain.GeoTierCentroid
		}
		counts[tier]++
	}
	var best domain.GeoTier
	bestCount := -1
	for tier, n := range counts {
		if n > bestCount || (n == bestCount && tier < best) {
			best = tier
			bestCount = n
		}
	}
	return best
}
