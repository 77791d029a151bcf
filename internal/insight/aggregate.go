package insight

import (
	"math"
	"sort"

	"itbi-insight-lab/internal/domain"
)

// regionLabelSeparator joins street and neighborhood in street-level
// region labels.
const regionLabelSeparator = " — "

type groupKey struct {
	neighborhood string
	street       string
	year         int
}

type periodAcc struct {
	count float64
	total float64
	tiers []domain.GeoTier
}

// AggregateByPeriod groups deflated transactions into one row per
// (region, year). Rows without a parseable year are silently excluded.
// For the street level the grouping key is (neighborhood, street) and
// the region label is "street — neighborhood"; for the neighborhood
// level the key and label are the neighborhood alone.
//
// The average real price divides by max(count, 1) so zero-count groups
// yield 0 rather than a division failure. The predominant geocoding tier
// is the most frequent non-empty tag in the group (ties broken by the
// lexically smaller tag); groups with no tags default to centroid.
// Output is sorted by (neighborhood, street, year). Empty input yields
// empty output.
func AggregateByPeriod(records []domain.Transaction, level domain.Level) []*domain.PeriodAggregate {
	groups := make(map[groupKey]*periodAcc)
	for i := range records {
		rec := &records[i]
		if rec.Year == nil {
			continue
		}
		key := groupKey{neighborhood: rec.Neighborhood, year: *rec.Year}
		if level == domain.LevelStreet {
			key.street = rec.Street
		}
		acc, ok := groups[key]
		if !ok {
			acc = &periodAcc{}
			groups[key] = acc
		}
		acc.count += rec.Count
		acc.total += rec.RealValue
		if rec.GeoTier != "" {
			acc.tiers = append(acc.tiers, rec.GeoTier)
		}
	}

	out := make([]*domain.PeriodAggregate, 0, len(groups))
	for key, acc := range groups {
		region := key.neighborhood
		if level == domain.LevelStreet {
			region = key.street + regionLabelSeparator + key.neighborhood
		}
		out = append(out, &domain.PeriodAggregate{
			Region:       region,
			Neighborhood: key.neighborhood,
			Year:         key.year,
			Count:        acc.count,
			TotalReal:    acc.total,
			AvgRealPrice: acc.total / math.Max(acc.count, 1),
			GeoTier:      predominantTier(acc.tiers),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Neighborhood != out[j].Neighborhood {
			return out[i].Neighborhood < out[j].Neighborhood
		}
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// predominantTier returns the most frequent tier, breaking count ties by
// the lexically smaller value. Empty input defaults to centroid, the
// least precise tier.
func predominantTier(tiers []domain.GeoTier) domain.GeoTier {
	if len(tiers) == 0 {
		return domain.GeoTierCentroid
	}
	counts := make(map[domain.GeoTier]int)
	for _, t := range tiers {
		counts[t]++
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
