package backtest

import "sort"

// spearmanRank computes Spearman rank correlation using the rank-difference
// formula with average ranks for ties. Returns 0.0 for fewer than 3 pairs
// or mismatched lengths.
func spearmanRank(x, y []float64) float64 {
	n := len(x)
	if n < 3 || n != len(y) {
		return 0.0
	}

	rx := averageRanks(x)
	ry := averageRanks(y)

	dSq := 0.0
	for i := range rx {
		d := rx[i] - ry[i]
		dSq += d * d
	}

	denom := float64(n * (n*n - 1))
	if denom == 0 {
		return 0.0
	}
	return 1.0 - (6.0*dSq)/denom
}

// averageRanks assigns 1-indexed ranks, averaging over ties.
func averageRanks(vals []float64) []float64 {
	n := len(vals)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j < n-1 && vals[idx[j+1]] == vals[idx[j]] {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1.0
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}
	return ranks
}

// precisionAtK is the fraction of the top-k regions by predicted score
// whose actual variation is positive. Ties keep input order.
func precisionAtK(scores, actuals []float64, k int) float64 {
	if len(scores) == 0 || len(actuals) == 0 || len(scores) != len(actuals) {
		return 0.0
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	if k > len(idx) {
		k = len(idx)
	}
	if k <= 0 {
		return 0.0
	}

	hits := 0
	for _, i := range idx[:k] {
		if actuals[i] > 0 {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
