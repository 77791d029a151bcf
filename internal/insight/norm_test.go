package insight

import (
	"math"
	"testing"

	"itbi-insight-lab/internal/domain"
)

func TestNorm(t *testing.T) {
	cases := []struct {
		name      string
		x, lo, hi float64
		want      float64
	}{
		{"midpoint", 0.05, -0.20, 0.30, 0.5},
		{"lower bound", -0.20, -0.20, 0.30, 0.0},
		{"upper bound", 0.30, -0.20, 0.30, 1.0},
		{"clamped below", -0.90, -0.20, 0.30, 0.0},
		{"clamped above", 2.0, -0.20, 0.30, 1.0},
		{"degenerate range", 0.5, 1.0, 1.0, 0.0},
		{"inverted range", 0.5, 1.0, 0.0, 0.0},
	}
	for _, tc := range cases {
		got := Norm(tc.x, tc.lo, tc.hi)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%s: Norm(%v, %v, %v) = %v, want %v", tc.name, tc.x, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestConfidenceSeal(t *testing.T) {
	cases := []struct {
		confidence float64
		want       string
	}{
		{0.90, "alta"},
		{0.75, "alta"},
		{0.74, "media"},
		{0.55, "media"},
		{0.54, "baixa"},
		{0.0, "baixa"},
	}
	for _, tc := range cases {
		if got := ConfidenceSeal(tc.confidence); got != tc.want {
			t.Errorf("ConfidenceSeal(%v) = %q, want %q", tc.confidence, got, tc.want)
		}
	}
}

func TestComputeConfidence(t *testing.T) {
	// Saturated sample, full coverage, best geocoding.
	if got := ComputeConfidence(100, 5, 5, domain.GeoTierAddress); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("saturated confidence = %v, want 1.0", got)
	}
	// No transactions, no coverage; only the geo component survives.
	if got := ComputeConfidence(0, 0, 5, domain.GeoTierCentroid); math.Abs(got-0.08) > 1e-12 {
		t.Errorf("floor confidence = %v, want 0.08", got)
	}
	// Sample saturates at 30 transactions.
	at30 := ComputeConfidence(30, 3, 3, domain.GeoTierNeighborhood)
	at300 := ComputeConfidence(300, 3, 3, domain.GeoTierNeighborhood)
	if at30 != at300 {
		t.Errorf("sample component not saturated: q=30 gives %v, q=300 gives %v", at30, at300)
	}
	// Unknown tiers score like centroids.
	unknown := ComputeConfidence(15, 2, 3, domain.GeoTier("quadra"))
	centroid := ComputeConfidence(15, 2, 3, domain.GeoTierCentroid)
	if unknown != centroid {
		t.Errorf("unknown tier confidence = %v, want centroid value %v", unknown, centroid)
	}
	// Zero window periods must not divide by zero.
	if got := ComputeConfidence(10, 0, 0, domain.GeoTierAddress); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("zero-window confidence = %v, want finite", got)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name string
		vals []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
	}
	for _, tc := range cases {
		if got := Median(tc.vals); got != tc.want {
			t.Errorf("%s: Median(%v) = %v, want %v", tc.name, tc.vals, got, tc.want)
		}
	}

	vals := []float64{9, 1, 5}
	Median(vals)
	if vals[0] != 9 || vals[1] != 1 || vals[2] != 5 {
		t.Errorf("Median mutated its input: %v", vals)
	}
}
