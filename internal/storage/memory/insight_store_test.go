package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/storage"
)

func sampleInsightReport(generatedAt time.Time) *domain.InsightReport {
	return &domain.InsightReport{
		FormulaVersion: "v0.1",
		GeneratedAt:    generatedAt,
		WindowsMonths:  []int{12, 24, 36},
		Levels:         []domain.Level{domain.LevelNeighborhood, domain.LevelStreet},
		Deflator:       map[int]float64{2023: 1.049, 2024: 1.0},
		Insights: []*domain.Insight{
			{
				FeatureRow: domain.FeatureRow{
					Region:       "centro",
					Neighborhood: "centro",
					FirstPrice:   1000,
					LastPrice:    1100,
					Volume:       42,
					Confidence:   0.8,
				},
				ValorizationScore:    61.2,
				ValorizationEligible: true,
				Level:                domain.LevelNeighborhood,
				WindowMonths:         36,
			},
		},
	}
}

func TestInsightStore_SaveAndLatest(t *testing.T) {
	store := NewInsightStore()
	ctx := context.Background()

	first := sampleInsightReport(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	second := sampleInsightReport(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	if err := store.SaveReport(ctx, first); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if err := store.SaveReport(ctx, second); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	got, err := store.LatestReport(ctx)
	if err != nil {
		t.Fatalf("LatestReport failed: %v", err)
	}
	if !got.GeneratedAt.Equal(second.GeneratedAt) {
		t.Errorf("GeneratedAt mismatch: got %v, want %v", got.GeneratedAt, second.GeneratedAt)
	}
	if len(got.Insights) != 1 {
		t.Fatalf("Expected 1 insight, got %d", len(got.Insights))
	}
	if got.Insights[0].Region != "centro" {
		t.Errorf("Region mismatch: got %s", got.Insights[0].Region)
	}
}

func TestInsightStore_NotFound(t *testing.T) {
	store := NewInsightStore()

	_, err := store.LatestReport(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestInsightStore_NilReport(t *testing.T) {
	store := NewInsightStore()

	err := store.SaveReport(context.Background(), nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
}

func TestInsightStore_IsolatesStoredReport(t *testing.T) {
	store := NewInsightStore()
	ctx := context.Background()

	r := sampleInsightReport(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := store.SaveReport(ctx, r); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	// Mutating the caller's report must not reach the stored copy.
	r.Insights[0].Region = "mutated"
	r.Deflator[2024] = 99

	got, err := store.LatestReport(ctx)
	if err != nil {
		t.Fatalf("LatestReport failed: %v", err)
	}
	if got.Insights[0].Region != "centro" {
		t.Errorf("Stored report was mutated: region %s", got.Insights[0].Region)
	}
	if got.Deflator[2024] != 1.0 {
		t.Errorf("Stored deflator was mutated: %v", got.Deflator[2024])
	}
}
