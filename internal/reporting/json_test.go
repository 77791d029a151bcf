package reporting

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"itbi-insight-lab/internal/domain"
)

func TestWriteInsights_WireContract(t *testing.T) {
	report := &domain.InsightReport{
		FormulaVersion: "v0.1",
		GeneratedAt:    time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		WindowsMonths:  []int{12, 24, 36},
		Levels:         []domain.Level{domain.LevelNeighborhood, domain.LevelStreet},
		Deflator:       map[int]float64{2020: 1.278, 2024: 1.0},
		Insights: []*domain.Insight{
			{
				FeatureRow: domain.FeatureRow{
					Region:        "centro",
					Neighborhood:  "centro",
					FirstPrice:    250000.0,
					LastPrice:     280000.0,
					TrendPct:      0.12,
					TrendNorm:     0.64,
					Volume:        42,
					LiquidityNorm: 0.78,
					CV:            0.1,
					StabilityNorm: 0.7143,
					ActivePeriods: 3,
					GeoTier:       domain.GeoTierAddress,
					Confidence:    0.81,
					Seal:          "alta",
				},
				RawValorization:      0.69,
				ValorizationScore:    55.9,
				ValorizationEligible: true,
				Level:                domain.LevelNeighborhood,
				WindowMonths:         36,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out", InsightsFile)
	if err := WriteInsights(report, path); err != nil {
		t.Fatalf("WriteInsights failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	meta, ok := doc["metadata"].(map[string]any)
	if !ok {
		t.Fatal("missing metadata object")
	}
	if meta["versao_formula"] != "v0.1" {
		t.Errorf("versao_formula: %v", meta["versao_formula"])
	}
	if meta["gerado_em"] != "2026-03-01T12:30:00Z" {
		t.Errorf("gerado_em: %v", meta["gerado_em"])
	}
	if meta["total_insights"] != float64(1) {
		t.Errorf("total_insights: %v", meta["total_insights"])
	}
	if meta["total_elegiveis_valorizacao"] != float64(1) {
		t.Errorf("total_elegiveis_valorizacao: %v", meta["total_elegiveis_valorizacao"])
	}
	if meta["total_elegiveis_joia"] != float64(0) {
		t.Errorf("total_elegiveis_joia: %v", meta["total_elegiveis_joia"])
	}

	rows, ok := doc["insights"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected 1 insight row, got %v", doc["insights"])
	}
	row := rows[0].(map[string]any)

	for _, key := range []string{
		"regiao", "bairro", "p0", "p1", "trend_pct", "trend_norm", "q",
		"liquidez_norm", "cv", "estabilidade_norm", "periodos_ativos",
		"nivel_geo", "confianca", "selo", "preco_ref", "desconto_pct",
		"desconto_norm", "liq_delta_pct", "liq_delta_norm", "raw_val",
		"score_valorizacao", "raw_joia", "score_joia_escondida",
		"elegivel_valorizacao", "elegivel_joia", "nivel", "janela_meses",
	} {
		if _, present := row[key]; !present {
			t.Errorf("insight row missing key %q", key)
		}
	}
	if row["score_valorizacao"] != 55.9 {
		t.Errorf("score_valorizacao: %v", row["score_valorizacao"])
	}
	if row["nivel"] != "bairro" {
		t.Errorf("nivel: %v", row["nivel"])
	}
	if row["janela_meses"] != float64(36) {
		t.Errorf("janela_meses: %v", row["janela_meses"])
	}
}

func TestWriteInsights_NaNBecomesNull(t *testing.T) {
	report := &domain.InsightReport{
		FormulaVersion: "v0.1",
		GeneratedAt:    time.Now(),
		Insights: []*domain.Insight{
			{
				FeatureRow: domain.FeatureRow{
					Region:   "x",
					CV:       math.NaN(),
					TrendPct: math.Inf(1),
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), InsightsFile)
	if err := WriteInsights(report, path); err != nil {
		t.Fatalf("WriteInsights failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var doc struct {
		Insights []map[string]any `json:"insights"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Insights[0]["cv"] != nil {
		t.Errorf("NaN cv should serialize as null, got %v", doc.Insights[0]["cv"])
	}
	if doc.Insights[0]["trend_pct"] != nil {
		t.Errorf("Inf trend_pct should serialize as null, got %v", doc.Insights[0]["trend_pct"])
	}
}

func TestWriteBacktestReport(t *testing.T) {
	report := &domain.BacktestReport{
		FormulaVersion:     "v0.1",
		ExecutedAt:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		AvailableYears:     []int{2020, 2021, 2022, 2023, 2024},
		CutoffYear:         2022,
		TotalConfigs:       125,
		GroundTruthRegions: 40,
		Results: []*domain.ConfigResult{
			{
				ConfigID:     1,
				Valorization: domain.ValorizationWeights{Trend: 0.55, Liquidity: 0.25, Stability: 0.20},
				Gem:          domain.GemWeights{Trend: 0.40, Discount: 0.35, LiqDelta: 0.15, Stability: 0.10},
				Thresholds:   domain.Thresholds{MinConfidence: 0.50, MinTransactions: 15},
				ConfigMetrics: domain.ConfigMetrics{
					Spearman: 0.42, PrecisionAt20: 0.6, Stability: 0.42, Coverage: 0.75, Composite: 0.507,
				},
				EligibleCount: 30,
			},
		},
	}

	path := filepath.Join(t.TempDir(), BacktestReportFile)
	if err := WriteBacktestReport(report, path); err != nil {
		t.Fatalf("WriteBacktestReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	meta := doc["metadata"].(map[string]any)
	if meta["year_cutoff"] != float64(2022) {
		t.Errorf("year_cutoff: %v", meta["year_cutoff"])
	}
	if meta["total_regioes_futuro"] != float64(40) {
		t.Errorf("total_regioes_futuro: %v", meta["total_regioes_futuro"])
	}

	rows := doc["resultados"].([]any)
	row := rows[0].(map[string]any)
	if row["config_id"] != float64(1) {
		t.Errorf("config_id: %v", row["config_id"])
	}
	if row["n_eligible"] != float64(30) {
		t.Errorf("n_eligible: %v", row["n_eligible"])
	}
	// Metrics flatten into the row.
	if row["stability_tau"] != 0.42 {
		t.Errorf("stability_tau: %v", row["stability_tau"])
	}
	weights := row["peso_val"].(map[string]any)
	if weights["liquidez"] != 0.25 {
		t.Errorf("peso_val.liquidez: %v", weights["liquidez"])
	}
}

func TestWriteAndReadBestConfig(t *testing.T) {
	best := &domain.BestConfig{
		FormulaVersion: "v0.1",
		SelectedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ConfigID:       57,
		Valorization:   domain.ValorizationWeights{Trend: 0.45, Liquidity: 0.35, Stability: 0.20},
		Gem:            domain.GemWeights{Trend: 0.30, Discount: 0.45, LiqDelta: 0.15, Stability: 0.10},
		Thresholds:     domain.Thresholds{MinConfidence: 0.55, MinTransactions: 20},
		Metrics: domain.ConfigMetrics{
			Spearman: 0.51, PrecisionAt20: 0.7, Stability: 0.51, Coverage: 0.74, Composite: 0.4902,
		},
	}

	path := filepath.Join(t.TempDir(), BestConfigFile)
	if err := WriteBestConfig(best, path); err != nil {
		t.Fatalf("WriteBestConfig failed: %v", err)
	}

	got, err := ReadBestConfig(path)
	if err != nil {
		t.Fatalf("ReadBestConfig failed: %v", err)
	}

	if got.ConfigID != 57 {
		t.Errorf("ConfigID: %d", got.ConfigID)
	}
	if !got.SelectedAt.Equal(best.SelectedAt) {
		t.Errorf("SelectedAt: %v", got.SelectedAt)
	}
	if got.Valorization != best.Valorization {
		t.Errorf("Valorization: %+v", got.Valorization)
	}
	if got.Gem != best.Gem {
		t.Errorf("Gem: %+v", got.Gem)
	}
	if got.Thresholds != best.Thresholds {
		t.Errorf("Thresholds: %+v", got.Thresholds)
	}
	if got.Metrics != best.Metrics {
		t.Errorf("Metrics: %+v", got.Metrics)
	}
}
