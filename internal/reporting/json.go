// Package reporting serializes run outputs into the JSON documents
// consumed by the dashboard. Field names follow the published wire
// contract; NaN and infinite values become null.
package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/observability"
)

// Document file names under the output directory.
const (
	InsightsFile       = "itbi_insights.json"
	BacktestReportFile = "backtest_report.json"
	BestConfigFile     = "backtest_best_config.json"
)

type insightsDocument struct {
	Metadata insightsMetadata `json:"metadata"`
	Insights []insightRow     `json:"insights"`
}

type insightsMetadata struct {
	VersaoFormula             string          `json:"versao_formula"`
	JanelasMeses              []int           `json:"janelas_meses"`
	Niveis                    []domain.Level  `json:"niveis"`
	DeflatorIPCA              map[int]float64 `json:"deflator_ipca"`
	GeradoEm                  string          `json:"gerado_em"`
	TotalInsights             int             `json:"total_insights"`
	TotalElegiveisValorizacao int             `json:"total_elegiveis_valorizacao"`
	TotalElegiveisJoia        int             `json:"total_elegiveis_joia"`
}

// insightRow mirrors domain.Insight with nullable floats so pathological
// values serialize as null instead of breaking strict JSON parsers.
type insightRow struct {
	Regiao              string       `json:"regiao"`
	Bairro              string       `json:"bairro"`
	P0                  *float64     `json:"p0"`
	P1                  *float64     `json:"p1"`
	TrendPct            *float64     `json:"trend_pct"`
	TrendNorm           *float64     `json:"trend_norm"`
	Q                   int          `json:"q"`
	LiquidezNorm        *float64     `json:"liquidez_norm"`
	CV                  *float64     `json:"cv"`
	EstabilidadeNorm    *float64     `json:"estabilidade_norm"`
	PeriodosAtivos      int          `json:"periodos_ativos"`
	NivelGeo            string       `json:"nivel_geo"`
	Confianca           *float64     `json:"confianca"`
	Selo                string       `json:"selo"`
	PrecoRef            *float64     `json:"preco_ref"`
	DescontoPct         *float64     `json:"desconto_pct"`
	DescontoNorm        *float64     `json:"desconto_norm"`
	LiqDeltaPct         *float64     `json:"liq_delta_pct"`
	LiqDeltaNorm        *float64     `json:"liq_delta_norm"`
	RawVal              *float64     `json:"raw_val"`
	ScoreValorizacao    *float64     `json:"score_valorizacao"`
	RawJoia             *float64     `json:"raw_joia"`
	ScoreJoiaEscondida  *float64     `json:"score_joia_escondida"`
	ElegivelValorizacao bool         `json:"elegivel_valorizacao"`
	ElegivelJoia        bool         `json:"elegivel_joia"`
	Nivel               domain.Level `json:"nivel"`
	JanelaMeses         int          `json:"janela_meses"`
}

// WriteInsights writes the insight report document to path.
func WriteInsights(report *domain.InsightReport, path string) error {
	rows := make([]insightRow, 0, len(report.Insights))
	for _, ins := range report.Insights {
		rows = append(rows, insightRow{
			Regiao:              ins.Region,
			Bairro:              ins.Neighborhood,
			P0:                  nullable(ins.FirstPrice),
			P1:                  nullable(ins.LastPrice),
			TrendPct:            nullable(ins.TrendPct),
			TrendNorm:           nullable(ins.TrendNorm),
			Q:                   ins.Volume,
			LiquidezNorm:        nullable(ins.LiquidityNorm),
			CV:                  nullable(ins.CV),
			EstabilidadeNorm:    nullable(ins.StabilityNorm),
			PeriodosAtivos:      ins.ActivePeriods,
			NivelGeo:            string(ins.GeoTier),
			Confianca:           nullable(ins.Confidence),
			Selo:                ins.Seal,
			PrecoRef:            nullable(ins.BenchmarkPrice),
			DescontoPct:         nullable(ins.DiscountPct),
			DescontoNorm:        nullable(ins.DiscountNorm),
			LiqDeltaPct:         nullable(ins.LiqDeltaPct),
			LiqDeltaNorm:        nullable(ins.LiqDeltaNorm),
			RawVal:              nullable(ins.RawValorization),
			ScoreValorizacao:    nullable(ins.ValorizationScore),
			RawJoia:             nullable(ins.RawGem),
			ScoreJoiaEscondida:  nullable(ins.GemScore),
			ElegivelValorizacao: ins.ValorizationEligible,
			ElegivelJoia:        ins.GemEligible,
			Nivel:               ins.Level,
			JanelaMeses:         ins.WindowMonths,
		})
	}

	doc := insightsDocument{
		Metadata: insightsMetadata{
			VersaoFormula:             report.FormulaVersion,
			JanelasMeses:              report.WindowsMonths,
			Niveis:                    report.Levels,
			DeflatorIPCA:              report.Deflator,
			GeradoEm:                  formatTimestamp(report.GeneratedAt),
			TotalInsights:             len(report.Insights),
			TotalElegiveisValorizacao: report.EligibleValorizationCount(),
			TotalElegiveisJoia:        report.EligibleGemCount(),
		},
		Insights: rows,
	}
	return writeJSON(path, doc, "insights")
}

type backtestDocument struct {
	Metadata   backtestMetadata       `json:"metadata"`
	Resultados []*domain.ConfigResult `json:"resultados"`
}

type backtestMetadata struct {
	VersaoFormula      string `json:"versao_formula"`
	ExecutadoEm        string `json:"executado_em"`
	AnosDisponiveis    []int  `json:"anos_disponiveis"`
	YearCutoff         int    `json:"year_cutoff"`
	TotalConfigs       int    `json:"total_configs"`
	TotalRegioesFuturo int    `json:"total_regioes_futuro"`
}

// WriteBacktestReport writes the full grid-search document to path.
// Config result floats are round4 by construction and never NaN, so the
// domain rows serialize directly.
func WriteBacktestReport(report *domain.BacktestReport, path string) error {
	doc := backtestDocument{
		Metadata: backtestMetadata{
			VersaoFormula:      report.FormulaVersion,
			ExecutadoEm:        formatTimestamp(report.ExecutedAt),
			AnosDisponiveis:    report.AvailableYears,
			YearCutoff:         report.CutoffYear,
			TotalConfigs:       report.TotalConfigs,
			TotalRegioesFuturo: report.GroundTruthRegions,
		},
		Resultados: report.Results,
	}
	return writeJSON(path, doc, "backtest_report")
}

type bestConfigDocument struct {
	Metadata         bestConfigMetadata         `json:"metadata"`
	PesosValorizacao domain.ValorizationWeights `json:"pesos_valorizacao"`
	PesosJoia        domain.GemWeights          `json:"pesos_joia"`
	Thresholds       domain.Thresholds          `json:"thresholds"`
	Metricas         domain.ConfigMetrics       `json:"metricas"`
}

type bestConfigMetadata struct {
	VersaoFormula string `json:"versao_formula"`
	SelecionadoEm string `json:"selecionado_em"`
	ConfigID      int    `json:"config_id"`
}

// WriteBestConfig writes the selected configuration document to path.
func WriteBestConfig(best *domain.BestConfig, path string) error {
	doc := bestConfigDocument{
		Metadata: bestConfigMetadata{
			VersaoFormula: best.FormulaVersion,
			SelecionadoEm: formatTimestamp(best.SelectedAt),
			ConfigID:      best.ConfigID,
		},
		PesosValorizacao: best.Valorization,
		PesosJoia:        best.Gem,
		Thresholds:       best.Thresholds,
		Metricas:         best.Metrics,
	}
	return writeJSON(path, doc, "best_config")
}

// ReadBestConfig loads a previously written best-config document, used
// by the insights run to adopt calibrated parameters.
func ReadBestConfig(path string) (*domain.BestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read best config: %w", err)
	}

	var doc bestConfigDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse best config: %w", err)
	}

	selectedAt, err := time.Parse(time.RFC3339, doc.Metadata.SelecionadoEm)
	if err != nil {
		selectedAt = time.Time{}
	}
	return &domain.BestConfig{
		FormulaVersion: doc.Metadata.VersaoFormula,
		SelectedAt:     selectedAt,
		ConfigID:       doc.Metadata.ConfigID,
		Valorization:   doc.PesosValorizacao,
		Gem:            doc.PesosJoia,
		Thresholds:     doc.Thresholds,
		Metrics:        doc.Metricas,
	}, nil
}

func writeJSON(path string, payload any, document string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", document, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", document, err)
	}

	observability.RecordDocumentWritten(document)
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullable maps NaN and ±Inf onto nil so they serialize as JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
