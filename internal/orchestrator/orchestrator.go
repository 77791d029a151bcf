// Package orchestrator provides E2E insight pipeline orchestration.
// It coordinates: dataset loading → deflation → aggregation → feature
// extraction → scoring → report assembly.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"itbi-insight-lab/internal/dataset"
	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/insight"
	"itbi-insight-lab/internal/observability"
	"itbi-insight-lab/internal/storage"
)

// Orchestrator coordinates one insight generation run.
type Orchestrator struct {
	logger *zap.Logger
	clock  clockwork.Clock

	insightStore   storage.InsightStore
	aggregateStore storage.PeriodAggregateStore

	params domain.ScoringParams
}

// Options for creating an Orchestrator. Stores are optional: a nil
// InsightStore skips report persistence, a nil AggregateStore skips the
// period-aggregate archive.
type Options struct {
	Logger *zap.Logger
	Clock  clockwork.Clock

	InsightStore   storage.InsightStore
	AggregateStore storage.PeriodAggregateStore

	// Params overrides the default scoring configuration, typically
	// with the backtest-selected one.
	Params *domain.ScoringParams
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	params := insight.DefaultParams()
	if opts.Params != nil {
		params = *opts.Params
	}

	return &Orchestrator{
		logger:         logger,
		clock:          clock,
		insightStore:   opts.InsightStore,
		aggregateStore: opts.AggregateStore,
		params:         params,
	}
}

// Run executes the full pipeline over the consolidated table at
// inputPath and returns the assembled report.
// Phases:
//  1. Load and parse the consolidated table
//  2. Deflate nominal values
//  3. Aggregate by (region, year) at both granularity levels
//  4. Extract features and score every (level, window) combination
func (o *Orchestrator) Run(ctx context.Context, inputPath string) (*domain.InsightReport, error) {
	start := time.Now()
	report, err := o.run(ctx, inputPath)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordRun("insights", status, time.Since(start).Seconds())
	return report, err
}

func (o *Orchestrator) run(ctx context.Context, inputPath string) (*domain.InsightReport, error) {
	o.logger.Info("loading consolidated table", zap.String("path", inputPath))
	table, err := dataset.LoadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}

	cols, err := dataset.DetectColumns(table.Headers)
	if err != nil {
		return nil, fmt.Errorf("detect columns: %w", err)
	}

	records := dataset.Records(table, cols)
	o.logger.Info("parsed transactions", zap.Int("rows", len(records)))

	records = insight.ApplyDeflator(records)

	neighborhoodPeriods := insight.AggregateByPeriod(records, domain.LevelNeighborhood)
	streetPeriods := insight.AggregateByPeriod(records, domain.LevelStreet)
	o.logger.Info("aggregated periods",
		zap.Int("neighborhood_rows", len(neighborhoodPeriods)),
		zap.Int("street_rows", len(streetPeriods)))

	if err := o.archiveAggregates(ctx, neighborhoodPeriods, streetPeriods); err != nil {
		return nil, err
	}

	periodsByLevel := map[domain.Level][]*domain.PeriodAggregate{
		domain.LevelNeighborhood: neighborhoodPeriods,
		domain.LevelStreet:       streetPeriods,
	}

	var insights []*domain.Insight
	for _, level := range []domain.Level{domain.LevelNeighborhood, domain.LevelStreet} {
		for _, months := range insight.WindowsMonths {
			windowYears := insight.WindowYears[months]

			features := insight.ExtractWindowFeatures(
				periodsByLevel[level],
				windowYears,
				neighborhoodPeriods,
				level == domain.LevelStreet,
			)
			if len(features) == 0 {
				o.logger.Warn("window produced no features",
					zap.String("level", string(level)),
					zap.Int("window_months", months))
				observability.RecordWindowSkipped(string(level))
				continue
			}

			scored := insight.ComputeScores(features, o.params)
			for _, ins := range scored {
				ins.Level = level
				ins.WindowMonths = months
			}
			insights = append(insights, scored...)
		}
	}

	report := &domain.InsightReport{
		FormulaVersion: insight.FormulaVersion,
		GeneratedAt:    o.clock.Now().UTC(),
		WindowsMonths:  insight.WindowsMonths,
		Levels:         []domain.Level{domain.LevelNeighborhood, domain.LevelStreet},
		Deflator:       insight.DeflatorIPCA,
		Insights:       insights,
	}

	if o.insightStore != nil {
		if err := o.insightStore.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}

	observability.RecordInsights(len(insights),
		report.EligibleValorizationCount(), report.EligibleGemCount())
	o.logger.Info("insight run complete",
		zap.Int("insights", len(insights)),
		zap.Int("eligible_valorization", report.EligibleValorizationCount()),
		zap.Int("eligible_gem", report.EligibleGemCount()))

	return report, nil
}

// archiveAggregates replaces the period-aggregate archive when a store
// is wired. The first error aborts the run; a half-replaced archive is
// worse than a stale one.
func (o *Orchestrator) archiveAggregates(ctx context.Context, neighborhood, street []*domain.PeriodAggregate) error {
	if o.aggregateStore == nil {
		return nil
	}

	if err := o.aggregateStore.ReplaceLevel(ctx, domain.LevelNeighborhood, neighborhood); err != nil {
		return fmt.Errorf("archive neighborhood aggregates: %w", err)
	}
	if err := o.aggregateStore.ReplaceLevel(ctx, domain.LevelStreet, street); err != nil {
		return fmt.Errorf("archive street aggregates: %w", err)
	}
	return nil
}
