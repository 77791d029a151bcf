// Package backtest calibrates scoring weights and eligibility thresholds
// with a walk-forward grid search over annual data: train on history up
// to T-2, test against the realized variation of the last two years.
package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"itbi-insight-lab/internal/dataset"
	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/insight"
	"itbi-insight-lab/internal/observability"
	"itbi-insight-lab/internal/storage"
)

// Selection constraints. A configuration must cover at least a quarter
// of the ground-truth regions and rank them with some consistency to be
// considered; otherwise selection falls back to the unconstrained best.
const (
	minCoverage  = 0.25
	minStability = 0.60
)

// Composite metric weights.
const (
	compositeSpearman  = 0.40
	compositePrecision = 0.30
	compositeStability = 0.20
	compositeCoverage  = 0.10
)

// Fewer ground-truth regions than this makes results unstable.
const minGroundTruthRegions = 5

// Engine runs the walk-forward backtest.
type Engine struct {
	logger *zap.Logger
	clock  clockwork.Clock
	store  storage.BacktestStore
}

// Options for creating an Engine. A nil Store skips persistence.
type Options struct {
	Logger *zap.Logger
	Clock  clockwork.Clock
	Store  storage.BacktestStore
}

// New creates a new Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{logger: logger, clock: clock, store: opts.Store}
}

// Run executes the backtest over the consolidated table at inputPath and
// returns the full grid report plus the selected configuration.
func (e *Engine) Run(ctx context.Context, inputPath string) (*domain.BacktestReport, *domain.BestConfig, error) {
	start := time.Now()
	report, best, err := e.run(ctx, inputPath)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordRun("backtest", status, time.Since(start).Seconds())
	return report, best, err
}

func (e *Engine) run(ctx context.Context, inputPath string) (*domain.BacktestReport, *domain.BestConfig, error) {
	e.logger.Info("loading consolidated table", zap.String("path", inputPath))
	table, err := dataset.LoadFile(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load table: %w", err)
	}

	cols, err := dataset.DetectColumns(table.Headers)
	if err != nil {
		return nil, nil, fmt.Errorf("detect columns: %w", err)
	}

	records := insight.ApplyDeflator(dataset.Records(table, cols))

	// Neighborhood granularity only; street regions rarely have enough
	// history to produce a usable ground truth.
	periods := insight.AggregateByPeriod(records, domain.LevelNeighborhood)
	if len(periods) == 0 {
		return nil, nil, fmt.Errorf("no aggregated data for backtest")
	}

	years := distinctYears(periods)
	e.logger.Info("years available", zap.Ints("years", years))
	if len(years) < 3 {
		return nil, nil, fmt.Errorf("backtest requires at least 3 distinct years, got %v", years)
	}

	maxYear := years[len(years)-1]
	cutoff := maxYear - 2
	e.logger.Info("walk-forward split", zap.Int("train_max_year", cutoff))

	groundTruth := futureVariation(periods, cutoff)
	e.logger.Info("ground-truth regions", zap.Int("count", len(groundTruth)))
	if len(groundTruth) < minGroundTruthRegions {
		e.logger.Warn("few regions with computable future variation, results may be unstable",
			zap.Int("count", len(groundTruth)))
	}

	var trainPeriods []*domain.PeriodAggregate
	for _, p := range periods {
		if p.Year <= cutoff {
			trainPeriods = append(trainPeriods, p)
		}
	}
	trainYears := distinctYears(trainPeriods)

	trainFeatures := insight.ExtractWindowFeatures(trainPeriods, len(trainYears), nil, false)
	if len(trainFeatures) == 0 {
		return nil, nil, fmt.Errorf("no features extracted from training data")
	}

	e.logger.Info("running grid search", zap.Int("configs", TotalConfigs()))
	results := e.evaluateGrid(trainFeatures, groundTruth)

	best := selectBest(results)
	if best == nil {
		e.logger.Warn("no configuration met selection constraints, falling back to unconstrained best")
		observability.RecordBacktestFallback()
		best = selectUnconstrained(results)
	}
	e.logger.Info("best configuration",
		zap.Int("config_id", best.ConfigID),
		zap.Float64("composite", best.Composite),
		zap.Float64("spearman", best.Spearman),
		zap.Float64("precision_at_20", best.PrecisionAt20),
		zap.Float64("coverage", best.Coverage))

	now := e.clock.Now().UTC()
	report := &domain.BacktestReport{
		FormulaVersion:     insight.FormulaVersion,
		ExecutedAt:         now,
		AvailableYears:     years,
		CutoffYear:         cutoff,
		TotalConfigs:       TotalConfigs(),
		GroundTruthRegions: len(groundTruth),
		Results:            results,
	}
	bestConfig := &domain.BestConfig{
		FormulaVersion: insight.FormulaVersion,
		SelectedAt:     now,
		ConfigID:       best.ConfigID,
		Valorization:   best.Valorization,
		Gem:            best.Gem,
		Thresholds:     best.Thresholds,
		Metrics:        best.ConfigMetrics,
	}

	if e.store != nil {
		if err := e.store.SaveReport(ctx, report); err != nil {
			return nil, nil, fmt.Errorf("save backtest report: %w", err)
		}
		if err := e.store.SaveBestConfig(ctx, bestConfig); err != nil {
			return nil, nil, fmt.Errorf("save best config: %w", err)
		}
	}

	return report, bestConfig, nil
}

// evaluateGrid scores the training features under every grid combination
// and measures each against the ground truth. Sequential on purpose:
// results must come out in deterministic config_id order.
func (e *Engine) evaluateGrid(trainFeatures []*domain.FeatureRow, groundTruth map[string]float64) []*domain.ConfigResult {
	results := make([]*domain.ConfigResult, 0, TotalConfigs())

	configID := 0
	for _, valWeights := range valorizationGrid {
		for _, gemWeights := range gemGrid {
			for _, thresholds := range thresholdGrid {
				configID++
				params := domain.ScoringParams{
					Valorization: valWeights,
					Gem:          gemWeights,
					Thresholds:   thresholds,
				}
				result := evaluateConfig(configID, trainFeatures, params, groundTruth)
				results = append(results, result)
				observability.RecordConfigTested()
			}
		}
	}
	return results
}

// evaluateConfig measures one configuration against the ground truth.
func evaluateConfig(configID int, features []*domain.FeatureRow, params domain.ScoringParams, groundTruth map[string]float64) *domain.ConfigResult {
	result := &domain.ConfigResult{
		ConfigID:     configID,
		Valorization: params.Valorization,
		Gem:          params.Gem,
		Thresholds:   params.Thresholds,
	}

	scored := insight.ComputeScores(features, params)

	var eligible []*domain.Insight
	for _, ins := range scored {
		if ins.ValorizationEligible {
			eligible = append(eligible, ins)
		}
	}
	if len(eligible) == 0 {
		return result
	}
	result.EligibleCount = len(eligible)

	var scores, actuals []float64
	for _, ins := range eligible {
		if actual, ok := groundTruth[ins.Region]; ok {
			scores = append(scores, ins.ValorizationScore)
			actuals = append(actuals, actual)
		}
	}

	coverage := float64(len(scores)) / math.Max(float64(len(groundTruth)), 1)
	if len(scores) < 3 {
		result.Coverage = round4(coverage)
		return result
	}

	spearman := spearmanRank(scores, actuals)
	precision := precisionAtK(scores, actuals, 20)
	stability := math.Max(0.0, spearman)
	composite := compositeSpearman*spearman +
		compositePrecision*precision +
		compositeStability*stability +
		compositeCoverage*coverage

	result.ConfigMetrics = domain.ConfigMetrics{
		Spearman:      round4(spearman),
		PrecisionAt20: round4(precision),
		Stability:     round4(stability),
		Coverage:      round4(coverage),
		Composite:     round4(composite),
	}
	return result
}

// selectBest returns the highest-composite result meeting the coverage
// and stability constraints, or nil when none qualifies. Earlier grid
// order wins ties.
func selectBest(results []*domain.ConfigResult) *domain.ConfigResult {
	var best *domain.ConfigResult
	for _, r := range results {
		if r.Coverage < minCoverage || r.Stability < minStability {
			continue
		}
		if best == nil || r.Composite > best.Composite {
			best = r
		}
	}
	return best
}

// selectUnconstrained returns the highest-composite result overall.
func selectUnconstrained(results []*domain.ConfigResult) *domain.ConfigResult {
	best := results[0]
	for _, r := range results[1:] {
		if r.Composite > best.Composite {
			best = r
		}
	}
	return best
}

// futureVariation computes the realized per-region variation of the
// median real average price across the cutoff. Regions missing on either
// side, or with a near-zero past median, are excluded.
func futureVariation(periods []*domain.PeriodAggregate, cutoff int) map[string]float64 {
	past := make(map[string][]float64)
	future := make(map[string][]float64)
	for _, p := range periods {
		if p.Year <= cutoff {
			past[p.Region] = append(past[p.Region], p.AvgRealPrice)
		} else {
			future[p.Region] = append(future[p.Region], p.AvgRealPrice)
		}
	}

	result := make(map[string]float64)
	for region, pastPrices := range past {
		futurePrices, ok := future[region]
		if !ok {
			continue
		}
		p0 := insight.Median(pastPrices)
		p1 := insight.Median(futurePrices)
		if p0 > insight.EPS {
			result[region] = p1/p0 - 1.0
		}
	}
	return result
}

// distinctYears returns the sorted distinct years present in periods.
func distinctYears(periods []*domain.PeriodAggregate) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, p := range periods {
		if _, ok := seen[p.Year]; !ok {
			seen[p.Year] = struct{}{}
			years = append(years, p.Year)
		}
	}
	sort.Ints(years)
	return years
}

func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
