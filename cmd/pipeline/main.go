// Package main provides the full pipeline entry point.
// Executes: backtest calibration → insight generation with the selected
// parameters → dashboard document output.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"itbi-insight-lab/internal/backtest"
	"itbi-insight-lab/internal/config"
	"itbi-insight-lab/internal/observability"
	"itbi-insight-lab/internal/orchestrator"
	"itbi-insight-lab/internal/reporting"
	"itbi-insight-lab/internal/storage"
	"itbi-insight-lab/internal/storage/clickhouse"
	"itbi-insight-lab/internal/storage/migrations"
	"itbi-insight-lab/internal/storage/postgres"
	"itbi-insight-lab/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	input := flag.String("input", cfg.InputCSV, "Path to the consolidated geocoded CSV")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for generated JSON documents")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Cancel the run on shutdown signals.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn("received signal, cancelling pipeline", zap.String("signal", sig.String()))
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	stores, err := wireStores(ctx, cfg)
	if err != nil {
		logger.Fatal("store wiring failed", zap.Error(err))
	}
	defer stores.close()

	// Phase 1: calibrate weights and thresholds.
	logger.Info("pipeline phase 1: backtest calibration")
	engine := backtest.New(backtest.Options{
		Logger: logger.Log,
		Store:  stores.backtest,
	})
	btReport, best, err := engine.Run(ctx, *input)
	if err != nil {
		logger.Fatal("backtest failed", zap.Error(err))
	}

	if err := reporting.WriteBacktestReport(btReport, filepath.Join(*outputDir, reporting.BacktestReportFile)); err != nil {
		logger.Fatal("failed to write backtest report", zap.Error(err))
	}
	if err := reporting.WriteBestConfig(best, filepath.Join(*outputDir, reporting.BestConfigFile)); err != nil {
		logger.Fatal("failed to write best config", zap.Error(err))
	}

	// Phase 2: generate insights with the calibrated parameters.
	logger.Info("pipeline phase 2: insight generation",
		zap.Int("config_id", best.ConfigID))
	params := best.Params()
	orch := orchestrator.New(orchestrator.Options{
		Logger:         logger.Log,
		InsightStore:   stores.insight,
		AggregateStore: stores.aggregate,
		Params:         &params,
	})
	report, err := orch.Run(ctx, *input)
	if err != nil {
		logger.Fatal("insight run failed", zap.Error(err))
	}

	if err := reporting.WriteInsights(report, filepath.Join(*outputDir, reporting.InsightsFile)); err != nil {
		logger.Fatal("failed to write insights document", zap.Error(err))
	}

	logger.Info("pipeline complete",
		zap.String("output_dir", *outputDir),
		zap.Int("insights", len(report.Insights)),
		zap.Int("eligible_valorization", report.EligibleValorizationCount()),
		zap.Int("eligible_gem", report.EligibleGemCount()))
}

// pipelineStores bundles the optional persistence backends.
type pipelineStores struct {
	insight   storage.InsightStore
	backtest  storage.BacktestStore
	aggregate storage.PeriodAggregateStore
	closers   []func()
}

func (s *pipelineStores) close() {
	for _, c := range s.closers {
		c()
	}
}

// wireStores connects the optional persistence backends from DSN config.
// Unset DSNs leave the corresponding stores nil.
func wireStores(ctx context.Context, cfg *config.Config) (*pipelineStores, error) {
	stores := &pipelineStores{}

	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			stores.close()
			return nil, err
		}
		stores.insight = postgres.NewInsightStore(pool)
		stores.backtest = postgres.NewBacktestStore(pool)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			stores.close()
			return nil, err
		}
		stores.closers = append(stores.closers, func() { _ = conn.Close() })
		stores.aggregate = clickhouse.NewPeriodAggregateStore(conn)
	}

	return stores, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
