// Package main runs the walk-forward backtest and writes the grid report
// and the selected configuration as JSON documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"itbi-insight-lab/internal/backtest"
	"itbi-insight-lab/internal/config"
	"itbi-insight-lab/internal/observability"
	"itbi-insight-lab/internal/reporting"
	"itbi-insight-lab/internal/storage"
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

	ctx := context.Background()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	store, closeStore, err := wireBacktestStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store wiring failed", zap.Error(err))
	}
	defer closeStore()

	engine := backtest.New(backtest.Options{
		Logger: logger.Log,
		Store:  store,
	})

	report, best, err := engine.Run(ctx, *input)
	if err != nil {
		logger.Fatal("backtest failed", zap.Error(err))
	}

	reportPath := filepath.Join(*outputDir, reporting.BacktestReportFile)
	if err := reporting.WriteBacktestReport(report, reportPath); err != nil {
		logger.Fatal("failed to write backtest report", zap.Error(err))
	}

	bestPath := filepath.Join(*outputDir, reporting.BestConfigFile)
	if err := reporting.WriteBestConfig(best, bestPath); err != nil {
		logger.Fatal("failed to write best config", zap.Error(err))
	}

	logger.Info("backtest documents written",
		zap.String("report", reportPath),
		zap.String("best_config", bestPath),
		zap.Int("best_config_id", best.ConfigID))
}

// wireBacktestStore connects the optional Postgres backend. An unset DSN
// leaves the store nil and skips persistence.
func wireBacktestStore(ctx context.Context, cfg *config.Config) (storage.BacktestStore, func(), error) {
	if cfg.PostgresDSN == "" {
		return nil, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, func() {}, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, func() {}, err
	}
	return postgres.NewBacktestStore(pool), pool.Close, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
