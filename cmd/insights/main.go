// Package main generates the insight report from the consolidated
// transaction table and writes the dashboard JSON document.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"itbi-insight-lab/internal/config"
	"itbi-insight-lab/internal/domain"
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
	bestConfigPath := flag.String("best-config", "", "Optional backtest best-config JSON to adopt calibrated parameters")
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

	insightStore, aggregateStore, closeStores, err := wireStores(ctx, cfg)
	if err != nil {
		logger.Fatal("store wiring failed", zap.Error(err))
	}
	defer closeStores()

	var params *domain.ScoringParams
	if *bestConfigPath != "" {
		best, err := reporting.ReadBestConfig(*bestConfigPath)
		if err != nil {
			logger.Fatal("failed to load best config", zap.Error(err))
		}
		p := best.Params()
		params = &p
		logger.Info("adopted calibrated parameters", zap.Int("config_id", best.ConfigID))
	}

	orch := orchestrator.New(orchestrator.Options{
		Logger:         logger.Log,
		InsightStore:   insightStore,
		AggregateStore: aggregateStore,
		Params:         params,
	})

	report, err := orch.Run(ctx, *input)
	if err != nil {
		logger.Fatal("insight run failed", zap.Error(err))
	}

	outPath := filepath.Join(*outputDir, reporting.InsightsFile)
	if err := reporting.WriteInsights(report, outPath); err != nil {
		logger.Fatal("failed to write insights document", zap.Error(err))
	}
	logger.Info("insights document written",
		zap.String("path", outPath),
		zap.Int("insights", len(report.Insights)))
}

// wireStores connects the optional persistence backends from DSN config.
// Unset DSNs leave the corresponding store nil.
func wireStores(ctx context.Context, cfg *config.Config) (storage.InsightStore, storage.PeriodAggregateStore, func(), error) {
	var (
		insightStore   storage.InsightStore
		aggregateStore storage.PeriodAggregateStore
		closers        []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, closeAll, err
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, nil, closeAll, err
		}
		insightStore = postgres.NewInsightStore(pool)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, nil, closeAll, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		aggregateStore = clickhouse.NewPeriodAggregateStore(conn)
	}

	return insightStore, aggregateStore, closeAll, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
