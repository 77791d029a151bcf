package clickhouse

import (
	"context"
	"fmt"
	"time"

	"itbi-insight-lab/internal/domain"
	"itbi-insight-lab/internal/observability"
	"itbi-insight-lab/internal/storage"
)

// PeriodAggregateStore implements storage.PeriodAggregateStore using
// ClickHouse. Each level is replaced wholesale on every archive run.
type PeriodAggregateStore struct {
	conn *Conn
}

// NewPeriodAggregateStore creates a new PeriodAggregateStore.
func NewPeriodAggregateStore(conn *Conn) *PeriodAggregateStore {
	return &PeriodAggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PeriodAggregateStore = (*PeriodAggregateStore)(nil)

// ReplaceLevel replaces the archived rows of one granularity level.
// The delete runs with mutations_sync so a follow-up read never sees a
// mix of old and new rows.
func (s *PeriodAggregateStore) ReplaceLevel(ctx context.Context, level domain.Level, rows []*domain.PeriodAggregate) error {
	if level == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	err := s.replaceLevel(ctx, level, rows)
	observability.RecordDBQuery("clickhouse", "replace_period_aggregates", time.Since(start).Seconds(), err)
	return err
}

func (s *PeriodAggregateStore) replaceLevel(ctx context.Context, level domain.Level, rows []*domain.PeriodAggregate) error {
	deleteQuery := `
		ALTER TABLE period_aggregates
		DELETE WHERE level = ?
		SETTINGS mutations_sync = 1
	`
	if err := s.conn.Exec(ctx, deleteQuery, string(level)); err != nil {
		return fmt.Errorf("delete level rows: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO period_aggregates (
			level, region, neighborhood, year, tx_count, total_real, avg_real_price, geo_tier
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			string(level), r.Region, r.Neighborhood, int32(r.Year),
			r.Count, r.TotalReal, r.AvgRealPrice, string(r.GeoTier),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByLevel retrieves all archived rows of one granularity level,
// ordered by (neighborhood, region, year).
func (s *PeriodAggregateStore) GetByLevel(ctx context.Context, level domain.Level) ([]*domain.PeriodAggregate, error) {
	query := `
		SELECT region, neighborhood, year, tx_count, total_real, avg_real_price, geo_tier
		FROM period_aggregates
		WHERE level = ?
		ORDER BY neighborhood ASC, region ASC, year ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, string(level))
	observability.RecordDBQuery("clickhouse", "get_period_aggregates", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query by level: %w", err)
	}
	defer rows.Close()

	return scanPeriodAggregates(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPeriodAggregates scans multiple rows into a slice.
func scanPeriodAggregates(rows chRows) ([]*domain.PeriodAggregate, error) {
	var aggregates []*domain.PeriodAggregate

	for rows.Next() {
		var (
			agg     domain.PeriodAggregate
			year    int32
			geoTier string
		)

		err := rows.Scan(
			&agg.Region, &agg.Neighborhood, &year,
			&agg.Count, &agg.TotalReal, &agg.AvgRealPrice, &geoTier,
		)
		if err != nil {
			return nil, fmt.Errorf("scan period aggregate row: %w", err)
		}

		agg.Year = int(year)
		agg.GeoTier = domain.GeoTier(geoTier)
		aggregates = append(aggregates, &agg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period aggregate rows: %w", err)
	}

	return aggregates, nil
}
