// Package repository holds storage-backed implementations of the domain
// repository interfaces.
package repository

import (
	"context"
	"fmt"
	"strings"

	"MarketPull/internal/domain/models"
	"MarketPull/pkg/clickhouse"
	xlogger "MarketPull/pkg/logger"
)

// Price history archive. Each refresh appends the parsed cohorts so price
// trends survive the upstream publishers taking old reports down. The table
// is deduplicated by ReplacingMergeTree: re-archiving the same sale is
// harmless.
var historySchema = []string{
	`CREATE TABLE IF NOT EXISTS sale_cohorts (
		source_id   LowCardinality(String),
		sale_date   Date,
		category    LowCardinality(String),
		weight_min  UInt16,
		weight_max  Nullable(UInt16),
		avg_c_kg    Float64,
		max_c_kg    Nullable(Float64),
		head        Nullable(UInt32),
		total_head  Nullable(UInt32),
		stored_at   DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(stored_at)
	ORDER BY (source_id, sale_date, category, weight_min)`,
}

// ClickHouseHistory implements the domain HistoryStore on ClickHouse.
type ClickHouseHistory struct {
	client *clickhouse.Client
	logger *xlogger.Logger
}

// NewClickHouseHistory creates the archive and ensures its schema.
func NewClickHouseHistory(ctx context.Context, client *clickhouse.Client, logger *xlogger.Logger) (*ClickHouseHistory, error) {
	if err := client.InitSchema(ctx, historySchema); err != nil {
		return nil, err
	}
	return &ClickHouseHistory{client: client, logger: logger}, nil
}

// StoreSales appends every cohort of the given sales in one multi-row
// insert.
func (h *ClickHouseHistory) StoreSales(ctx context.Context, sourceID string, sales []models.SaleResult) error {
	var (
		placeholders []string
		args         []interface{}
	)
	for _, sale := range sales {
		for _, c := range sale.Cohorts {
			placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sourceID, sale.SaleDate, c.Category, c.WeightMin, c.WeightMax,
				c.AvgCKg, c.MaxCKg, c.Head, sale.TotalHead)
		}
	}
	if len(placeholders) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO sale_cohorts
		(source_id, sale_date, category, weight_min, weight_max, avg_c_kg, max_c_kg, head, total_head)
		VALUES %s`, strings.Join(placeholders, ", "))

	if _, err := h.client.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store sales: %w", err)
	}
	h.logger.Debug("sales archived",
		xlogger.String("source", sourceID), xlogger.Int("cohorts", len(placeholders)))
	return nil
}
