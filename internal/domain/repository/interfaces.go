package repository

import (
	"context"

	"MarketPull/internal/domain/models"
)

// TextFetcher downloads a report document and returns its extracted flat
// text. Any failure (HTTP status, network, unreadable document) reports
// ok=false; failures are per-document and never abort a refresh.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (text string, ok bool)
}

// HistoryStore archives parsed sale results for trend analysis.
type HistoryStore interface {
	StoreSales(ctx context.Context, sourceID string, sales []models.SaleResult) error
}

// Metrics records operational counters.
type Metrics interface {
	RecordFetch(source, outcome string)
	RecordParse(source, outcome string)
	RecordCacheEvent(event string)
	RecordRefreshDuration(seconds float64)
}

// NopMetrics is a Metrics that records nothing.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, string)    {}
func (NopMetrics) RecordParse(string, string)    {}
func (NopMetrics) RecordCacheEvent(string)       {}
func (NopMetrics) RecordRefreshDuration(float64) {}
