package models

import (
	"encoding/json"
	"time"
)

// Livestock categories tracked in the standard cohort model. Bull-only
// sections in source reports are not part of it, although "bullock" counts
// as steer where a source uses the term.
const (
	CategorySteer  = "steer"
	CategoryHeifer = "heifer"
	CategoryCow    = "cow"
)

// WeightCohort is a price observation for one livestock category within one
// weight band at one sale. WeightMax nil means open-ended ("600kg and up").
type WeightCohort struct {
	Category  string   `json:"category"`
	WeightMin int      `json:"weight_min"`
	WeightMax *int     `json:"weight_max"`
	AvgCKg    float64  `json:"avg_c_kg"`
	MaxCKg    *float64 `json:"max_c_kg"`
	Head      *int     `json:"head"`
}

// SaleResult is one auction event at one saleyard on one date. A parse that
// recovers zero cohorts never produces a SaleResult.
type SaleResult struct {
	SaleDate  string         `json:"sale_date"`
	TotalHead *int           `json:"total_head"`
	Cohorts   []WeightCohort `json:"cohorts"`
}

// MarketData is the recent sales list for one saleyard source,
// most-recent-first.
type MarketData struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Sales []SaleResult `json:"sales"`
}

// EYCI is the Eastern Young Cattle Indicator summary: current value plus
// week-over-week and four-week trend percentages. A trend is nil when no
// prior value exists within the lookback window.
type EYCI struct {
	Current       float64  `json:"current"`
	Units         string   `json:"units"`
	WeekChangePct *float64 `json:"weekChangePct"`
	Trend4W       *float64 `json:"trend4w"`
}

// Payload is the full response served to the frontend.
type Payload struct {
	EYCI      *EYCI        `json:"eyci"`
	Saleyards []MarketData `json:"saleyards"`
	FetchedAt time.Time    `json:"fetchedAt"`
}

// CacheEntry is the persisted cache row. Data holds the marshalled Payload
// verbatim so cached responses are byte-identical to what was served.
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}
