package mla

import (
	"math"
	"sort"
	"strconv"
	"time"

	"MarketPull/internal/domain/models"
	"MarketPull/pkg/util"
)

// EYCIUnits is the indicator's price unit (cents per kg carcase weight).
const EYCIUnits = "c/kg cwt"

// PriorAt returns the latest value in rows whose calendar_date is at or
// before cutoff (ISO date). Auction data is not published daily, so trend
// comparisons need a floor lookup, not an exact-day match. rows must be
// sorted ascending by calendar_date.
func PriorAt(rows []Row, cutoff string) *float64 {
	var prior *float64
	for _, r := range rows {
		if r.CalendarDate > cutoff {
			break
		}
		if v, err := strconv.ParseFloat(r.IndicatorValue, 64); err == nil {
			val := v
			prior = &val
		}
	}
	return prior
}

// Pct returns the percentage change from prior to current, or nil when no
// prior exists or it is zero (no trend is better than a fabricated one).
func Pct(current float64, prior *float64) *float64 {
	if prior == nil || *prior == 0 || math.IsNaN(*prior) {
		return nil
	}
	v := (current - *prior) / *prior * 100
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Summary reduces raw indicator rows to the payload's EYCI section: current
// value plus 7-day and 28-day trends, all rounded to one decimal. Returns
// nil when the series is empty or the latest value is unparseable.
func Summary(rows []Row, now time.Time) *models.EYCI {
	if len(rows) == 0 {
		return nil
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CalendarDate < sorted[j].CalendarDate
	})

	current, err := strconv.ParseFloat(sorted[len(sorted)-1].IndicatorValue, 64)
	if err != nil {
		return nil
	}

	eyci := &models.EYCI{
		Current: round1(current),
		Units:   EYCIUnits,
	}
	if p := Pct(current, PriorAt(sorted, util.DateStr(now, 7))); p != nil {
		v := round1(*p)
		eyci.WeekChangePct = &v
	}
	if p := Pct(current, PriorAt(sorted, util.DateStr(now, 28))); p != nil {
		v := round1(*p)
		eyci.Trend4W = &v
	}
	return eyci
}
