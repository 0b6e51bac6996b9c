package mla

import (
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestPct(t *testing.T) {
	if got := Pct(110, fp(100)); got == nil || *got != 10 {
		t.Fatalf("Pct(110, 100) = %v, want 10", got)
	}
	if got := Pct(100, nil); got != nil {
		t.Fatalf("Pct(100, nil) = %v, want nil", got)
	}
	if got := Pct(100, fp(0)); got != nil {
		t.Fatalf("Pct(100, 0) = %v, want nil (divide by zero)", got)
	}
	if got := Pct(90, fp(100)); got == nil || *got != -10 {
		t.Fatalf("Pct(90, 100) = %v, want -10", got)
	}
}

func TestPriorAtFloorLookup(t *testing.T) {
	rows := []Row{
		{CalendarDate: "2024-03-01", IndicatorValue: "600"},
		{CalendarDate: "2024-03-05", IndicatorValue: "610"},
		{CalendarDate: "2024-03-12", IndicatorValue: "620"},
	}

	// No row on the 8th; the floor lookup must land on the 5th.
	if got := PriorAt(rows, "2024-03-08"); got == nil || *got != 610 {
		t.Fatalf("PriorAt(.., 2024-03-08) = %v, want 610", got)
	}
	// Boundary-inclusive.
	if got := PriorAt(rows, "2024-03-05"); got == nil || *got != 610 {
		t.Fatalf("PriorAt(.., 2024-03-05) = %v, want 610", got)
	}
	// Before the whole series: no prior.
	if got := PriorAt(rows, "2024-02-20"); got != nil {
		t.Fatalf("PriorAt before series = %v, want nil", got)
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rows := []Row{
		// Deliberately unsorted; Summary must sort ascending itself.
		{CalendarDate: "2024-03-14", IndicatorValue: "660"},
		{CalendarDate: "2024-02-14", IndicatorValue: "600"},
		{CalendarDate: "2024-03-07", IndicatorValue: "640"},
	}

	eyci := Summary(rows, now)
	if eyci == nil {
		t.Fatal("expected non-nil summary")
	}
	if eyci.Current != 660 {
		t.Errorf("current = %v, want 660", eyci.Current)
	}
	if eyci.Units != EYCIUnits {
		t.Errorf("units = %q", eyci.Units)
	}
	// 7-day prior (cutoff 2024-03-08) is 640: (660-640)/640*100 = 3.125 -> 3.1
	if eyci.WeekChangePct == nil || *eyci.WeekChangePct != 3.1 {
		t.Errorf("weekChangePct = %v, want 3.1", eyci.WeekChangePct)
	}
	// 28-day prior (cutoff 2024-02-16) is 600: (660-600)/600*100 = 10
	if eyci.Trend4W == nil || *eyci.Trend4W != 10 {
		t.Errorf("trend4w = %v, want 10", eyci.Trend4W)
	}
}

func TestSummaryEmptyAndNoPrior(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	if got := Summary(nil, now); got != nil {
		t.Fatalf("empty series should yield nil, got %+v", got)
	}

	// Single recent value: current present, both trends absent.
	eyci := Summary([]Row{{CalendarDate: "2024-03-14", IndicatorValue: "660.5"}}, now)
	if eyci == nil || eyci.Current != 660.5 {
		t.Fatalf("got %+v", eyci)
	}
	if eyci.WeekChangePct != nil || eyci.Trend4W != nil {
		t.Errorf("trends should be nil without prior data: %+v", eyci)
	}
}
