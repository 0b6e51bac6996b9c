package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"MarketPull/internal/domain/models"
	"MarketPull/internal/parser"
	"MarketPull/internal/service/mla"
	"MarketPull/internal/source"
	"MarketPull/pkg/cache"
	xlogger "MarketPull/pkg/logger"
)

type fakeSource struct {
	id, label  string
	candidates []source.Candidate
	parse      parser.Func
}

func (f *fakeSource) ID() string    { return f.id }
func (f *fakeSource) Label() string { return f.label }
func (f *fakeSource) Candidates(context.Context, time.Time, int) []source.Candidate {
	return f.candidates
}
func (f *fakeSource) Parse(text string, hint parser.Hint) *models.SaleResult {
	return f.parse(text, hint)
}

type fakeFetcher struct {
	mu    sync.Mutex
	texts map[string]string
	calls int
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	text, ok := f.texts[url]
	return text, ok
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIndicator struct {
	rows []mla.Row
}

func (f *fakeIndicator) FetchIndicator(context.Context, string, string) []mla.Row {
	return f.rows
}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testConfig() Config {
	return Config{
		CacheKey:       "market_prices",
		CacheTTL:       6 * time.Hour,
		NumSales:       5,
		FetchTimeout:   5 * time.Second,
		LookbackDays:   36,
		DebugSampleLen: 3000,
	}
}

func passthroughParse(text string, hint parser.Hint) *models.SaleResult {
	if text == "" {
		return nil
	}
	return &models.SaleResult{
		SaleDate: hint.SaleDate,
		Cohorts: []models.WeightCohort{
			{Category: models.CategorySteer, WeightMin: 200, AvgCKg: 400},
		},
	}
}

func newTestService(t *testing.T, c cache.Service, fetcher *fakeFetcher, rows []mla.Row) *MarketService {
	t.Helper()
	sources := []source.Source{
		&fakeSource{
			id: "ROM", label: "Roma Store",
			candidates: []source.Candidate{
				{URL: "http://roma/1.pdf", SaleDate: "2024-03-12"},
				{URL: "http://roma/2.pdf", SaleDate: "2024-03-05"},
			},
			parse: passthroughParse,
		},
		&fakeSource{
			id: "WAR", label: "Warwick",
			candidates: []source.Candidate{
				{URL: "http://warwick/1.pdf", SaleDate: "2024-03-12"},
			},
			parse: passthroughParse,
		},
		&fakeSource{
			id: "DAL", label: "Dalby",
			candidates: nil, // listing scrape came back empty
			parse:      passthroughParse,
		},
	}
	svc := NewMarketService(testConfig(), c, sources, fetcher, &fakeIndicator{rows: rows}, nil, nil, testLogger(t))
	svc.SetClock(func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	})
	return svc
}

func TestGetRefreshesOnMiss(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	fetcher := &fakeFetcher{texts: map[string]string{
		"http://roma/1.pdf":    "roma text",
		"http://warwick/1.pdf": "warwick text",
	}}
	rows := []mla.Row{
		{CalendarDate: "2024-02-14", IndicatorValue: "600"},
		{CalendarDate: "2024-03-14", IndicatorValue: "660"},
	}
	svc := newTestService(t, c, fetcher, rows)

	raw, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	var payload models.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Saleyards) != 3 {
		t.Fatalf("saleyards = %d, want 3", len(payload.Saleyards))
	}
	if payload.Saleyards[0].ID != "ROM" || payload.Saleyards[1].ID != "WAR" || payload.Saleyards[2].ID != "DAL" {
		t.Errorf("saleyard order = %+v", payload.Saleyards)
	}
	// Roma's second candidate is unavailable; only the first survives.
	if got := len(payload.Saleyards[0].Sales); got != 1 {
		t.Errorf("roma sales = %d, want 1", got)
	}
	if payload.Saleyards[0].Sales[0].SaleDate != "2024-03-12" {
		t.Errorf("roma sale date = %q", payload.Saleyards[0].Sales[0].SaleDate)
	}
	// An empty source still appears, with an empty array rather than null.
	if payload.Saleyards[2].Sales == nil || len(payload.Saleyards[2].Sales) != 0 {
		t.Errorf("dalby sales = %+v, want empty slice", payload.Saleyards[2].Sales)
	}
	if !strings.Contains(string(raw), `"sales":[]`) {
		t.Errorf("empty sales should serialize as []: %s", raw)
	}
	if payload.EYCI == nil || payload.EYCI.Current != 660 {
		t.Errorf("eyci = %+v", payload.EYCI)
	}
	if !payload.FetchedAt.Equal(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("fetchedAt = %v", payload.FetchedAt)
	}

	// The payload is now cached: a second Get must not touch upstream.
	calls := fetcher.callCount()
	raw2, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if string(raw2) != string(raw) {
		t.Error("cached payload differs from the refreshed one")
	}
	if fetcher.callCount() != calls {
		t.Errorf("cache hit still fetched upstream: %d -> %d", calls, fetcher.callCount())
	}
}

func TestGetServesFreshCacheVerbatim(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	fetcher := &fakeFetcher{}
	svc := newTestService(t, c, fetcher, nil)

	cached := json.RawMessage(`{"eyci":null,"saleyards":[],"fetchedAt":"2024-03-15T09:00:00Z"}`)
	entry := models.CacheEntry{
		Data:      cached,
		FetchedAt: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), // 3h old, TTL 6h
	}
	if err := c.Set(context.Background(), "market_prices", entry, 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	raw, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(raw) != string(cached) {
		t.Errorf("payload = %s, want the cached bytes verbatim", raw)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("fresh cache hit fetched upstream %d times", fetcher.callCount())
	}
}

func TestGetRefreshesStaleEntry(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	// Every document fetch fails: all three sources come back with zero
	// sales. The refresh must still happen and still overwrite the cache.
	fetcher := &fakeFetcher{}
	svc := newTestService(t, c, fetcher, nil)

	entry := models.CacheEntry{
		Data:      json.RawMessage(`{"old":true}`),
		FetchedAt: time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC), // 24h old
	}
	if err := c.Set(context.Background(), "market_prices", entry, 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	raw, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if strings.Contains(string(raw), `"old"`) {
		t.Fatal("stale payload was served instead of refreshing")
	}
	if fetcher.callCount() == 0 {
		t.Fatal("stale entry did not trigger a refresh")
	}

	var payload models.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Saleyards) != 3 {
		t.Fatalf("saleyards = %d, want all 3 even with no sales", len(payload.Saleyards))
	}
	for _, m := range payload.Saleyards {
		if m.Sales == nil || len(m.Sales) != 0 {
			t.Errorf("%s sales = %+v, want empty slice", m.ID, m.Sales)
		}
	}

	// Even a completely empty refresh overwrites the stale entry with a
	// fresh stamp.
	var stored models.CacheEntry
	if err := c.Get(context.Background(), "market_prices", &stored); err != nil {
		t.Fatalf("read back cache: %v", err)
	}
	if !stored.FetchedAt.Equal(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("stored fetched_at = %v", stored.FetchedAt)
	}
}

func TestGetServesStaleWhenRefreshLocked(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	fetcher := &fakeFetcher{}
	svc := newTestService(t, c, fetcher, nil)

	stale := json.RawMessage(`{"old":true}`)
	entry := models.CacheEntry{
		Data:      stale,
		FetchedAt: time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	if err := c.Set(context.Background(), "market_prices", entry, 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	// Another process holds the refresh lock.
	if ok, err := c.TryLock(context.Background(), "market_prices:refresh", time.Minute); err != nil || !ok {
		t.Fatalf("seed lock: ok=%v err=%v", ok, err)
	}

	raw, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(raw) != string(stale) {
		t.Errorf("payload = %s, want the stale copy", raw)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("lock loser fetched upstream %d times", fetcher.callCount())
	}
}

type slowFetcher struct {
	delay time.Duration
	mu    sync.Mutex
	calls int
}

func (f *slowFetcher) FetchText(_ context.Context, url string) (string, bool) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	time.Sleep(f.delay)
	return "text " + url, true
}

func TestRefreshFetchesDocumentsConcurrently(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()

	sources := []source.Source{
		&fakeSource{
			id: "ROM", label: "Roma Store",
			candidates: []source.Candidate{
				{URL: "http://roma/1.pdf", SaleDate: "2024-03-12"},
				{URL: "http://roma/2.pdf", SaleDate: "2024-03-05"},
				{URL: "http://roma/3.pdf", SaleDate: "2024-02-27"},
				{URL: "http://roma/4.pdf", SaleDate: "2024-02-20"},
			},
			parse: passthroughParse,
		},
	}
	fetcher := &slowFetcher{delay: 150 * time.Millisecond}
	svc := NewMarketService(testConfig(), c, sources, fetcher, &fakeIndicator{}, nil, nil, testLogger(t))
	svc.SetClock(func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	})

	start := time.Now()
	raw, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Sequential would take 4 x 150ms; parallel is bounded by the slowest
	// single document.
	if elapsed := time.Since(start); elapsed > 450*time.Millisecond {
		t.Errorf("4 documents at 150ms each took %s; fetches should run in parallel", elapsed)
	}

	var payload models.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sales := payload.Saleyards[0].Sales
	if len(sales) != 4 {
		t.Fatalf("sales = %d, want 4", len(sales))
	}
	// Concurrency must not reorder: newest candidate first.
	for i, want := range []string{"2024-03-12", "2024-03-05", "2024-02-27", "2024-02-20"} {
		if sales[i].SaleDate != want {
			t.Errorf("sales[%d].sale_date = %q, want %q", i, sales[i].SaleDate, want)
		}
	}
}

type writeFailingCache struct {
	cache.Service
}

func (w *writeFailingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis is down")
}

func TestGetSurvivesCacheWriteFailure(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	fetcher := &fakeFetcher{texts: map[string]string{
		"http://roma/1.pdf": "roma text",
	}}
	svc := newTestService(t, &writeFailingCache{Service: mem}, fetcher, nil)

	raw, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var payload models.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload.Saleyards) != 3 {
		t.Errorf("saleyards = %d, want 3 despite the failed cache write", len(payload.Saleyards))
	}
}

func TestDebugBypassesCache(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	long := strings.Repeat("x", 5000)
	fetcher := &fakeFetcher{texts: map[string]string{
		"http://roma/1.pdf":    long,
		"http://warwick/1.pdf": "warwick text",
	}}
	svc := newTestService(t, c, fetcher, nil)

	samples := svc.Debug(context.Background())
	if len(samples) != 2 {
		t.Fatalf("samples = %v", samples)
	}
	if got := samples["roma"]; len(got) != 3000 {
		t.Errorf("roma sample length = %d, want 3000", len(got))
	}
	if samples["warwick"] != "warwick text" {
		t.Errorf("warwick sample = %q", samples["warwick"])
	}
	// Dalby fetched nothing, so its key is absent rather than empty.
	if _, ok := samples["dalby"]; ok {
		t.Errorf("dalby sample should be omitted, got %q", samples["dalby"])
	}

	// Debug must not populate the payload cache.
	var entry models.CacheEntry
	if err := c.Get(context.Background(), "market_prices", &entry); err != cache.ErrCacheMiss {
		t.Errorf("cache read after debug = %v, want miss", err)
	}
}
