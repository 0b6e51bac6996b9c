// Package usecase orchestrates the market price pipeline: cache gate,
// indicator fetch, per-source report fetching and parsing, and payload
// assembly.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"MarketPull/internal/domain/models"
	"MarketPull/internal/domain/repository"
	"MarketPull/internal/parser"
	"MarketPull/internal/service/mla"
	"MarketPull/internal/source"
	"MarketPull/pkg/cache"
	xlogger "MarketPull/pkg/logger"
	"MarketPull/pkg/util"
)

// IndicatorClient provides the EYCI time series.
type IndicatorClient interface {
	FetchIndicator(ctx context.Context, from, to string) []mla.Row
}

// refreshLockTTL bounds how long a crashed refresher can block others.
const refreshLockTTL = time.Minute

// Config tunes the pipeline.
type Config struct {
	CacheKey       string
	CacheTTL       time.Duration
	NumSales       int
	FetchTimeout   time.Duration
	LookbackDays   int
	DebugSampleLen int
}

// MarketService serves the market price payload, refreshing it from the
// upstream publishers when the cached copy has aged out.
type MarketService struct {
	cfg       Config
	cache     cache.Service
	sources   []source.Source
	fetcher   repository.TextFetcher
	indicator IndicatorClient
	history   repository.HistoryStore
	metrics   repository.Metrics
	logger    *xlogger.Logger
	now       func() time.Time
}

// NewMarketService wires the pipeline. history may be nil when archiving is
// disabled.
func NewMarketService(
	cfg Config,
	cacheSvc cache.Service,
	sources []source.Source,
	fetcher repository.TextFetcher,
	indicator IndicatorClient,
	history repository.HistoryStore,
	metrics repository.Metrics,
	logger *xlogger.Logger,
) *MarketService {
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &MarketService{
		cfg:       cfg,
		cache:     cacheSvc,
		sources:   sources,
		fetcher:   fetcher,
		indicator: indicator,
		history:   history,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the service clock.
func (s *MarketService) SetClock(now func() time.Time) { s.now = now }

// Get returns the marshalled payload, from cache when fresh. On a stale or
// missing entry one caller refreshes while concurrent callers are served the
// stale copy; a failed refresh also falls back to it.
func (s *MarketService) Get(ctx context.Context) (json.RawMessage, error) {
	var entry models.CacheEntry
	err := s.cache.Get(ctx, s.cfg.CacheKey, &entry)

	haveStale := false
	switch {
	case err == nil && len(entry.Data) > 0:
		if s.now().Sub(entry.FetchedAt) < s.cfg.CacheTTL {
			s.metrics.RecordCacheEvent("hit")
			return entry.Data, nil
		}
		haveStale = true
		s.metrics.RecordCacheEvent("stale")
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("cache read failed", xlogger.Error(err))
		s.metrics.RecordCacheEvent("error")
	default:
		s.metrics.RecordCacheEvent("miss")
	}

	lockKey := s.cfg.CacheKey + ":refresh"
	locked, lockErr := s.cache.TryLock(ctx, lockKey, refreshLockTTL)
	if lockErr != nil {
		s.logger.Warn("refresh lock failed", xlogger.Error(lockErr))
	}
	if lockErr == nil && !locked && haveStale {
		s.metrics.RecordCacheEvent("stale_served")
		return entry.Data, nil
	}
	if locked {
		defer func() { _ = s.cache.Unlock(ctx, lockKey) }()
	}

	raw, err := s.refresh(ctx)
	if err != nil {
		if haveStale {
			s.logger.Error("refresh failed, serving stale payload", xlogger.Error(err))
			s.metrics.RecordCacheEvent("stale_served")
			return entry.Data, nil
		}
		return nil, err
	}
	return raw, nil
}

// Debug fetches one report per source and returns the head of its extracted
// text, keyed by saleyard name. Sources where nothing could be fetched are
// left out of the map. Nothing is cached; the point is inspecting what the
// extractor sees when a parser stops matching.
func (s *MarketService) Debug(ctx context.Context) map[string]string {
	now := s.now()
	out := make(map[string]string, len(s.sources))
	for _, src := range s.sources {
		key := debugKey(src.Label())
		for _, cand := range src.Candidates(ctx, now, s.cfg.NumSales) {
			dctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			text, ok := s.fetcher.FetchText(dctx, cand.URL)
			cancel()
			if !ok {
				continue
			}
			if len(text) > s.cfg.DebugSampleLen {
				text = text[:s.cfg.DebugSampleLen]
			}
			out[key] = text
			break
		}
	}
	return out
}

func (s *MarketService) refresh(ctx context.Context) (json.RawMessage, error) {
	start := s.now()

	var (
		eyci          *models.EYCI
		salesBySource = make([][]models.SaleResult, len(s.sources))
		wg            sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		ictx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
		rows := s.indicator.FetchIndicator(ictx,
			util.DateStr(start, s.cfg.LookbackDays), util.DateStr(start, 1))
		eyci = mla.Summary(rows, start)
	}()

	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			salesBySource[i] = s.fetchSource(ctx, src, start)
		}(i, src)
	}
	wg.Wait()

	markets := make([]models.MarketData, len(s.sources))
	for i, src := range s.sources {
		sales := salesBySource[i]
		if sales == nil {
			sales = []models.SaleResult{}
		}
		markets[i] = models.MarketData{ID: src.ID(), Label: src.Label(), Sales: sales}
	}

	payload := models.Payload{
		EYCI:      eyci,
		Saleyards: markets,
		FetchedAt: start.UTC(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		for i, src := range s.sources {
			if len(salesBySource[i]) == 0 {
				continue
			}
			if err := s.history.StoreSales(ctx, src.ID(), salesBySource[i]); err != nil {
				s.logger.Warn("history archive failed",
					xlogger.String("source", src.ID()), xlogger.Error(err))
			}
		}
	}

	// Freshness is judged against FetchedAt on read; the store expiry only
	// bounds how long a stale copy stays around for fallback serving.
	entry := models.CacheEntry{Data: raw, FetchedAt: start}
	if err := s.cache.Set(ctx, s.cfg.CacheKey, entry, 4*s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", xlogger.Error(err))
		s.metrics.RecordCacheEvent("write_error")
	}

	s.metrics.RecordRefreshDuration(s.now().Sub(start).Seconds())
	s.logger.Info("payload refreshed",
		xlogger.Int("bytes", len(raw)),
		xlogger.Bool("eyci", eyci != nil))
	return raw, nil
}

// fetchSource downloads and parses a source's recent reports. Documents are
// fetched concurrently so a source is bounded by its slowest document, not
// the sum; results keep candidate order (newest first). Unfetchable or
// unparseable documents are dropped.
func (s *MarketService) fetchSource(ctx context.Context, src source.Source, now time.Time) []models.SaleResult {
	candidates := src.Candidates(ctx, now, s.cfg.NumSales)
	results := make([]*models.SaleResult, len(candidates))

	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand source.Candidate) {
			defer wg.Done()
			results[i] = s.fetchDocument(ctx, src, cand)
		}(i, cand)
	}
	wg.Wait()

	var sales []models.SaleResult
	for _, res := range results {
		if res != nil {
			sales = append(sales, *res)
		}
	}
	return sales
}

func (s *MarketService) fetchDocument(ctx context.Context, src source.Source, cand source.Candidate) *models.SaleResult {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	text, ok := s.fetcher.FetchText(dctx, cand.URL)
	if !ok {
		s.metrics.RecordFetch(src.ID(), "error")
		return nil
	}
	s.metrics.RecordFetch(src.ID(), "ok")

	res := src.Parse(text, parser.Hint{SaleDate: cand.SaleDate})
	if res == nil {
		s.metrics.RecordParse(src.ID(), "empty")
		s.logger.Debug("report not understood",
			xlogger.String("source", src.ID()), xlogger.String("url", cand.URL))
		return nil
	}
	s.metrics.RecordParse(src.ID(), "ok")
	return res
}

func debugKey(label string) string {
	if fields := strings.Fields(label); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return strings.ToLower(label)
}
