// Package di assembles the application from its parts. Construction is
// explicit: each provider builds one dependency and InitializeApp strings
// them together.
package di

import (
	"context"
	"fmt"
	"time"

	"MarketPull/internal/domain/repository"
	"MarketPull/internal/handler/api"
	internalrepo "MarketPull/internal/repository"
	"MarketPull/internal/service/mla"
	"MarketPull/internal/service/pdftext"
	"MarketPull/internal/source"
	"MarketPull/internal/usecase"
	pkgcache "MarketPull/pkg/cache"
	pkgch "MarketPull/pkg/clickhouse"
	"MarketPull/pkg/config"
	xhttp "MarketPull/pkg/http"
	xlogger "MarketPull/pkg/logger"
	"MarketPull/pkg/metrics"
	"MarketPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	return xlogger.New(&xlogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stdout",
	})
}

// ProvideCache creates the cache backend. Redis in production; memory for
// single-node dev where no Redis is running.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return pkgcache.NewMemoryCache(), nil
	default:
		c, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Host),
			pkgcache.WithRedisPort(cfg.Cache.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Password),
			pkgcache.WithRedisDB(cfg.Cache.DB),
			pkgcache.WithRedisPrefix(cfg.Cache.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the shared upstream HTTP client. Some publisher
// sites reject requests without a browser-ish User-Agent.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Market.FetchTimeout),
		xhttp.WithUserAgent("Mozilla/5.0 (compatible; MarketPull/1.0)"),
	)
}

// ProvideFetcher creates the PDF document fetcher.
func ProvideFetcher(client *xhttp.Client, logger *xlogger.Logger, cfg *config.Config) repository.TextFetcher {
	return pdftext.NewFetcher(client, logger, cfg.Sources.FetchRate, cfg.Sources.FetchBurst)
}

// ProvideSources creates the saleyard sources in payload order.
func ProvideSources(client *xhttp.Client, logger *xlogger.Logger, cfg *config.Config) []source.Source {
	return []source.Source{
		source.NewRoma(cfg.Sources.RomaBaseURL),
		source.NewWarwick(cfg.Sources.WarwickBaseURL),
		source.NewDalby(cfg.Sources.DalbyListingURL, client, logger),
	}
}

// ProvideIndicatorClient creates the MLA Statistics API client.
func ProvideIndicatorClient(client *xhttp.Client, logger *xlogger.Logger, cfg *config.Config) usecase.IndicatorClient {
	return mla.New(cfg.MLA.BaseURL, cfg.MLA.IndicatorID, client, logger)
}

// ProvideHistory creates the ClickHouse price archive when enabled. Returns
// nil otherwise; the pipeline treats a nil store as "archiving off".
func ProvideHistory(cfg *config.Config, logger *xlogger.Logger) (repository.HistoryStore, *pkgch.Client, error) {
	if !cfg.History.Enabled {
		return nil, nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.History.Host),
		pkgch.WithPort(cfg.History.Port),
		pkgch.WithDatabase(cfg.History.Database),
		pkgch.WithCredentials(cfg.History.User, cfg.History.Password),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := internalrepo.NewClickHouseHistory(ctx, client, logger)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, client, nil
}

// ProvideMarketService creates the pipeline use case.
func ProvideMarketService(
	cfg *config.Config,
	cacheSvc pkgcache.Service,
	sources []source.Source,
	fetcher repository.TextFetcher,
	indicator usecase.IndicatorClient,
	history repository.HistoryStore,
	m repository.Metrics,
	logger *xlogger.Logger,
) *usecase.MarketService {
	return usecase.NewMarketService(usecase.Config{
		CacheKey:       cfg.Market.CacheKey,
		CacheTTL:       cfg.Market.CacheTTL,
		NumSales:       cfg.Market.NumSales,
		FetchTimeout:   cfg.Market.FetchTimeout,
		LookbackDays:   cfg.MLA.LookbackDays,
		DebugSampleLen: cfg.Market.DebugSampleLen,
	}, cacheSvc, sources, fetcher, indicator, history, m, logger)
}

// InitializeApp builds the full application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	cacheSvc, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}

	history, chClient, err := ProvideHistory(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := ProvideHTTPClient(cfg)
	svc := ProvideMarketService(
		cfg,
		cacheSvc,
		ProvideSources(client, logger, cfg),
		ProvideFetcher(client, logger, cfg),
		ProvideIndicatorClient(client, logger, cfg),
		history,
		ProvideMetrics(),
		logger,
	)

	handler := api.NewMarketHandler(svc, logger)
	return server.New(cfg, handler, logger, cacheSvc, chClient), nil
}
