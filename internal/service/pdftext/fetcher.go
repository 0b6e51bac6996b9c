package pdftext

import (
	"context"
	"net/url"

	"MarketPull/internal/service/ratelimit"
	xhttp "MarketPull/pkg/http"
	xlogger "MarketPull/pkg/logger"
)

// Fetcher downloads PDF reports and extracts their text. It implements
// repository.TextFetcher.
type Fetcher struct {
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	logger  *xlogger.Logger
	rate    float64
	burst   float64
}

// NewFetcher creates a report document fetcher. rate/burst bound requests
// per publisher host.
func NewFetcher(client *xhttp.Client, logger *xlogger.Logger, rate, burst float64) *Fetcher {
	return &Fetcher{
		client:  client,
		limiter: ratelimit.New(),
		logger:  logger,
		rate:    rate,
		burst:   burst,
	}
}

// FetchText downloads rawURL and returns the extracted text. Every failure
// path is reported as ok=false: the document is simply unavailable as far
// as the pipeline is concerned.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, bool) {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	if err := f.limiter.Wait(ctx, host, f.burst, f.rate); err != nil {
		return "", false
	}

	var body []byte
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    rawURL,
	}, &body)
	if err != nil {
		f.logger.Debug("document fetch failed",
			xlogger.String("url", rawURL), xlogger.Error(err))
		return "", false
	}

	text, err := Extract(body)
	if err != nil {
		f.logger.Debug("document extract failed",
			xlogger.String("url", rawURL), xlogger.Error(err))
		return "", false
	}
	return text, true
}
