// Package mla fetches indicator time series from the MLA Statistics API and
// computes the trend summary served in the payload.
package mla

import (
	"context"
	"fmt"
	"strconv"

	xhttp "MarketPull/pkg/http"
	xlogger "MarketPull/pkg/logger"
)

// Row is one time-series observation as the API returns it. Both fields are
// strings on the wire.
type Row struct {
	CalendarDate   string `json:"calendar_date"`
	IndicatorValue string `json:"indicator_value"`
}

type reportResponse struct {
	Data []Row `json:"data"`
}

// Client queries the MLA Statistics API.
type Client struct {
	base        string
	indicatorID int
	http        *xhttp.Client
	logger      *xlogger.Logger
}

// New creates an MLA API client.
func New(base string, indicatorID int, httpClient *xhttp.Client, logger *xlogger.Logger) *Client {
	return &Client{
		base:        base,
		indicatorID: indicatorID,
		http:        httpClient,
		logger:      logger,
	}
}

// FetchIndicator returns indicator rows between from and to (ISO dates,
// inclusive). Failures yield nil; the indicator section of the payload is
// optional and must never block saleyard data.
func (c *Client) FetchIndicator(ctx context.Context, from, to string) []Row {
	var resp reportResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/report/5", c.base),
		QueryParams: map[string][]string{
			"fromDate":    {from},
			"toDate":      {to},
			"indicatorID": {strconv.Itoa(c.indicatorID)},
		},
	}, &resp)
	if err != nil {
		c.logger.Warn("indicator fetch failed", xlogger.Error(err))
		return nil
	}
	return resp.Data
}
