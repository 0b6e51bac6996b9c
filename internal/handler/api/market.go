// Package api exposes the HTTP surface of the service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	xhttp "MarketPull/pkg/http"
	xlogger "MarketPull/pkg/logger"
)

// MarketGetter produces the market price payload.
type MarketGetter interface {
	Get(ctx context.Context) (json.RawMessage, error)
	Debug(ctx context.Context) map[string]string
}

// MarketHandler serves market price requests.
type MarketHandler struct {
	service MarketGetter
	logger  *xlogger.Logger
}

// NewMarketHandler creates a market price handler.
func NewMarketHandler(service MarketGetter, logger *xlogger.Logger) *MarketHandler {
	return &MarketHandler{service: service, logger: logger}
}

// RegisterRoutes registers handler routes. The frontend client sends GET,
// but the route accepts any method so callers probing with POST get data
// rather than a 405.
func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.Any("/api/market-prices", h.GetPrices)
}

// GetPrices returns the cached-or-refreshed payload. With ?debug it instead
// returns raw extracted text samples, bypassing the cache entirely.
func (h *MarketHandler) GetPrices(c echo.Context) error {
	if c.QueryParams().Has("debug") {
		return c.JSONPretty(http.StatusOK, h.service.Debug(c.Request().Context()), "  ")
	}

	raw, err := h.service.Get(c.Request().Context())
	if err != nil {
		h.logger.Error("market prices unavailable", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.JSONBlob(http.StatusOK, raw)
}
