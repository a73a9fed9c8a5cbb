package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes configures the API routes, middleware and error handler.
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg Config) {
	e.HTTPErrorHandler = JSONErrorHandler(cfg.Logger)
	e.Use(SetNoCacheHeaders)

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	limited := v1.Group("")
	limited.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      cfg.RateLimit,
		Burst:     cfg.Burst,
		ExpiresIn: 3 * time.Minute,
	})))

	if h.Exchanges != nil {
		limited.GET("/exchanges", h.SearchExchanges)
		limited.GET("/exchanges/:id", h.GetExchange)
		limited.GET("/exchanges/:id/quote", h.Quote)
		limited.GET("/creators/:address/exchanges", h.ExchangesByCreator)
		limited.GET("/accounts/:address/swaps", h.AccountSwaps)
	}
	if h.Pools != nil {
		limited.GET("/pools", h.ListPools)
	}

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
