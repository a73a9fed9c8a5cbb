// Package api serves read-only marketplace queries over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRateLimit      = rate.Limit(20)
	defaultBurst          = 40
)

// Config holds the configuration for the Server.
type Config struct {
	// Addr is the bind address, e.g. ":8090".
	Addr string
	// Exchanges serves the /v1/exchanges, /v1/creators and /v1/accounts
	// routes. Nil leaves them unregistered.
	Exchanges Exchanges
	// Pools serves /v1/pools. Nil leaves it unregistered.
	Pools  Pools
	Logger Logger
	// Registerer receives the HTTP metrics. Nil disables them.
	Registerer prometheus.Registerer
	// RateLimit is the sustained per-client request rate. Zero means 20/s.
	RateLimit rate.Limit
	// Burst is the per-client burst. Zero means 40.
	Burst int
	// RequestTimeout bounds each ledger query. Zero means ten seconds.
	RequestTimeout time.Duration
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.RateLimit < 0 || c.Burst < 0 || c.RequestTimeout < 0 {
		return errors.New("config: RateLimit, Burst and RequestTimeout must not be negative")
	}
	return nil
}

// Server wraps an Echo server with lifecycle management.
type Server struct {
	e      *echo.Echo
	addr   string
	logger Logger
}

// NewServer creates a Server from cfg.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.Burst == 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Debug("Request served", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	if cfg.Registerer != nil {
		e.Use(newHTTPMetrics(cfg.Registerer).middleware)
	}

	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	e.Server.IdleTimeout = 60 * time.Second

	h := &Handlers{
		Exchanges: cfg.Exchanges,
		Pools:     cfg.Pools,
		Logger:    cfg.Logger,
		Timeout:   cfg.RequestTimeout,
	}
	RegisterRoutes(e, h, cfg)

	return &Server{e: e, addr: cfg.Addr, logger: cfg.Logger}, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("API server listening", "addr", s.addr)
	if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server with a 10-second timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}

// SetNoCacheHeaders prevents caching of API responses.
func SetNoCacheHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")
		return next(c)
	}
}
