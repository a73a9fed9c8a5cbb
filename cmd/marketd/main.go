package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/defistate/ocean-client-go/api"
	"github.com/defistate/ocean-client-go/config"
	"github.com/defistate/ocean-client-go/metadatastore"
	"github.com/defistate/ocean-client-go/ocean"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	rootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	exit := func() {
		os.Exit(1)
	}

	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	envPath := flag.String("env", ".env", "Optional dotenv file loaded before the configuration.")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		rootLogger.Warn("No dotenv file found, using system environment variables", "path", *envPath)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		exit()
	}
	network, err := cfg.Resolve()
	if err != nil {
		rootLogger.Error("Failed to resolve network", "error", err)
		exit()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var opts []ocean.Option
	if cfg.Redis.Addr != "" {
		store, err := redisMetadataStore(ctx, cfg.Redis, network)
		if err != nil {
			rootLogger.Error("Failed to initialize metadata store", "addr", cfg.Redis.Addr, "error", err)
			exit()
		}
		opts = append(opts, ocean.WithMetadataStore(store))
	}

	client, err := ocean.Dial(ctx, network, rootLogger.With("component", "ocean"), registry, opts...)
	if err != nil {
		rootLogger.Error("Failed to dial network", "network", network.Name, "error", err)
		exit()
	}
	defer client.Close()

	apiCfg := api.Config{
		Addr:           cfg.API.Addr,
		Logger:         rootLogger.With("component", "api"),
		Registerer:     registry,
		RateLimit:      rate.Limit(cfg.API.RateLimit),
		Burst:          cfg.API.Burst,
		RequestTimeout: cfg.API.RequestTimeout,
	}
	if e := client.FixedRate(); e != nil {
		apiCfg.Exchanges = e
	}
	if r := client.Router(); r != nil {
		apiCfg.Pools = r
	}
	server, err := api.NewServer(apiCfg)
	if err != nil {
		rootLogger.Error("Failed to create API server", "error", err)
		exit()
	}

	metricsServer := &http.Server{
		Addr:              cfg.API.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- server.Start()
	}()
	go func() {
		rootLogger.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		rootLogger.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			rootLogger.Error("Server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		rootLogger.Error("API shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		rootLogger.Error("Metrics shutdown failed", "error", err)
	}
}

// redisMetadataStore keeps DDOs in Redis and resolves access URLs through
// the network's metadata cache when one is configured.
func redisMetadataStore(ctx context.Context, cfg config.Redis, network config.Network) (*metadatastore.RedisStore, error) {
	rclient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	var access metadatastore.AccessResolver
	if network.MetadataStoreURI != "" {
		aq, err := metadatastore.NewAquariusStore(network.MetadataStoreURI)
		if err != nil {
			return nil, err
		}
		access = aq
	}
	return metadatastore.NewRedisStore(rclient, access)
}
