package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/defistate/ocean-client-go/config"
	"github.com/defistate/ocean-client-go/ocean"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const usage = `usage: oceanctl [-config config.yaml] <command> [flags]

commands:
  networks
  exchange get|search|quote|create|buy|set-rate|activate|deactivate|swaps
  pool deploy|fork|add-ocean-token|list
  token create|mint|approve|balance
`

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	envPath := flag.String("env", ".env", "Optional dotenv file loaded before the configuration.")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		logger.Debug("No dotenv file loaded", "path", *envPath)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args[0] == "networks" {
		if err := printJSON(os.Stdout, config.Networks()); err != nil {
			logger.Error("Failed to print networks", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	network, err := cfg.Resolve()
	if err != nil {
		logger.Error("Failed to resolve network", "error", err)
		os.Exit(1)
	}

	client, err := ocean.Dial(ctx, network, logger.With("component", "ocean"), prometheus.NewRegistry())
	if err != nil {
		logger.Error("Failed to dial network", "network", network.Name, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	a := &app{client: client, out: os.Stdout}
	if err := a.run(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("Command failed", "command", args, "error", err)
		os.Exit(1)
	}
}
