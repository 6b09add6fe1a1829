package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/liveglobe/liveglobe/internal/api"
	"github.com/liveglobe/liveglobe/internal/config"
	"github.com/liveglobe/liveglobe/internal/lambdaproxy"
	"github.com/liveglobe/liveglobe/internal/warehouse"
)

// configEnv optionally points at a YAML config bundled with the function.
// Without it, configuration comes from defaults and the environment.
const configEnv = "LIVEGLOBE_CONFIG"

func main() {
	cfg, err := config.LoadOrDefault(os.Getenv(configEnv))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	// The gateway connects on first use and keeps the handle for as long as
	// the execution environment stays warm.
	gw, err := warehouse.New(cfg.Warehouse)
	if err != nil {
		slog.Error("failed to build warehouse gateway", "err", err)
		os.Exit(1)
	}

	router := api.New(gw, api.WithAllowedOrigin(cfg.CORS.AllowedOrigin))
	lambda.Start(lambdaproxy.New(router).Invoke)
}
