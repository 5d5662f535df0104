// Package main provides the relay server binary: the authoritative game
// relay behind a WebSocket listener.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/config"
	"github.com/cory-johannsen/dogfight/internal/game/aircraft"
	"github.com/cory-johannsen/dogfight/internal/game/clock"
	"github.com/cory-johannsen/dogfight/internal/game/random"
	"github.com/cory-johannsen/dogfight/internal/game/room"
	"github.com/cory-johannsen/dogfight/internal/game/session"
	"github.com/cory-johannsen/dogfight/internal/observability"
	"github.com/cory-johannsen/dogfight/internal/relay"
	"github.com/cory-johannsen/dogfight/internal/server"
	"github.com/cory-johannsen/dogfight/internal/transport/ws"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = defaults and environment only")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	loggers, err := observability.NewLoggers(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = loggers.Sync() }()
	logger := loggers.Root()

	logger.Info("starting relay server",
		zap.String("version", version),
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.Int("max_players", cfg.Relay.MaxPlayers),
	)

	provider, err := observability.NewProvider(cfg.Metrics)
	if err != nil {
		logger.Fatal("creating meter provider", zap.Error(err))
	}
	otel.SetMeterProvider(provider.MeterProvider())
	logger.Info("metrics configured",
		zap.Bool("export", provider.Enabled()),
		zap.String("output", cfg.Metrics.Output),
		zap.Duration("interval", cfg.Metrics.Interval),
	)

	metrics, err := observability.NewMetrics(provider.MeterProvider())
	if err != nil {
		logger.Fatal("registering metrics", zap.Error(err))
	}

	catalog, err := aircraft.LoadCatalog(cfg.Relay.AircraftFile)
	if err != nil {
		logger.Fatal("loading aircraft catalog", zap.Error(err))
	}
	logger.Info("aircraft catalog loaded",
		zap.String("path", cfg.Relay.AircraftFile),
		zap.Int("types", catalog.Len()),
	)

	src := random.NewCryptoSource()
	rl := relay.New(cfg.Relay, relay.Deps{
		Store:    room.NewStore(src, cfg.Relay.AntiAirCount, cfg.Relay.MaxPlayers),
		Sessions: session.NewRegistry(cfg.WebSocket.SendBuffer),
		Catalog:  catalog,
		Clock:    clock.System{},
		Random:   src,
		Metrics:  metrics,
		Logger:   loggers.For("relay"),
	})

	httpSrv := ws.NewServer(cfg.HTTP, cfg.WebSocket, rl, loggers.For("ws"), version)

	lifecycle := server.NewLifecycle(loggers.For("lifecycle"))
	lifecycle.Add("relay", rl)
	lifecycle.Add("http", &server.FuncService{
		StartFn: httpSrv.ListenAndServe,
		StopFn:  httpSrv.Stop,
	})

	logger.Info("relay server initialized", zap.Duration("startup", time.Since(start)))

	runErr := lifecycle.Run(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultStopTimeout)
	defer cancel()
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Warn("flushing metrics", zap.Error(err))
	}

	if runErr != nil {
		logger.Error("relay server exited with error", zap.Error(runErr))
		_ = loggers.Sync()
		os.Exit(1)
	}
}
