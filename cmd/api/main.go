package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	server "simpletodo/internal/adapter/http"
	"simpletodo/internal/adapter/telemetry"
	"simpletodo/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()

	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := config.NewLokiLogger(cfg.ServiceName, cfg.Telemetry.LokiURL)

	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	defer logger.Sync()

	tel, err := telemetry.NewContainer(ctx, cfg, logger)

	if err != nil {
		logger.Logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	defer tel.Shutdown(context.WithoutCancel(ctx))

	probe := tel.NewTelemetryProbe(logger)

	if err := server.StartServer(ctx, cfg, tel.AppMetrics, probe, logger); err != nil {
		logger.Logger.Error("Server stopped", zap.Error(err))
		os.Exit(1)
	}
}
