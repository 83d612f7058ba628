package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simpletodo/internal/adapter/http/routes"
	"simpletodo/internal/core/port"
	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"
)

func NewRouter(container *Container, metrics *telemetry.AppMetrics, logger *config.LokiLogger, cfg *config.AppConfig) *gin.Engine {
	return routes.SetupRouter(routes.HandlersConfig{
		TodoHandler:     container.TodoHandler,
		SessionProvider: container.SessionProvider,
	}, metrics, logger, cfg)
}

// StartServer serves the API until ctx is cancelled, then drains in-flight
// requests and closes the database.
func StartServer(ctx context.Context, cfg *config.AppConfig, metrics *telemetry.AppMetrics, probe port.Telemetry, logger *config.LokiLogger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := NewContainer(ctx, cfg, probe, metrics, logger)

	if err != nil {
		return err
	}

	defer container.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(container, metrics, logger, cfg),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	logger.Logger.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("rate_limit_enabled", cfg.RateLimitEnabled),
		zap.Bool("https_enforced", cfg.EnforceHTTPS))

	serverErr := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
