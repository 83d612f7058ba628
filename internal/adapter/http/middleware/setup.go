package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"
)

// SetupGinMiddleware installs the request wide middleware chain. The session
// middleware is attached to the todo routes only.
func SetupGinMiddleware(router *gin.Engine, metrics *telemetry.AppMetrics, logger *config.LokiLogger, cfg *config.AppConfig) {
	router.Use(gin.Recovery())
	router.Use(CurrentMiddleware())

	httpsEnforcer := config.NewHTTPSEnforcer(cfg.EnforceHTTPS, logger.Logger.Logger)
	router.Use(httpsEnforcer.HTTPSMiddleware())

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(LoggingMiddleware(logger))

	if cfg.RateLimitEnabled {
		rateLimiter := config.NewRateLimiter(cfg.RateLimit, logger.Logger.Logger, metrics)
		router.Use(rateLimiter.RateLimitMiddleware())
	}

	router.Use(MetricsMiddleware(metrics))
}
