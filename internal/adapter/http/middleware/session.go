package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simpletodo/internal/adapter/http/helper"
	"simpletodo/internal/core/port"
	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"
	ct "simpletodo/pkg/context"
	"simpletodo/pkg/tracing"
)

// SessionMiddleware opens one database session per request and always
// releases it once the rest of the chain returns or panics. Whatever the
// handlers did not commit is rolled back.
func SessionMiddleware(provider port.SessionProvider, metrics *telemetry.AppMetrics, logger *config.LokiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var session port.Session

		err := tracing.WithSpan(ctx, "db.session.open", func(ctx context.Context) error {
			var err error
			session, err = provider.Open(ctx)
			return err
		})

		if err != nil {
			recordSession(c, metrics, "open_failed")
			logger.ErrorWithTrace(ctx, "Failed to open database session", zap.Error(err))
			helper.SendInternalError(c, "Database unavailable")
			return
		}

		recordSession(c, metrics, "open")

		defer func() {
			if err := tracing.WithSpan(ctx, "db.session.close", session.Close); err != nil {
				recordSession(c, metrics, "close_failed")
				logger.ErrorWithTrace(ctx, "Failed to close database session", zap.Error(err))
				return
			}

			recordSession(c, metrics, "close")
		}()

		c.Request = c.Request.WithContext(ct.WithSession(ctx, session))

		c.Next()
	}
}

func recordSession(c *gin.Context, metrics *telemetry.AppMetrics, operation string) {
	if metrics != nil {
		metrics.RecordSessionOperation(c.Request.Context(), operation)
	}
}
