package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simpletodo/pkg/config"
	"simpletodo/pkg/tracing"
)

func LoggingMiddleware(logger *config.LokiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		requestID, _ := GetCurrent(c).GetString("request_id")
		ctx := c.Request.Context()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", requestID),
			zap.String("trace_id", tracing.GetTraceID(ctx)),
			zap.String("span_id", tracing.GetSpanID(ctx)),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.ErrorWithTrace(ctx, "HTTP Request", fields...)
		case status >= 400:
			logger.WarnWithTrace(ctx, "HTTP Request", fields...)
		default:
			logger.InfoWithTrace(ctx, "HTTP Request", fields...)
		}
	}
}
