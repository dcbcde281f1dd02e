package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applogger "github.com/cybertank378/student-point-app-sub000/internal/infra/logger"
)

// Logger writes one access-log line per request. Client IPs are masked before
// they reach the log stream; the subject id is included once the gate has
// resolved one. Server errors log at error level, client errors at warn.
func Logger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		scope := GetRequestContext(c)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("trace_id", scope.TraceID),
			zap.String("request_id", requestIDFromContext(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", applogger.MaskIP(scope.IP)),
		}
		if scope.UserID != "" {
			fields = append(fields, zap.String("user_id", scope.UserID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(applogger.RequestIDKey{}).(string)
	return id
}
