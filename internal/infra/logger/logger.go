package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey stores the request correlation id on a context.Context.
type RequestIDKey struct{}

var (
	shared   *zap.Logger
	buildErr error
	once     sync.Once
)

// New builds the process-wide logger once and returns it on every later call.
// Production gets JSON output at info level; any other environment gets the
// colored console encoder at debug level.
func New(env string) (*zap.Logger, error) {
	once.Do(func() {
		var cfg zap.Config
		switch env {
		case "production":
			cfg = zap.NewProductionConfig()
		default:
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		shared, buildErr = cfg.Build()
	})
	return shared, buildErr
}

// WithContext returns the shared logger annotated with the request id carried
// by ctx. Safe to call before New; it falls back to a development logger so
// early failures are not silent.
func WithContext(ctx context.Context) *zap.Logger {
	log := shared
	if log == nil {
		log, _ = zap.NewDevelopment()
	}
	if ctx == nil {
		return log
	}

	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		return log.With(zap.String("request_id", id))
	}
	return log
}

// MaskIP reduces an address to a coarse network prefix before it is logged.
// Audit rows keep the full address; log lines only ever see the masked form.
func MaskIP(ip string) string {
	switch {
	case ip == "":
		return ""
	case strings.Count(ip, ".") == 3:
		octets := strings.SplitN(ip, ".", 3)
		return octets[0] + "." + octets[1] + ".*.*"
	case strings.Contains(ip, ":"):
		groups := strings.Split(ip, ":")
		if len(groups) >= 4 {
			return strings.Join(groups[:4], ":") + ":*:*:*:*"
		}
	}
	return "***"
}

// MaskString keeps the first and last two characters of a sensitive value.
// Values too short to mask meaningfully collapse to stars entirely.
func MaskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}
