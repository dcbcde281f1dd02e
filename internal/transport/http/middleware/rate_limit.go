package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitStore is the sliding-window attempt store behind the limiter.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}

// IdentifierFunc derives the scope of a limit from the request, typically the
// client IP. Returning false skips the rule for this request.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule is one named sliding-window limit.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimitedResponse is the 429 payload.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// RateLimiter evaluates rules against the attempt store. Store failures fail
// open: an unreachable Redis must not take logins down with it.
type RateLimiter struct {
	store  RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter builds a limiter over the given store.
func NewRateLimiter(store RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{store: store, logger: logger, now: time.Now}
}

// WithClock injects a clock for tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier scopes a rule by client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// decision is the outcome of one rule for one request.
type decision struct {
	rule      RateLimitRule
	allowed   bool
	remaining int
	reset     time.Time
	retry     time.Duration
}

func (d decision) retrySeconds() int {
	s := int(math.Ceil(d.retry.Seconds()))
	if s < 0 {
		return 0
	}
	return s
}

func (d decision) writeHeaders(h http.Header) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.rule.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.reset.Unix(), 10))
	if !d.allowed {
		h.Set("Retry-After", strconv.Itoa(d.retrySeconds()))
	}
}

// tighterThan orders two allowing decisions so response headers reflect the
// rule closest to tripping.
func (d decision) tighterThan(other decision) bool {
	if d.remaining != other.remaining {
		return d.remaining < other.remaining
	}
	return d.reset.Before(other.reset)
}

// RateLimit returns a middleware enforcing the given rules. Rules missing an
// identifier, a positive limit, or a positive window are ignored.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	active := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		active = append(active, rule)
	}

	return func(c *gin.Context) {
		if len(active) == 0 || rl.store == nil {
			c.Next()
			return
		}

		now := rl.now()
		var tightest *decision

		for _, rule := range active {
			id, ok := rule.Identifier(c)
			if !ok || id == "" {
				continue
			}

			d, err := rl.evaluate(c.Request.Context(), rule, rule.Name+":"+id, now)
			if err != nil {
				rl.logger.Warn("rate limit evaluation failed",
					zap.String("rule", rule.Name),
					zap.Error(err),
				)
				continue
			}

			if !d.allowed {
				d.writeHeaders(c.Writer.Header())
				c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitedResponse{
					Error:      "too many attempts, try again later",
					RetryAfter: d.retrySeconds(),
					TraceID:    GetTraceID(c),
				})
				return
			}

			if tightest == nil || d.tighterThan(*tightest) {
				snapshot := d
				tightest = &snapshot
			}
		}

		if tightest != nil {
			tightest.writeHeaders(c.Writer.Header())
		}
		c.Next()
	}
}

// evaluate trims the window, checks the count, and records the attempt when it
// is allowed. Blocked attempts are not recorded.
func (rl *RateLimiter) evaluate(ctx context.Context, rule RateLimitRule, key string, now time.Time) (decision, error) {
	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return decision{}, err
	}

	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return decision{}, err
	}

	oldest, hasOldest, err := rl.store.OldestAttempt(ctx, key, rule.Window, now)
	if err != nil {
		return decision{}, err
	}

	d := decision{rule: rule, reset: now.Add(rule.Window)}
	if hasOldest {
		d.reset = oldest.Add(rule.Window)
	}

	if count >= rule.Limit {
		d.retry = d.reset.Sub(now)
		if d.retry < 0 {
			d.retry = 0
		}
		return d, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return decision{}, err
	}

	d.allowed = true
	d.remaining = rule.Limit - count - 1
	if d.remaining < 0 {
		d.remaining = 0
	}
	return d, nil
}
