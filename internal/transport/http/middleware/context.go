package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDHeader carries the caller-supplied trace identifier, echoed back
	// on every response.
	TraceIDHeader = "X-Trace-ID"
	// AuthPayloadKey is the gin context key under which the gate stores the
	// verified token payload.
	AuthPayloadKey = "auth_payload"

	requestScopeKey = "request_scope"
)

// RequestContext is the per-request scope shared by the gate, the access
// logger, and the audit trail. UserID is empty until the gate resolves an
// identity.
type RequestContext struct {
	TraceID   string
	UserID    string
	IP        string
	UserAgent string
}

// EnrichContext seeds the request scope. Installed before every other
// middleware so the trace id exists even for requests that fail early.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := &RequestContext{
			TraceID:   c.GetHeader(TraceIDHeader),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if scope.TraceID == "" {
			scope.TraceID = uuid.NewString()
		}

		c.Set(requestScopeKey, scope)
		c.Header(TraceIDHeader, scope.TraceID)

		c.Next()
	}
}

// GetRequestContext returns the request scope, or an empty one when called
// outside the middleware chain.
func GetRequestContext(c *gin.Context) *RequestContext {
	if v, ok := c.Get(requestScopeKey); ok {
		if scope, ok := v.(*RequestContext); ok {
			return scope
		}
	}
	return &RequestContext{}
}

// GetTraceID returns the trace id of the current request.
func GetTraceID(c *gin.Context) string {
	return GetRequestContext(c).TraceID
}
