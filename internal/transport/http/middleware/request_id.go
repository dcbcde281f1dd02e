package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cybertank378/student-point-app-sub000/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates the caller's request id, minting one when absent, and
// plants it on the request context so logger.WithContext picks it up in the
// usecase layer.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)

		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}
