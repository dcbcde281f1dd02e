package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/middleware"
)

// ErrorResponse is the JSON error body. The trace id lets support correlate
// a client report with server logs.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request's trace id.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse acknowledges an action that returns no data.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned for a successful login. The token pair travels
// only in cookies, never in the body.
type LoginResponse struct {
	Role               domain.Role `json:"role"`
	MustChangePassword bool        `json:"must_change_password"`
}

// AccountLockedResponse carries the lock expiry so clients can show when to
// retry.
type AccountLockedResponse struct {
	Error       string    `json:"error"`
	LockedUntil time.Time `json:"locked_until"`
	TraceID     string    `json:"trace_id,omitempty"`
}

// RefreshResponse is returned for a successful refresh. The new refresh token
// travels only in its cookie.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// ChangePasswordRequest defines the payload for an authenticated password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// RequestResetRequest defines the payload for requesting a password reset.
type RequestResetRequest struct {
	Username string `json:"username" binding:"required"`
}

// RequestResetResponse acknowledges a reset request. ResetToken is populated
// only in reveal mode.
type RequestResetResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

// ResetPasswordRequest defines the payload for consuming a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// HealthResponse reports the service status and start time.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse reports readiness of each backing dependency.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
