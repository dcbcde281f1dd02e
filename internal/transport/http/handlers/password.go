package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/middleware"
	"github.com/cybertank378/student-point-app-sub000/internal/usecase"
)

// PasswordHandler exposes password change and reset endpoints.
type PasswordHandler struct {
	auth   *usecase.AuthService
	resets *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(auth *usecase.AuthService, resets *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{auth: auth, resets: resets}
}

// RegisterRoutes binds the password endpoints. ChangePassword expects the
// request gate to have established identity; the reset pair is public.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, resetMiddlewares ...gin.HandlerFunc) {
	r.POST("/change-password", h.changePassword)

	if len(resetMiddlewares) > 0 {
		chain := append([]gin.HandlerFunc{}, resetMiddlewares...)
		chain = append(chain, h.requestReset)
		r.POST("/request-reset", chain...)
	} else {
		r.POST("/request-reset", h.requestReset)
	}

	r.POST("/reset-password", h.resetPassword)
}

func (h *PasswordHandler) changePassword(c *gin.Context) {
	payload, ok := middleware.GetAuthPayload(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid change password payload"))
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), payload.Sub, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, usecase.ErrNewPasswordInvalid) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
			return
		}
		errorMappings{
			{usecase.ErrCurrentPasswordInvalid, http.StatusBadRequest, "current password is invalid"},
			{usecase.ErrUserNotFound, http.StatusUnauthorized, "authentication required"},
		}.respond(c, err, "change password failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

// requestReset answers identically for known and unknown usernames.
func (h *PasswordHandler) requestReset(c *gin.Context) {
	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset request payload"))
		return
	}

	token, err := h.resets.RequestReset(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "reset request failed"))
		return
	}

	c.JSON(http.StatusAccepted, RequestResetResponse{
		Message:    "if the account exists, a reset token has been issued",
		ResetToken: token,
	})
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	err := h.resets.ConfirmReset(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, usecase.ErrNewPasswordInvalid) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
			return
		}
		errorMappings{
			{usecase.ErrInvalidResetToken, http.StatusBadRequest, "invalid or expired reset token"},
		}.respond(c, err, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset"})
}
