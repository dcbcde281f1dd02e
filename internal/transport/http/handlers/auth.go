package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/cookies"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/middleware"
	"github.com/cybertank378/student-point-app-sub000/internal/usecase"
)

// AuthHandler exposes the login, refresh, and logout endpoints.
type AuthHandler struct {
	auth    *usecase.AuthService
	cookies *cookies.Manager
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookieMgr *cookies.Manager) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookieMgr}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	if len(loginMiddlewares) > 0 {
		chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
		chain = append(chain, h.login)
		r.POST("/login", chain...)
	} else {
		r.POST("/login", h.login)
	}

	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	input := usecase.LoginInput{
		Identifier: req.Username,
		Password:   req.Password,
	}
	if reqCtx.IP != "" {
		input.IP = &reqCtx.IP
	}
	if reqCtx.UserAgent != "" {
		input.UserAgent = &reqCtx.UserAgent
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		var locked *domain.AccountLockedError
		if errors.As(err, &locked) {
			c.JSON(http.StatusLocked, AccountLockedResponse{
				Error:       "account temporarily locked",
				LockedUntil: locked.Until,
				TraceID:     middleware.GetTraceID(c),
			})
			return
		}

		errorMappings{
			{usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
			{usecase.ErrInactiveAccount, http.StatusUnauthorized, "invalid username or password"},
		}.respond(c, err, "login failed")
		return
	}

	h.cookies.SetAuthPair(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, LoginResponse{
		Role:               result.Role,
		MustChangePassword: result.MustChangePassword,
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(cookies.RefreshTokenName)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "refresh token required"))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) || errors.Is(err, usecase.ErrInvalidSession) {
			h.cookies.Clear(c)
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid refresh token"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "refresh failed"))
		return
	}

	h.cookies.SetAuthPair(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, RefreshResponse{AccessToken: result.AccessToken})
}

// logout always clears the cookie pair; revocation failures on unknown or
// already-revoked tokens are not surfaced.
func (h *AuthHandler) logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(cookies.RefreshTokenName); err == nil && refreshToken != "" {
		if err := h.auth.Logout(c.Request.Context(), refreshToken); err != nil {
			h.cookies.Clear(c)
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
			return
		}
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
