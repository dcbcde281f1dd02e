// Package cookies centralizes the auth cookie contract shared by the login
// handlers and the request gate.
package cookies

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cybertank378/student-point-app-sub000/internal/infra/config"
)

const (
	// AccessTokenName is the cookie carrying the short-lived access JWT.
	AccessTokenName = "accessToken"
	// RefreshTokenName is the cookie carrying the refresh JWT.
	RefreshTokenName = "refreshToken"
)

// Manager writes and clears the auth cookie pair with consistent attributes.
// Both cookies are httpOnly and SameSite=Lax; Secure tracks the environment.
type Manager struct {
	domain     string
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager constructs a cookie manager from configuration.
func NewManager(cfg config.CookieSettings, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		domain:     cfg.Domain,
		secure:     cfg.Secure,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SetAuthPair sets both auth cookies, each with its own lifetime.
func (m *Manager) SetAuthPair(c *gin.Context, accessToken, refreshToken string) {
	m.set(c, AccessTokenName, accessToken, m.accessTTL)
	m.set(c, RefreshTokenName, refreshToken, m.refreshTTL)
}

// SetAccessToken replaces only the access cookie. The gate uses this when it
// reissues an access token without rotating the refresh token.
func (m *Manager) SetAccessToken(c *gin.Context, accessToken string) {
	m.set(c, AccessTokenName, accessToken, m.accessTTL)
}

// SetRefreshToken replaces only the refresh cookie.
func (m *Manager) SetRefreshToken(c *gin.Context, refreshToken string) {
	m.set(c, RefreshTokenName, refreshToken, m.refreshTTL)
}

// Clear expires both auth cookies.
func (m *Manager) Clear(c *gin.Context) {
	m.set(c, AccessTokenName, "", -time.Hour)
	m.set(c, RefreshTokenName, "", -time.Hour)
}

func (m *Manager) set(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if value == "" {
		maxAge = -1
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
