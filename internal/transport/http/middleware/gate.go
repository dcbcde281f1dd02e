package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/cookies"
)

// TokenVerifier checks an access token and returns its payload.
type TokenVerifier interface {
	VerifyAccessToken(token string) (domain.AuthPayload, error)
}

// AccessReissuer validates a refresh token against the session store and
// mints a fresh access token without rotating the refresh token.
type AccessReissuer interface {
	ReissueAccess(ctx context.Context, refreshToken string) (domain.AuthPayload, string, error)
}

// RoutePermission binds a path prefix (optionally method-scoped) to the
// permission required to reach it. An empty Method matches any method.
type RoutePermission struct {
	Method     string
	Prefix     string
	Permission domain.Permission
}

// GatePolicy is the static routing policy the gate consults. Paths not
// covered by any rule require authentication but no specific permission.
type GatePolicy struct {
	// PublicPaths pass through unauthenticated on exact match.
	PublicPaths []string
	// PublicPrefixes pass through unauthenticated on prefix match.
	PublicPrefixes []string
	// APIPrefixes mark paths whose failures answer with JSON instead of
	// redirects.
	APIPrefixes []string
	// Permissions is consulted in order; the first matching rule wins.
	Permissions []RoutePermission
	// LoginPath is the redirect target for unauthenticated UI requests.
	LoginPath string
	// ForbiddenPath is the redirect target for under-privileged UI requests.
	ForbiddenPath string
}

func (p GatePolicy) isPublic(path string) bool {
	for _, exact := range p.PublicPaths {
		if path == exact {
			return true
		}
	}
	for _, prefix := range p.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (p GatePolicy) isAPI(path string) bool {
	for _, prefix := range p.APIPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (p GatePolicy) requiredPermission(method, path string) (domain.Permission, bool) {
	for _, rule := range p.Permissions {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Permission, true
		}
	}
	return "", false
}

// Gate is the edge authorization middleware. It establishes identity from
// the auth cookie pair, falling back from the access token to a session-backed
// refresh token, then enforces the route permission policy.
type Gate struct {
	verifier TokenVerifier
	reissuer AccessReissuer
	cookies  *cookies.Manager
	policy   GatePolicy
	logger   *zap.Logger
}

// NewGate constructs the request gate.
func NewGate(verifier TokenVerifier, reissuer AccessReissuer, cookieMgr *cookies.Manager, policy GatePolicy, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.LoginPath == "" {
		policy.LoginPath = "/login"
	}
	if policy.ForbiddenPath == "" {
		policy.ForbiddenPath = "/403"
	}
	return &Gate{
		verifier: verifier,
		reissuer: reissuer,
		cookies:  cookieMgr,
		policy:   policy,
		logger:   log,
	}
}

// Handler returns the gin middleware enforcing the gate.
func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if g.policy.isPublic(path) {
			c.Next()
			return
		}

		if token, err := c.Cookie(cookies.AccessTokenName); err == nil && token != "" {
			if payload, err := g.verifier.VerifyAccessToken(token); err == nil {
				g.authorize(c, payload)
				return
			}
		}

		refreshToken, err := c.Cookie(cookies.RefreshTokenName)
		if err != nil || refreshToken == "" {
			g.denyUnauthenticated(c)
			return
		}

		payload, accessToken, err := g.reissuer.ReissueAccess(c.Request.Context(), refreshToken)
		if err != nil {
			// Covers invalid signatures, expired tokens, and replayed tokens
			// whose hash no longer matches a usable session. The client gets
			// no detail about which case applied.
			g.denyUnauthenticated(c)
			return
		}

		// Re-set both cookies so the window slides forward. The refresh token
		// itself is unchanged; rotation happens only on the refresh endpoint.
		g.cookies.SetAccessToken(c, accessToken)
		g.cookies.SetRefreshToken(c, refreshToken)

		g.authorize(c, payload)
	}
}

func (g *Gate) authorize(c *gin.Context, payload domain.AuthPayload) {
	perm, required := g.policy.requiredPermission(c.Request.Method, c.Request.URL.Path)
	if required && !domain.HasPermission(payload.Role, perm) {
		g.logger.Info("request forbidden",
			zap.String("path", c.Request.URL.Path),
			zap.String("role", string(payload.Role)),
			zap.String("permission", string(perm)),
		)
		if g.policy.isAPI(c.Request.URL.Path) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "forbidden",
				"trace_id": GetTraceID(c),
			})
			return
		}
		c.Redirect(http.StatusFound, g.policy.ForbiddenPath)
		c.Abort()
		return
	}

	c.Set(AuthPayloadKey, payload)
	if reqCtx := GetRequestContext(c); reqCtx != nil {
		reqCtx.UserID = payload.Sub
	}
	c.Next()
}

func (g *Gate) denyUnauthenticated(c *gin.Context) {
	if g.policy.isAPI(c.Request.URL.Path) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "authentication required",
			"trace_id": GetTraceID(c),
		})
		return
	}

	g.cookies.Clear(c)
	c.Redirect(http.StatusFound, g.policy.LoginPath)
	c.Abort()
}

// GetAuthPayload retrieves the authenticated payload the gate attached.
func GetAuthPayload(c *gin.Context) (domain.AuthPayload, bool) {
	value, exists := c.Get(AuthPayloadKey)
	if !exists {
		return domain.AuthPayload{}, false
	}
	payload, ok := value.(domain.AuthPayload)
	return payload, ok
}
