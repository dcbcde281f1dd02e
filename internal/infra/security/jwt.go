package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
)

// ErrInvalidToken is returned for every verification failure: expired,
// malformed, bad signature, wrong token use, or nonconforming claims. The
// cause is deliberately not distinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"

	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// AuthClaims carries the identity payload inside signed tokens. The password
// hash and session ids never appear here.
type AuthClaims struct {
	Username    string              `json:"username"`
	Role        domain.Role         `json:"role"`
	TeacherRole *domain.TeacherRole `json:"teacherRole,omitempty"`
	TokenUse    string              `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the access and refresh token pair. Tokens
// are self-contained; revocation state for refresh tokens lives in the
// session store, not in the token.
type TokenService struct {
	keyProvider KeyProvider
	kid         string
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(keyProvider KeyProvider, kid, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		keyProvider: keyProvider,
		kid:         kid,
		issuer:      issuer,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

// WithClock injects a custom clock (primarily for testing).
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		s.now = now
	}
	return s
}

// AccessTTL returns the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken issues a short-lived access token for the payload.
func (s *TokenService) GenerateAccessToken(payload domain.AuthPayload) (string, error) {
	return s.generate(payload, tokenUseAccess, s.accessTTL)
}

// GenerateRefreshToken issues a long-lived refresh token for the payload.
func (s *TokenService) GenerateRefreshToken(payload domain.AuthPayload) (string, error) {
	return s.generate(payload, tokenUseRefresh, s.refreshTTL)
}

func (s *TokenService) generate(payload domain.AuthPayload, use string, ttl time.Duration) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", fmt.Errorf("token payload: %w", err)
	}

	now := s.now().UTC()
	claims := AuthClaims{
		Username:    payload.Username,
		Role:        payload.Role,
		TeacherRole: payload.TeacherRole,
		TokenUse:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Sub,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid

	signingKey, err := s.keyProvider.GetSigningKey()
	if err != nil {
		return "", fmt.Errorf("get signing key: %w", err)
	}

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken validates an access token and returns its payload.
func (s *TokenService) VerifyAccessToken(token string) (domain.AuthPayload, error) {
	return s.verify(token, tokenUseAccess)
}

// VerifyRefreshToken validates a refresh token and returns its payload.
// Revocation is NOT checked here; callers must match the token against the
// stored session hashes.
func (s *TokenService) VerifyRefreshToken(token string) (domain.AuthPayload, error) {
	return s.verify(token, tokenUseRefresh)
}

func (s *TokenService) verify(token, use string) (domain.AuthPayload, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.AuthPayload{}, ErrInvalidToken
	}

	claims := &AuthClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		kid, ok := t.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}

		return s.keyProvider.GetVerificationKey(kid)
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil || parsed == nil || !parsed.Valid {
		return domain.AuthPayload{}, ErrInvalidToken
	}

	if claims.TokenUse != use {
		return domain.AuthPayload{}, ErrInvalidToken
	}

	payload := domain.AuthPayload{
		Sub:         claims.Subject,
		Username:    claims.Username,
		Role:        claims.Role,
		TeacherRole: claims.TeacherRole,
	}

	// Decode-then-validate: anything outside the closed enumerations is
	// rejected the same way as a bad signature.
	if err := payload.Validate(); err != nil {
		return domain.AuthPayload{}, ErrInvalidToken
	}

	return payload, nil
}
