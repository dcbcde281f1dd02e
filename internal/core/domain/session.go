package domain

import (
	"errors"
	"time"
)

// ErrInvalidPayload indicates decoded token claims do not match the closed
// role enumerations.
var ErrInvalidPayload = errors.New("invalid auth payload")

// AuthSession represents one issued refresh token, stored as a hash. A session
// is usable iff it is not revoked and not expired; rotation creates a new
// session and revokes the old one.
type AuthSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// IsUsable reports whether the session can still back a refresh token at the
// supplied moment.
func (s AuthSession) IsUsable(at time.Time) bool {
	if s.Revoked {
		return false
	}
	return s.ExpiresAt.After(at)
}

// PasswordResetToken is a single-use reset artifact matched by hash.
// Usable iff unused and unexpired; consuming it must be atomic with the
// password update.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// IsUsable reports whether the reset token can still be redeemed.
func (t PasswordResetToken) IsUsable(at time.Time) bool {
	if t.Used {
		return false
	}
	return t.ExpiresAt.After(at)
}
