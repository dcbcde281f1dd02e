package port

import (
	"context"
	"time"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
)

// SessionRepository deals with refresh-token session storage.
type SessionRepository interface {
	Create(ctx context.Context, session domain.AuthSession) error
	// ListUsableByUser returns sessions that are not revoked and not expired
	// at the supplied moment. Callers match presented tokens against the
	// stored hashes; there is no plaintext lookup key.
	ListUsableByUser(ctx context.Context, userID string, at time.Time) ([]domain.AuthSession, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
}

// ResetTokenRepository manages single-use password reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token domain.PasswordResetToken) error
	// GetUsableByHash returns the unused, unexpired token matching the hash.
	GetUsableByHash(ctx context.Context, hash string, at time.Time) (*domain.PasswordResetToken, error)
	// Consume marks the token used and replaces the owner's password hash in
	// one transaction. There is no window where one effect lands without the
	// other.
	Consume(ctx context.Context, tokenID string, userID string, passwordHash string) error
}

// AuditRepository appends login audit rows. Records are never mutated or
// deleted by this subsystem.
type AuditRepository interface {
	CreateLoginAudit(ctx context.Context, audit domain.LoginAudit) error
}
