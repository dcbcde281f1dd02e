package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/core/port"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/logger"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/security"
	"github.com/cybertank378/student-point-app-sub000/internal/repository"
)

// ErrInvalidResetToken covers unknown, expired, and already-consumed reset
// tokens. The cases are indistinguishable to callers.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

const resetTokenByteLength = 32

// PasswordResetService issues and consumes single-use password reset tokens.
type PasswordResetService struct {
	users    port.UserRepository
	tokens   port.ResetTokenRepository
	hasher   port.PasswordHasher
	events   port.EventPublisher
	tokenTTL time.Duration
	// revealToken surfaces the raw token in the response for environments
	// without a delivery channel. Never enabled in production.
	revealToken bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	users port.UserRepository,
	tokens port.ResetTokenRepository,
	hasher port.PasswordHasher,
	events port.EventPublisher,
	tokenTTL time.Duration,
	revealToken bool,
	log *zap.Logger,
) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &PasswordResetService{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		events:      events,
		tokenTTL:    tokenTTL,
		revealToken: revealToken,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock injects a custom clock (primarily for testing).
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	if now != nil {
		s.now = now
	}
	return s
}

// RequestReset mints a reset token for the identifier. An unresolved
// identifier is NOT an error: the caller gets the same acknowledgement either
// way so the endpoint cannot be used to enumerate accounts. The returned
// token is non-empty only when reveal mode is on and the user exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("identifier is required")
	}

	user, err := s.users.GetByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.WithContext(ctx).Info("password reset requested for unknown identifier")
			return "", nil
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	raw, err := security.GenerateSecureToken(resetTokenByteLength)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now().UTC()
	token := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	logger.WithContext(ctx).Info("password reset token issued",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", token.ExpiresAt),
	)

	if s.revealToken {
		return raw, nil
	}
	return "", nil
}

// ConfirmReset consumes the token and sets the new password. The token mark
// and the password write happen in one transaction, so a token can never be
// spent without the password actually changing.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return ErrInvalidResetToken
	}

	now := s.now().UTC()

	token, err := s.tokens.GetUsableByHash(ctx, security.HashToken(rawToken), now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	validator := security.DefaultPasswordValidator(user.Username)
	if err := validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrNewPasswordInvalid, err.Error())
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.tokens.Consume(ctx, token.ID, token.UserID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost the race against a concurrent consumption of the same token.
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID: uuid.NewString(),
			UserID:  token.UserID,
			Method:  "reset",
			At:      now,
		}); err != nil {
			logger.WithContext(ctx).Warn("publish password changed event failed", zap.Error(err))
		}
	}

	return nil
}
