package usecase

import (
	"context"
	"crypto/subtle"
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

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong
	// password. The two cases are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is administratively disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrInvalidRefreshToken indicates the presented refresh token failed
	// signature or expiry verification.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidSession indicates a verified refresh token matched no usable
	// session hash; replayed rotated-out tokens land here.
	ErrInvalidSession = errors.New("invalid session")
	// ErrUserNotFound indicates the subject no longer resolves to a user row.
	ErrUserNotFound = errors.New("user not found")
	// ErrCurrentPasswordInvalid indicates the current-password check failed.
	ErrCurrentPasswordInvalid = errors.New("current password is invalid")
	// ErrNewPasswordInvalid indicates the new password failed policy checks.
	ErrNewPasswordInvalid = errors.New("new password does not meet requirements")
)

// AuthService coordinates the login, refresh, and logout flows.
type AuthService struct {
	users      port.UserRepository
	sessions   port.SessionRepository
	audits     port.AuditRepository
	hasher     port.PasswordHasher
	tokens     *security.TokenService
	events     port.EventPublisher
	lockPolicy domain.LockPolicy
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.UserRepository,
	sessions port.SessionRepository,
	audits port.AuditRepository,
	hasher port.PasswordHasher,
	tokens *security.TokenService,
	events port.EventPublisher,
	lockPolicy domain.LockPolicy,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		audits:     audits,
		hasher:     hasher,
		tokens:     tokens,
		events:     events,
		lockPolicy: lockPolicy,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock injects a custom clock (primarily for testing).
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// LoginInput carries the credentials and client metadata for one attempt.
// Identifier and password arrive schema-validated and non-empty.
type LoginInput struct {
	Identifier string
	Password   string
	IP         *string
	UserAgent  *string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken        string
	RefreshToken       string
	Role               domain.Role
	MustChangePassword bool
}

// Login authenticates the identifier/password pair and issues a token pair.
//
// Side effects are strictly ordered: lock evaluation precedes the password
// check, counter and lock mutations precede the audit write, and all of them
// precede the returned failure, so concurrent attempts observe monotonically
// increasing failure counts.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Identifier == "" {
		return nil, fmt.Errorf("identifier is required")
	}
	if input.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	now := s.now().UTC()

	user, err := s.users.GetByUsername(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No audit row for an unresolved identifier.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	if err := s.lockPolicy.CanLogin(*user, now); err != nil {
		// Locked accounts short-circuit before the password is touched.
		return nil, err
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailedAttempt(ctx, user, input, now)
	}

	if err := s.users.ResetFailedAttempts(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("reset failed attempts: %w", err)
	}

	payload := domain.AuthPayload{
		Sub:         user.ID,
		Username:    user.Username,
		Role:        user.Role,
		TeacherRole: user.TeacherRole,
	}

	accessToken, refreshToken, _, err := s.issueTokenPair(ctx, payload, now)
	if err != nil {
		return nil, err
	}

	if err := s.audits.CreateLoginAudit(ctx, domain.LoginAudit{
		ID:         uuid.NewString(),
		UserID:     &user.ID,
		Identifier: input.Identifier,
		Success:    true,
		IP:         input.IP,
		UserAgent:  input.UserAgent,
		CreatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("write login audit: %w", err)
	}

	s.publishEvent(ctx, "login_succeeded", func() error {
		return s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
			EventID:  uuid.NewString(),
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
			IP:       input.IP,
			At:       now,
		})
	})

	return &LoginResult{
		AccessToken:        accessToken,
		RefreshToken:       refreshToken,
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// recordFailedAttempt applies the failure side effects in order and always
// returns ErrInvalidCredentials.
func (s *AuthService) recordFailedAttempt(ctx context.Context, user *domain.User, input LoginInput, now time.Time) error {
	if err := s.users.IncrementFailedAttempts(ctx, user.ID); err != nil {
		return fmt.Errorf("increment failed attempts: %w", err)
	}

	newCount := user.FailedAttempts + 1
	if until := s.lockPolicy.CalculateLock(newCount, now); until != nil {
		if err := s.users.LockAccount(ctx, user.ID, *until); err != nil {
			return fmt.Errorf("lock account: %w", err)
		}
		s.publishEvent(ctx, "account_locked", func() error {
			return s.events.PublishAccountLocked(ctx, domain.AccountLockedEvent{
				EventID: uuid.NewString(),
				UserID:  user.ID,
				Until:   *until,
				At:      now,
			})
		})
	}

	if err := s.audits.CreateLoginAudit(ctx, domain.LoginAudit{
		ID:         uuid.NewString(),
		UserID:     &user.ID,
		Identifier: input.Identifier,
		Success:    false,
		IP:         input.IP,
		UserAgent:  input.UserAgent,
		CreatedAt:  now,
	}); err != nil {
		return fmt.Errorf("write login audit: %w", err)
	}

	s.publishEvent(ctx, "login_failed", func() error {
		return s.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
			EventID:        uuid.NewString(),
			UserID:         user.ID,
			Identifier:     input.Identifier,
			FailedAttempts: newCount,
			IP:             input.IP,
			At:             now,
		})
	})

	return ErrInvalidCredentials
}

// RefreshResult carries the rotated token pair.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// Refresh validates the presented refresh token against stored session hashes
// and rotates it. After a successful call the old token is permanently
// rejected, even inside its original expiry window.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	now := s.now().UTC()

	session, err := s.matchSession(ctx, payload.Sub, refreshToken, now)
	if err != nil {
		return nil, err
	}

	// Revoke before issuing: there must never be a window where both the old
	// and new refresh tokens are simultaneously valid.
	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}

	accessToken, newRefreshToken, newSessionID, err := s.issueTokenPair(ctx, payload, now)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "session_rotated", func() error {
		return s.events.PublishSessionRotated(ctx, domain.SessionRotatedEvent{
			EventID:      uuid.NewString(),
			UserID:       payload.Sub,
			OldSessionID: session.ID,
			NewSessionID: newSessionID,
			At:           now,
		})
	})

	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// ReissueAccess is the read-only variant the request gate uses: it validates
// the refresh token against the session store and mints a fresh access token
// WITHOUT rotating the refresh token.
func (s *AuthService) ReissueAccess(ctx context.Context, refreshToken string) (domain.AuthPayload, string, error) {
	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return domain.AuthPayload{}, "", ErrInvalidRefreshToken
	}

	now := s.now().UTC()

	if _, err := s.matchSession(ctx, payload.Sub, refreshToken, now); err != nil {
		return domain.AuthPayload{}, "", err
	}

	accessToken, err := s.tokens.GenerateAccessToken(payload)
	if err != nil {
		return domain.AuthPayload{}, "", fmt.Errorf("generate access token: %w", err)
	}

	return payload, accessToken, nil
}

// Logout revokes the session backing the presented refresh token. It is
// idempotent: an invalid, expired, or already-rotated token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil
	}

	now := s.now().UTC()

	session, err := s.matchSession(ctx, payload.Sub, refreshToken, now)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			return nil
		}
		return err
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.publishEvent(ctx, "session_revoked", func() error {
		return s.events.PublishSessionRevoked(ctx, domain.SessionRevokedEvent{
			EventID:   uuid.NewString(),
			UserID:    payload.Sub,
			SessionID: session.ID,
			Reason:    "user_logout",
			At:        now,
		})
	})

	return nil
}

// LogoutAll revokes every usable session for the token's subject.
func (s *AuthService) LogoutAll(ctx context.Context, refreshToken string) (int, error) {
	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return 0, nil
	}

	count, err := s.sessions.RevokeAllForUser(ctx, payload.Sub)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}

	now := s.now().UTC()
	s.publishEvent(ctx, "session_revoked", func() error {
		return s.events.PublishSessionRevoked(ctx, domain.SessionRevokedEvent{
			EventID: uuid.NewString(),
			UserID:  payload.Sub,
			Reason:  "user_logout_all",
			At:      now,
		})
	})

	return count, nil
}

// ChangePassword verifies the current password before accepting the new one.
// On success the hash is replaced and the must-change flag cleared.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrCurrentPasswordInvalid
	}

	validator := security.DefaultPasswordValidator(user.Username)
	if err := validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrNewPasswordInvalid, err.Error())
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	now := s.now().UTC()
	s.publishEvent(ctx, "password_changed", func() error {
		return s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID: uuid.NewString(),
			UserID:  user.ID,
			Method:  "change",
			At:      now,
		})
	})

	return nil
}

// matchSession scans the user's usable sessions for one whose stored hash
// matches the presented token. The linear scan is inherent to hashed-at-rest
// tokens; session counts per user are small.
func (s *AuthService) matchSession(ctx context.Context, userID, refreshToken string, at time.Time) (*domain.AuthSession, error) {
	sessions, err := s.sessions.ListUsableByUser(ctx, userID, at)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	hash := security.HashToken(refreshToken)
	for i := range sessions {
		if subtle.ConstantTimeCompare([]byte(hash), []byte(sessions[i].TokenHash)) == 1 {
			return &sessions[i], nil
		}
	}

	return nil, ErrInvalidSession
}

// issueTokenPair generates both tokens and persists the refresh session.
func (s *AuthService) issueTokenPair(ctx context.Context, payload domain.AuthPayload, now time.Time) (string, string, string, error) {
	accessToken, err := s.tokens.GenerateAccessToken(payload)
	if err != nil {
		return "", "", "", fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(payload)
	if err != nil {
		return "", "", "", fmt.Errorf("generate refresh token: %w", err)
	}

	session := domain.AuthSession{
		ID:        uuid.NewString(),
		UserID:    payload.Sub,
		TokenHash: security.HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", "", "", fmt.Errorf("store session: %w", err)
	}

	return accessToken, refreshToken, session.ID, nil
}

// publishEvent delivers best-effort; a failed publish is logged, never fatal.
func (s *AuthService) publishEvent(ctx context.Context, name string, publish func() error) {
	if s.events == nil {
		return
	}
	if err := publish(); err != nil {
		logger.WithContext(ctx).Warn("publish auth event failed",
			zap.String("event", name),
			zap.Error(err),
		)
	}
}
