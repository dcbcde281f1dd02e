package usecase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/security"
	"github.com/cybertank378/student-point-app-sub000/internal/repository"
)

type stubUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepository(users ...*domain.User) *stubUserRepository {
	repo := &stubUserRepository{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *stubUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepository) IncrementFailedAttempts(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.FailedAttempts++
	return nil
}

func (r *stubUserRepository) ResetFailedAttempts(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.FailedAttempts = 0
	u.LockUntil = nil
	return nil
}

func (r *stubUserRepository) LockAccount(_ context.Context, userID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.LockUntil = &until
	return nil
}

func (r *stubUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string, mustChange bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.MustChangePassword = mustChange
	return nil
}

type stubSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.AuthSession
}

func newStubSessionRepository() *stubSessionRepository {
	return &stubSessionRepository{sessions: make(map[string]*domain.AuthSession)}
}

func (r *stubSessionRepository) Create(_ context.Context, session domain.AuthSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := session
	r.sessions[session.ID] = &copy
	return nil
}

func (r *stubSessionRepository) ListUsableByUser(_ context.Context, userID string, at time.Time) ([]domain.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var usable []domain.AuthSession
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsUsable(at) {
			usable = append(usable, *s)
		}
	}
	return usable, nil
}

func (r *stubSessionRepository) Revoke(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.Revoked = true
	}
	return nil
}

func (r *stubSessionRepository) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, s := range r.sessions {
		if s.UserID == userID && !s.Revoked {
			s.Revoked = true
			count++
		}
	}
	return count, nil
}

func (r *stubSessionRepository) usableCount(userID string, at time.Time) int {
	sessions, _ := r.ListUsableByUser(context.Background(), userID, at)
	return len(sessions)
}

type stubResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.PasswordResetToken
	users  *stubUserRepository
}

func newStubResetTokenRepository(users *stubUserRepository) *stubResetTokenRepository {
	return &stubResetTokenRepository{
		tokens: make(map[string]*domain.PasswordResetToken),
		users:  users,
	}
}

func (r *stubResetTokenRepository) Create(_ context.Context, token domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := token
	r.tokens[token.ID] = &copy
	return nil
}

func (r *stubResetTokenRepository) GetUsableByHash(_ context.Context, hash string, at time.Time) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == hash && t.IsUsable(at) {
			copy := *t
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubResetTokenRepository) Consume(ctx context.Context, tokenID, userID, passwordHash string) error {
	r.mu.Lock()
	token, ok := r.tokens[tokenID]
	if !ok || token.Used {
		r.mu.Unlock()
		return repository.ErrNotFound
	}
	token.Used = true
	r.mu.Unlock()

	return r.users.UpdatePassword(ctx, userID, passwordHash, false)
}

type stubAuditRepository struct {
	mu     sync.Mutex
	audits []domain.LoginAudit
}

func (r *stubAuditRepository) CreateLoginAudit(_ context.Context, audit domain.LoginAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, audit)
	return nil
}

func (r *stubAuditRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.audits)
}

func (r *stubAuditRepository) last() domain.LoginAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audits[len(r.audits)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) record(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
}

func (p *recordingPublisher) has(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == name {
			return true
		}
	}
	return false
}

func (p *recordingPublisher) PublishLoginSucceeded(context.Context, domain.LoginSucceededEvent) error {
	p.record("login_succeeded")
	return nil
}

func (p *recordingPublisher) PublishLoginFailed(context.Context, domain.LoginFailedEvent) error {
	p.record("login_failed")
	return nil
}

func (p *recordingPublisher) PublishAccountLocked(context.Context, domain.AccountLockedEvent) error {
	p.record("account_locked")
	return nil
}

func (p *recordingPublisher) PublishSessionRotated(context.Context, domain.SessionRotatedEvent) error {
	p.record("session_rotated")
	return nil
}

func (p *recordingPublisher) PublishSessionRevoked(context.Context, domain.SessionRevokedEvent) error {
	p.record("session_revoked")
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	p.record("password_changed")
	return nil
}

type staticKeyProvider struct {
	key *rsa.PrivateKey
}

func (p *staticKeyProvider) GetSigningKey() (*rsa.PrivateKey, error) {
	return p.key, nil
}

func (p *staticKeyProvider) GetVerificationKey(string) (*rsa.PublicKey, error) {
	return &p.key.PublicKey, nil
}

func newTestTokenService(t *testing.T, now func() time.Time) *security.TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	svc := security.NewTokenService(&staticKeyProvider{key: key}, "test", "school-test", time.Hour, 7*24*time.Hour)
	if now != nil {
		svc = svc.WithClock(now)
	}
	return svc
}

func newTestHasher(t *testing.T) *security.Hasher {
	t.Helper()
	hasher, err := security.NewHasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return hasher
}

func mustHash(t *testing.T, hasher *security.Hasher, password string) string {
	t.Helper()
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}
