package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
)

type authFixture struct {
	users    *stubUserRepository
	sessions *stubSessionRepository
	audits   *stubAuditRepository
	events   *recordingPublisher
	service  *AuthService
	now      time.Time
}

func (f *authFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newAuthFixture(t *testing.T, users ...*domain.User) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    newStubUserRepository(users...),
		sessions: newStubSessionRepository(),
		audits:   &stubAuditRepository{},
		events:   &recordingPublisher{},
		now:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return f.now }
	tokens := newTestTokenService(t, clock)
	hasher := newTestHasher(t)

	f.service = NewAuthService(
		f.users,
		f.sessions,
		f.audits,
		hasher,
		tokens,
		f.events,
		domain.DefaultLockPolicy(),
		nil,
	).WithClock(clock)

	return f
}

func testUser(t *testing.T, id, username, password string) *domain.User {
	t.Helper()
	hasher := newTestHasher(t)
	return &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: mustHash(t, hasher, password),
		Role:         domain.RoleStudent,
		IsActive:     true,
	}
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "u-1", "siswa1", "Benar123!")
	user.FailedAttempts = 3
	f := newAuthFixture(t, user)

	result, err := f.service.Login(context.Background(), LoginInput{Identifier: "siswa1", Password: "Benar123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if result.Role != domain.RoleStudent {
		t.Fatalf("role = %s, want %s", result.Role, domain.RoleStudent)
	}

	stored, _ := f.users.GetByID(context.Background(), "u-1")
	if stored.FailedAttempts != 0 {
		t.Fatalf("failed attempts = %d, want 0", stored.FailedAttempts)
	}
	if got := f.sessions.usableCount("u-1", f.now); got != 1 {
		t.Fatalf("usable sessions = %d, want 1", got)
	}
	if f.audits.count() != 1 || !f.audits.last().Success {
		t.Fatal("expected one successful audit row")
	}
	if !f.events.has("login_succeeded") {
		t.Fatal("expected login_succeeded event")
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), LoginInput{Identifier: "ghost", Password: "whatever1"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	// An unresolved identifier leaves no audit trail.
	if f.audits.count() != 0 {
		t.Fatalf("audit rows = %d, want 0", f.audits.count())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))

	_, err := f.service.Login(context.Background(), LoginInput{Identifier: "siswa1", Password: "salah"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	stored, _ := f.users.GetByID(context.Background(), "u-1")
	if stored.FailedAttempts != 1 {
		t.Fatalf("failed attempts = %d, want 1", stored.FailedAttempts)
	}
	if f.audits.count() != 1 || f.audits.last().Success {
		t.Fatal("expected one failed audit row")
	}
	if !f.events.has("login_failed") {
		t.Fatal("expected login_failed event")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "u-1", "siswa1", "Benar123!")
	user.IsActive = false
	f := newAuthFixture(t, user)

	_, err := f.service.Login(context.Background(), LoginInput{Identifier: "siswa1", Password: "Benar123!"})
	if !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("err = %v, want ErrInactiveAccount", err)
	}
}

func TestLoginLockoutLifecycle(t *testing.T) {
	f := newAuthFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	for i := 0; i < domain.DefaultLockThreshold; i++ {
		_, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "salah"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	stored, _ := f.users.GetByID(ctx, "u-1")
	if stored.LockUntil == nil {
		t.Fatal("expected account lock after threshold")
	}
	if !f.events.has("account_locked") {
		t.Fatal("expected account_locked event")
	}

	// The correct password is refused while the lock holds.
	_, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "Benar123!"})
	var locked *domain.AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("err = %v, want AccountLockedError", err)
	}
	if !locked.Until.Equal(*stored.LockUntil) {
		t.Fatalf("lock until = %s, want %s", locked.Until, *stored.LockUntil)
	}

	// Once the lock elapses a correct login succeeds and resets the counter.
	f.advance(domain.DefaultLockDuration + time.Minute)
	result, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "Benar123!"})
	if err != nil {
		t.Fatalf("login after lock elapsed: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected access token after lock elapsed")
	}

	stored, _ = f.users.GetByID(ctx, "u-1")
	if stored.FailedAttempts != 0 || stored.LockUntil != nil {
		t.Fatalf("expected counter reset and lock cleared, got attempts=%d lock=%v", stored.FailedAttempts, stored.LockUntil)
	}
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	f := newAuthFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	login, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "Benar123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	first, err := f.service.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if first.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if got := f.sessions.usableCount("u-1", f.now); got != 1 {
		t.Fatalf("usable sessions = %d, want 1", got)
	}
	if !f.events.has("session_rotated") {
		t.Fatal("expected session_rotated event")
	}

	// Replaying the rotated-out token must fail even inside its expiry window.
	if _, err := f.service.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("replay err = %v, want ErrInvalidSession", err)
	}

	// The chain continues from the newest token.
	second, err := f.service.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("second refresh token was not rotated")
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.service.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestReissueAccessDoesNotRotate(t *testing.T) {
	f := newAuthFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	login, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "Benar123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	payload, accessToken, err := f.service.ReissueAccess(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if payload.Sub != "u-1" || accessToken == "" {
		t.Fatalf("unexpected reissue result: sub=%s token=%q", payload.Sub, accessToken)
	}

	// The same refresh token stays valid afterwards.
	if _, _, err := f.service.ReissueAccess(ctx, login.RefreshToken); err != nil {
		t.Fatalf("second reissue: %v", err)
	}
	if got := f.sessions.usableCount("u-1", f.now); got != 1 {
		t.Fatalf("usable sessions = %d, want 1", got)
	}
}

func TestLogoutRevokesAndIsIdempotent(t *testing.T) {
	f := newAuthFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	login, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "Benar123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.service.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := f.sessions.usableCount("u-1", f.now); got != 0 {
		t.Fatalf("usable sessions = %d, want 0", got)
	}

	// Repeated and garbage logouts are not errors.
	if err := f.service.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("repeated logout: %v", err)
	}
	if err := f.service.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("garbage logout: %v", err)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	f := newAuthFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	var lastRefresh string
	for i := 0; i < 3; i++ {
		login, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "Benar123!"})
		if err != nil {
			t.Fatalf("login %d: %v", i+1, err)
		}
		lastRefresh = login.RefreshToken
	}

	count, err := f.service.LogoutAll(ctx, lastRefresh)
	if err != nil {
		t.Fatalf("logout all: %v", err)
	}
	if count != 3 {
		t.Fatalf("revoked = %d, want 3", count)
	}
	if got := f.sessions.usableCount("u-1", f.now); got != 0 {
		t.Fatalf("usable sessions = %d, want 0", got)
	}
}

func TestChangePassword(t *testing.T) {
	user := testUser(t, "u-1", "siswa1", "Benar123!")
	user.MustChangePassword = true
	f := newAuthFixture(t, user)
	ctx := context.Background()

	if err := f.service.ChangePassword(ctx, "u-1", "salah", "X9#mKp2$vQwr"); !errors.Is(err, ErrCurrentPasswordInvalid) {
		t.Fatalf("wrong current: err = %v, want ErrCurrentPasswordInvalid", err)
	}

	if err := f.service.ChangePassword(ctx, "u-1", "Benar123!", "short"); !errors.Is(err, ErrNewPasswordInvalid) {
		t.Fatalf("weak new: err = %v, want ErrNewPasswordInvalid", err)
	}

	if err := f.service.ChangePassword(ctx, "u-1", "Benar123!", "X9#mKp2$vQwr"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	stored, _ := f.users.GetByID(ctx, "u-1")
	if stored.MustChangePassword {
		t.Fatal("must-change flag should be cleared")
	}
	if !f.events.has("password_changed") {
		t.Fatal("expected password_changed event")
	}

	// The new password logs in, the old one no longer does.
	if _, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "X9#mKp2$vQwr"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.service.Login(ctx, LoginInput{Identifier: "siswa1", Password: "Benar123!"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login with old password: err = %v, want ErrInvalidCredentials", err)
	}
}
