package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/security"
)

type resetFixture struct {
	users   *stubUserRepository
	tokens  *stubResetTokenRepository
	events  *recordingPublisher
	service *PasswordResetService
	now     time.Time
}

func (f *resetFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newResetFixture(t *testing.T, users ...*domain.User) *resetFixture {
	t.Helper()

	f := &resetFixture{
		users:  newStubUserRepository(users...),
		events: &recordingPublisher{},
		now:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.tokens = newStubResetTokenRepository(f.users)

	f.service = NewPasswordResetService(
		f.users,
		f.tokens,
		newTestHasher(t),
		f.events,
		time.Hour,
		true,
		nil,
	).WithClock(func() time.Time { return f.now })

	return f
}

func TestRequestResetUnknownIdentifier(t *testing.T) {
	f := newResetFixture(t)

	token, err := f.service.RequestReset(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token != "" {
		t.Fatal("unknown identifier must not yield a token")
	}
	if len(f.tokens.tokens) != 0 {
		t.Fatal("no token row should be stored for an unknown identifier")
	}
}

func TestRequestResetIssuesHashedToken(t *testing.T) {
	f := newResetFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))

	raw, err := f.service.RequestReset(context.Background(), "siswa1")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if raw == "" {
		t.Fatal("reveal mode should return the raw token")
	}

	stored, err := f.tokens.GetUsableByHash(context.Background(), security.HashToken(raw), f.now)
	if err != nil {
		t.Fatalf("lookup stored token: %v", err)
	}
	if stored.TokenHash == raw {
		t.Fatal("token must be stored hashed, not raw")
	}
	if !stored.ExpiresAt.Equal(f.now.Add(time.Hour)) {
		t.Fatalf("expires at = %s, want %s", stored.ExpiresAt, f.now.Add(time.Hour))
	}
}

func TestConfirmResetIsSingleUse(t *testing.T) {
	f := newResetFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	raw, err := f.service.RequestReset(ctx, "siswa1")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}

	if err := f.service.ConfirmReset(ctx, raw, "X9#mKp2$vQwr"); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}
	if !f.events.has("password_changed") {
		t.Fatal("expected password_changed event")
	}

	// Second consumption of the same token fails with the generic error.
	if err := f.service.ConfirmReset(ctx, raw, "An0ther#GoodOne"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("reuse err = %v, want ErrInvalidResetToken", err)
	}
}

func TestConfirmResetExpiredToken(t *testing.T) {
	f := newResetFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	raw, err := f.service.RequestReset(ctx, "siswa1")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}

	f.advance(2 * time.Hour)
	if err := f.service.ConfirmReset(ctx, raw, "X9#mKp2$vQwr"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expired err = %v, want ErrInvalidResetToken", err)
	}
}

func TestConfirmResetRejectsWeakPassword(t *testing.T) {
	f := newResetFixture(t, testUser(t, "u-1", "siswa1", "Benar123!"))
	ctx := context.Background()

	raw, err := f.service.RequestReset(ctx, "siswa1")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}

	if err := f.service.ConfirmReset(ctx, raw, "short"); !errors.Is(err, ErrNewPasswordInvalid) {
		t.Fatalf("weak err = %v, want ErrNewPasswordInvalid", err)
	}

	// A rejected password does not spend the token.
	if err := f.service.ConfirmReset(ctx, raw, "X9#mKp2$vQwr"); err != nil {
		t.Fatalf("confirm after rejection: %v", err)
	}
}

func TestConfirmResetUnknownToken(t *testing.T) {
	f := newResetFixture(t)

	if err := f.service.ConfirmReset(context.Background(), "bogus", "X9#mKp2$vQwr"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("err = %v, want ErrInvalidResetToken", err)
	}
}
