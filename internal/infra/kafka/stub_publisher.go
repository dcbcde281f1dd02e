package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/core/port"
)

// StubPublisher writes auth events to the log instead of a broker. It stands
// in when no Kafka brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) record(eventType string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now()
	}
	fields = append(fields,
		zap.String("event_type", eventType),
		zap.Time("at", at.UTC()),
	)
	p.logger.Info("auth event", fields...)
}

// PublishLoginSucceeded logs auth.login.succeeded events.
func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.record("auth.login.succeeded", event.At,
		zap.String("user_id", event.UserID),
		zap.String("username", event.Username),
		zap.String("role", string(event.Role)),
		zap.Stringp("ip", event.IP),
	)
	return nil
}

// PublishLoginFailed logs auth.login.failed events.
func (p *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	p.record("auth.login.failed", event.At,
		zap.String("user_id", event.UserID),
		zap.String("identifier", event.Identifier),
		zap.Int("failed_attempts", event.FailedAttempts),
		zap.Stringp("ip", event.IP),
	)
	return nil
}

// PublishAccountLocked logs auth.account.locked events.
func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.record("auth.account.locked", event.At,
		zap.String("user_id", event.UserID),
		zap.Time("until", event.Until),
	)
	return nil
}

// PublishSessionRotated logs auth.session.rotated events.
func (p *StubPublisher) PublishSessionRotated(_ context.Context, event domain.SessionRotatedEvent) error {
	p.record("auth.session.rotated", event.At,
		zap.String("user_id", event.UserID),
		zap.String("old_session_id", event.OldSessionID),
		zap.String("new_session_id", event.NewSessionID),
	)
	return nil
}

// PublishSessionRevoked logs auth.session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.record("auth.session.revoked", event.At,
		zap.String("user_id", event.UserID),
		zap.String("session_id", event.SessionID),
		zap.String("reason", event.Reason),
	)
	return nil
}

// PublishPasswordChanged logs auth.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.record("auth.password.changed", event.At,
		zap.String("user_id", event.UserID),
		zap.String("method", event.Method),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
