package port

import (
	"context"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
)

// EventPublisher emits auth lifecycle events for downstream consumers.
// Publishing is best-effort: use cases log failures but never abort a flow
// because an event could not be delivered.
type EventPublisher interface {
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishSessionRotated(ctx context.Context, event domain.SessionRotatedEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}
