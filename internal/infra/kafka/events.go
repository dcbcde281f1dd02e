package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/core/port"
	"github.com/cybertank378/student-point-app-sub000/internal/infra/config"
)

const eventSchemaVersion = "1.0"

// EventPublisher sends auth lifecycle events to Kafka as JSON envelopes.
// Events keyed by user id land on the same partition, preserving per-user
// ordering for consumers.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	service  string
	env      string
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		logger:   logger,
		service:  appCfg.Name,
		env:      appCfg.Env,
	}
}

// envelope is the wire format shared by every auth event topic.
type envelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if eventID == "" {
		eventID = uuid.NewString()
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	body, err := json.Marshal(envelope{
		EventID:   eventID,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   eventSchemaVersion,
		Payload:   payload,
		Metadata:  map[string]string{"service": p.service, "environment": p.env},
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(body),
	}
	if userID != "" {
		msg.Key = sarama.StringEncoder(userID)
	}

	select {
	case p.producer.Producer().Input() <- msg:
		p.logger.Debug("event enqueued",
			zap.String("event_type", eventType),
			zap.String("event_id", eventID),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishLoginSucceeded publishes auth.login.succeeded events.
func (p *EventPublisher) PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error {
	payload := struct {
		UserID   string      `json:"user_id"`
		Username string      `json:"username"`
		Role     domain.Role `json:"role"`
		IP       *string     `json:"ip,omitempty"`
		At       time.Time   `json:"at"`
	}{
		UserID:   event.UserID,
		Username: event.Username,
		Role:     event.Role,
		IP:       event.IP,
		At:       event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.login.succeeded", event.UserID, event.At, payload)
}

// PublishLoginFailed publishes auth.login.failed events.
func (p *EventPublisher) PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error {
	payload := struct {
		UserID         string    `json:"user_id"`
		Identifier     string    `json:"identifier"`
		FailedAttempts int       `json:"failed_attempts"`
		IP             *string   `json:"ip,omitempty"`
		At             time.Time `json:"at"`
	}{
		UserID:         event.UserID,
		Identifier:     event.Identifier,
		FailedAttempts: event.FailedAttempts,
		IP:             event.IP,
		At:             event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.login.failed", event.UserID, event.At, payload)
}

// PublishAccountLocked publishes auth.account.locked events.
func (p *EventPublisher) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	payload := struct {
		UserID string    `json:"user_id"`
		Until  time.Time `json:"until"`
		At     time.Time `json:"at"`
	}{
		UserID: event.UserID,
		Until:  event.Until.UTC(),
		At:     event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.account.locked", event.UserID, event.At, payload)
}

// PublishSessionRotated publishes auth.session.rotated events.
func (p *EventPublisher) PublishSessionRotated(ctx context.Context, event domain.SessionRotatedEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		OldSessionID string    `json:"old_session_id"`
		NewSessionID string    `json:"new_session_id"`
		At           time.Time `json:"at"`
	}{
		UserID:       event.UserID,
		OldSessionID: event.OldSessionID,
		NewSessionID: event.NewSessionID,
		At:           event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.session.rotated", event.UserID, event.At, payload)
}

// PublishSessionRevoked publishes auth.session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		UserID    string    `json:"user_id"`
		SessionID string    `json:"session_id,omitempty"`
		Reason    string    `json:"reason"`
		At        time.Time `json:"at"`
	}{
		UserID:    event.UserID,
		SessionID: event.SessionID,
		Reason:    event.Reason,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.session.revoked", event.UserID, event.At, payload)
}

// PublishPasswordChanged publishes auth.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID string    `json:"user_id"`
		Method string    `json:"method"`
		At     time.Time `json:"at"`
	}{
		UserID: event.UserID,
		Method: event.Method,
		At:     event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.password.changed", event.UserID, event.At, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
