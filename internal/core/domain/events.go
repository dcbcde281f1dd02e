package domain

import "time"

// LoginSucceededEvent is emitted after a successful credential check.
type LoginSucceededEvent struct {
	EventID  string
	UserID   string
	Username string
	Role     Role
	IP       *string
	At       time.Time
}

// LoginFailedEvent is emitted when a password check fails for an existing
// account. UserID is always set; lookup misses produce no event.
type LoginFailedEvent struct {
	EventID        string
	UserID         string
	Identifier     string
	FailedAttempts int
	IP             *string
	At             time.Time
}

// AccountLockedEvent is emitted when a failure crosses the lock threshold.
type AccountLockedEvent struct {
	EventID string
	UserID  string
	Until   time.Time
	At      time.Time
}

// SessionRotatedEvent is emitted when a refresh token is exchanged and the
// backing session replaced.
type SessionRotatedEvent struct {
	EventID      string
	UserID       string
	OldSessionID string
	NewSessionID string
	At           time.Time
}

// SessionRevokedEvent is emitted on logout or administrative revocation.
type SessionRevokedEvent struct {
	EventID   string
	UserID    string
	SessionID string
	Reason    string
	At        time.Time
}

// PasswordChangedEvent is emitted after a password change or reset completes.
type PasswordChangedEvent struct {
	EventID string
	UserID  string
	Method  string
	At      time.Time
}
