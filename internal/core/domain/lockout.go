package domain

import (
	"fmt"
	"time"
)

const (
	// DefaultLockThreshold is the failed-attempt count at which an account locks.
	DefaultLockThreshold = 5
	// DefaultLockDuration is how long a crossed threshold keeps the account locked.
	DefaultLockDuration = 15 * time.Minute
)

// AccountLockedError is returned when login is denied because the account is
// temporarily locked. It carries the moment the lock elapses.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

// LockPolicy decides whether login is permitted and computes lock expiries.
// All persistence happens in the calling use case; the policy itself is pure.
type LockPolicy struct {
	Threshold    int
	LockDuration time.Duration
}

// DefaultLockPolicy returns the policy with the built-in threshold and window.
func DefaultLockPolicy() LockPolicy {
	return LockPolicy{
		Threshold:    DefaultLockThreshold,
		LockDuration: DefaultLockDuration,
	}
}

// CanLogin fails with AccountLockedError iff the user carries a lock that is
// still in the future at the supplied moment.
func (p LockPolicy) CanLogin(user User, at time.Time) error {
	if user.LockUntil != nil && user.LockUntil.After(at) {
		return &AccountLockedError{Until: *user.LockUntil}
	}
	return nil
}

// CalculateLock returns the lock expiry once the failed-attempt count reaches
// the threshold, otherwise nil. Deterministic and side-effect-free.
func (p LockPolicy) CalculateLock(failedAttempts int, at time.Time) *time.Time {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultLockThreshold
	}
	if failedAttempts < threshold {
		return nil
	}

	duration := p.LockDuration
	if duration <= 0 {
		duration = DefaultLockDuration
	}
	until := at.Add(duration)
	return &until
}
