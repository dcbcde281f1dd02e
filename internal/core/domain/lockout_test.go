package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCanLogin(t *testing.T) {
	policy := DefaultLockPolicy()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	future := now.Add(10 * time.Minute)

	cases := []struct {
		name      string
		lockUntil *time.Time
		locked    bool
	}{
		{name: "no lock", lockUntil: nil, locked: false},
		{name: "expired lock", lockUntil: &past, locked: false},
		{name: "active lock", lockUntil: &future, locked: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.CanLogin(User{LockUntil: tc.lockUntil}, now)
			if tc.locked {
				var locked *AccountLockedError
				if !errors.As(err, &locked) {
					t.Fatalf("err = %v, want AccountLockedError", err)
				}
				if !locked.Until.Equal(future) {
					t.Fatalf("until = %s, want %s", locked.Until, future)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
		})
	}
}

func TestCalculateLock(t *testing.T) {
	policy := LockPolicy{Threshold: 3, LockDuration: 5 * time.Minute}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if until := policy.CalculateLock(2, now); until != nil {
		t.Fatalf("below threshold: until = %v, want nil", until)
	}

	until := policy.CalculateLock(3, now)
	if until == nil {
		t.Fatal("at threshold: expected a lock expiry")
	}
	if !until.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("until = %s, want %s", until, now.Add(5*time.Minute))
	}

	if until := policy.CalculateLock(7, now); until == nil {
		t.Fatal("above threshold: expected a lock expiry")
	}
}

func TestCalculateLockZeroPolicyUsesDefaults(t *testing.T) {
	var policy LockPolicy
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if until := policy.CalculateLock(DefaultLockThreshold-1, now); until != nil {
		t.Fatalf("below default threshold: until = %v, want nil", until)
	}

	until := policy.CalculateLock(DefaultLockThreshold, now)
	if until == nil {
		t.Fatal("expected lock at default threshold")
	}
	if !until.Equal(now.Add(DefaultLockDuration)) {
		t.Fatalf("until = %s, want %s", until, now.Add(DefaultLockDuration))
	}
}
