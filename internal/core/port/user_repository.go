package port

import (
	"context"
	"time"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
)

// UserRepository exposes persistence behavior for the auth view of users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// IncrementFailedAttempts bumps the counter by exactly one.
	IncrementFailedAttempts(ctx context.Context, userID string) error
	// ResetFailedAttempts zeroes the counter and clears any lock.
	ResetFailedAttempts(ctx context.Context, userID string) error
	LockAccount(ctx context.Context, userID string, until time.Time) error
	// UpdatePassword replaces the stored hash and sets the must-change flag.
	UpdatePassword(ctx context.Context, userID string, passwordHash string, mustChange bool) error
}
