package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/core/port"
	"github.com/cybertank378/student-point-app-sub000/internal/repository"
)

var userColumns = []string{
	"id",
	"username",
	"password_hash",
	"role",
	"teacher_role",
	"failed_attempts",
	"lock_until",
	"must_change_password",
	"is_active",
	"created_at",
	"updated_at",
}

// UserRepository stores user accounts and their lockout state in PostgreSQL.
type UserRepository struct {
	exec pgExecutor
}

// NewUserRepository returns a user repository backed by the pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{exec: pool}
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by login identifier.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

func (r *UserRepository) getOne(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		user        domain.User
		teacherRole sql.NullString
		lockUntil   sql.NullTime
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&teacherRole,
		&user.FailedAttempts,
		&lockUntil,
		&user.MustChangePassword,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if teacherRole.Valid {
		tr := domain.TeacherRole(teacherRole.String)
		user.TeacherRole = &tr
	}
	if lockUntil.Valid {
		until := lockUntil.Time
		user.LockUntil = &until
	}

	return &user, nil
}

// IncrementFailedAttempts bumps the failure counter atomically in SQL, so
// concurrent failures are never lost even without a row lock.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, userID string) error {
	stmt, args, err := psql.
		Update("users").
		Set("failed_attempts", squirrel.Expr("failed_attempts + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment attempts sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("increment failed attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ResetFailedAttempts zeroes the counter and clears any lock.
func (r *UserRepository) ResetFailedAttempts(ctx context.Context, userID string) error {
	stmt, args, err := psql.
		Update("users").
		Set("failed_attempts", 0).
		Set("lock_until", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset attempts sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// LockAccount persists a lock expiry on the account.
func (r *UserRepository) LockAccount(ctx context.Context, userID string, until time.Time) error {
	stmt, args, err := psql.
		Update("users").
		Set("lock_until", until).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock account sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored hash and sets the must-change flag.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string, mustChange bool) error {
	stmt, args, err := psql.
		Update("users").
		Set("password_hash", passwordHash).
		Set("must_change_password", mustChange).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
