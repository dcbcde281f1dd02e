package postgres

import (
	"context"
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

// ResetTokenRepository persists password reset tokens in PostgreSQL. It keeps
// a pool reference because Consume runs inside its own transaction.
type ResetTokenRepository struct {
	pool *pgxpool.Pool
	exec pgExecutor
}

// NewResetTokenRepository returns a reset token repository backed by the pool.
func NewResetTokenRepository(pool *pgxpool.Pool) *ResetTokenRepository {
	return &ResetTokenRepository{pool: pool, exec: pool}
}

// Create inserts a new password reset token record.
func (r *ResetTokenRepository) Create(ctx context.Context, token domain.PasswordResetToken) error {
	stmt, args, err := psql.Insert("password_reset_tokens").
		Columns(
			"id",
			"user_id",
			"token_hash",
			"created_at",
			"expires_at",
			"used",
		).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.CreatedAt,
			token.ExpiresAt,
			token.Used,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}

	return nil
}

// GetUsableByHash retrieves the unused, unexpired token matching the hash.
func (r *ResetTokenRepository) GetUsableByHash(ctx context.Context, hash string, at time.Time) (*domain.PasswordResetToken, error) {
	stmt, args, err := psql.
		Select("id", "user_id", "token_hash", "created_at", "expires_at", "used").
		From("password_reset_tokens").
		Where(squirrel.Eq{"token_hash": hash, "used": false}).
		Where(squirrel.Gt{"expires_at": at}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var token domain.PasswordResetToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.Used,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}

	return &token, nil
}

// Consume marks the token used and replaces the owner's password hash inside
// one transaction. Either both effects land or neither does; a token is
// never burned without the password changing.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenID string, userID string, passwordHash string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin consume tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	markStmt, markArgs, err := psql.
		Update("password_reset_tokens").
		Set("used", true).
		Where(squirrel.Eq{"id": tokenID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark token used sql: %w", err)
	}

	tag, err := tx.Exec(ctx, markStmt, markArgs...)
	if err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already consumed by a concurrent request.
		return repository.ErrNotFound
	}

	pwStmt, pwArgs, err := psql.
		Update("users").
		Set("password_hash", passwordHash).
		Set("must_change_password", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	tag, err = tx.Exec(ctx, pwStmt, pwArgs...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit consume tx: %w", err)
	}

	return nil
}

var _ port.ResetTokenRepository = (*ResetTokenRepository)(nil)
