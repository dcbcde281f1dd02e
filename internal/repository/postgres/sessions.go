package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/core/port"
)

// SessionRepository persists refresh sessions in PostgreSQL.
type SessionRepository struct {
	exec pgExecutor
}

// NewSessionRepository returns a session repository backed by the pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{exec: pool}
}

// Create inserts a session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.AuthSession) error {
	stmt, args, err := psql.Insert("auth_sessions").
		Columns(
			"id",
			"user_id",
			"token_hash",
			"created_at",
			"expires_at",
			"revoked",
		).
		Values(
			session.ID,
			session.UserID,
			session.TokenHash,
			session.CreatedAt,
			session.ExpiresAt,
			session.Revoked,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// ListUsableByUser returns unrevoked, unexpired sessions for the user.
// Expired rows stay behind for an out-of-band maintenance job; validity is
// decided by timestamp comparison here, not by sweeping.
func (r *SessionRepository) ListUsableByUser(ctx context.Context, userID string, at time.Time) ([]domain.AuthSession, error) {
	stmt, args, err := psql.
		Select("id", "user_id", "token_hash", "created_at", "expires_at", "revoked").
		From("auth_sessions").
		Where(squirrel.Eq{"user_id": userID, "revoked": false}).
		Where(squirrel.Gt{"expires_at": at}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.AuthSession
	for rows.Next() {
		var session domain.AuthSession
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.TokenHash,
			&session.CreatedAt,
			&session.ExpiresAt,
			&session.Revoked,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Revoke marks a session as revoked. Revoking an already-revoked or missing
// session is not an error; revocation is idempotent.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	stmt, args, err := psql.
		Update("auth_sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every usable session owned by the user and
// returns how many changed state.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	stmt, args, err := psql.
		Update("auth_sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"user_id": userID, "revoked": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
