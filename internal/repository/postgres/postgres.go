package postgres

import (
	"context"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds queries with PostgreSQL positional placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// pgExecutor is satisfied by both *pgxpool.Pool and pgx.Tx, letting queries
// run inside or outside a transaction.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the concrete PostgreSQL repository implementations.
type Repositories struct {
	Users       *UserRepository
	Sessions    *SessionRepository
	ResetTokens *ResetTokenRepository
	Audits      *AuditRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(pool),
		Sessions:    NewSessionRepository(pool),
		ResetTokens: NewResetTokenRepository(pool),
		Audits:      NewAuditRepository(pool),
	}
}
