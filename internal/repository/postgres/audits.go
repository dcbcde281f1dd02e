package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/core/port"
)

// AuditRepository appends login audit rows. No update or delete statements
// exist for this table.
type AuditRepository struct {
	exec pgExecutor
}

// NewAuditRepository returns an audit repository backed by the pool.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{exec: pool}
}

// CreateLoginAudit inserts one audit row.
func (r *AuditRepository) CreateLoginAudit(ctx context.Context, audit domain.LoginAudit) error {
	stmt, args, err := psql.Insert("login_audits").
		Columns(
			"id",
			"user_id",
			"identifier",
			"success",
			"ip",
			"user_agent",
			"created_at",
		).
		Values(
			audit.ID,
			audit.UserID,
			audit.Identifier,
			audit.Success,
			audit.IP,
			audit.UserAgent,
			audit.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert login audit sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert login audit: %w", err)
	}

	return nil
}

var _ port.AuditRepository = (*AuditRepository)(nil)
