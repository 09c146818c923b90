package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/database"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

// PostgreSQLTokenAuditRepository implements TokenAudit persistence for PostgreSQL.
// Audit rows are append-only.
type PostgreSQLTokenAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLTokenAuditRepository creates a new PostgreSQL TokenAudit repository.
func NewPostgreSQLTokenAuditRepository(db *sql.DB) *PostgreSQLTokenAuditRepository {
	return &PostgreSQLTokenAuditRepository{db: db}
}

// Create appends a new audit row.
func (p *PostgreSQLTokenAuditRepository) Create(ctx context.Context, audit *authDomain.TokenAudit) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO service_token_audits
			  (id, service_client_id, service_grant_id, user_id, scope, ip_address, user_agent, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		audit.ID,
		audit.ServiceClientID,
		audit.ServiceGrantID,
		audit.UserID,
		audit.Scope,
		audit.IPAddress,
		audit.UserAgent,
		audit.Signature,
		audit.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create token audit")
	}
	return nil
}

// ListByUser returns the most recent audit rows for a user, newest first.
func (p *PostgreSQLTokenAuditRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*authDomain.TokenAudit, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, service_client_id, service_grant_id, user_id, scope, ip_address, user_agent, signature, created_at
			  FROM service_token_audits WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list token audits")
	}
	defer rows.Close()

	var audits []*authDomain.TokenAudit
	for rows.Next() {
		var audit authDomain.TokenAudit
		err := rows.Scan(
			&audit.ID,
			&audit.ServiceClientID,
			&audit.ServiceGrantID,
			&audit.UserID,
			&audit.Scope,
			&audit.IPAddress,
			&audit.UserAgent,
			&audit.Signature,
			&audit.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan token audit")
		}
		audits = append(audits, &audit)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate token audits")
	}

	return audits, nil
}

// DeleteOlderThan removes audit rows created before the cutoff. Used by the
// retention cleanup command. Returns the number of rows removed.
func (p *PostgreSQLTokenAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM service_token_audits WHERE created_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete token audits")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected, nil
}
