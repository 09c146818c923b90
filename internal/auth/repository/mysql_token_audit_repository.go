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

// MySQLTokenAuditRepository implements TokenAudit persistence for MySQL.
// Audit rows are append-only. UUIDs are stored as BINARY(16).
type MySQLTokenAuditRepository struct {
	db *sql.DB
}

// NewMySQLTokenAuditRepository creates a new MySQL TokenAudit repository.
func NewMySQLTokenAuditRepository(db *sql.DB) *MySQLTokenAuditRepository {
	return &MySQLTokenAuditRepository{db: db}
}

// Create appends a new audit row.
func (m *MySQLTokenAuditRepository) Create(ctx context.Context, audit *authDomain.TokenAudit) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := audit.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	clientBytes, err := audit.ServiceClientID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	grantBytes, err := audit.ServiceGrantID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	userBytes, err := audit.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO service_token_audits
			  (id, service_client_id, service_grant_id, user_id, scope, ip_address, user_agent, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		clientBytes,
		grantBytes,
		userBytes,
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
func (m *MySQLTokenAuditRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*authDomain.TokenAudit, error) {
	querier := database.GetTx(ctx, m.db)

	userBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT id, service_client_id, service_grant_id, user_id, scope, ip_address, user_agent, signature, created_at
			  FROM service_token_audits WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, userBytes, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list token audits")
	}
	defer rows.Close()

	var audits []*authDomain.TokenAudit
	for rows.Next() {
		var (
			audit       authDomain.TokenAudit
			idBytes     []byte
			clientBytes []byte
			grantBytes  []byte
			ownerBytes  []byte
		)
		err := rows.Scan(
			&idBytes,
			&clientBytes,
			&grantBytes,
			&ownerBytes,
			&audit.Scope,
			&audit.IPAddress,
			&audit.UserAgent,
			&audit.Signature,
			&audit.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan token audit")
		}
		if err := audit.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := audit.ServiceClientID.UnmarshalBinary(clientBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := audit.ServiceGrantID.UnmarshalBinary(grantBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := audit.UserID.UnmarshalBinary(ownerBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		audits = append(audits, &audit)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate token audits")
	}

	return audits, nil
}

// DeleteOlderThan removes audit rows created before the cutoff.
func (m *MySQLTokenAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM service_token_audits WHERE created_at < ?`

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
