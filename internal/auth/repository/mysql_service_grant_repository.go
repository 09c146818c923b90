package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/database"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

// MySQLServiceGrantRepository implements ServiceGrant persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLServiceGrantRepository struct {
	db *sql.DB
}

// NewMySQLServiceGrantRepository creates a new MySQL ServiceGrant repository.
func NewMySQLServiceGrantRepository(db *sql.DB) *MySQLServiceGrantRepository {
	return &MySQLServiceGrantRepository{db: db}
}

// GetActive retrieves the non-revoked grant for a (client, user) pair.
func (m *MySQLServiceGrantRepository) GetActive(
	ctx context.Context,
	serviceClientID uuid.UUID,
	userID uuid.UUID,
) (*authDomain.ServiceGrant, error) {
	querier := database.GetTx(ctx, m.db)

	clientBytes, err := serviceClientID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	userBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT id, service_client_id, user_id, scopes, revoked_at, last_used_at, created_at, updated_at
			  FROM service_grants
			  WHERE service_client_id = ? AND user_id = ? AND revoked_at IS NULL`

	return scanMySQLGrant(querier.QueryRowContext(ctx, query, clientBytes, userBytes))
}

// Upsert atomically creates or revives the grant keyed by (client, user).
// MySQL has no RETURNING clause, so the row is re-read after the write; both
// statements run inside the caller's transaction.
func (m *MySQLServiceGrantRepository) Upsert(
	ctx context.Context,
	input authDomain.UpsertGrantInput,
) (*authDomain.ServiceGrant, error) {
	querier := database.GetTx(ctx, m.db)

	scopesJSON, err := json.Marshal(input.Scopes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal grant scopes")
	}

	newID := uuid.Must(uuid.NewV7())
	idBytes, err := newID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	clientBytes, err := input.ServiceClientID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}
	userBytes, err := input.UserID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO service_grants (id, service_client_id, user_id, scopes, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())
			  ON DUPLICATE KEY UPDATE scopes = VALUES(scopes), revoked_at = NULL, updated_at = NOW()`

	if _, err := querier.ExecContext(ctx, query, idBytes, clientBytes, userBytes, scopesJSON); err != nil {
		return nil, apperrors.Wrap(err, "failed to upsert service grant")
	}

	readQuery := `SELECT id, service_client_id, user_id, scopes, revoked_at, last_used_at, created_at, updated_at
				  FROM service_grants WHERE service_client_id = ? AND user_id = ?`

	return scanMySQLGrant(querier.QueryRowContext(ctx, readQuery, clientBytes, userBytes))
}

// ListActiveByUser returns the user's active grants ordered by recency,
// joined with the client's display metadata.
func (m *MySQLServiceGrantRepository) ListActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*authDomain.GrantWithClient, error) {
	querier := database.GetTx(ctx, m.db)

	userBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT g.id, g.service_client_id, g.user_id, g.scopes, g.revoked_at, g.last_used_at,
			  g.created_at, g.updated_at, c.name, c.client_id, c.trust_level
			  FROM service_grants g
			  JOIN service_clients c ON c.id = g.service_client_id
			  WHERE g.user_id = ? AND g.revoked_at IS NULL
			  ORDER BY g.updated_at DESC`

	rows, err := querier.QueryContext(ctx, query, userBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list service grants")
	}
	defer rows.Close()

	var grants []*authDomain.GrantWithClient
	for rows.Next() {
		var (
			item        authDomain.GrantWithClient
			idBytes     []byte
			clientBytes []byte
			ownerBytes  []byte
			scopesJSON  []byte
		)
		err := rows.Scan(
			&idBytes,
			&clientBytes,
			&ownerBytes,
			&scopesJSON,
			&item.Grant.RevokedAt,
			&item.Grant.LastUsedAt,
			&item.Grant.CreatedAt,
			&item.Grant.UpdatedAt,
			&item.ClientName,
			&item.ClientID,
			&item.TrustLevel,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan service grant")
		}
		if err := item.Grant.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := item.Grant.ServiceClientID.UnmarshalBinary(clientBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := item.Grant.UserID.UnmarshalBinary(ownerBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		if err := json.Unmarshal(scopesJSON, &item.Grant.Scopes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal grant scopes")
		}
		grants = append(grants, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate service grants")
	}

	return grants, nil
}

// Revoke marks a grant revoked, scoped to the owning user.
func (m *MySQLServiceGrantRepository) Revoke(
	ctx context.Context,
	grantID uuid.UUID,
	userID uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := grantID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	userBytes, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE service_grants SET revoked_at = NOW(), updated_at = NOW()
			  WHERE id = ? AND user_id = ? AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, idBytes, userBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke service grant")
	}
	return requireRowAffected(result, authDomain.ErrGrantNotFound)
}

// TouchLastUsed stamps the grant's last_used_at after a successful exchange.
func (m *MySQLServiceGrantRepository) TouchLastUsed(
	ctx context.Context,
	grantID uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := grantID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE service_grants SET last_used_at = ? WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, at, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to touch service grant")
	}
	return nil
}

func scanMySQLGrant(row *sql.Row) (*authDomain.ServiceGrant, error) {
	var (
		grant       authDomain.ServiceGrant
		idBytes     []byte
		clientBytes []byte
		userBytes   []byte
		scopesJSON  []byte
	)

	err := row.Scan(
		&idBytes,
		&clientBytes,
		&userBytes,
		&scopesJSON,
		&grant.RevokedAt,
		&grant.LastUsedAt,
		&grant.CreatedAt,
		&grant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrGrantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get service grant")
	}

	if err := grant.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := grant.ServiceClientID.UnmarshalBinary(clientBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := grant.UserID.UnmarshalBinary(userBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := json.Unmarshal(scopesJSON, &grant.Scopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal grant scopes")
	}

	return &grant, nil
}
