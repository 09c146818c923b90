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

// PostgreSQLServiceGrantRepository implements ServiceGrant persistence for PostgreSQL.
type PostgreSQLServiceGrantRepository struct {
	db *sql.DB
}

// NewPostgreSQLServiceGrantRepository creates a new PostgreSQL ServiceGrant repository.
func NewPostgreSQLServiceGrantRepository(db *sql.DB) *PostgreSQLServiceGrantRepository {
	return &PostgreSQLServiceGrantRepository{db: db}
}

// GetActive retrieves the non-revoked grant for a (client, user) pair.
func (p *PostgreSQLServiceGrantRepository) GetActive(
	ctx context.Context,
	serviceClientID uuid.UUID,
	userID uuid.UUID,
) (*authDomain.ServiceGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, service_client_id, user_id, scopes, revoked_at, last_used_at, created_at, updated_at
			  FROM service_grants
			  WHERE service_client_id = $1 AND user_id = $2 AND revoked_at IS NULL`

	return p.scanGrant(querier.QueryRowContext(ctx, query, serviceClientID, userID))
}

// Upsert atomically creates or revives the grant keyed by (client, user).
// An existing row gets the new scopes and a cleared revoked_at; concurrent
// upserts are serialized by the unique constraint.
func (p *PostgreSQLServiceGrantRepository) Upsert(
	ctx context.Context,
	input authDomain.UpsertGrantInput,
) (*authDomain.ServiceGrant, error) {
	querier := database.GetTx(ctx, p.db)

	scopesJSON, err := json.Marshal(input.Scopes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal grant scopes")
	}

	query := `INSERT INTO service_grants (id, service_client_id, user_id, scopes, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  ON CONFLICT (service_client_id, user_id)
			  DO UPDATE SET scopes = EXCLUDED.scopes, revoked_at = NULL, updated_at = NOW()
			  RETURNING id, service_client_id, user_id, scopes, revoked_at, last_used_at, created_at, updated_at`

	newID := uuid.Must(uuid.NewV7())
	return p.scanGrant(querier.QueryRowContext(ctx, query, newID, input.ServiceClientID, input.UserID, scopesJSON))
}

// ListActiveByUser returns the user's active grants ordered by recency,
// joined with the client's display metadata.
func (p *PostgreSQLServiceGrantRepository) ListActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*authDomain.GrantWithClient, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT g.id, g.service_client_id, g.user_id, g.scopes, g.revoked_at, g.last_used_at,
			  g.created_at, g.updated_at, c.name, c.client_id, c.trust_level
			  FROM service_grants g
			  JOIN service_clients c ON c.id = g.service_client_id
			  WHERE g.user_id = $1 AND g.revoked_at IS NULL
			  ORDER BY g.updated_at DESC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list service grants")
	}
	defer rows.Close()

	var grants []*authDomain.GrantWithClient
	for rows.Next() {
		var (
			item       authDomain.GrantWithClient
			scopesJSON []byte
		)
		err := rows.Scan(
			&item.Grant.ID,
			&item.Grant.ServiceClientID,
			&item.Grant.UserID,
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

// Revoke marks a grant revoked. The owning user is part of the predicate so
// a caller can never revoke another user's grant.
func (p *PostgreSQLServiceGrantRepository) Revoke(
	ctx context.Context,
	grantID uuid.UUID,
	userID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE service_grants SET revoked_at = NOW(), updated_at = NOW()
			  WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, grantID, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke service grant")
	}
	return requireRowAffected(result, authDomain.ErrGrantNotFound)
}

// TouchLastUsed stamps the grant's last_used_at after a successful exchange.
func (p *PostgreSQLServiceGrantRepository) TouchLastUsed(
	ctx context.Context,
	grantID uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE service_grants SET last_used_at = $1 WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, at, grantID)
	if err != nil {
		return apperrors.Wrap(err, "failed to touch service grant")
	}
	return nil
}

func (p *PostgreSQLServiceGrantRepository) scanGrant(row *sql.Row) (*authDomain.ServiceGrant, error) {
	var (
		grant      authDomain.ServiceGrant
		scopesJSON []byte
	)

	err := row.Scan(
		&grant.ID,
		&grant.ServiceClientID,
		&grant.UserID,
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

	if err := json.Unmarshal(scopesJSON, &grant.Scopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal grant scopes")
	}

	return &grant, nil
}
