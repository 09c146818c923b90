// Package repository implements data persistence for delegation entities.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). PostgreSQL uses native UUID types, MySQL uses BINARY(16)
// types. Scope and redirect URI lists are stored as JSON columns.
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

// PostgreSQLServiceClientRepository implements ServiceClient persistence for PostgreSQL.
type PostgreSQLServiceClientRepository struct {
	db *sql.DB
}

// NewPostgreSQLServiceClientRepository creates a new PostgreSQL ServiceClient repository.
func NewPostgreSQLServiceClientRepository(db *sql.DB) *PostgreSQLServiceClientRepository {
	return &PostgreSQLServiceClientRepository{db: db}
}

// Create inserts a new ServiceClient into the PostgreSQL database.
func (p *PostgreSQLServiceClientRepository) Create(ctx context.Context, client *authDomain.ServiceClient) error {
	querier := database.GetTx(ctx, p.db)

	scopesJSON, err := json.Marshal(client.AllowedScopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal allowed scopes")
	}
	redirectsJSON, err := json.Marshal(client.RedirectURIs)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal redirect uris")
	}

	query := `INSERT INTO service_clients
			  (id, client_id, secret_hash, name, trust_level, allowed_scopes, redirect_uris, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err = querier.ExecContext(
		ctx,
		query,
		client.ID,
		client.ClientID,
		client.SecretHash,
		client.Name,
		client.TrustLevel,
		scopesJSON,
		redirectsJSON,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create service client")
	}
	return nil
}

// GetByClientID retrieves a ServiceClient by public client identifier.
// Revoked clients are returned as well; callers decide how to treat them.
func (p *PostgreSQLServiceClientRepository) GetByClientID(
	ctx context.Context,
	clientID string,
) (*authDomain.ServiceClient, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, client_id, secret_hash, name, trust_level, allowed_scopes, redirect_uris,
			  revoked_at, last_used_at, created_at, updated_at
			  FROM service_clients WHERE client_id = $1`

	var (
		client        authDomain.ServiceClient
		scopesJSON    []byte
		redirectsJSON []byte
	)

	err := querier.QueryRowContext(ctx, query, clientID).Scan(
		&client.ID,
		&client.ClientID,
		&client.SecretHash,
		&client.Name,
		&client.TrustLevel,
		&scopesJSON,
		&redirectsJSON,
		&client.RevokedAt,
		&client.LastUsedAt,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrServiceClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get service client")
	}

	if err := json.Unmarshal(scopesJSON, &client.AllowedScopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal allowed scopes")
	}
	if err := json.Unmarshal(redirectsJSON, &client.RedirectURIs); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal redirect uris")
	}

	return &client, nil
}

// UpdateSecretHash replaces the stored secret hash after a rotation.
func (p *PostgreSQLServiceClientRepository) UpdateSecretHash(
	ctx context.Context,
	clientID string,
	secretHash string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE service_clients SET secret_hash = $1, updated_at = NOW() WHERE client_id = $2`

	result, err := querier.ExecContext(ctx, query, secretHash, clientID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update service client secret")
	}
	return requireRowAffected(result, authDomain.ErrServiceClientNotFound)
}

// Revoke marks the client as revoked. Revocation is last-write-wins.
func (p *PostgreSQLServiceClientRepository) Revoke(ctx context.Context, clientID string) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE service_clients SET revoked_at = NOW(), updated_at = NOW()
			  WHERE client_id = $1 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, clientID)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke service client")
	}
	return requireRowAffected(result, authDomain.ErrServiceClientNotFound)
}

// TouchLastUsed stamps the client's last_used_at after a successful exchange.
func (p *PostgreSQLServiceClientRepository) TouchLastUsed(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE service_clients SET last_used_at = $1 WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, at, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to touch service client")
	}
	return nil
}

// requireRowAffected maps a zero-row update to the given domain error.
func requireRowAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
