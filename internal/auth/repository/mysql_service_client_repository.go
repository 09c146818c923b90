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

// MySQLServiceClientRepository implements ServiceClient persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLServiceClientRepository struct {
	db *sql.DB
}

// NewMySQLServiceClientRepository creates a new MySQL ServiceClient repository.
func NewMySQLServiceClientRepository(db *sql.DB) *MySQLServiceClientRepository {
	return &MySQLServiceClientRepository{db: db}
}

// Create inserts a new ServiceClient into the MySQL database.
func (m *MySQLServiceClientRepository) Create(ctx context.Context, client *authDomain.ServiceClient) error {
	querier := database.GetTx(ctx, m.db)

	scopesJSON, err := json.Marshal(client.AllowedScopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal allowed scopes")
	}
	redirectsJSON, err := json.Marshal(client.RedirectURIs)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal redirect uris")
	}

	idBytes, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `INSERT INTO service_clients
			  (id, client_id, secret_hash, name, trust_level, allowed_scopes, redirect_uris, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
func (m *MySQLServiceClientRepository) GetByClientID(
	ctx context.Context,
	clientID string,
) (*authDomain.ServiceClient, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, client_id, secret_hash, name, trust_level, allowed_scopes, redirect_uris,
			  revoked_at, last_used_at, created_at, updated_at
			  FROM service_clients WHERE client_id = ?`

	var (
		client        authDomain.ServiceClient
		idBytes       []byte
		scopesJSON    []byte
		redirectsJSON []byte
	)

	err := querier.QueryRowContext(ctx, query, clientID).Scan(
		&idBytes,
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

	if err := client.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
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
func (m *MySQLServiceClientRepository) UpdateSecretHash(
	ctx context.Context,
	clientID string,
	secretHash string,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE service_clients SET secret_hash = ?, updated_at = NOW() WHERE client_id = ?`

	result, err := querier.ExecContext(ctx, query, secretHash, clientID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update service client secret")
	}
	return requireRowAffected(result, authDomain.ErrServiceClientNotFound)
}

// Revoke marks the client as revoked.
func (m *MySQLServiceClientRepository) Revoke(ctx context.Context, clientID string) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE service_clients SET revoked_at = NOW(), updated_at = NOW()
			  WHERE client_id = ? AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, clientID)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke service client")
	}
	return requireRowAffected(result, authDomain.ErrServiceClientNotFound)
}

// TouchLastUsed stamps the client's last_used_at after a successful exchange.
func (m *MySQLServiceClientRepository) TouchLastUsed(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE service_clients SET last_used_at = ? WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, at, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to touch service client")
	}
	return nil
}
