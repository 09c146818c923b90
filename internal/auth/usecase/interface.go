// Package usecase defines business logic interfaces for the delegation
// operations: consent, token exchange, grant management, and service client
// administration.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/token"
	userDomain "github.com/lapsehq/lapse-auth/internal/user/domain"
)

// ServiceClientRepository defines persistence operations for service clients.
// Implementations must support transaction-aware operations via context propagation.
type ServiceClientRepository interface {
	// Create stores a new service client.
	Create(ctx context.Context, client *authDomain.ServiceClient) error

	// GetByClientID retrieves a client by public identifier. Returns
	// ErrServiceClientNotFound if absent; revoked clients are returned.
	GetByClientID(ctx context.Context, clientID string) (*authDomain.ServiceClient, error)

	// UpdateSecretHash replaces the stored secret hash.
	UpdateSecretHash(ctx context.Context, clientID string, secretHash string) error

	// Revoke marks the client revoked.
	Revoke(ctx context.Context, clientID string) error

	// TouchLastUsed stamps last_used_at.
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ServiceGrantRepository defines persistence operations for consent grants.
type ServiceGrantRepository interface {
	// GetActive retrieves the non-revoked grant for a (client, user) pair.
	// Returns ErrGrantNotFound if absent.
	GetActive(ctx context.Context, serviceClientID, userID uuid.UUID) (*authDomain.ServiceGrant, error)

	// Upsert atomically creates or revives the grant keyed by (client, user).
	Upsert(ctx context.Context, input authDomain.UpsertGrantInput) (*authDomain.ServiceGrant, error)

	// ListActiveByUser returns the user's active grants, newest first, with
	// client display metadata.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*authDomain.GrantWithClient, error)

	// Revoke marks a grant revoked, scoped to the owning user.
	Revoke(ctx context.Context, grantID, userID uuid.UUID) error

	// TouchLastUsed stamps last_used_at.
	TouchLastUsed(ctx context.Context, grantID uuid.UUID, at time.Time) error
}

// TokenAuditRepository defines persistence operations for token audit rows.
type TokenAuditRepository interface {
	// Create appends an audit row.
	Create(ctx context.Context, audit *authDomain.TokenAudit) error

	// ListByUser returns the most recent audit rows for a user.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*authDomain.TokenAudit, error)

	// DeleteOlderThan removes audit rows created before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserReader resolves delegating users.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
}

// TokenIssuer is the slice of the token service the delegation use cases
// depend on.
type TokenIssuer interface {
	IssueDelegated(userID uuid.UUID, email string, actorID uuid.UUID, scopes []string, ttl time.Duration) (string, error)
	VerifyPrimary(raw string) (*token.PrimaryPayload, error)
	LooksDelegated(raw string) bool
}

// ConsentUseCase drives the consent state machine. Init resolves to
// AUTO_REISSUE or AWAITING_DECISION; Decide terminates in APPROVED or DENIED.
type ConsentUseCase interface {
	Init(ctx context.Context, req authDomain.ConsentRequest) (*authDomain.ConsentResult, error)
	Decide(ctx context.Context, decision authDomain.ConsentDecision) (*authDomain.ConsentResult, error)
}

// ExchangeUseCase mints delegated tokens for authenticated service clients.
// Protocol-level rejections are returned as *domain.ProtocolError; any other
// error is an internal failure.
type ExchangeUseCase interface {
	Exchange(ctx context.Context, input authDomain.ExchangeInput) (*authDomain.ExchangeOutput, error)
}

// GrantUseCase exposes grant listing and revocation to the owning user.
type GrantUseCase interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]*authDomain.GrantWithClient, error)
	Revoke(ctx context.Context, grantID, userID uuid.UUID) error
}

// ServiceClientUseCase manages the service client registry. Exposed through
// the CLI, not over HTTP.
type ServiceClientUseCase interface {
	// Create registers a client and returns its public identifier plus the
	// plain secret, which is shown exactly once.
	Create(ctx context.Context, input *authDomain.CreateServiceClientInput) (*authDomain.CreateServiceClientOutput, error)

	// RotateSecret replaces the client's secret and returns the new plain value.
	RotateSecret(ctx context.Context, clientID string) (*authDomain.RotateSecretOutput, error)

	// Revoke disables the client for consent and exchange.
	Revoke(ctx context.Context, clientID string) error
}

// AuditUseCase covers audit retention and review.
type AuditUseCase interface {
	// ListByUser returns the most recent issuance records for a user.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*authDomain.TokenAudit, error)

	// CleanOlderThan removes audit rows older than the retention window and
	// returns how many were deleted.
	CleanOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}
