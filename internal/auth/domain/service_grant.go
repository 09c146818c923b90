package domain

import (
	"time"

	"github.com/google/uuid"
)

// ServiceGrant records a user's consent for one service client. There is at
// most one row per (client, user) pair; re-approval after revocation revives
// the same row by clearing RevokedAt. Scopes always hold a non-empty,
// deduplicated list.
type ServiceGrant struct {
	ID              uuid.UUID
	ServiceClientID uuid.UUID
	UserID          uuid.UUID
	Scopes          []string
	RevokedAt       *time.Time
	LastUsedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether the grant currently authorizes delegation.
func (g *ServiceGrant) Active() bool {
	return g.RevokedAt == nil
}

// UpsertGrantInput carries the fields for the atomic consent upsert keyed by
// (ServiceClientID, UserID).
type UpsertGrantInput struct {
	ServiceClientID uuid.UUID
	UserID          uuid.UUID
	Scopes          []string
}

// GrantWithClient is a grant joined with its client's display metadata, as
// listed back to the owning user.
type GrantWithClient struct {
	Grant      ServiceGrant
	ClientName string
	ClientID   string
	TrustLevel TrustLevel
}
