// Package domain defines the delegation domain models: service clients that
// act on behalf of users, the consent grants users give them, and the audit
// trail of delegated token issuance.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrustLevel classifies how much vetting a service client has received.
// It is public metadata rendered on the consent screen.
type TrustLevel string

const (
	// TrustLevelUnverified marks a client that has not been reviewed.
	TrustLevelUnverified TrustLevel = "unverified"

	// TrustLevelVerified marks a client reviewed by the platform.
	TrustLevelVerified TrustLevel = "verified"

	// TrustLevelFirstParty marks a client operated by the platform itself.
	TrustLevelFirstParty TrustLevel = "first_party"
)

// ServiceClient is a registered machine caller that can obtain delegated
// tokens for users who consented to it. The stored secret is hashed, never
// plaintext. ClientID is the public identifier used on the wire; ID is the
// internal primary key.
type ServiceClient struct {
	ID            uuid.UUID  // Internal identifier (UUIDv7)
	ClientID      string     // Public client identifier
	SecretHash    string     //nolint:gosec // hashed client secret (not plaintext)
	Name          string     // Human-readable client name
	TrustLevel    TrustLevel // Vetting classification shown on consent screens
	AllowedScopes []string   // Scopes this client may ever be granted
	RedirectURIs  []string   // Registered redirect URIs (empty set means unrestricted)
	RevokedAt     *time.Time // Set when the client is revoked (nil if active)
	LastUsedAt    *time.Time // Last successful token exchange
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active reports whether the client may participate in consent and exchange.
func (c *ServiceClient) Active() bool {
	return c.RevokedAt == nil
}

// AllowsRedirectURI reports whether uri is acceptable for this client.
// An empty registered set places no restriction; a non-empty set requires
// exact membership.
func (c *ServiceClient) AllowsRedirectURI(uri string) bool {
	if len(c.RedirectURIs) == 0 {
		return true
	}
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// CreateServiceClientInput contains the parameters for registering a new
// service client. The secret is generated, never caller-supplied.
type CreateServiceClientInput struct {
	Name          string
	TrustLevel    TrustLevel
	AllowedScopes []string
	RedirectURIs  []string
}

// CreateServiceClientOutput contains the result of registering a client.
// SECURITY: the PlainSecret is returned exactly once and is not retrievable
// afterwards.
type CreateServiceClientOutput struct {
	ID          uuid.UUID
	ClientID    string
	PlainSecret string
}

// RotateSecretOutput carries the replacement secret after a rotation.
type RotateSecretOutput struct {
	ClientID    string
	PlainSecret string
}
