// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a request. For a primary token
// ActorID is uuid.Nil and Scopes is nil; for a delegated token ActorID holds
// the acting service client and Scopes the delegation's scope set.
type Principal struct {
	UserID  uuid.UUID
	Email   string
	ActorID uuid.UUID
	Scopes  []string
}

// Delegated reports whether the principal acts on behalf of the user through
// a service client.
func (p *Principal) Delegated() bool {
	return p.ActorID != uuid.Nil
}

// HasScopes reports whether the principal carries every scope in required.
// A primary principal passes unconditionally: the user acts as themselves.
func (p *Principal) HasScopes(required []string) bool {
	if !p.Delegated() {
		return true
	}
	held := make(map[string]struct{}, len(p.Scopes))
	for _, s := range p.Scopes {
		held[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := held[s]; !ok {
			return false
		}
	}
	return true
}

// principalKey is a context key type for storing authenticated principals.
type principalKey struct{}

// WithPrincipal stores an authenticated principal in the context.
// This is typically called by the authentication middleware after successful token validation.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns (principal, true) if present, or (nil, false) if no principal was set.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(*Principal)
	return principal, ok
}
