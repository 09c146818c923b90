package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServiceClientActive(t *testing.T) {
	now := time.Now()

	t.Run("active when not revoked", func(t *testing.T) {
		c := &ServiceClient{}
		assert.True(t, c.Active())
	})

	t.Run("inactive when revoked", func(t *testing.T) {
		c := &ServiceClient{RevokedAt: &now}
		assert.False(t, c.Active())
	})
}

func TestAllowsRedirectURI(t *testing.T) {
	t.Run("empty registered set allows anything", func(t *testing.T) {
		c := &ServiceClient{}
		assert.True(t, c.AllowsRedirectURI("https://anywhere.example.com/cb"))
	})

	t.Run("non-empty set requires exact membership", func(t *testing.T) {
		c := &ServiceClient{RedirectURIs: []string{
			"https://app.example.com/callback",
			"https://app.example.com/alt",
		}}
		assert.True(t, c.AllowsRedirectURI("https://app.example.com/callback"))
		assert.False(t, c.AllowsRedirectURI("https://app.example.com/other"))
		assert.False(t, c.AllowsRedirectURI("https://app.example.com/callback/"))
	})
}

func TestServiceGrantActive(t *testing.T) {
	now := time.Now()
	g := &ServiceGrant{}
	assert.True(t, g.Active())
	g.RevokedAt = &now
	assert.False(t, g.Active())
}

func TestAcceptedSubjectTokenType(t *testing.T) {
	assert.True(t, AcceptedSubjectTokenType(TokenTypeAccessToken))
	assert.True(t, AcceptedSubjectTokenType(TokenTypeJWT))
	assert.False(t, AcceptedSubjectTokenType("urn:ietf:params:oauth:token-type:refresh_token"))
	assert.False(t, AcceptedSubjectTokenType(""))
}

func TestProtocolErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    *ProtocolError
		code   string
		status int
	}{
		{"invalid request", InvalidRequest("bad body"), ProtocolInvalidRequest, 400},
		{"invalid client", InvalidClient("bad credentials"), ProtocolInvalidClient, 401},
		{"invalid scope", InvalidScope("unknown scope %q", "x"), ProtocolInvalidScope, 400},
		{"access denied", AccessDenied("no grant"), ProtocolAccessDenied, 403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Contains(t, tt.err.Error(), tt.code)
		})
	}
}
