// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
	"github.com/lapsehq/lapse-auth/internal/httputil"
	"github.com/lapsehq/lapse-auth/internal/token"
)

// SessionCookieName is the cookie carrying the browser session's primary token.
const SessionCookieName = "lapse-auth"

// TokenVerifier is the slice of the token service the middleware depends on.
type TokenVerifier interface {
	VerifyPrimary(raw string) (*token.PrimaryPayload, error)
	VerifyDelegated(raw string) (*token.DelegatedPayload, error)
	LooksDelegated(raw string) bool
}

// AuthenticationMiddleware authenticates requests via Bearer token in the
// Authorization header or via the session cookie.
//
// A token that carries delegation markers is only ever verified as a
// delegated token. This holds even when delegated verification fails: the
// token is rejected rather than retried against the primary rules, so a
// forged or expired delegated token can never be downgraded into a primary
// session. Cookies carry browser sessions and therefore accept primary
// tokens only.
//
// Error handling:
//   - No token in header or cookie → 401 Unauthorized
//   - Delegated-looking token that fails delegated verification → 401
//   - Delegated-looking token in the session cookie → 401
//   - Invalid or expired primary token → 401
func AuthenticationMiddleware(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := ResolvePrincipal(c, verifier)
		if err != nil {
			logger.Debug("authentication failed", slog.Any("error", err))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		if principal == nil {
			logger.Debug("authentication failed: no token in header or cookie")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// ResolvePrincipal authenticates the request's token if one is present.
// Returns (nil, nil) when the request carries no token at all, so callers
// can decide whether anonymous access is acceptable.
func ResolvePrincipal(c *gin.Context, verifier TokenVerifier) (*Principal, error) {
	raw, fromCookie := extractToken(c)
	if raw == "" {
		if c.GetHeader("Authorization") != "" {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "malformed authorization header")
		}
		return nil, nil
	}

	if verifier.LooksDelegated(raw) {
		if fromCookie {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "delegated token in session cookie")
		}
		payload, err := verifier.VerifyDelegated(raw)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "delegated token rejected")
		}
		return &Principal{
			UserID:  payload.UserID,
			Email:   payload.Email,
			ActorID: payload.ActorID,
			Scopes:  payload.Scopes,
		}, nil
	}

	payload, err := verifier.VerifyPrimary(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "primary token rejected")
	}
	return &Principal{
		UserID: payload.UserID,
		Email:  payload.Email,
	}, nil
}

// RequirePrimaryMiddleware rejects delegated callers. Consent and grant
// management belong to the user, never to a service acting for them.
//
// MUST be used after AuthenticationMiddleware.
func RequirePrimaryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		if principal.Delegated() {
			logger.Debug("delegated caller rejected",
				slog.String("user_id", principal.UserID.String()),
				slog.String("actor_id", principal.ActorID.String()),
			)
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, "delegated tokens cannot manage consent"), logger)
			c.Abort()
			return
		}
		c.Next()
	}
}

// extractToken returns the bearer token from the Authorization header, or
// the session cookie when no header is set. The second return reports the
// cookie source.
func extractToken(c *gin.Context) (raw string, fromCookie bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", false
		}
		return strings.TrimSpace(parts[1]), false
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}
