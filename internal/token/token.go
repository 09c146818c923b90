// Package token implements the stateless signing core. It issues and
// verifies two token shapes: long-lived primary user tokens and short-lived
// delegated (on-behalf-of) tokens bound to a fixed audience and issuer.
//
// Verification failures are ordinary errors wrapped around ErrUnauthorized,
// never panics. The two shapes are deliberately kept apart: a delegated
// token must never pass primary verification and vice versa.
package token

import (
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
	"github.com/lapsehq/lapse-auth/internal/scope"
)

const (
	// Issuer is the fixed iss claim stamped on delegated tokens.
	Issuer = "lapse-auth"
	// DelegatedAudience is the fixed aud claim stamped on delegated tokens.
	DelegatedAudience = "lapse-services"

	// PrimaryTTL is the lifetime of a primary user token.
	PrimaryTTL = 30 * 24 * time.Hour
	// DelegatedTTL is the lifetime of a delegated token.
	DelegatedTTL = 900 * time.Second
)

// PrimaryPayload is the verified content of a primary user token.
type PrimaryPayload struct {
	UserID uuid.UUID
	Email  string
}

// DelegatedPayload is the verified content of a delegated token. Scopes are
// returned normalized (trimmed, deduplicated, blanks removed).
type DelegatedPayload struct {
	UserID  uuid.UUID
	Email   string
	ActorID uuid.UUID
	Scopes  []string
}

type primaryClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

type delegatedClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	ActorID string    `json:"actor_id"`
	Scopes  []string  `json:"scopes"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with an Ed25519 key pair.
type Service struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	now     func() time.Time
}

// NewService creates a token service from an Ed25519 private key.
func NewService(key ed25519.PrivateKey) *Service {
	return &Service{
		private: key,
		public:  key.Public().(ed25519.PublicKey),
		now:     time.Now,
	}
}

// WithNow overrides the clock. Used in tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssuePrimary signs a primary user token with the fixed 30-day expiry.
func (s *Service) IssuePrimary(userID uuid.UUID, email string) (string, error) {
	now := s.now()
	claims := primaryClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(PrimaryTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.private)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign primary token")
	}
	return signed, nil
}

// IssueDelegated signs a delegated token over the given scopes with the
// given TTL. The caller must pass an already validated scope list: non-empty,
// trimmed, duplicate-free. No re-validation happens here.
func (s *Service) IssueDelegated(
	userID uuid.UUID,
	email string,
	actorID uuid.UUID,
	scopes []string,
	ttl time.Duration,
) (string, error) {
	now := s.now()
	claims := delegatedClaims{
		UserID:  userID,
		Email:   email,
		ActorID: actorID.String(),
		Scopes:  scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{DelegatedAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.private)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign delegated token")
	}
	return signed, nil
}

func (s *Service) keyfunc(*jwt.Token) (any, error) {
	return s.public, nil
}

// VerifyPrimary checks signature and expiry of a primary token. Any
// signature, expiry, or decoding failure yields ErrUnauthorized.
func (s *Service) VerifyPrimary(raw string) (*PrimaryPayload, error) {
	var claims primaryClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, s.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid primary token")
	}
	if claims.UserID == uuid.Nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid primary token")
	}
	return &PrimaryPayload{UserID: claims.UserID, Email: claims.Email}, nil
}

// VerifyDelegated checks signature, expiry, and that aud and iss carry the
// fixed constants. The scope list is re-validated: after trimming,
// deduplication, and blank removal it must be non-empty and duplicate-free.
// The returned payload carries the normalized scope list.
func (s *Service) VerifyDelegated(raw string) (*DelegatedPayload, error) {
	var claims delegatedClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, s.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(DelegatedAudience),
	)
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid delegated token")
	}
	actorID, err := uuid.Parse(claims.ActorID)
	if err != nil || claims.UserID == uuid.Nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid delegated token")
	}
	scopes, hadDuplicates := scope.Normalize(claims.Scopes)
	if hadDuplicates || len(scopes) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid delegated token")
	}
	return &DelegatedPayload{
		UserID:  claims.UserID,
		Email:   claims.Email,
		ActorID: actorID,
		Scopes:  scopes,
	}, nil
}

// LooksDelegated decodes the claims without verifying the signature and
// reports whether the token carries delegated-shaped fields. A token that
// looks delegated but fails VerifyDelegated must be rejected outright and
// never retried against VerifyPrimary.
func (s *Service) LooksDelegated(raw string) bool {
	var claims delegatedClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return false
	}
	if claims.ActorID != "" {
		return true
	}
	if claims.Issuer == Issuer {
		return true
	}
	for _, aud := range claims.Audience {
		if aud == DelegatedAudience {
			return true
		}
	}
	return false
}
