package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
)

// AuditSigner produces tamper-evidence signatures over token audit rows.
type AuditSigner interface {
	// Sign generates an HMAC-SHA256 signature for the audit row using a key
	// derived from rootKey.
	Sign(rootKey []byte, audit *authDomain.TokenAudit) ([]byte, error)

	// Verify checks the row's stored signature. Returns nil if valid,
	// domain.ErrSignatureInvalid if tampered.
	Verify(rootKey []byte, audit *authDomain.TokenAudit) error
}

type auditSigner struct{}

// NewAuditSigner creates a new HMAC-based audit signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation.
func NewAuditSigner() AuditSigner {
	return &auditSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// root key, separating audit signing from the root key's other uses.
// Info parameter is versioned for future algorithm changes.
func (a *auditSigner) deriveSigningKey(rootKey []byte) ([]byte, error) {
	info := []byte("token-audit-signing-v1")
	hkdf := hkdf.New(sha256.New, rootKey, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an audit row to a canonical byte representation.
// Format: service_client_id || service_grant_id || user_id || scope || ip ||
// user_agent || created_at. Variable-length fields are length-prefixed to
// prevent ambiguity.
func (a *auditSigner) canonicalize(audit *authDomain.TokenAudit) []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, audit.ServiceClientID[:]...)
	buf = append(buf, audit.ServiceGrantID[:]...)
	buf = append(buf, audit.UserID[:]...)

	buf = appendLengthPrefixed(buf, []byte(audit.Scope))
	buf = appendLengthPrefixed(buf, []byte(audit.IPAddress))
	buf = appendLengthPrefixed(buf, []byte(audit.UserAgent))

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(audit.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates an HMAC-SHA256 signature for the audit row.
func (a *auditSigner) Sign(rootKey []byte, audit *authDomain.TokenAudit) ([]byte, error) {
	signingKey, err := a.deriveSigningKey(rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(a.canonicalize(audit))
	return mac.Sum(nil), nil
}

// Verify checks if the audit row's signature is valid.
func (a *auditSigner) Verify(rootKey []byte, audit *authDomain.TokenAudit) error {
	expectedSig, err := a.Sign(rootKey, audit)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(audit.Signature, expectedSig) {
		return authDomain.ErrSignatureInvalid
	}

	return nil
}

// zero overwrites sensitive data in memory with zeros.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
