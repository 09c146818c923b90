package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/scrypt"

	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

// scrypt parameters. N is the CPU/memory cost, r the block size, p the
// parallelization factor. Changing these invalidates stored hashes.
const (
	scryptN       = 32768
	scryptR       = 8
	scryptP       = 1
	saltLength    = 16
	derivedLength = 32
)

// secretService implements SecretService using scrypt. Stored hashes use the
// "saltHex:derivedHex" format.
type secretService struct{}

// NewSecretService creates a new SecretService instance.
func NewSecretService() SecretService {
	return &secretService{}
}

// GenerateSecret creates a new cryptographically secure 32-byte random secret.
// The secret is base64-encoded for easy transmission and storage.
func (s *secretService) GenerateSecret() (plainSecret string, hashedSecret string, err error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random secret")
	}

	plainSecret = base64.URLEncoding.EncodeToString(randomBytes)

	hashedSecret, err = s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}

	return plainSecret, hashedSecret, nil
}

// HashSecret derives an scrypt hash with a fresh random salt.
func (s *secretService) HashSecret(plainSecret string) (hashedSecret string, err error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", apperrors.Wrap(err, "failed to generate salt")
	}

	derived, err := scrypt.Key([]byte(plainSecret), salt, scryptN, scryptR, scryptP, derivedLength)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to derive secret hash")
	}

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(derived), nil
}

// CompareSecret recomputes the derivation with the stored salt and compares
// in constant time. Any malformed stored value is a non-match.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	saltHex, derivedHex, found := strings.Cut(hashedSecret, ":")
	if !found {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	stored, err := hex.DecodeString(derivedHex)
	if err != nil {
		return false
	}

	derived, err := scrypt.Key([]byte(plainSecret), salt, scryptN, scryptR, scryptP, derivedLength)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(derived, stored) == 1
}
