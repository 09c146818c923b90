// Package service provides technical services for authentication operations.
//
// This package implements reusable services for client secret generation,
// hashing, and constant-time verification.
package service

// SecretService defines operations for service client secret generation and
// validation.
type SecretService interface {
	// GenerateSecret creates a new cryptographically secure random secret.
	// Returns both the plain text secret (to be shared with the client) and
	// the hashed version (to be stored in the database).
	//
	// The plain secret should be treated as sensitive data and only displayed
	// once to the client during creation.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)

	// HashSecret derives a "saltHex:derivedHex" hash from a plain secret
	// using a memory-hard KDF with a fresh random salt.
	HashSecret(plainSecret string) (hashedSecret string, err error)

	// CompareSecret recomputes the derivation with the stored salt and
	// compares in constant time. Returns false on any malformed stored
	// value, without branching on content.
	CompareSecret(plainSecret string, hashedSecret string) bool
}
