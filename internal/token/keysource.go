package token

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	"github.com/lapsehq/lapse-auth/internal/config"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// LoadSigningKey resolves the Ed25519 signing key from configuration.
//
// Two sources are supported. TOKEN_SIGNING_SEED carries the 32-byte seed
// base64-encoded in plaintext, for development. TOKEN_SIGNING_SEED_ENC
// carries the seed base64-encoded after encryption by the KMS keeper at
// KMS_KEY_URI, for production. The encrypted form wins when both are set.
func LoadSigningKey(ctx context.Context, cfg *config.Config) (ed25519.PrivateKey, error) {
	if cfg.TokenSigningSeedEnc != "" {
		if cfg.KMSKeyURI == "" {
			return nil, fmt.Errorf("TOKEN_SIGNING_SEED_ENC is set but KMS_KEY_URI is empty")
		}
		ciphertext, err := base64.StdEncoding.DecodeString(cfg.TokenSigningSeedEnc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode encrypted signing seed: %w", err)
		}
		keeper, err := secrets.OpenKeeper(ctx, cfg.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer keeper.Close()
		seed, err := keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt signing seed: %w", err)
		}
		return keyFromSeed(seed)
	}

	if cfg.TokenSigningSeed == "" {
		return nil, fmt.Errorf("no signing key configured: set TOKEN_SIGNING_SEED or TOKEN_SIGNING_SEED_ENC")
	}
	seed, err := base64.StdEncoding.DecodeString(cfg.TokenSigningSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing seed: %w", err)
	}
	return keyFromSeed(seed)
}

func keyFromSeed(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
