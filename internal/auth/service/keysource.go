package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	"github.com/lapsehq/lapse-auth/internal/config"
)

// minAuditRootKeySize is the minimum accepted root key length in bytes.
const minAuditRootKeySize = 32

// LoadAuditRootKey resolves the audit signing root key from configuration.
//
// Two sources are supported. AUDIT_ROOT_KEY carries the key base64-encoded
// in plaintext, for development. AUDIT_ROOT_KEY_ENC carries the key
// base64-encoded after encryption by the KMS keeper at KMS_KEY_URI, for
// production. The encrypted form wins when both are set.
func LoadAuditRootKey(ctx context.Context, cfg *config.Config) ([]byte, error) {
	if cfg.AuditRootKeyEnc != "" {
		if cfg.KMSKeyURI == "" {
			return nil, fmt.Errorf("AUDIT_ROOT_KEY_ENC is set but KMS_KEY_URI is empty")
		}
		ciphertext, err := base64.StdEncoding.DecodeString(cfg.AuditRootKeyEnc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode encrypted audit root key: %w", err)
		}
		keeper, err := secrets.OpenKeeper(ctx, cfg.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer keeper.Close()
		rootKey, err := keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt audit root key: %w", err)
		}
		return checkRootKey(rootKey)
	}

	if cfg.AuditRootKey == "" {
		return nil, fmt.Errorf("no audit root key configured: set AUDIT_ROOT_KEY or AUDIT_ROOT_KEY_ENC")
	}
	rootKey, err := base64.StdEncoding.DecodeString(cfg.AuditRootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audit root key: %w", err)
	}
	return checkRootKey(rootKey)
}

func checkRootKey(rootKey []byte) ([]byte, error) {
	if len(rootKey) < minAuditRootKeySize {
		return nil, fmt.Errorf("audit root key must be at least %d bytes, got %d", minAuditRootKeySize, len(rootKey))
	}
	return rootKey, nil
}
