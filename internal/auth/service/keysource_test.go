package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapsehq/lapse-auth/internal/config"
)

func TestLoadAuditRootKey(t *testing.T) {
	rootKey := make([]byte, 32)
	_, err := rand.Read(rootKey)
	require.NoError(t, err)

	t.Run("Success_PlainKey", func(t *testing.T) {
		cfg := &config.Config{AuditRootKey: base64.StdEncoding.EncodeToString(rootKey)}
		loaded, err := LoadAuditRootKey(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, rootKey, loaded)
	})

	t.Run("Error_NoSource", func(t *testing.T) {
		_, err := LoadAuditRootKey(context.Background(), &config.Config{})
		require.Error(t, err)
	})

	t.Run("Error_BadBase64", func(t *testing.T) {
		_, err := LoadAuditRootKey(context.Background(), &config.Config{AuditRootKey: "%%%"})
		require.Error(t, err)
	})

	t.Run("Error_KeyTooShort", func(t *testing.T) {
		cfg := &config.Config{AuditRootKey: base64.StdEncoding.EncodeToString(rootKey[:16])}
		_, err := LoadAuditRootKey(context.Background(), cfg)
		require.Error(t, err)
	})

	t.Run("Error_EncryptedKeyWithoutKeyURI", func(t *testing.T) {
		cfg := &config.Config{AuditRootKeyEnc: base64.StdEncoding.EncodeToString(rootKey)}
		_, err := LoadAuditRootKey(context.Background(), cfg)
		require.Error(t, err)
	})
}
