package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	authDTO "github.com/lapsehq/lapse-auth/internal/auth/http/dto"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

// TestTokenAuditSignatures verifies that every issuance recorded by the
// exchange endpoint carries a valid signature, and that tampering with any
// signed field is detected.
func TestTokenAuditSignatures(t *testing.T) {
	tc := setupIntegrationTest(t, "postgres")
	ctx := context.Background()

	authorizeBody := authDTO.AuthorizeRequest{
		ClientID:    tc.client.ClientID,
		RedirectURI: testRedirectURI,
		Scope:       []string{"profile:read"},
		State:       "audit-test",
	}
	// Consent approval itself issues a delegated token and writes the first
	// audit row; each successful exchange adds one more.
	tc.approveGrant(t, authorizeBody)

	const exchanges = 3
	for i := 0; i < exchanges; i++ {
		resp, payload := tc.exchangeToken(tc.client.ClientID, tc.client.PlainSecret, tc.primaryToken, "profile:read")
		require.Equal(t, http.StatusOK, resp.StatusCode, "exchange failed: %s", payload)
	}

	auditUC, err := tc.container.AuditUseCase()
	require.NoError(t, err)

	audits, err := auditUC.ListByUser(ctx, tc.userID, 10)
	require.NoError(t, err)
	require.Len(t, audits, exchanges+1)

	rootKey, err := tc.container.AuditRootKey(ctx)
	require.NoError(t, err)

	signer := tc.container.AuditSigner()

	t.Run("AllRowsVerify", func(t *testing.T) {
		for _, audit := range audits {
			assert.NoError(t, signer.Verify(rootKey, audit), "audit %s failed verification", audit.ID)
			assert.Equal(t, tc.userID, audit.UserID)
			assert.Equal(t, "profile:read", audit.Scope)
			assert.NotEmpty(t, audit.IPAddress)
			assert.NotEmpty(t, audit.Signature)
		}
	})

	t.Run("TamperedScopeDetected", func(t *testing.T) {
		tampered := *audits[0]
		tampered.Scope = "profile:read profile:write"
		err := signer.Verify(rootKey, &tampered)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, authDomain.ErrSignatureInvalid))
	})

	t.Run("TamperedSignatureDetected", func(t *testing.T) {
		tampered := *audits[0]
		tampered.Signature = append([]byte(nil), tampered.Signature...)
		tampered.Signature[0] ^= 0xff
		err := signer.Verify(rootKey, &tampered)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, authDomain.ErrSignatureInvalid))
	})

	t.Run("WrongRootKeyDetected", func(t *testing.T) {
		wrongKey := append([]byte(nil), rootKey...)
		wrongKey[0] ^= 0xff
		err := signer.Verify(wrongKey, audits[0])
		require.Error(t, err)
	})

	t.Run("ListHonorsLimit", func(t *testing.T) {
		limited, err := auditUC.ListByUser(ctx, tc.userID, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("RetentionKeepsRecentRows", func(t *testing.T) {
		deleted, err := auditUC.CleanOlderThan(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, deleted)

		remaining, err := auditUC.ListByUser(ctx, tc.userID, 10)
		require.NoError(t, err)
		assert.Len(t, remaining, exchanges+1)
	})
}

// TestFailedExchangeLeavesNoAudit confirms that denied exchanges do not
// produce issuance records.
func TestFailedExchangeLeavesNoAudit(t *testing.T) {
	tc := setupIntegrationTest(t, "postgres")
	ctx := context.Background()

	resp, payload := tc.exchangeToken(tc.client.ClientID, tc.client.PlainSecret, tc.primaryToken, "profile:read")
	require.Equal(t, http.StatusForbidden, resp.StatusCode, "exchange without grant should fail: %s", payload)

	var protoErr struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(payload, &protoErr))
	assert.Equal(t, "access_denied", protoErr.Error)

	auditUC, err := tc.container.AuditUseCase()
	require.NoError(t, err)

	audits, err := auditUC.ListByUser(ctx, tc.userID, 10)
	require.NoError(t, err)
	assert.Empty(t, audits)
}
