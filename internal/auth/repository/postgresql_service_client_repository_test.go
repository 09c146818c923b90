package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func clientColumns() []string {
	return []string{
		"id", "client_id", "secret_hash", "name", "trust_level",
		"allowed_scopes", "redirect_uris", "revoked_at", "last_used_at",
		"created_at", "updated_at",
	}
}

func TestPostgreSQLServiceClientRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceClientRepository(db)
	client := &authDomain.ServiceClient{
		ID:            uuid.Must(uuid.NewV7()),
		ClientID:      "svc_video_editor",
		SecretHash:    "aa:bb",
		Name:          "Video Editor",
		TrustLevel:    authDomain.TrustLevelVerified,
		AllowedScopes: []string{"video:read", "video:write"},
		RedirectURIs:  []string{"https://editor.example.com/cb"},
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO service_clients`)).
			WithArgs(
				client.ID, client.ClientID, client.SecretHash, client.Name,
				string(client.TrustLevel),
				mustJSON(t, client.AllowedScopes), mustJSON(t, client.RedirectURIs),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), client)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceClientRepository_GetByClientID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceClientRepository(db)
	clientID := uuid.Must(uuid.NewV7())
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(clientColumns()).AddRow(
			clientID, "svc_video_editor", "aa:bb", "Video Editor", "verified",
			mustJSON(t, []string{"video:read"}), mustJSON(t, []string{}),
			nil, nil, now, now,
		)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM service_clients WHERE client_id =`)).
			WithArgs("svc_video_editor").
			WillReturnRows(rows)

		client, err := repo.GetByClientID(context.Background(), "svc_video_editor")
		require.NoError(t, err)
		assert.Equal(t, clientID, client.ID)
		assert.Equal(t, "Video Editor", client.Name)
		assert.Equal(t, authDomain.TrustLevelVerified, client.TrustLevel)
		assert.Equal(t, []string{"video:read"}, client.AllowedScopes)
		assert.Empty(t, client.RedirectURIs)
		assert.True(t, client.Active())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_RevokedClientStillReturned", func(t *testing.T) {
		revokedAt := now.Add(-time.Hour)
		rows := sqlmock.NewRows(clientColumns()).AddRow(
			clientID, "svc_video_editor", "aa:bb", "Video Editor", "verified",
			mustJSON(t, []string{"video:read"}), mustJSON(t, []string{}),
			revokedAt, nil, now, now,
		)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM service_clients WHERE client_id =`)).
			WithArgs("svc_video_editor").
			WillReturnRows(rows)

		client, err := repo.GetByClientID(context.Background(), "svc_video_editor")
		require.NoError(t, err)
		assert.False(t, client.Active())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM service_clients WHERE client_id =`)).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(clientColumns()))

		client, err := repo.GetByClientID(context.Background(), "missing")
		assert.Nil(t, client)
		assert.True(t, apperrors.Is(err, authDomain.ErrServiceClientNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceClientRepository_UpdateSecretHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceClientRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_clients SET secret_hash =`)).
			WithArgs("cc:dd", "svc_video_editor").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateSecretHash(context.Background(), "svc_video_editor", "cc:dd")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_clients SET secret_hash =`)).
			WithArgs("cc:dd", "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateSecretHash(context.Background(), "missing", "cc:dd")
		assert.True(t, apperrors.Is(err, authDomain.ErrServiceClientNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceClientRepository_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceClientRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_clients SET revoked_at = NOW()`)).
			WithArgs("svc_video_editor").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Revoke(context.Background(), "svc_video_editor")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_AlreadyRevoked", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_clients SET revoked_at = NOW()`)).
			WithArgs("svc_video_editor").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Revoke(context.Background(), "svc_video_editor")
		assert.True(t, apperrors.Is(err, authDomain.ErrServiceClientNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceClientRepository_TouchLastUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceClientRepository(db)
	id := uuid.Must(uuid.NewV7())
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_clients SET last_used_at =`)).
		WithArgs(at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.TouchLastUsed(context.Background(), id, at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
