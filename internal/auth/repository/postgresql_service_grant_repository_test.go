package repository

import (
	"context"
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

func grantColumns() []string {
	return []string{
		"id", "service_client_id", "user_id", "scopes",
		"revoked_at", "last_used_at", "created_at", "updated_at",
	}
}

func TestPostgreSQLServiceGrantRepository_GetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceGrantRepository(db)
	grantID := uuid.Must(uuid.NewV7())
	clientID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(grantColumns()).AddRow(
			grantID, clientID, userID, mustJSON(t, []string{"profile:read", "video:read"}),
			nil, nil, now, now,
		)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM service_grants`)).
			WithArgs(clientID, userID).
			WillReturnRows(rows)

		grant, err := repo.GetActive(context.Background(), clientID, userID)
		require.NoError(t, err)
		assert.Equal(t, grantID, grant.ID)
		assert.Equal(t, []string{"profile:read", "video:read"}, grant.Scopes)
		assert.True(t, grant.Active())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM service_grants`)).
			WithArgs(clientID, userID).
			WillReturnRows(sqlmock.NewRows(grantColumns()))

		grant, err := repo.GetActive(context.Background(), clientID, userID)
		assert.Nil(t, grant)
		assert.True(t, apperrors.Is(err, authDomain.ErrGrantNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceGrantRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceGrantRepository(db)
	grantID := uuid.Must(uuid.NewV7())
	clientID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	now := time.Now()

	t.Run("Success_RowReturned", func(t *testing.T) {
		scopes := []string{"profile:read"}
		rows := sqlmock.NewRows(grantColumns()).AddRow(
			grantID, clientID, userID, mustJSON(t, scopes),
			nil, nil, now, now,
		)
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO service_grants`)).
			WithArgs(sqlmock.AnyArg(), clientID, userID, mustJSON(t, scopes)).
			WillReturnRows(rows)

		grant, err := repo.Upsert(context.Background(), authDomain.UpsertGrantInput{
			ServiceClientID: clientID,
			UserID:          userID,
			Scopes:          scopes,
		})
		require.NoError(t, err)
		assert.Equal(t, grantID, grant.ID)
		assert.Nil(t, grant.RevokedAt)
		assert.Equal(t, scopes, grant.Scopes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceGrantRepository_ListActiveByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceGrantRepository(db)
	userID := uuid.Must(uuid.NewV7())
	now := time.Now()

	columns := append(grantColumns(), "name", "client_id", "trust_level")

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(
				uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), userID,
				mustJSON(t, []string{"video:read"}), nil, nil, now, now,
				"Video Editor", "svc_video_editor", "verified",
			).
			AddRow(
				uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()), userID,
				mustJSON(t, []string{"comment:read"}), nil, nil, now, now,
				"Comment Bot", "svc_comment_bot", "unverified",
			)
		mock.ExpectQuery(regexp.QuoteMeta(`JOIN service_clients c ON c.id = g.service_client_id`)).
			WithArgs(userID).
			WillReturnRows(rows)

		grants, err := repo.ListActiveByUser(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, grants, 2)
		assert.Equal(t, "Video Editor", grants[0].ClientName)
		assert.Equal(t, authDomain.TrustLevelVerified, grants[0].TrustLevel)
		assert.Equal(t, []string{"comment:read"}, grants[1].Grant.Scopes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_Empty", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`JOIN service_clients c ON c.id = g.service_client_id`)).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(columns))

		grants, err := repo.ListActiveByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, grants)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceGrantRepository_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceGrantRepository(db)
	grantID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_grants SET revoked_at = NOW()`)).
			WithArgs(grantID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Revoke(context.Background(), grantID, userID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotOwnerOrMissing", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_grants SET revoked_at = NOW()`)).
			WithArgs(grantID, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Revoke(context.Background(), grantID, userID)
		assert.True(t, apperrors.Is(err, authDomain.ErrGrantNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLServiceGrantRepository_TouchLastUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLServiceGrantRepository(db)
	grantID := uuid.Must(uuid.NewV7())
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_grants SET last_used_at =`)).
		WithArgs(at, grantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.TouchLastUsed(context.Background(), grantID, at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
