package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	authHTTP "github.com/lapsehq/lapse-auth/internal/auth/http"
	userDomain "github.com/lapsehq/lapse-auth/internal/user/domain"
)

type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

type mockGrantUseCase struct {
	mock.Mock
}

func (m *mockGrantUseCase) ListActive(ctx context.Context, userID uuid.UUID) ([]*authDomain.GrantWithClient, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.GrantWithClient), args.Error(1)
}

func (m *mockGrantUseCase) Revoke(ctx context.Context, grantID, userID uuid.UUID) error {
	args := m.Called(ctx, grantID, userID)
	return args.Error(0)
}

func defaultCatalog(users *mockUserReader, grants *mockGrantUseCase) *Catalog {
	catalog := NewCatalog()
	RegisterDefaultProcedures(catalog, users, grants)
	return catalog
}

func TestRegisterDefaultProcedures(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())
	principal := &authHTTP.Principal{UserID: userID, Email: "user@example.com"}

	t.Run("profile.get returns the user", func(t *testing.T) {
		users := &mockUserReader{}
		grants := &mockGrantUseCase{}
		catalog := defaultCatalog(users, grants)

		users.On("GetByID", mock.Anything, userID).Return(&userDomain.User{
			ID:    userID,
			Name:  "John Doe",
			Email: "user@example.com",
		}, nil)

		procedure, ok := catalog.Lookup("users", "profile.get")
		require.True(t, ok)
		assert.Equal(t, http.MethodGet, procedure.Method)
		assert.True(t, procedure.RequiresAuth)
		assert.Equal(t, []string{"profile:read"}, procedure.RequiredScopes)

		data, procErr := procedure.Handle(context.Background(), &Request{Principal: principal})
		require.Nil(t, procErr)
		assert.Equal(t, ProfileData{ID: userID.String(), Name: "John Doe", Email: "user@example.com"}, data)
	})

	t.Run("profile.get maps missing user to NOT_FOUND", func(t *testing.T) {
		users := &mockUserReader{}
		grants := &mockGrantUseCase{}
		catalog := defaultCatalog(users, grants)

		users.On("GetByID", mock.Anything, userID).Return(nil, userDomain.ErrUserNotFound)

		procedure, _ := catalog.Lookup("users", "profile.get")
		data, procErr := procedure.Handle(context.Background(), &Request{Principal: principal})

		assert.Nil(t, data)
		require.NotNil(t, procErr)
		assert.Equal(t, CodeNotFound, procErr.Code)
	})

	t.Run("grants.list returns the user's grants", func(t *testing.T) {
		users := &mockUserReader{}
		grants := &mockGrantUseCase{}
		catalog := defaultCatalog(users, grants)

		grants.On("ListActive", mock.Anything, userID).Return([]*authDomain.GrantWithClient{
			{
				Grant:      authDomain.ServiceGrant{ID: uuid.Must(uuid.NewV7()), UserID: userID, Scopes: []string{"video:read"}},
				ClientName: "Video Importer",
				ClientID:   "lc_client",
				TrustLevel: authDomain.TrustLevelVerified,
			},
		}, nil)

		procedure, _ := catalog.Lookup("grants", "list")
		data, procErr := procedure.Handle(context.Background(), &Request{Principal: principal})

		require.Nil(t, procErr)
		assert.NotNil(t, data)
	})

	t.Run("grants.revoke validates its parameter", func(t *testing.T) {
		users := &mockUserReader{}
		grants := &mockGrantUseCase{}
		catalog := defaultCatalog(users, grants)
		procedure, _ := catalog.Lookup("grants", "revoke")

		_, procErr := procedure.Handle(context.Background(), &Request{
			Principal: principal,
			Params:    map[string]string{},
		})
		require.NotNil(t, procErr)
		assert.Equal(t, CodeMissingParams, procErr.Code)

		_, procErr = procedure.Handle(context.Background(), &Request{
			Principal: principal,
			Params:    map[string]string{"grant_id": "not-a-uuid"},
		})
		require.NotNil(t, procErr)
		assert.Equal(t, CodeMissingParams, procErr.Code)
	})

	t.Run("grants.revoke revokes and maps a missing grant to NOT_FOUND", func(t *testing.T) {
		users := &mockUserReader{}
		grants := &mockGrantUseCase{}
		catalog := defaultCatalog(users, grants)
		procedure, _ := catalog.Lookup("grants", "revoke")

		grantID := uuid.Must(uuid.NewV7())
		grants.On("Revoke", mock.Anything, grantID, userID).Return(nil).Once()

		data, procErr := procedure.Handle(context.Background(), &Request{
			Principal: principal,
			Params:    map[string]string{"grant_id": grantID.String()},
		})
		require.Nil(t, procErr)
		assert.Equal(t, map[string]bool{"revoked": true}, data)

		grants.On("Revoke", mock.Anything, grantID, userID).Return(authDomain.ErrGrantNotFound).Once()
		_, procErr = procedure.Handle(context.Background(), &Request{
			Principal: principal,
			Params:    map[string]string{"grant_id": grantID.String()},
		})
		require.NotNil(t, procErr)
		assert.Equal(t, CodeNotFound, procErr.Code)
	})
}
