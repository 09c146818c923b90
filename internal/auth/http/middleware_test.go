package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lapsehq/lapse-auth/internal/token"
)

func authTestRouter(verifier TokenVerifier, requirePrimary bool) (*gin.Engine, *Principal) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var captured Principal
	router := gin.New()
	handlers := []gin.HandlerFunc{AuthenticationMiddleware(verifier, logger)}
	if requirePrimary {
		handlers = append(handlers, RequirePrimaryMiddleware(logger))
	}
	handlers = append(handlers, func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if ok {
			captured = *principal
		}
		c.Status(http.StatusOK)
	})
	router.GET("/protected", handlers...)
	return router, &captured
}

func TestAuthenticationMiddleware(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())
	actorID := uuid.Must(uuid.NewV7())

	t.Run("Success_PrimaryBearerToken", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "primary-token").Return(false)
		verifier.On("VerifyPrimary", "primary-token").Return(&token.PrimaryPayload{
			UserID: userID,
			Email:  "user@example.com",
		}, nil)

		router, captured := authTestRouter(verifier, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer primary-token")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID, captured.UserID)
		assert.False(t, captured.Delegated())
	})

	t.Run("Success_DelegatedBearerToken", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "delegated-token").Return(true)
		verifier.On("VerifyDelegated", "delegated-token").Return(&token.DelegatedPayload{
			UserID:  userID,
			Email:   "user@example.com",
			ActorID: actorID,
			Scopes:  []string{"video:read"},
		}, nil)

		router, captured := authTestRouter(verifier, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer delegated-token")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, actorID, captured.ActorID)
		assert.True(t, captured.Delegated())
		assert.Equal(t, []string{"video:read"}, captured.Scopes)
	})

	t.Run("Success_PrimaryTokenFromCookie", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "cookie-token").Return(false)
		verifier.On("VerifyPrimary", "cookie-token").Return(&token.PrimaryPayload{
			UserID: userID,
			Email:  "user@example.com",
		}, nil)

		router, captured := authTestRouter(verifier, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID, captured.UserID)
	})

	t.Run("Error_NoToken", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		router, _ := authTestRouter(verifier, false)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_MalformedAuthorizationHeader", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		router, _ := authTestRouter(verifier, false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_DelegatedTokenInCookie", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "delegated-token").Return(true)

		router, _ := authTestRouter(verifier, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "delegated-token"})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		verifier.AssertNotCalled(t, "VerifyDelegated", mock.Anything)
		verifier.AssertNotCalled(t, "VerifyPrimary", mock.Anything)
	})

	t.Run("Error_DelegatedLookingTokenNeverRetriedAsPrimary", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "forged-token").Return(true)
		verifier.On("VerifyDelegated", "forged-token").Return(nil, errors.New("signature invalid"))

		router, _ := authTestRouter(verifier, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer forged-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		verifier.AssertNotCalled(t, "VerifyPrimary", mock.Anything)
	})

	t.Run("Error_InvalidPrimaryToken", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "expired-token").Return(false)
		verifier.On("VerifyPrimary", "expired-token").Return(nil, errors.New("token expired"))

		router, _ := authTestRouter(verifier, false)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePrimaryMiddleware(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())
	actorID := uuid.Must(uuid.NewV7())

	t.Run("Success_PrimaryPrincipalPasses", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "primary-token").Return(false)
		verifier.On("VerifyPrimary", "primary-token").Return(&token.PrimaryPayload{
			UserID: userID,
			Email:  "user@example.com",
		}, nil)

		router, _ := authTestRouter(verifier, true)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer primary-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_DelegatedPrincipalForbidden", func(t *testing.T) {
		verifier := &MockTokenVerifier{}
		verifier.On("LooksDelegated", "delegated-token").Return(true)
		verifier.On("VerifyDelegated", "delegated-token").Return(&token.DelegatedPayload{
			UserID:  userID,
			Email:   "user@example.com",
			ActorID: actorID,
			Scopes:  []string{"video:read"},
		}, nil)

		router, _ := authTestRouter(verifier, true)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer delegated-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPrincipal_HasScopes(t *testing.T) {
	t.Run("primary principal passes any requirement", func(t *testing.T) {
		principal := &Principal{UserID: uuid.Must(uuid.NewV7())}
		assert.True(t, principal.HasScopes([]string{"video:write"}))
	})

	t.Run("delegated principal needs every required scope", func(t *testing.T) {
		principal := &Principal{
			UserID:  uuid.Must(uuid.NewV7()),
			ActorID: uuid.Must(uuid.NewV7()),
			Scopes:  []string{"video:read", "profile:read"},
		}
		assert.True(t, principal.HasScopes([]string{"video:read"}))
		assert.True(t, principal.HasScopes([]string{"video:read", "profile:read"}))
		assert.False(t, principal.HasScopes([]string{"video:read", "video:write"}))
	})
}
