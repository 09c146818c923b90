package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
	"github.com/lapsehq/lapse-auth/internal/httputil"
)

// TokenHandler handles the RFC 8693 token exchange endpoint.
type TokenHandler struct {
	exchangeUseCase authUseCase.ExchangeUseCase
	logger          *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(exchangeUseCase authUseCase.ExchangeUseCase, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		exchangeUseCase: exchangeUseCase,
		logger:          logger,
	}
}

// Exchange handles POST /oauth/token requests.
//
// The request body is form-encoded per the OAuth protocol. Client
// credentials arrive either in an HTTP Basic Authorization header or as
// client_id and client_secret body fields; the header wins when both are
// present. Errors use the protocol's error and error_description body shape.
func (h *TokenHandler) Exchange(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		httputil.HandleProtocolErrorGin(c, authDomain.InvalidRequest("malformed form body"), h.logger)
		return
	}

	clientID, clientSecret := h.clientCredentials(c)
	input := authDomain.ExchangeInput{
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		GrantType:        c.Request.PostFormValue("grant_type"),
		SubjectToken:     c.Request.PostFormValue("subject_token"),
		SubjectTokenType: c.Request.PostFormValue("subject_token_type"),
		Scope:            c.Request.PostFormValue("scope"),
		Resource:         c.Request.PostFormValue("resource"),
		Audience:         c.Request.PostFormValue("audience"),
		IPAddress:        c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
	}

	output, err := h.exchangeUseCase.Exchange(c.Request.Context(), input)
	if err != nil {
		var protoErr *authDomain.ProtocolError
		if errors.As(err, &protoErr) && protoErr.Code == authDomain.ProtocolInvalidClient {
			c.Header("WWW-Authenticate", `Basic realm="lapse-auth"`)
		}
		httputil.HandleProtocolErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("token exchanged",
		slog.String("client_id", clientID),
		slog.String("scope", output.Scope),
	)

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, output)
}

// clientCredentials extracts the caller's credentials, preferring the Basic
// Authorization header over body fields.
func (h *TokenHandler) clientCredentials(c *gin.Context) (clientID, clientSecret string) {
	if username, password, ok := c.Request.BasicAuth(); ok {
		return username, password
	}
	return c.Request.PostFormValue("client_id"), c.Request.PostFormValue("client_secret")
}
