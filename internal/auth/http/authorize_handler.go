package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	"github.com/lapsehq/lapse-auth/internal/auth/http/dto"
	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
	"github.com/lapsehq/lapse-auth/internal/httputil"
	customValidation "github.com/lapsehq/lapse-auth/internal/validation"
)

// AuthorizeHandler handles the consent flow endpoints. Both endpoints require
// a primary principal; the route group rejects delegated callers before the
// handler runs.
type AuthorizeHandler struct {
	consentUseCase authUseCase.ConsentUseCase
	logger         *slog.Logger
}

// NewAuthorizeHandler creates a new authorize handler with required dependencies.
func NewAuthorizeHandler(consentUseCase authUseCase.ConsentUseCase, logger *slog.Logger) *AuthorizeHandler {
	return &AuthorizeHandler{
		consentUseCase: consentUseCase,
		logger:         logger,
	}
}

// Authorize handles POST /oauth/authorize requests.
// It resolves the consent state for the authenticated user: an existing
// grant reissues immediately, otherwise the client summary is returned for
// the consent screen.
func (h *AuthorizeHandler) Authorize(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var request dto.AuthorizeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.consentUseCase.Init(c.Request.Context(), authDomain.ConsentRequest{
		UserID:      principal.UserID,
		Email:       principal.Email,
		ClientID:    request.ClientID,
		RedirectURI: request.RedirectURI,
		Scopes:      request.Scope,
		State:       request.State,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("consent initiated",
		slog.String("user_id", principal.UserID.String()),
		slog.String("client_id", request.ClientID),
		slog.String("status", string(result.State)),
	)

	c.JSON(http.StatusOK, dto.ConsentEnvelope{Ok: true, Data: dto.MapConsentResultToResponse(result)})
}

// Decide handles PUT /oauth/authorize requests.
// It records the user's approve or deny choice, mints a delegated token on
// approval, and returns the callback redirect.
func (h *AuthorizeHandler) Decide(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var request dto.DecideRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.consentUseCase.Decide(c.Request.Context(), authDomain.ConsentDecision{
		ConsentRequest: authDomain.ConsentRequest{
			UserID:      principal.UserID,
			Email:       principal.Email,
			ClientID:    request.ClientID,
			RedirectURI: request.RedirectURI,
			Scopes:      request.Scope,
			State:       request.State,
		},
		Consent: *request.Consent,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("consent decided",
		slog.String("user_id", principal.UserID.String()),
		slog.String("client_id", request.ClientID),
		slog.String("status", string(result.State)),
	)

	c.JSON(http.StatusOK, dto.ConsentEnvelope{Ok: true, Data: dto.MapConsentResultToResponse(result)})
}
