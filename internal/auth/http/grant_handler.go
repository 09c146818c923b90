package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/auth/http/dto"
	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
	"github.com/lapsehq/lapse-auth/internal/httputil"
)

// GrantHandler handles grant listing and revocation for the authenticated
// user. Routes require a primary principal.
type GrantHandler struct {
	grantUseCase authUseCase.GrantUseCase
	logger       *slog.Logger
}

// NewGrantHandler creates a new grant handler with required dependencies.
func NewGrantHandler(grantUseCase authUseCase.GrantUseCase, logger *slog.Logger) *GrantHandler {
	return &GrantHandler{
		grantUseCase: grantUseCase,
		logger:       logger,
	}
}

// List handles GET /oauth/grants requests.
// It returns the caller's active grants with client display metadata.
func (h *GrantHandler) List(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	grants, err := h.grantUseCase.ListActive(c.Request.Context(), principal.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapGrantsToListResponse(grants))
}

// Revoke handles DELETE /oauth/grants requests. The grant id travels in the
// body.
// Revocation is scoped to the caller: a grant owned by another user answers
// 404 rather than 403.
func (h *GrantHandler) Revoke(c *gin.Context) {
	principal, ok := GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var request dto.RevokeGrantRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	grantID, err := uuid.Parse(request.GrantID)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.grantUseCase.Revoke(c.Request.Context(), grantID, principal.UserID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("grant revoked",
		slog.String("user_id", principal.UserID.String()),
		slog.String("grant_id", grantID.String()),
	)

	c.Status(http.StatusNoContent)
}
