package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/auth/http/dto"
	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

// ProfileData is the payload of the users/profile.get procedure.
type ProfileData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterDefaultProcedures wires the built-in procedure set: profile
// reading and grant management. Resource routers from other subsystems
// register their own procedures the same way.
func RegisterDefaultProcedures(
	catalog *Catalog,
	users authUseCase.UserReader,
	grantUseCase authUseCase.GrantUseCase,
) {
	catalog.Register("users", "profile.get", &Procedure{
		Method:         http.MethodGet,
		RequiresAuth:   true,
		RequiredScopes: []string{"profile:read"},
		Handle: func(ctx context.Context, req *Request) (any, *ProcedureError) {
			user, err := users.GetByID(ctx, req.Principal.UserID)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrNotFound) {
					return nil, NotFound("user not found")
				}
				return nil, Internal(err.Error())
			}
			return ProfileData{
				ID:    user.ID.String(),
				Name:  user.Name,
				Email: user.Email,
			}, nil
		},
	})

	catalog.Register("grants", "list", &Procedure{
		Method:         http.MethodGet,
		RequiresAuth:   true,
		RequiredScopes: []string{"profile:read"},
		Handle: func(ctx context.Context, req *Request) (any, *ProcedureError) {
			grants, err := grantUseCase.ListActive(ctx, req.Principal.UserID)
			if err != nil {
				return nil, Internal(err.Error())
			}
			return dto.MapGrantsToListResponse(grants).Data, nil
		},
	})

	catalog.Register("grants", "revoke", &Procedure{
		Method:       http.MethodPost,
		RequiresAuth: true,
		// Revocation is reserved for the user themselves: no delegated
		// caller holds a scope that permits it.
		RequiredScopes: []string{"profile:write"},
		Handle: func(ctx context.Context, req *Request) (any, *ProcedureError) {
			rawID := req.Param("grant_id")
			if rawID == "" {
				return nil, MissingParams("grant_id is required")
			}
			grantID, err := uuid.Parse(rawID)
			if err != nil {
				return nil, MissingParams("grant_id must be a valid UUID")
			}
			if err := grantUseCase.Revoke(ctx, grantID, req.Principal.UserID); err != nil {
				if apperrors.Is(err, apperrors.ErrNotFound) {
					return nil, NotFound("grant not found")
				}
				return nil, Internal(err.Error())
			}
			return map[string]bool{"revoked": true}, nil
		},
	})
}
