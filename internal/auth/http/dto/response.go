package dto

import (
	"time"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
)

// ClientSummaryResponse is the client metadata rendered on a consent screen.
type ClientSummaryResponse struct {
	ClientID        string   `json:"clientId"`
	Name            string   `json:"name"`
	TrustLevel      string   `json:"trustLevel"`
	RequestedScopes []string `json:"requestedScopes"`
	AllowedScopes   []string `json:"allowedScopes"`
}

// ConsentResponse is the outcome of an authorize or decide call. Fields are
// populated according to Status: redirect outcomes carry RedirectURL and the
// token fields, AWAITING_DECISION carries Client.
type ConsentResponse struct {
	Status      string                 `json:"status"`
	RedirectURL string                 `json:"redirectUrl,omitempty"`
	AccessToken string                 `json:"accessToken,omitempty"`
	TokenType   string                 `json:"tokenType,omitempty"`
	ExpiresIn   int64                  `json:"expiresIn,omitempty"`
	Scope       string                 `json:"scope,omitempty"`
	GrantID     string                 `json:"grantId,omitempty"`
	Client      *ClientSummaryResponse `json:"client,omitempty"`
}

// ConsentEnvelope wraps a consent outcome in the uniform ok/data shape used
// by the non-protocol endpoints.
type ConsentEnvelope struct {
	Ok   bool            `json:"ok"`
	Data ConsentResponse `json:"data"`
}

// MapConsentResultToResponse converts a consent outcome to an API response.
func MapConsentResultToResponse(result *authDomain.ConsentResult) ConsentResponse {
	response := ConsentResponse{
		Status:      string(result.State),
		RedirectURL: result.RedirectURL,
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		Scope:       result.Scope,
	}
	if result.AccessToken != "" {
		response.TokenType = "Bearer"
		response.GrantID = result.GrantID.String()
	}
	if result.Client != nil {
		response.Client = &ClientSummaryResponse{
			ClientID:        result.Client.ClientID,
			Name:            result.Client.Name,
			TrustLevel:      string(result.Client.TrustLevel),
			RequestedScopes: result.Client.RequestedScopes,
			AllowedScopes:   result.Client.AllowedScopes,
		}
	}
	return response
}

// GrantResponse represents an active grant in API responses.
type GrantResponse struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"clientId"`
	ClientName string     `json:"clientName"`
	TrustLevel string     `json:"trustLevel"`
	Scopes     []string   `json:"scopes"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// MapGrantToResponse converts a grant with client metadata to an API response.
func MapGrantToResponse(grant *authDomain.GrantWithClient) GrantResponse {
	return GrantResponse{
		ID:         grant.Grant.ID.String(),
		ClientID:   grant.ClientID,
		ClientName: grant.ClientName,
		TrustLevel: string(grant.TrustLevel),
		Scopes:     grant.Grant.Scopes,
		LastUsedAt: grant.Grant.LastUsedAt,
		CreatedAt:  grant.Grant.CreatedAt,
		UpdatedAt:  grant.Grant.UpdatedAt,
	}
}

// ListGrantsResponse represents the user's active grants in API responses.
type ListGrantsResponse struct {
	Ok   bool            `json:"ok"`
	Data []GrantResponse `json:"data"`
}

// MapGrantsToListResponse converts a slice of grants to a list API response.
func MapGrantsToListResponse(grants []*authDomain.GrantWithClient) ListGrantsResponse {
	grantResponses := make([]GrantResponse, 0, len(grants))
	for _, grant := range grants {
		grantResponses = append(grantResponses, MapGrantToResponse(grant))
	}
	return ListGrantsResponse{
		Ok:   true,
		Data: grantResponses,
	}
}
