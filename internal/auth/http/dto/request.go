// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	authDomain "github.com/lapsehq/lapse-auth/internal/auth/domain"
	customValidation "github.com/lapsehq/lapse-auth/internal/validation"
)

// AuthorizeRequest contains the parameters for initiating a consent flow.
// Scope arrives as a list; normalization and duplicate rejection happen in
// the use case.
type AuthorizeRequest struct {
	ClientID    string   `json:"client_id"`
	RedirectURI string   `json:"redirect_uri"`
	Scope       []string `json:"scope"`
	State       string   `json:"state"`
}

// Validate checks if the authorize request is valid.
func (r *AuthorizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ClientID,
			validation.Required,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&r.RedirectURI,
			validation.Required,
			customValidation.AbsoluteURL,
		),
		validation.Field(&r.State,
			validation.Length(0, authDomain.MaxStateLength),
		),
	)
}

// RevokeGrantRequest identifies the grant a user wants to revoke.
type RevokeGrantRequest struct {
	GrantID string `json:"grantId"`
}

// DecideRequest contains the user's consent decision for a pending
// authorization. Consent is a pointer so an absent field fails validation
// instead of silently denying.
type DecideRequest struct {
	AuthorizeRequest
	Consent *bool `json:"consent"`
}

// Validate checks if the decide request is valid.
func (r *DecideRequest) Validate() error {
	if err := r.AuthorizeRequest.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Consent, validation.NotNil),
	)
}
