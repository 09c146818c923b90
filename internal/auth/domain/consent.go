package domain

import (
	"github.com/google/uuid"
)

// ConsentState identifies where a consent interaction landed. INIT either
// resolves immediately (AUTO_REISSUE) or asks the caller to render a consent
// screen (AWAITING_DECISION); the decision call terminates in APPROVED or
// DENIED.
type ConsentState string

const (
	ConsentAutoReissue      ConsentState = "AUTO_REISSUE"
	ConsentAwaitingDecision ConsentState = "AWAITING_DECISION"
	ConsentApproved         ConsentState = "APPROVED"
	ConsentDenied           ConsentState = "DENIED"
)

// ConsentRequest is the INIT call: an authenticated user's browser asking to
// delegate to a client. Scopes arrive already split; normalization happens in
// the use case.
type ConsentRequest struct {
	UserID      uuid.UUID
	Email       string
	ClientID    string // public client identifier
	RedirectURI string
	Scopes      []string
	State       string
}

// ConsentDecision is the follow-up call carrying the user's approve or deny
// choice for a pending consent.
type ConsentDecision struct {
	ConsentRequest
	Consent bool
}

// ClientSummary is the public client metadata rendered on a consent screen.
type ClientSummary struct {
	ClientID        string
	Name            string
	TrustLevel      TrustLevel
	RequestedScopes []string
	AllowedScopes   []string
}

// ConsentResult is the outcome of a consent call. Which fields are set
// depends on State: AUTO_REISSUE and APPROVED carry RedirectURL, AccessToken,
// and GrantID; AWAITING_DECISION carries Client; DENIED carries only
// RedirectURL (with the access_denied marker).
type ConsentResult struct {
	State       ConsentState
	RedirectURL string
	AccessToken string
	ExpiresIn   int64
	Scope       string
	GrantID     uuid.UUID
	Client      *ClientSummary
}
