package domain

const (
	// GrantTypeTokenExchange is the only grant_type accepted by the token
	// endpoint (RFC 8693).
	GrantTypeTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"

	// TokenTypeAccessToken identifies an access token subject_token_type.
	TokenTypeAccessToken = "urn:ietf:params:oauth:token-type:access_token"

	// TokenTypeJWT identifies a JWT subject_token_type.
	TokenTypeJWT = "urn:ietf:params:oauth:token-type:jwt"

	// MaxStateLength bounds the opaque state parameter echoed back to the
	// client on consent redirects.
	MaxStateLength = 256
)

// AcceptedSubjectTokenType reports whether the exchange endpoint accepts the
// given subject_token_type value.
func AcceptedSubjectTokenType(t string) bool {
	return t == TokenTypeAccessToken || t == TokenTypeJWT
}
