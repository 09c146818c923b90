package domain

// ExchangeInput is the parsed token-exchange request. Client credentials are
// already extracted from the Basic header or body fields by the HTTP layer.
type ExchangeInput struct {
	ClientID         string // public client identifier
	ClientSecret     string
	GrantType        string
	SubjectToken     string
	SubjectTokenType string
	Scope            string // raw space-delimited request, may be empty
	Resource         string
	Audience         string
	IPAddress        string
	UserAgent        string
}

// ExchangeOutput is the success payload of a token exchange.
type ExchangeOutput struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int64  `json:"expires_in"`
	Scope           string `json:"scope"`
	Audience        string `json:"audience"`
	Issuer          string `json:"issuer"`
}
