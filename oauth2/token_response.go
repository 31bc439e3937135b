package oauth2

// TokenRequest is the body accepted by the code-exchange proxy.
type TokenRequest struct {
	// Provider is the provider that issued the authorization code.
	Provider Provider `json:"provider"`

	// Code is the authorization code received on the redirect URI.
	Code string `json:"code"`

	// RedirectURI must match the redirect_uri sent in the authorization request exactly,
	// otherwise the provider rejects the exchange.
	RedirectURI string `json:"redirectUri"`
}

// TokenResponse is the proxy's answer to a code exchange.
type TokenResponse struct {
	// IDToken is the OpenID Connect identity token. zkLogin derives the address from its claims.
	// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."
	IDToken string `json:"id_token,omitempty"`

	// AccessToken is the provider access token, if one was issued.
	AccessToken *string `json:"access_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the provider access token.
	ExpiresIn *int64 `json:"expires_in,omitempty"`

	// Provider echoes the provider the code was exchanged with.
	Provider Provider `json:"provider,omitempty"`

	// Error is set, together with HTTP 400, when the exchange fails.
	Error string `json:"error,omitempty"`
}
