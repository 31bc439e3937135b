package config

import (
	"strings"
)

const (
	redirectPathVar  = "OAUTH_REDIRECT_PATH"
	redirectURIVar   = "OAUTH_REDIRECT_URI"
	tokenProxyURLVar = "OAUTH_TOKEN_PROXY_URL"
	verifyIDTokenVar = "OAUTH_VERIFY_ID_TOKEN"

	defaultRedirectPath = "/auth/callback"
	tokenProxyPath      = "/api/oauth/token"
)

type OAuthConfig interface {
	GetRedirectURI() string
	GetClientID(provider string) string
	GetClientSecret(provider string) string
	GetTokenProxyURL() string
	GetVerifyIDTokens() bool
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetRedirectURI resolves the OAuth redirect URI. An explicit OAUTH_REDIRECT_URI wins, otherwise the
// redirect path is appended to the frontend base URL.
func (OAuth) GetRedirectURI() string {
	if uri := GetEnv(redirectURIVar, ""); uri != "" {
		return uri
	}
	path := GetEnv(redirectPathVar, defaultRedirectPath)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return EnvVars{}.GetFrontendBaseURL() + path
}

// GetClientID returns the client identifier for a provider, e.g. GOOGLE_CLIENT_ID.
func (OAuth) GetClientID(provider string) string {
	return GetEnv(providerVar(provider, "CLIENT_ID"), "")
}

// GetClientSecret is only read by the code-exchange proxy.
func (OAuth) GetClientSecret(provider string) string {
	return GetEnv(providerVar(provider, "CLIENT_SECRET"), "")
}

func (OAuth) GetTokenProxyURL() string {
	return GetEnv(tokenProxyURLVar, EnvVars{}.GetFrontendBaseURL()+tokenProxyPath)
}

func (OAuth) GetVerifyIDTokens() bool {
	return strings.EqualFold(GetEnv(verifyIDTokenVar, "false"), "true")
}

func providerVar(provider, suffix string) string {
	return strings.ToUpper(provider) + "_" + suffix
}
