package oauth2

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

// Provider identifies an OpenID Connect identity provider that can issue zkLogin identity tokens.
type Provider string

const (
	// ProviderGoogle signs in with Google accounts.
	// Issuer: https://accounts.google.com
	ProviderGoogle Provider = "google"

	// ProviderFacebook signs in with Facebook Login (OIDC flavour, openid scope).
	// Issuer: https://www.facebook.com
	ProviderFacebook Provider = "facebook"
)

// CodeResponseType is the OAuth 2.0 response type requested at the authorization endpoint.
// Only the authorization code flow is used: the code is exchanged server side by the proxy.
const CodeResponseType = "code"

type providerInfo struct {
	endpoint oauth2.Endpoint
	scopes   []string
	issuer   string
}

var providers = map[Provider]providerInfo{
	ProviderGoogle: {
		endpoint: google.Endpoint,
		scopes:   []string{"openid", "email", "profile"},
		issuer:   "https://accounts.google.com",
	},
	ProviderFacebook: {
		endpoint: facebook.Endpoint,
		scopes:   []string{"openid"},
		issuer:   "https://www.facebook.com",
	},
}

// ParseProvider maps a provider name to a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := providers[p]; !ok {
		return "", apperrors.Wrapf(apperrors.ErrUnsupportedProvider, "provider %q", name)
	}
	return p, nil
}

// Providers lists the supported providers.
func Providers() []Provider {
	return []Provider{ProviderGoogle, ProviderFacebook}
}

func (p Provider) String() string {
	return string(p)
}

func (p Provider) Valid() bool {
	_, ok := providers[p]
	return ok
}

func (p Provider) Endpoint() oauth2.Endpoint {
	return providers[p].endpoint
}

func (p Provider) Scopes() []string {
	return append([]string(nil), providers[p].scopes...)
}

func (p Provider) Issuer() string {
	return providers[p].issuer
}

// Config builds the x/oauth2 configuration for a provider. clientSecret is empty everywhere except
// in the code-exchange proxy.
func (p Provider) Config(clientID, clientSecret, redirectURI string) (*oauth2.Config, error) {
	if !p.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupportedProvider, "provider %q", p)
	}
	if clientID == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "missing client id for %s", p)
	}
	if redirectURI == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "missing redirect uri")
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     p.Endpoint(),
		Scopes:       p.Scopes(),
	}, nil
}

// AuthorizationURL builds the provider redirect for the authorization code flow with the zkLogin
// nonce and the opaque state.
func (p Provider) AuthorizationURL(clientID, redirectURI, state, nonce string) (string, error) {
	cfg, err := p.Config(clientID, "", redirectURI)
	if err != nil {
		return "", err
	}
	if state == "" || nonce == "" {
		return "", fmt.Errorf("authorization url: state and nonce are required")
	}
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce)), nil
}
