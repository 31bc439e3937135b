package oauth2

import (
	"context"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Credentials resolves the client id and secret for a provider.
type Credentials interface {
	GetClientID(provider string) string
	GetClientSecret(provider string) string
}

// Exchanger trades authorization codes for identity tokens at the provider token endpoint.
// It backs the code-exchange proxy; client secrets never leave this type.
type Exchanger struct {
	creds     Credentials
	verify    bool
	endpoints map[Provider]oauth2.Endpoint

	mu        sync.RWMutex
	verifiers map[Provider]*oidc.IDTokenVerifier
}

type ExchangerOption func(*Exchanger)

// WithEndpoint overrides the provider endpoint, used to point the exchanger at a test server.
func WithEndpoint(p Provider, endpoint oauth2.Endpoint) ExchangerOption {
	return func(e *Exchanger) {
		e.endpoints[p] = endpoint
	}
}

// WithIDTokenVerification enables signature and audience verification of returned identity tokens.
func WithIDTokenVerification(verify bool) ExchangerOption {
	return func(e *Exchanger) {
		e.verify = verify
	}
}

func NewExchanger(creds Credentials, opts ...ExchangerOption) *Exchanger {
	e := &Exchanger{
		creds:     creds,
		endpoints: make(map[Provider]oauth2.Endpoint),
		verifiers: make(map[Provider]*oidc.IDTokenVerifier),
	}
	for _, p := range Providers() {
		e.endpoints[p] = p.Endpoint()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exchange redeems the code and returns the provider's identity token.
func (e *Exchanger) Exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	if !req.Provider.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupportedProvider, "provider %q", req.Provider)
	}
	if req.Code == "" || req.RedirectURI == "" {
		return nil, apperrors.Wrapf(apperrors.ErrMissingCallbackParams, "code and redirectUri are required")
	}

	clientID := e.creds.GetClientID(req.Provider.String())
	secret := e.creds.GetClientSecret(req.Provider.String())
	if clientID == "" || secret == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "credentials for %s are not configured", req.Provider)
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		RedirectURL:  req.RedirectURI,
		Endpoint:     e.endpoints[req.Provider],
		Scopes:       req.Provider.Scopes(),
	}

	token, err := cfg.Exchange(ctx, req.Code)
	if err != nil {
		log.Warn().Err(err).Str("provider", req.Provider.String()).Msg("code exchange failed")
		return nil, apperrors.Wrapf(apperrors.ErrCodeExchange, "%s", err.Error())
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, apperrors.ErrMissingIdentityToken
	}

	if e.verify {
		verifier, err := e.verifier(ctx, req.Provider, clientID)
		if err != nil {
			return nil, err
		}
		if _, err := verifier.Verify(ctx, idToken); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidClaims, "%s", err.Error())
		}
	}

	resp := &TokenResponse{
		IDToken:  idToken,
		Provider: req.Provider,
	}
	if token.AccessToken != "" {
		resp.AccessToken = utils.Ptr(token.AccessToken)
	}
	if !token.Expiry.IsZero() {
		expiresIn := token.ExpiresIn
		if expiresIn == 0 {
			expiresIn = int64(time.Until(token.Expiry).Seconds())
		}
		resp.ExpiresIn = utils.Ptr(expiresIn)
	}
	return resp, nil
}

func (e *Exchanger) verifier(ctx context.Context, p Provider, clientID string) (*oidc.IDTokenVerifier, error) {
	e.mu.RLock()
	v, ok := e.verifiers[p]
	e.mu.RUnlock()
	if ok {
		return v, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.verifiers[p]; ok {
		return v, nil
	}
	provider, err := oidc.NewProvider(ctx, p.Issuer())
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "oidc discovery for %s", p)
	}
	v = provider.Verifier(&oidc.Config{ClientID: clientID})
	e.verifiers[p] = v
	return v, nil
}
