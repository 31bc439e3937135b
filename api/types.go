// Package api is the client side of the code-exchange proxy and the platform backend.
package api

import (
	"context"

	"github.com/jrsteele09/go-zklogin/oauth2"
	"github.com/jrsteele09/go-zklogin/sessions"
)

// Service is everything the login flow needs from the outside world besides the chain.
type Service interface {
	// ExchangeCode trades an authorization code for an identity token via the proxy.
	ExchangeCode(ctx context.Context, req oauth2.TokenRequest) (*oauth2.TokenResponse, error)

	// LookupSalt asks the backend whether the identity already has an account and salt.
	LookupSalt(ctx context.Context, idToken string, provider oauth2.Provider) (*SaltResult, error)

	// Login registers or logs in the zkLogin address with the backend.
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	SendOTP(ctx context.Context, accessToken, phone string) error
	VerifyOTP(ctx context.Context, accessToken, phone, code string) (*VerifyOTPResponse, error)
}

type SaltResult struct {
	Exists bool   `json:"exists"`
	Salt   string `json:"salt,omitempty"`
}

type LoginRequest struct {
	JWT        string `json:"jwt"`
	SuiAddress string `json:"suiAddress"`
	Salt       string `json:"salt"`
	Alias      string `json:"alias,omitempty"`
}

type User struct {
	ID            string              `json:"id"`
	SuiAddress    string              `json:"suiAddress"`
	PhoneVerified bool                `json:"phoneVerified"`
	Status        sessions.UserStatus `json:"status"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type VerifyOTPResponse struct {
	PhoneVerified bool  `json:"phoneVerified"`
	User          *User `json:"user,omitempty"`
}
