package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
	"github.com/jrsteele09/go-zklogin/oauth2"
)

// Routes the browser is sent to once a callback has been handled.
const (
	RouteDashboard      = "/dashboard"
	RouteVerifyPhone    = "/auth/verify-phone"
	RouteConfirmAccount = "/auth/confirm-account"
)

// maxEpochOffset is how many epochs past the current one the ephemeral key stays valid.
const maxEpochOffset = 2

// callbackState is carried through the provider round trip in the OAuth state parameter.
type callbackState struct {
	Nonce    string          `json:"nonce"`
	Provider oauth2.Provider `json:"provider"`
}

func encodeState(nonce string, provider oauth2.Provider) (string, error) {
	data, err := json.Marshal(callbackState{Nonce: nonce, Provider: provider})
	if err != nil {
		return "", apperrors.Wrapf(err, "encode state")
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decodeState accepts padded and unpadded base64url.
func decodeState(raw string) (*callbackState, error) {
	if raw == "" {
		return nil, apperrors.ErrMissingCallbackParams
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return nil, apperrors.ErrMissingCallbackParams
	}
	var st callbackState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, apperrors.ErrMissingCallbackParams
	}
	if st.Nonce == "" || st.Provider == "" {
		return nil, apperrors.ErrMissingCallbackParams
	}
	return &st, nil
}
