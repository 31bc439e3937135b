package auth

import (
	"strings"

	"github.com/jrsteele09/go-zklogin/api"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
)

const fallbackErrorMessage = "authentication failed"

// errorMessage turns any failure into the message shown to the user.
func errorMessage(err error) string {
	if err == nil {
		return fallbackErrorMessage
	}
	var apiErr *api.Error
	if apperrors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallbackErrorMessage
}

// providerErrorMessage formats an error returned by the provider on the redirect.
func providerErrorMessage(code, description string) string {
	if description == "" {
		return code
	}
	return code + ": " + description
}
