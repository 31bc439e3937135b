package auth

import (
	"regexp"
	"strings"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
)

var (
	phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	otpPattern   = regexp.MustCompile(`^[0-9]{4,8}$`)
)

const maxAliasLength = 64

// normalisePhone strips formatting characters and requires E.164.
func normalisePhone(phone string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(strings.TrimSpace(phone))
	if !phonePattern.MatchString(cleaned) {
		return "", apperrors.Wrapf(apperrors.ErrInvalidInput, "phone number must be in international format")
	}
	return cleaned, nil
}

func validateOTP(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !otpPattern.MatchString(code) {
		return "", apperrors.Wrapf(apperrors.ErrInvalidInput, "verification code must be 4 to 8 digits")
	}
	return code, nil
}

func validateAlias(alias string) (string, error) {
	alias = strings.TrimSpace(alias)
	if len(alias) > maxAliasLength {
		return "", apperrors.Wrapf(apperrors.ErrInvalidInput, "alias is too long")
	}
	return alias, nil
}
