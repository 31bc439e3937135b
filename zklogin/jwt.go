package zklogin

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
)

// Claims are the identity token claims the session keeps for bookkeeping.
type Claims struct {
	Iss   string
	Sub   string
	Aud   string
	Exp   int64
	Nonce string
	Email string
}

// ParseJWT decodes an identity token without verifying its signature.
// An array-valued aud is rejected, since address derivation needs a single audience.
func ParseJWT(raw string) (*Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidClaims, "decode identity token")
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidClaims, "unexpected claims type")
	}

	claims := &Claims{
		Iss:   stringClaim(mc, "iss"),
		Sub:   stringClaim(mc, "sub"),
		Nonce: stringClaim(mc, "nonce"),
		Email: stringClaim(mc, "email"),
	}

	switch aud := mc["aud"].(type) {
	case string:
		claims.Aud = aud
	case nil:
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidClaims, "aud must be a single string")
	}

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.Exp = exp.Unix()
	}
	return claims, nil
}

func (c *Claims) requireAddressClaims() error {
	if c.Sub == "" || c.Iss == "" || c.Aud == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidClaims, "identity token is missing sub, iss or aud")
	}
	return nil
}

func stringClaim(mc jwt.MapClaims, name string) string {
	v, ok := mc[name]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
