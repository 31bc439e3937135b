package zklogin

import (
	"crypto/rand"
	"fmt"
	"math/big"

	apperrors "github.com/jrsteele09/go-zklogin/internal/errors"
)

// GenerateSalt draws a uniformly random salt below the BN254 field modulus (a ~254-bit value
// from 256 bits of entropy) and encodes it as decimal. Salts at or above the modulus could not
// be hashed into an address seed.
func GenerateSalt() (string, error) {
	n, err := rand.Int(rand.Reader, bn254FieldSize)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return n.String(), nil
}

// ParseSalt validates a decimal salt.
func ParseSalt(salt string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(salt, 10)
	if !ok || n.Sign() < 0 {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSalt, "salt is not a non-negative decimal integer")
	}
	if n.Cmp(bn254FieldSize) >= 0 {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSalt, "salt exceeds the field size")
	}
	return n, nil
}
