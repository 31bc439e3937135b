package zklogin

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// NonceLength is the length of an encoded nonce: 20 bytes in unpadded base64url.
	NonceLength = 27

	nonceBytes      = 20
	randomnessBytes = 16
)

// GenerateRandomness returns 128 random bits as a decimal string.
func GenerateRandomness() (string, error) {
	b := make([]byte, randomnessBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate randomness: %w", err)
	}
	return new(big.Int).SetBytes(b).String(), nil
}

// GenerateNonce binds the ephemeral public key, the max epoch and the randomness into the OAuth
// nonce. The proof later shows knowledge of exactly these three values.
func GenerateNonce(pub ed25519.PublicKey, maxEpoch uint64, randomness string) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("nonce: invalid public key length %d", len(pub))
	}
	r, ok := new(big.Int).SetString(randomness, 10)
	if !ok {
		return "", fmt.Errorf("nonce: randomness %q is not a decimal integer", randomness)
	}

	ext := extendedPublicKey(pub)
	shift := new(big.Int).Lsh(big.NewInt(1), 128)
	hi, lo := new(big.Int).QuoRem(ext, shift, new(big.Int))

	hash, err := PoseidonHash([]*big.Int{hi, lo, new(big.Int).SetUint64(maxEpoch), r})
	if err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	nonce := base64.RawURLEncoding.EncodeToString(toPaddedBigEndianBytes(hash, nonceBytes))
	if len(nonce) != NonceLength {
		return "", fmt.Errorf("nonce: unexpected length %d", len(nonce))
	}
	return nonce, nil
}
