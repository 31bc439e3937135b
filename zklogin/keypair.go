package zklogin

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// SecretKeyPrefix is the bech32 human readable part of an encoded private key.
	SecretKeyPrefix = "suiprivkey"

	flagEd25519 byte = 0x00
	flagZkLogin byte = 0x05
)

// EphemeralKeyPair is the short-lived Ed25519 key a zkLogin session signs with. It is valid
// until the max epoch bound into the nonce.
type EphemeralKeyPair struct {
	private ed25519.PrivateKey
}

// NewEphemeralKeyPair generates a fresh keypair from crypto/rand.
func NewEphemeralKeyPair() (*EphemeralKeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	return &EphemeralKeyPair{private: priv}, nil
}

// ParseSecretKey decodes a key produced by SecretKey.
func ParseSecretKey(encoded string) (*EphemeralKeyPair, error) {
	hrp, words, err := bech32.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if hrp != SecretKeyPrefix {
		return nil, fmt.Errorf("decode secret key: unexpected prefix %q", hrp)
	}
	data, err := bech32.ConvertBits(words, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(data) != 1+ed25519.SeedSize || data[0] != flagEd25519 {
		return nil, fmt.Errorf("decode secret key: not an ed25519 key")
	}
	return &EphemeralKeyPair{private: ed25519.NewKeyFromSeed(data[1:])}, nil
}

func (k *EphemeralKeyPair) PublicKey() ed25519.PublicKey {
	return k.private.Public().(ed25519.PublicKey)
}

// SecretKey encodes flag || seed as bech32 with the suiprivkey prefix.
func (k *EphemeralKeyPair) SecretKey() (string, error) {
	payload := append([]byte{flagEd25519}, k.private.Seed()...)
	words, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("encode secret key: %w", err)
	}
	return bech32.Encode(SecretKeyPrefix, words)
}

// ExtendedPublicKey returns flag || public key as a decimal integer, the form the prover expects.
func (k *EphemeralKeyPair) ExtendedPublicKey() string {
	return extendedPublicKey(k.PublicKey()).String()
}

func (k *EphemeralKeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.private, msg)
}

func extendedPublicKey(pub ed25519.PublicKey) *big.Int {
	return new(big.Int).SetBytes(append([]byte{flagEd25519}, pub...))
}
