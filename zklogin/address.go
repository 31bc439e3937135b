package zklogin

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

const (
	keyClaimName = "sub"
	googleIssuer = "accounts.google.com"
	addressBytes = 32
)

// DeriveAddress maps an identity token and the user's salt to an on-chain address. The function is
// pure: the same token and salt always give the same address. legacy selects the historical
// encoding that strips leading zero bytes from the address seed.
func DeriveAddress(jwt string, userSalt string, legacy bool) (string, error) {
	claims, err := ParseJWT(jwt)
	if err != nil {
		return "", err
	}
	if err := claims.requireAddressClaims(); err != nil {
		return "", err
	}
	salt, err := ParseSalt(userSalt)
	if err != nil {
		return "", err
	}
	seed, err := AddressSeed(salt, keyClaimName, claims.Sub, claims.Aud)
	if err != nil {
		return "", err
	}
	return AddressFromSeed(seed, claims.Iss, legacy)
}

// AddressSeed computes poseidon(name, value, aud, poseidon(salt)) over the padded claim fields.
func AddressSeed(salt *big.Int, name, value, aud string) (*big.Int, error) {
	nameF, err := HashASCIIStrToField(name, MaxKeyClaimNameLength)
	if err != nil {
		return nil, fmt.Errorf("address seed: %w", err)
	}
	valueF, err := HashASCIIStrToField(value, MaxKeyClaimValueLength)
	if err != nil {
		return nil, fmt.Errorf("address seed: %w", err)
	}
	audF, err := HashASCIIStrToField(aud, MaxAudValueLength)
	if err != nil {
		return nil, fmt.Errorf("address seed: %w", err)
	}
	saltF, err := PoseidonHash([]*big.Int{salt})
	if err != nil {
		return nil, fmt.Errorf("address seed: %w", err)
	}
	return PoseidonHash([]*big.Int{nameF, valueF, audF, saltF})
}

// AddressFromSeed hashes flag || len(iss) || iss || seed with blake2b-256.
func AddressFromSeed(seed *big.Int, iss string, legacy bool) (string, error) {
	if iss == googleIssuer {
		iss = "https://" + googleIssuer
	}
	if len(iss) > 255 {
		return "", fmt.Errorf("address: issuer longer than 255 bytes")
	}

	var seedBytes []byte
	if legacy {
		seedBytes = toBigEndianBytes(seed, addressBytes)
	} else {
		seedBytes = toPaddedBigEndianBytes(seed, addressBytes)
	}

	buf := make([]byte, 0, 2+len(iss)+len(seedBytes))
	buf = append(buf, flagZkLogin, byte(len(iss)))
	buf = append(buf, iss...)
	buf = append(buf, seedBytes...)

	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:addressBytes]), nil
}
