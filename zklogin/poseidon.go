package zklogin

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

const (
	// MaxKeyClaimNameLength is the padded width of the key claim name ("sub").
	MaxKeyClaimNameLength = 32
	// MaxKeyClaimValueLength is the padded width of the key claim value.
	MaxKeyClaimValueLength = 115
	// MaxAudValueLength is the padded width of the aud claim.
	MaxAudValueLength = 145

	packWidth         = 248
	maxPoseidonInputs = 16
)

// bn254FieldSize is the scalar field modulus every Poseidon input must stay below.
var bn254FieldSize, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// FieldSize returns a copy of the BN254 scalar field modulus.
func FieldSize() *big.Int {
	return new(big.Int).Set(bn254FieldSize)
}

// PoseidonHash hashes up to 32 field elements. Inputs beyond 16 are folded as
// H(H(first 16), H(rest)).
func PoseidonHash(inputs []*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("poseidon: no inputs")
	}
	for i, in := range inputs {
		if in == nil || in.Sign() < 0 || in.Cmp(bn254FieldSize) >= 0 {
			return nil, fmt.Errorf("poseidon: input %d is not a field element", i)
		}
	}

	switch {
	case len(inputs) <= maxPoseidonInputs:
		return poseidon.Hash(inputs)
	case len(inputs) <= 2*maxPoseidonInputs:
		left, err := poseidon.Hash(inputs[:maxPoseidonInputs])
		if err != nil {
			return nil, err
		}
		right, err := PoseidonHash(inputs[maxPoseidonInputs:])
		if err != nil {
			return nil, err
		}
		return poseidon.Hash([]*big.Int{left, right})
	default:
		return nil, fmt.Errorf("poseidon: %d inputs exceeds the supported %d", len(inputs), 2*maxPoseidonInputs)
	}
}

// HashASCIIStrToField pads str with NUL bytes to maxSize, packs it into 31-byte big-endian
// chunks and hashes the chunks. Chunks are aligned to the end of the padded string, so only the
// first chunk can be short.
func HashASCIIStrToField(str string, maxSize int) (*big.Int, error) {
	if len(str) > maxSize {
		return nil, fmt.Errorf("string %q is longer than %d chars", str, maxSize)
	}

	padded := make([]byte, maxSize)
	copy(padded, str)

	chunkSize := packWidth / 8
	packed := make([]*big.Int, 0, (maxSize+chunkSize-1)/chunkSize)
	end := maxSize % chunkSize
	if end == 0 {
		end = chunkSize
	}
	for start := 0; start < len(padded); start, end = end, end+chunkSize {
		packed = append(packed, new(big.Int).SetBytes(padded[start:end]))
	}
	return PoseidonHash(packed)
}

// toPaddedBigEndianBytes returns the low width bytes of n, left padded with zeros.
func toPaddedBigEndianBytes(n *big.Int, width int) []byte {
	out := make([]byte, width)
	b := n.Bytes()
	if len(b) > width {
		b = b[len(b)-width:]
	}
	copy(out[width-len(b):], b)
	return out
}

// toBigEndianBytes is toPaddedBigEndianBytes with the leading zero bytes stripped.
func toBigEndianBytes(n *big.Int, width int) []byte {
	padded := toPaddedBigEndianBytes(n, width)
	for i, b := range padded {
		if b != 0 {
			return padded[i:]
		}
	}
	return []byte{0}
}
