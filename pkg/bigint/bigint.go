// Package bigint converts fixed-width big-endian byte buffers to and from unsigned
// decimal strings, the encoding used for signature scalars on the wire.
package bigint

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
)

// DefaultLength is the width of a secp256k1 scalar in bytes
const DefaultLength = 32

// BytesToUint interprets buf as a big-endian unsigned integer and formats it in base 10
func BytesToUint(buf []byte) string {
	return new(big.Int).SetBytes(buf).String()
}

// UintToBytes parses an unsigned base 10 integer and left pads its big-endian
// encoding with zeros to exactly length bytes. Values wider than length are rejected.
func UintToBytes(dec string, length int) ([]byte, error) {
	if length <= 0 {
		return nil, errors.Wrapf(types.ErrEncoding, "invalid buffer length %d", length)
	}
	if dec == "" || strings.HasPrefix(dec, "-") || strings.HasPrefix(dec, "+") {
		return nil, errors.Wrapf(types.ErrEncoding, "not an unsigned decimal integer: %q", dec)
	}
	n, ok := new(big.Int).SetString(dec, 10)
	if !ok {
		return nil, errors.Wrapf(types.ErrEncoding, "not an unsigned decimal integer: %q", dec)
	}
	return pad(n, length)
}

// HexToBytes is the hex counterpart of UintToBytes. An optional 0x prefix is accepted.
func HexToBytes(h string, length int) ([]byte, error) {
	if length <= 0 {
		return nil, errors.Wrapf(types.ErrEncoding, "invalid buffer length %d", length)
	}
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if len(h)%2 == 1 {
		h = "0" + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, errors.Wrap(types.ErrEncoding, err.Error())
	}
	return pad(new(big.Int).SetBytes(raw), length)
}

func pad(n *big.Int, length int) ([]byte, error) {
	if n.BitLen() > length*8 {
		return nil, errors.Wrapf(types.ErrEncoding, "value needs %d bits, buffer holds %d", n.BitLen(), length*8)
	}
	return math.PaddedBigBytes(n, length), nil
}
