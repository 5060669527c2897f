// Package signature converts recoverable secp256k1 signatures between the raw 64 byte
// r||s form understood by curve backends and the portable {v, r, s} wire form.
package signature

import (
	"encoding/hex"
	"strconv"

	"github.com/Layr-Labs/inscription-signer-go/pkg/bigint"
	"github.com/Layr-Labs/inscription-signer-go/pkg/types"
	"github.com/pkg/errors"
)

const (
	// RawLength is the size of an r||s signature
	RawLength = 64

	scalarLength = bigint.DefaultLength
)

// Format selects how r and s are encoded in a Signature
type Format string

const (
	FormatDecimal Format = "decimal"
	FormatHex     Format = "hex"
)

// Signature is the wire form of a recoverable signature. R and S are unsigned 256-bit
// integers in base 10 (or hex when explicitly requested), V is "0" or "1".
type Signature struct {
	V string `json:"v"`
	R string `json:"r"`
	S string `json:"s"`
}

// RecoverableSignature is the raw form handed to curve backends
type RecoverableSignature struct {
	Bytes      [RawLength]byte
	RecoveryID byte
}

// Split encodes a raw r||s signature and its recovery id
func Split(raw []byte, recoveryID byte, format Format) (*Signature, error) {
	if len(raw) != RawLength {
		return nil, errors.Wrapf(types.ErrInvalidSignatureLength, "expected %d bytes, got %d", RawLength, len(raw))
	}
	if recoveryID > 1 {
		return nil, errors.Wrapf(types.ErrInvalidSignatureFormat, "recovery id must be 0 or 1, got %d", recoveryID)
	}

	r, s := raw[:scalarLength], raw[scalarLength:]
	sig := &Signature{V: strconv.Itoa(int(recoveryID))}
	switch format {
	case FormatDecimal, "":
		sig.R = bigint.BytesToUint(r)
		sig.S = bigint.BytesToUint(s)
	case FormatHex:
		sig.R = hex.EncodeToString(r)
		sig.S = hex.EncodeToString(s)
	default:
		return nil, errors.Wrapf(types.ErrInvalidSignatureFormat, "unknown format %q", format)
	}
	return sig, nil
}

// Join is the inverse of Split for decimal encoded signatures
func Join(sig *Signature) (*RecoverableSignature, error) {
	return JoinFormat(sig, FormatDecimal)
}

// JoinFormat decodes a Signature whose r and s use the given format
func JoinFormat(sig *Signature, format Format) (*RecoverableSignature, error) {
	if sig == nil {
		return nil, errors.Wrap(types.ErrInvalidSignatureFormat, "signature is nil")
	}
	if sig.V == "" || sig.R == "" || sig.S == "" {
		return nil, errors.Wrap(types.ErrInvalidSignatureFormat, "v, r and s are required")
	}

	var recoveryID byte
	switch sig.V {
	case "0":
		recoveryID = 0
	case "1":
		recoveryID = 1
	default:
		return nil, errors.Wrapf(types.ErrInvalidSignatureFormat, "v must be \"0\" or \"1\", got %q", sig.V)
	}

	decode := bigint.UintToBytes
	switch format {
	case FormatDecimal, "":
	case FormatHex:
		decode = bigint.HexToBytes
	default:
		return nil, errors.Wrapf(types.ErrInvalidSignatureFormat, "unknown format %q", format)
	}

	r, err := decode(sig.R, scalarLength)
	if err != nil {
		return nil, errors.Wrapf(types.ErrInvalidSignatureFormat, "r: %v", err)
	}
	s, err := decode(sig.S, scalarLength)
	if err != nil {
		return nil, errors.Wrapf(types.ErrInvalidSignatureFormat, "s: %v", err)
	}

	out := &RecoverableSignature{RecoveryID: recoveryID}
	copy(out.Bytes[:scalarLength], r)
	copy(out.Bytes[scalarLength:], s)
	return out, nil
}

// IsZero reports whether both r and s are zero
func (rs *RecoverableSignature) IsZero() bool {
	return rs.Bytes == [RawLength]byte{}
}
